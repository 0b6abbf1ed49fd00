package extract

import (
	"sort"
	"unicode/utf8"

	"github.com/matsen/citefix/internal/citation"
	"github.com/matsen/citefix/internal/docxml"
)

// contextRunes is how much text before a marker is kept for review.
const contextRunes = 30

// Location is one citation marker in the document. The marker occupies runs
// StartRun..EndRun of paragraph Paragraph.
type Location struct {
	Paragraph int    `json:"paragraph"`
	StartRun  int    `json:"start_run"`
	EndRun    int    `json:"end_run"`
	Text      string `json:"text"`    // Raw marker text, e.g. "3,5-7"
	Context   string `json:"context"` // Text just before the marker
}

// Locate finds every citation marker using the same grouping and
// classification as citation.Classify, over the same scopes as Paragraphs
// and Tables. Bibliography paragraphs are skipped.
// Locations are ordered by paragraph and run.
func Locate(doc *docxml.Document, authors citation.Authors) []Location {
	// Each scope is classified as a unit: a cell of a labelled table, or
	// any other paragraph, including those of unlabelled tables.
	var scopes [][]docxml.Token

	groups := GroupTables(doc)
	grouped := groupedParagraphs(groups)
	inTable := cellParagraphs(doc)
	for _, p := range doc.Paragraphs {
		if grouped[p.Index] {
			continue
		}
		if !inTable[p.Index] && IsBibliographyEntry(p.Text()) {
			continue
		}
		scopes = append(scopes, p.Tokens())
	}
	for _, g := range groups {
		for _, tbl := range g.Tables {
			for _, row := range tbl.Rows {
				for _, cell := range row.Cells {
					scopes = append(scopes, cell.Tokens())
				}
			}
		}
	}

	var locs []Location
	for _, tokens := range scopes {
		for _, g := range citation.Groups(tokens, authors) {
			if g.Verdict != citation.Citation {
				continue
			}
			first, last := tokens[g.First], tokens[g.Last]
			// Markers spanning two paragraphs of a cell cannot be rewritten
			// in place.
			if last.Paragraph != first.Paragraph {
				continue
			}
			locs = append(locs, Location{
				Paragraph: first.Paragraph,
				StartRun:  first.Run,
				EndRun:    last.Run,
				Text:      g.Raw,
				Context:   tail(g.Context, contextRunes),
			})
		}
	}

	sort.SliceStable(locs, func(i, j int) bool {
		if locs[i].Paragraph != locs[j].Paragraph {
			return locs[i].Paragraph < locs[j].Paragraph
		}
		return locs[i].StartRun < locs[j].StartRun
	})
	return locs
}

// tail returns the last n runes of s.
func tail(s string, n int) string {
	count := utf8.RuneCountInString(s)
	if count <= n {
		return s
	}
	i := 0
	for skip := count - n; skip > 0; skip-- {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[i:]
}
