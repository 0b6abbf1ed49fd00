package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/matsen/citefix/internal/citation"
	"github.com/matsen/citefix/internal/docxml"
)

// DefaultMinParagraphLength is the shortest trimmed text that can qualify
// as a citation-bearing paragraph.
const DefaultMinParagraphLength = 30

// headingWords is the number of leading words kept as a display heading.
const headingWords = 3

var (
	// bibliographyPattern matches a reference-list line such as "12. Smith J".
	bibliographyPattern = regexp.MustCompile(`^\d+\.\s`)

	// tableRefPattern matches in-text references such as "Table II".
	tableRefPattern = regexp.MustCompile(`\b[Tt]ables?\s+([IVXivx]+)\b`)
)

// ParagraphRecord is a paragraph that carries at least one citation.
type ParagraphRecord struct {
	Index     int      `json:"index"`   // Document paragraph index
	Heading   string   `json:"heading"` // First three words
	Text      string   `json:"text"`    // Trimmed regular text
	Citations []string `json:"citations"`
}

// IsBibliographyEntry reports whether text is a reference-list line.
func IsBibliographyEntry(text string) bool {
	return bibliographyPattern.MatchString(strings.TrimSpace(text))
}

// TableRefs returns a "Table R" citation string for every table reference
// in text, in order.
func TableRefs(text string) []string {
	var out []string
	for _, m := range tableRefPattern.FindAllStringSubmatch(text, -1) {
		if citation.IsRomanNumeral(m[1]) {
			out = append(out, citation.TableRef(m[1]))
		}
	}
	return out
}

// Heading returns the first three whitespace-separated words of text.
func Heading(text string) string {
	words := strings.Fields(text)
	if len(words) > headingWords {
		words = words[:headingWords]
	}
	return strings.Join(words, " ")
}

// Paragraphs returns the citation-bearing paragraphs of doc in document
// order. Paragraphs inside labelled tables are left to the table groups;
// paragraphs of unlabelled tables are read like body text. A paragraph
// qualifies when its trimmed text has at least minLen characters
// (DefaultMinParagraphLength if minLen <= 0), it has a citation or table
// reference, and it is not a bibliography entry.
func Paragraphs(doc *docxml.Document, authors citation.Authors, minLen int) []ParagraphRecord {
	if minLen <= 0 {
		minLen = DefaultMinParagraphLength
	}
	grouped := groupedParagraphs(GroupTables(doc))
	inTable := cellParagraphs(doc)

	var records []ParagraphRecord
	for _, p := range doc.Paragraphs {
		if grouped[p.Index] {
			continue
		}

		regular := p.Text()
		text := strings.TrimSpace(regular)
		if utf8.RuneCountInString(text) < minLen {
			continue
		}
		if !inTable[p.Index] && IsBibliographyEntry(text) {
			continue
		}

		cites := citation.Classify(p.Tokens(), authors)
		cites = append(cites, TableRefs(regular)...)
		if len(cites) == 0 {
			continue
		}

		records = append(records, ParagraphRecord{
			Index:     p.Index,
			Heading:   Heading(text),
			Text:      text,
			Citations: cites,
		})
	}

	return records
}
