package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/matsen/citefix/internal/citation"
	"github.com/matsen/citefix/internal/docxml"
)

var (
	// referencePattern splits "12. Smith J. Title" into number and text.
	referencePattern = regexp.MustCompile(`(?s)^(\d+)\.\s+(.*)$`)

	// authorPattern matches a surname followed by initials and a separator,
	// as in "Li X," or "Smith JA.".
	authorPattern = regexp.MustCompile(`(\p{Lu}[\p{L}'’\-]*)\s+\p{Lu}{1,3}[.,]`)
)

// Reference is one numbered bibliography entry.
type Reference struct {
	Number    int    `json:"number"`
	Text      string `json:"text"`
	Paragraph int    `json:"paragraph"`
}

// Bibliography returns the numbered reference-list entries in document
// order. Paragraphs inside tables are never entries. If a number appears
// twice the first entry wins.
func Bibliography(doc *docxml.Document) []Reference {
	var (
		refs    []Reference
		seen    = make(map[int]bool)
		inTable = cellParagraphs(doc)
	)
	for _, p := range doc.Paragraphs {
		if inTable[p.Index] {
			continue
		}
		m := referencePattern.FindStringSubmatch(strings.TrimSpace(p.Text()))
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 || seen[n] {
			continue
		}
		seen[n] = true
		refs = append(refs, Reference{Number: n, Text: strings.TrimSpace(m[2]), Paragraph: p.Index})
	}
	return refs
}

// References maps each bibliography number to its text.
func References(doc *docxml.Document) map[int]string {
	out := make(map[int]string)
	for _, r := range Bibliography(doc) {
		out[r.Number] = r.Text
	}
	return out
}

// MaxReference returns the highest bibliography number, or 0.
func MaxReference(refs map[int]string) int {
	highest := 0
	for n := range refs {
		if n > highest {
			highest = n
		}
	}
	return highest
}

// AuthorNames collects author surnames from bibliography texts. The result
// is used as the whitelist that stops short surnames such as "Li" from
// being read as element symbols.
func AuthorNames(refs map[int]string) citation.Authors {
	authors := citation.NewAuthors()
	for _, text := range refs {
		for _, m := range authorPattern.FindAllStringSubmatch(text, -1) {
			authors.Add(m[1])
		}
	}
	return authors
}
