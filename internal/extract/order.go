package extract

import (
	"github.com/matsen/citefix/internal/citation"
)

// CanonicalOrder lists every citation number in the order a reader first
// meets it, with each table's citations inlined where the table is
// referenced. References to unknown tables contribute nothing.
func CanonicalOrder(tables map[string][]string, paragraphs []ParagraphRecord) []int {
	var (
		order []int
		seen  = make(map[int]bool)
	)
	add := func(cite string) {
		for _, n := range citation.Expand(cite) {
			if !seen[n] {
				seen[n] = true
				order = append(order, n)
			}
		}
	}

	for _, p := range paragraphs {
		for _, cite := range p.Citations {
			label, isTable := citation.TableLabel(cite)
			if !isTable {
				add(cite)
				continue
			}
			for _, inner := range tables[label] {
				add(inner)
			}
		}
	}

	return order
}

// ConversionTable maps each number in order to its 1-based position, for
// the numbers whose position differs from their value.
func ConversionTable(order []int) map[int]int {
	conv := make(map[int]int)
	for i, n := range order {
		if n != i+1 {
			conv[n] = i + 1
		}
	}
	return conv
}
