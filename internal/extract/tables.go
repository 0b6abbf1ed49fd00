// Package extract pulls citation data out of a parsed document: logical
// tables, citation-bearing paragraphs, bibliography entries, the canonical
// reading order, and the physical location of every citation marker.
package extract

import (
	"regexp"
	"strings"

	"github.com/matsen/citefix/internal/citation"
	"github.com/matsen/citefix/internal/docxml"
)

// tableLabelPattern matches a caption such as "TABLE II" or "Table iv.".
var tableLabelPattern = regexp.MustCompile(`(?i)^\s*table\s+([ivx]+)\b`)

// TableGroup is a logical table: every physical table that follows one
// Roman-numeral label, up to the next label.
type TableGroup struct {
	Label  string
	Tables []*docxml.Table
}

// Citations returns the group's citation strings row by row, cell by cell.
// Each cell is classified as its own scope. Repeats are kept.
func (g *TableGroup) Citations(authors citation.Authors) []string {
	var out []string
	for _, tbl := range g.Tables {
		for _, row := range tbl.Rows {
			for _, cell := range row.Cells {
				out = append(out, citation.Classify(cell.Tokens(), authors)...)
			}
		}
	}
	return out
}

// TableLabel returns the Roman numeral of a table caption paragraph.
func TableLabel(text string) (string, bool) {
	m := tableLabelPattern.FindStringSubmatch(text)
	if m == nil || !citation.IsRomanNumeral(m[1]) {
		return "", false
	}
	return strings.ToUpper(m[1]), true
}

// GroupTables walks the top-level body once and assigns each physical table
// to the most recent label. Tables before any label are ignored. Groups are
// returned in the order their labels first appear.
func GroupTables(doc *docxml.Document) []*TableGroup {
	var (
		groups  []*TableGroup
		byLabel = make(map[string]*TableGroup)
		current *TableGroup
	)

	for _, b := range doc.Blocks {
		switch b.Kind {
		case docxml.BlockParagraph:
			label, ok := TableLabel(b.Paragraph.FullText())
			if !ok {
				continue
			}
			g, exists := byLabel[label]
			if !exists {
				g = &TableGroup{Label: label}
				byLabel[label] = g
				groups = append(groups, g)
			}
			current = g

		case docxml.BlockTable:
			if current != nil {
				current.Tables = append(current.Tables, b.Table)
			}
		}
	}

	return groups
}

// Tables maps each table label to its citation strings.
func Tables(doc *docxml.Document, authors citation.Authors) map[string][]string {
	out := make(map[string][]string)
	for _, g := range GroupTables(doc) {
		out[g.Label] = g.Citations(authors)
	}
	return out
}

// cellParagraphs returns the indices of paragraphs that live in a table.
func cellParagraphs(doc *docxml.Document) map[int]bool {
	owned := make(map[int]bool)
	for _, b := range doc.Blocks {
		if b.Kind == docxml.BlockTable {
			addTable(owned, b.Table)
		}
	}
	return owned
}

// groupedParagraphs returns the indices of paragraphs in tables that belong
// to a labelled group. Those are read through the group, cell by cell.
func groupedParagraphs(groups []*TableGroup) map[int]bool {
	owned := make(map[int]bool)
	for _, g := range groups {
		for _, tbl := range g.Tables {
			addTable(owned, tbl)
		}
	}
	return owned
}

func addTable(owned map[int]bool, tbl *docxml.Table) {
	for _, row := range tbl.Rows {
		for _, cell := range row.Cells {
			for _, p := range cell.Paragraphs {
				owned[p.Index] = true
			}
		}
	}
}
