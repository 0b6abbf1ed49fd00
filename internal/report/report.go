// Package report renders extraction results and modification plans as
// Markdown, optionally converted to HTML.
package report

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/matsen/citefix/internal/dedupe"
	"github.com/matsen/citefix/internal/extract"
	"github.com/matsen/citefix/internal/plan"
)

// Paragraphs writes one section per paragraph record, headed by its first
// words, listing its citations in order of appearance.
func Paragraphs(w io.Writer, records []extract.ParagraphRecord) error {
	lines := []string{"# Citation Extraction by Paragraph\n"}

	for i, rec := range records {
		lines = append(lines, fmt.Sprintf("## %d. %s...", i+1, rec.Heading), "")
		for j, cite := range rec.Citations {
			lines = append(lines, fmt.Sprintf("- %d. %s", j+1, cite))
		}
		lines = append(lines, "")
	}

	_, err := io.WriteString(w, strings.Join(lines, "\n"))
	return err
}

// Plan writes a review table of every marker that changes, followed by the
// duplicate references and the bibliography edits.
func Plan(w io.Writer, p plan.Plan, dups dedupe.Map, refs []plan.RefEdit) error {
	var b strings.Builder
	b.WriteString("# Citation Renumbering Plan\n\n")

	counts := p.Counts()
	fmt.Fprintf(&b, "%d markers: ", len(p.Entries))
	var parts []string
	for _, c := range []plan.Change{plan.Unchanged, plan.Renumbered, plan.Reformatted, plan.Merged, plan.Duplicate, plan.Removed} {
		if counts[c] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[c], c))
		}
	}
	b.WriteString(strings.Join(parts, ", "))
	b.WriteString("\n\n")

	changed := 0
	for _, e := range p.Entries {
		if e.Change == plan.Unchanged {
			continue
		}
		if changed == 0 {
			b.WriteString("## Markers\n\n")
			b.WriteString("| Paragraph | Context | Old | New | Change |\n")
			b.WriteString("|---|---|---|---|---|\n")
		}
		changed++
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
			e.Paragraph+1, cell("…"+e.Context), cell(e.Text), cell(e.Replacement), e.Change)
	}
	if changed > 0 {
		b.WriteString("\n")
	}

	if len(dups) > 0 {
		b.WriteString("## Duplicate references\n\n")
		for _, n := range dups.Numbers() {
			fmt.Fprintf(&b, "- %d duplicates %d\n", n, dups[n])
		}
		b.WriteString("\n")
	}

	if len(refs) > 0 {
		b.WriteString("## Bibliography\n\n")
		for _, re := range refs {
			switch {
			case re.Remove:
				fmt.Fprintf(&b, "- remove entry %d (now cited as %d)\n", re.Old, re.New)
			case re.Old == re.New:
				fmt.Fprintf(&b, "- move entry %d\n", re.Old)
			default:
				fmt.Fprintf(&b, "- entry %d becomes %d\n", re.Old, re.New)
			}
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// cell escapes text for a Markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

// HTML converts Markdown to a standalone HTML page.
func HTML(w io.Writer, title string, markdown []byte) error {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
		),
	)

	var buf bytes.Buffer
	if err := md.Convert(markdown, &buf); err != nil {
		return fmt.Errorf("rendering markdown: %w", err)
	}

	_, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n%s</body>\n</html>\n",
		html.EscapeString(title), buf.String())
	return err
}
