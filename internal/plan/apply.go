package plan

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/matsen/citefix/internal/docxml"
)

// ErrNoNumberPrefix is returned when a bibliography paragraph to renumber
// does not start with a number.
var ErrNoNumberPrefix = errors.New("paragraph has no number prefix")

// Apply writes the plan and the bibliography edits into the document and
// returns the new markup. The replacement text of a marker goes into the
// first text span of its run range and every other span in the range is
// emptied, so run formatting survives. The snapshot is not modified.
func Apply(doc *docxml.Document, p Plan, refs []RefEdit) (string, error) {
	var edits []docxml.Edit

	for _, e := range p.Entries {
		if !e.Writes() {
			continue
		}
		para, err := paragraph(doc, e.Paragraph)
		if err != nil {
			return "", err
		}
		if e.StartRun < 0 || e.EndRun >= len(para.Runs) || e.StartRun > e.EndRun {
			return "", fmt.Errorf("paragraph %d: run range %d-%d out of range", e.Paragraph, e.StartRun, e.EndRun)
		}

		text := docxml.EscapeText(e.Replacement)
		written := false
		for _, r := range para.Runs[e.StartRun : e.EndRun+1] {
			for _, span := range r.Spans {
				edits = append(edits, docxml.Edit{Span: span, Text: text})
				text = ""
				written = true
			}
		}
		if !written {
			return "", fmt.Errorf("paragraph %d: marker %q has no text to replace", e.Paragraph, e.Text)
		}
	}

	for _, re := range refs {
		slot, err := paragraph(doc, re.Paragraph)
		if err != nil {
			return "", err
		}

		switch {
		case re.Remove:
			edits = append(edits, docxml.Edit{Span: slot.Span})

		case re.Source == re.Paragraph:
			prefix, err := prefixEdits(doc, slot, re.New)
			if err != nil {
				return "", fmt.Errorf("paragraph %d: %w", slot.Index, err)
			}
			edits = append(edits, prefix...)

		default:
			src, err := paragraph(doc, re.Source)
			if err != nil {
				return "", err
			}
			prefix, err := prefixEdits(doc, src, re.New)
			if err != nil {
				return "", fmt.Errorf("paragraph %d: %w", src.Index, err)
			}
			moved, err := doc.SpliceWithin(src.Span, prefix)
			if err != nil {
				return "", fmt.Errorf("moving paragraph %d: %w", src.Index, err)
			}
			edits = append(edits, docxml.Edit{Span: slot.Span, Text: moved})
		}
	}

	out, err := doc.Splice(edits)
	if err != nil {
		return "", fmt.Errorf("applying plan: %w", err)
	}
	return out, nil
}

func paragraph(doc *docxml.Document, idx int) (*docxml.Paragraph, error) {
	if idx < 0 || idx >= len(doc.Paragraphs) {
		return nil, fmt.Errorf("paragraph %d out of range", idx)
	}
	return doc.Paragraphs[idx], nil
}

// prefixEdits replaces the leading digits of a paragraph with n. The digits
// may be split over several runs; the first piece takes the new number and
// the rest are emptied.
func prefixEdits(doc *docxml.Document, p *docxml.Paragraph, n int) ([]docxml.Edit, error) {
	var edits []docxml.Edit
	started := false
	for _, r := range p.Runs {
		if r.Superscript {
			continue
		}
		for _, span := range r.Spans {
			raw := doc.Slice(span)
			i := 0
			if !started {
				i = len(raw) - len(strings.TrimLeft(raw, " \t\r\n"))
			}
			j := i
			for j < len(raw) && raw[j] >= '0' && raw[j] <= '9' {
				j++
			}
			if j > i {
				text := ""
				if !started {
					text = strconv.Itoa(n)
					started = true
				}
				edits = append(edits, docxml.Edit{
					Span: docxml.Span{Start: span.Start + i, End: span.Start + j},
					Text: text,
				})
			}
			if j < len(raw) {
				if !started {
					return nil, ErrNoNumberPrefix
				}
				return edits, nil
			}
		}
	}
	if !started {
		return nil, ErrNoNumberPrefix
	}
	return edits, nil
}
