package docxml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"
	"strings"
)

// Edit replaces the bytes of Span with Text. Text is inserted verbatim and
// must already be escaped.
type Edit struct {
	Span Span
	Text string
}

// Splice applies non-overlapping edits to the raw markup and returns the
// result. Bytes outside the edited spans are copied unchanged.
func (d *Document) Splice(edits []Edit) (string, error) {
	return splice(d.raw, 0, edits)
}

// SpliceWithin is Splice restricted to the markup covered by s. Edits use
// document offsets and must fall inside s.
func (d *Document) SpliceWithin(s Span, edits []Edit) (string, error) {
	if s.Start < 0 || s.End < s.Start || s.End > len(d.raw) {
		return "", fmt.Errorf("span [%d,%d) is out of range", s.Start, s.End)
	}
	return splice(d.raw[s.Start:s.End], s.Start, edits)
}

func splice(raw string, base int, edits []Edit) (string, error) {
	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Span.Start < sorted[j].Span.Start
	})

	var b strings.Builder
	b.Grow(len(raw))
	pos := 0
	for _, e := range sorted {
		start, end := e.Span.Start-base, e.Span.End-base
		if start < pos || end < start || end > len(raw) {
			return "", fmt.Errorf("edit [%d,%d) overlaps or is out of range", e.Span.Start, e.Span.End)
		}
		b.WriteString(raw[pos:start])
		b.WriteString(e.Text)
		pos = end
	}
	b.WriteString(raw[pos:])

	return b.String(), nil
}

// Slice returns the raw markup covered by s.
func (d *Document) Slice(s Span) string {
	return d.raw[s.Start:s.End]
}

// EscapeText escapes s for use as w:t character data.
func EscapeText(s string) string {
	var buf bytes.Buffer
	// EscapeText only fails when the writer does.
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
