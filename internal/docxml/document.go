// Package docxml parses WordprocessingML markup into an immutable snapshot
// of paragraphs, tables and runs.
//
// The snapshot keeps the raw markup and the byte span of every text node so
// that callers can rewrite individual runs without re-serialising the rest of
// the document.
package docxml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Namespace is the WordprocessingML main namespace.
const Namespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// prefix is accepted in place of Namespace for fragments cut out of a
// document without their xmlns declarations.
const prefix = "w"

// ErrEmptyMarkup is returned when Parse is given no markup at all.
var ErrEmptyMarkup = errors.New("empty markup")

// ParseError reports markup that is not well-formed XML.
type ParseError struct {
	Offset int   // Byte offset where decoding stopped
	Err    error // Underlying decoder error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("offset %d: %v", e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Span is a half-open byte range [Start, End) into the raw markup.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Run is a single w:r element.
type Run struct {
	Index       int    // Position within the owning paragraph's run list
	Text        string // Decoded concatenation of the run's w:t elements
	Superscript bool   // w:rPr/w:vertAlign/@w:val == "superscript"
	Spans       []Span // Raw byte ranges of non-empty w:t contents
}

// TextSpan returns the first non-empty text span of the run.
func (r Run) TextSpan() (Span, bool) {
	if len(r.Spans) == 0 {
		return Span{}, false
	}
	return r.Spans[0], true
}

// Paragraph is a single w:p element.
type Paragraph struct {
	Index int  // Position in Document.Paragraphs
	Span  Span // The whole <w:p>...</w:p> element
	Runs  []Run
}

// Cell is a w:tc element. Paragraphs of nested tables are included.
type Cell struct {
	Paragraphs []*Paragraph
}

// Row is a w:tr element.
type Row struct {
	Cells []*Cell
}

// Table is a physical w:tbl element.
type Table struct {
	Rows []*Row
}

// BlockKind distinguishes top-level body elements.
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockTable
)

// Block is a top-level element of the document body.
type Block struct {
	Kind      BlockKind
	Paragraph *Paragraph // Set when Kind == BlockParagraph
	Table     *Table     // Set when Kind == BlockTable
}

// Document is an immutable parsed snapshot of a markup string.
type Document struct {
	raw string

	// Blocks are the top-level paragraphs and tables in document order.
	Blocks []Block

	// Paragraphs lists every paragraph in document order, including those
	// inside table cells and text boxes.
	Paragraphs []*Paragraph
}

// Raw returns the markup the snapshot was parsed from.
func (d *Document) Raw() string {
	return d.raw
}

// frame tracks one open paragraph while decoding.
type frame struct {
	para   *Paragraph
	run    *Run
	tStart int
	text   strings.Builder
}

// Parse decodes markup into a Document. Any well-formedness error fails the
// whole parse.
func Parse(markup string) (*Document, error) {
	if strings.TrimSpace(markup) == "" {
		return nil, ErrEmptyMarkup
	}

	doc := &Document{raw: markup}
	dec := xml.NewDecoder(strings.NewReader(markup))

	var (
		stack  []xml.Name
		frames []*frame
		tables []*Table
	)

	top := func() *frame {
		if len(frames) == 0 {
			return nil
		}
		return frames[len(frames)-1]
	}
	// ancestorIs reports whether the element n levels above the current
	// one is the given w: element.
	ancestorIs := func(n int, local string) bool {
		if len(stack) < n+1 {
			return false
		}
		return isWord(stack[len(stack)-1-n], local)
	}
	parentIs := func(local string) bool {
		return ancestorIs(1, local)
	}

	for {
		before := int(dec.InputOffset())
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Offset: int(dec.InputOffset()), Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, t.Name)
			if !isWordSpace(t.Name) {
				continue
			}
			f := top()

			switch t.Name.Local {
			case "p":
				p := &Paragraph{Index: len(doc.Paragraphs), Span: Span{Start: before}}
				doc.Paragraphs = append(doc.Paragraphs, p)
				if len(frames) == 0 && len(tables) == 0 {
					doc.Blocks = append(doc.Blocks, Block{Kind: BlockParagraph, Paragraph: p})
				}
				for _, tbl := range tables {
					if c := currentCell(tbl); c != nil {
						c.Paragraphs = append(c.Paragraphs, p)
					}
				}
				frames = append(frames, &frame{para: p, tStart: -1})

			case "r":
				if f != nil && f.run == nil {
					f.run = &Run{Index: len(f.para.Runs)}
				}

			case "vertAlign":
				if f != nil && f.run != nil && parentIs("rPr") && ancestorIs(2, "r") {
					f.run.Superscript = attrValue(t.Attr, "val") == "superscript"
				}

			case "t":
				if f != nil && f.run != nil && parentIs("r") {
					f.tStart = int(dec.InputOffset())
					f.text.Reset()
				}

			case "tbl":
				tbl := &Table{}
				if len(frames) == 0 && len(tables) == 0 {
					doc.Blocks = append(doc.Blocks, Block{Kind: BlockTable, Table: tbl})
				}
				tables = append(tables, tbl)

			case "tr":
				if n := len(tables); n > 0 {
					tables[n-1].Rows = append(tables[n-1].Rows, &Row{})
				}

			case "tc":
				if n := len(tables); n > 0 {
					tbl := tables[n-1]
					if len(tbl.Rows) == 0 {
						tbl.Rows = append(tbl.Rows, &Row{})
					}
					row := tbl.Rows[len(tbl.Rows)-1]
					row.Cells = append(row.Cells, &Cell{})
				}
			}

		case xml.CharData:
			if f := top(); f != nil && f.tStart >= 0 {
				f.text.Write(t)
			}

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			if !isWordSpace(t.Name) {
				continue
			}
			f := top()

			switch t.Name.Local {
			case "t":
				if f != nil && f.tStart >= 0 {
					if before > f.tStart {
						f.run.Spans = append(f.run.Spans, Span{Start: f.tStart, End: before})
					}
					f.run.Text += f.text.String()
					f.tStart = -1
				}

			case "r":
				if f != nil && f.run != nil {
					f.para.Runs = append(f.para.Runs, *f.run)
					f.run = nil
				}

			case "p":
				if f != nil {
					f.para.Span.End = int(dec.InputOffset())
					frames = frames[:len(frames)-1]
				}

			case "tbl":
				if n := len(tables); n > 0 {
					tables = tables[:n-1]
				}
			}
		}
	}

	return doc, nil
}

// currentCell returns the cell being filled in tbl, or nil.
func currentCell(tbl *Table) *Cell {
	if len(tbl.Rows) == 0 {
		return nil
	}
	row := tbl.Rows[len(tbl.Rows)-1]
	if len(row.Cells) == 0 {
		return nil
	}
	return row.Cells[len(row.Cells)-1]
}

func isWordSpace(n xml.Name) bool {
	return n.Space == Namespace || n.Space == prefix
}

func isWord(n xml.Name, local string) bool {
	return isWordSpace(n) && n.Local == local
}

func attrValue(attrs []xml.Attr, local string) string {
	for _, a := range attrs {
		if a.Name.Local == local && (isWordSpace(a.Name) || a.Name.Space == "") {
			return a.Value
		}
	}
	return ""
}
