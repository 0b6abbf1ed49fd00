// Package docxmltest builds small WordprocessingML documents for tests.
package docxmltest

import (
	"strings"

	"github.com/matsen/citefix/internal/docxml"
)

// R is a plain run.
func R(text string) string {
	return `<w:r><w:t xml:space="preserve">` + docxml.EscapeText(text) + `</w:t></w:r>`
}

// Sup is a superscript run.
func Sup(text string) string {
	return `<w:r><w:rPr><w:vertAlign w:val="superscript"/></w:rPr><w:t>` + docxml.EscapeText(text) + `</w:t></w:r>`
}

// P wraps runs in a paragraph.
func P(runs ...string) string {
	return "<w:p>" + strings.Join(runs, "") + "</w:p>"
}

// Cell wraps paragraphs in a table cell.
func Cell(paras ...string) string {
	return "<w:tc>" + strings.Join(paras, "") + "</w:tc>"
}

// Row wraps cells in a table row.
func Row(cells ...string) string {
	return "<w:tr>" + strings.Join(cells, "") + "</w:tr>"
}

// Table wraps rows in a table.
func Table(rows ...string) string {
	return "<w:tbl>" + strings.Join(rows, "") + "</w:tbl>"
}

// Doc wraps body blocks in a complete document.
func Doc(blocks ...string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="` + docxml.Namespace + `"><w:body>` +
		strings.Join(blocks, "") +
		`</w:body></w:document>`
}
