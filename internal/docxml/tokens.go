package docxml

import (
	"strings"
)

// Token is the text of one run together with its superscript flag.
type Token struct {
	Text        string
	Superscript bool
	Paragraph   int // Document.Paragraphs index of the owning paragraph
	Run         int // Run.Index within that paragraph
}

// Tokens returns one token per run that carries text, in document order.
func (p *Paragraph) Tokens() []Token {
	var tokens []Token
	for _, r := range p.Runs {
		if r.Text == "" {
			continue
		}
		tokens = append(tokens, Token{
			Text:        r.Text,
			Superscript: r.Superscript,
			Paragraph:   p.Index,
			Run:         r.Index,
		})
	}
	return tokens
}

// Text returns the paragraph's regular (non-superscript) text.
func (p *Paragraph) Text() string {
	var b strings.Builder
	for _, r := range p.Runs {
		if !r.Superscript {
			b.WriteString(r.Text)
		}
	}
	return b.String()
}

// FullText returns the text of every run, superscripts included.
func (p *Paragraph) FullText() string {
	var b strings.Builder
	for _, r := range p.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// Tokens returns the tokens of every paragraph in the cell.
func (c *Cell) Tokens() []Token {
	var tokens []Token
	for _, p := range c.Paragraphs {
		tokens = append(tokens, p.Tokens()...)
	}
	return tokens
}

// Tokenize parses a markup fragment (a paragraph, a table cell, or any
// element containing them) and returns its run tokens in document order.
func Tokenize(fragment string) ([]Token, error) {
	doc, err := Parse(fragment)
	if err != nil {
		return nil, err
	}

	var tokens []Token
	for _, p := range doc.Paragraphs {
		tokens = append(tokens, p.Tokens()...)
	}
	return tokens, nil
}
