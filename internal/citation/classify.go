package citation

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/matsen/citefix/internal/docxml"
	"golang.org/x/text/unicode/norm"
)

// maxElementSymbolLen is the longest word that can follow a superscript and
// still be read as a chemical element symbol ("129Xe", "3He").
const maxElementSymbolLen = 2

// Verdict is the classification of one merged superscript group.
type Verdict int

const (
	// Unclassified groups are neither citations nor isotope notation:
	// superscripts before any regular text, or text that does not parse as
	// citation numbers.
	Unclassified Verdict = iota
	// Citation groups are citation markers.
	Citation
	// Isotope groups prefix a short element symbol.
	Isotope
)

func (v Verdict) String() string {
	switch v {
	case Citation:
		return "citation"
	case Isotope:
		return "isotope"
	default:
		return "unclassified"
	}
}

// Authors is a set of author surnames that may legitimately follow a
// citation marker even though they are as short as an element symbol.
// Matching is exact after NFC normalisation. A nil set is empty.
type Authors map[string]struct{}

// NewAuthors builds an Authors set.
func NewAuthors(names ...string) Authors {
	a := make(Authors, len(names))
	for _, n := range names {
		a.Add(n)
	}
	return a
}

// Add inserts name into the set.
func (a Authors) Add(name string) {
	if name = strings.TrimSpace(name); name != "" {
		a[norm.NFC.String(name)] = struct{}{}
	}
}

// Contains reports whether name is in the set.
func (a Authors) Contains(name string) bool {
	if len(a) == 0 {
		return false
	}
	_, ok := a[norm.NFC.String(name)]
	return ok
}

// FirstWord returns the leading run of letters of s.
func FirstWord(s string) string {
	for i, r := range s {
		if !unicode.IsLetter(r) {
			return s[:i]
		}
	}
	return s
}

// IsLeftSideSuperscript reports whether a superscript followed by next is
// left-side notation such as "129Xe": next starts with a letter and its
// first word is at most two letters long and not a known author.
func IsLeftSideSuperscript(next string, authors Authors) bool {
	r, _ := utf8.DecodeRuneInString(next)
	if next == "" || !unicode.IsLetter(r) {
		return false
	}
	word := FirstWord(next)
	if utf8.RuneCountInString(word) > maxElementSymbolLen {
		return false
	}
	return !authors.Contains(word)
}

// ClassifyGroup decides what a merged superscript group is. seenText tells
// whether regular text preceded the group in its scope; next is the text of
// the first regular token after it.
func ClassifyGroup(raw string, seenText bool, next string, authors Authors) Verdict {
	if IsLeftSideSuperscript(next, authors) {
		return Isotope
	}
	if !seenText || len(Parse(raw)) == 0 {
		return Unclassified
	}
	return Citation
}

// Group is a maximal sequence of adjacent superscript tokens.
type Group struct {
	Raw     string  // Concatenated superscript text
	First   int     // Index of the first token in the scanned slice
	Last    int     // Index of the last token in the scanned slice
	Next    string  // Text of the regular token after the group, if any
	Context string  // Text of all tokens before the group
	Verdict Verdict // Classification of the group
}

// Groups scans tokens left to right, merges adjacent superscript tokens and
// classifies each merged group. The tokens form one scope: a paragraph or a
// table cell.
func Groups(tokens []docxml.Token, authors Authors) []Group {
	var (
		groups   []Group
		seenText bool
		before   strings.Builder
	)

	for i := 0; i < len(tokens); {
		tok := tokens[i]
		if !tok.Superscript {
			if tok.Text != "" {
				seenText = true
			}
			before.WriteString(tok.Text)
			i++
			continue
		}

		var raw strings.Builder
		j := i
		for j < len(tokens) && tokens[j].Superscript {
			raw.WriteString(tokens[j].Text)
			j++
		}

		g := Group{
			Raw:     raw.String(),
			First:   i,
			Last:    j - 1,
			Context: before.String(),
		}
		if j < len(tokens) {
			g.Next = tokens[j].Text
		}
		g.Verdict = ClassifyGroup(g.Raw, seenText, g.Next, authors)
		groups = append(groups, g)

		before.WriteString(g.Raw)
		i = j
	}

	return groups
}

// Classify returns the canonical citation strings of every citation group in
// tokens, in order.
func Classify(tokens []docxml.Token, authors Authors) []string {
	var out []string
	for _, g := range Groups(tokens, authors) {
		if g.Verdict == Citation {
			out = append(out, Parse(g.Raw)...)
		}
	}
	return out
}
