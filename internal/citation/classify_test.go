package citation

import (
	"reflect"
	"testing"

	"github.com/matsen/citefix/internal/docxml"
)

func toks(parts ...any) []docxml.Token {
	// Alternating (text, superscript) pairs.
	var out []docxml.Token
	for i := 0; i+1 < len(parts); i += 2 {
		out = append(out, docxml.Token{
			Text:        parts[i].(string),
			Superscript: parts[i+1].(bool),
			Run:         i / 2,
		})
	}
	return out
}

func TestIsLeftSideSuperscript(t *testing.T) {
	tests := []struct {
		name    string
		next    string
		authors Authors
		want    bool
	}{
		{"element symbol", "Xe MRI", nil, true},
		{"one letter symbol", "H nuclei", nil, true},
		{"symbol at end", "He", nil, true},
		{"whitelisted author", "Li et al", NewAuthors("Li"), false},
		{"author not whitelisted", "Li et al", nil, true},
		{"long word", "Jones reported", nil, false},
		{"leading space", " Jones", nil, false},
		{"punctuation", ". Next", nil, false},
		{"empty", "", nil, false},
		{"digit", "3 more", nil, false},
		{"case sensitive whitelist", "LI", NewAuthors("Li"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsLeftSideSuperscript(tt.next, tt.authors); got != tt.want {
				t.Errorf("IsLeftSideSuperscript(%q) = %v, want %v", tt.next, got, tt.want)
			}
		})
	}
}

func TestAuthors_NFC(t *testing.T) {
	a := NewAuthors("D\u00fc")
	if !a.Contains("Du\u0308") {
		t.Error("expected decomposed form to match composed entry")
	}
	if a.Contains("Du") {
		t.Error("match must be diacritic-sensitive")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		tokens  []docxml.Token
		authors Authors
		want    []string
	}{
		{
			name:   "simple citation",
			tokens: toks("Hyperpolarized gas MRI", false, "1", true, " is used.", false),
			want:   []string{"Citation 1"},
		},
		{
			name:   "split runs merged",
			tokens: toks("Text", false, "1", true, ",", true, "2", true, ".", false),
			want:   []string{"Citations 1, 2"},
		},
		{
			name:   "isotope discarded",
			tokens: toks("Imaging with ", false, "129", true, "Xe MRI", false),
			want:   nil,
		},
		{
			name:   "citation before long name",
			tokens: toks("As shown", false, "10", true, "Jones found", false),
			want:   []string{"Citation 10"},
		},
		{
			name:    "whitelisted short author",
			tokens:  toks("Reported", false, "4", true, "Li et al", false),
			authors: NewAuthors("Li"),
			want:    []string{"Citation 4"},
		},
		{
			name:   "leading superscript discarded",
			tokens: toks("3", true, " more text", false, "5", true),
			want:   []string{"Citation 5"},
		},
		{
			name:   "whitespace run counts as text",
			tokens: toks(" ", false, "3", true, " showed effects", false),
			want:   []string{"Citation 3"},
		},
		{
			name:   "empty run is not text",
			tokens: toks("", false, "3", true, " showed effects", false),
			want:   nil,
		},
		{
			name:   "unparseable superscript",
			tokens: toks("Value", false, "a", true, " b", false, "2-4", true),
			want:   []string{"Citations 2-4"},
		},
		{
			name:   "trailing citation without next token",
			tokens: toks("End of sentence.", false, "7,9", true),
			want:   []string{"Citations 7, 9"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.tokens, tt.authors)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGroups_Verdicts(t *testing.T) {
	tokens := toks("2", true, "Gas", false, "129", true, "Xe", false, "3", true, ", ", true, "4", true, " done", false)

	groups := Groups(tokens, nil)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}

	want := []struct {
		raw     string
		first   int
		last    int
		verdict Verdict
	}{
		{"2", 0, 0, Unclassified},
		{"129", 2, 2, Isotope},
		{"3, 4", 4, 6, Citation},
	}
	for i, w := range want {
		g := groups[i]
		if g.Raw != w.raw || g.First != w.first || g.Last != w.last || g.Verdict != w.verdict {
			t.Errorf("group %d = %+v, want %+v", i, g, w)
		}
	}
	if groups[2].Context != "2Gas129Xe" {
		t.Errorf("context = %q", groups[2].Context)
	}
	if Citation.String() != "citation" || Isotope.String() != "isotope" || Unclassified.String() != "unclassified" {
		t.Error("unexpected Verdict strings")
	}
}
