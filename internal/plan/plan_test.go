package plan

import (
	"errors"
	"reflect"
	"testing"

	"github.com/matsen/citefix/internal/dedupe"
	"github.com/matsen/citefix/internal/docxml"
	. "github.com/matsen/citefix/internal/docxml/docxmltest"
	"github.com/matsen/citefix/internal/extract"
)

func manuscript() string {
	return Doc(
		P(R("Imaging"), Sup("1"), R(" and xenon"), Sup("3,4"), R(" and"), Sup("2"), R(".")),
		P(R("More text"), Sup("1-3"), R(".")),
		P(R("1. Smith J. Paper. J 2020.")),
		P(R("2. Doe A. Other. Rad 2019.")),
		P(R("3. Smith J. Paper. J 2020.")),
		P(R("4. Roe B. Third. Nat 2018.")),
	)
}

func mustParse(t *testing.T, markup string) *docxml.Document {
	t.Helper()
	doc, err := docxml.Parse(markup)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return doc
}

func texts(doc *docxml.Document) []string {
	out := make([]string, len(doc.Paragraphs))
	for i, p := range doc.Paragraphs {
		out[i] = p.FullText()
	}
	return out
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeDensify, "densify": ModeDensify, "order": ModeOrder} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMode("shuffle"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestBuild(t *testing.T) {
	doc := mustParse(t, manuscript())
	refs := extract.References(doc)
	dups := dedupe.Detect(refs, dedupe.DefaultThreshold)
	mapping := Mapping(ModeDensify, nil, dups, extract.MaxReference(refs))

	p := Build(extract.Locate(doc, nil), dups, mapping)

	type row struct {
		text, repl string
		change     Change
	}
	var got []row
	for _, e := range p.Entries {
		got = append(got, row{e.Text, e.Replacement, e.Change})
	}
	want := []row{
		{"1", "1", Unchanged},
		{"3,4", "1, 3", Duplicate},
		{"2", "2", Unchanged},
		{"1-3", "1, 2", Duplicate},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Build() =\n%v\nwant\n%v", got, want)
	}

	counts := p.Counts()
	if counts[Unchanged] != 2 || counts[Duplicate] != 2 {
		t.Errorf("Counts() = %v", counts)
	}
}

func TestBuild_Changes(t *testing.T) {
	loc := func(text string) extract.Location { return extract.Location{Text: text} }

	tests := []struct {
		name    string
		text    string
		dups    dedupe.Map
		mapping map[int]int
		repl    string
		change  Change
	}{
		{"unchanged", "5", nil, map[int]int{5: 5}, "5", Unchanged},
		{"renumbered", "4", nil, map[int]int{4: 3}, "3", Renumbered},
		{"reformatted", "1,2,3", nil, nil, "1-3", Reformatted},
		{"en dash range", "1–3", nil, nil, "1-3", Reformatted},
		{"merged", "1,2", nil, map[int]int{2: 1}, "1", Merged},
		{"duplicate", "3", dedupe.Map{3: 1}, nil, "1", Duplicate},
		{"removed", "a", nil, nil, "", Removed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Build([]extract.Location{loc(tt.text)}, tt.dups, tt.mapping)
			e := p.Entries[0]
			if e.Replacement != tt.repl || e.Change != tt.change {
				t.Errorf("got %q (%s), want %q (%s)", e.Replacement, e.Change, tt.repl, tt.change)
			}
		})
	}
}

func TestBibliography_Densify(t *testing.T) {
	doc := mustParse(t, manuscript())
	dups := dedupe.Map{3: 1}

	got := Bibliography(doc, dups, Mapping(ModeDensify, nil, dups, 4))
	want := []RefEdit{
		{Paragraph: 4, Source: 4, Old: 3, New: 1, Remove: true},
		{Paragraph: 5, Source: 5, Old: 4, New: 3},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Bibliography() = %+v, want %+v", got, want)
	}
}

func TestApply_Densify(t *testing.T) {
	doc := mustParse(t, manuscript())
	refs := extract.References(doc)
	dups := dedupe.Detect(refs, dedupe.DefaultThreshold)
	mapping := Mapping(ModeDensify, nil, dups, extract.MaxReference(refs))

	p := Build(extract.Locate(doc, nil), dups, mapping)
	out, err := Apply(doc, p, Bibliography(doc, dups, mapping))
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	got := texts(mustParse(t, out))
	want := []string{
		"Imaging1 and xenon1, 3 and2.",
		"More text1, 2.",
		"1. Smith J. Paper. J 2020.",
		"2. Doe A. Other. Rad 2019.",
		"3. Roe B. Third. Nat 2018.",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("applied paragraphs =\n%q\nwant\n%q", got, want)
	}
	if doc.Raw() != manuscript() {
		t.Error("Apply modified the snapshot")
	}
}

func TestApply_ReadingOrder(t *testing.T) {
	doc := mustParse(t, manuscript())
	dups := dedupe.Map{3: 1}
	mapping := Mapping(ModeOrder, []int{4, 1, 2}, dups, 4)

	out, err := Apply(doc, Build(extract.Locate(doc, nil), dups, mapping), Bibliography(doc, dups, mapping))
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	got := texts(mustParse(t, out))
	want := []string{
		"Imaging2 and xenon1, 2 and3.",
		"More text2, 3.",
		"1. Roe B. Third. Nat 2018.",
		"2. Smith J. Paper. J 2020.",
		"3. Doe A. Other. Rad 2019.",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("applied paragraphs =\n%q\nwant\n%q", got, want)
	}
}

func TestApply_MultiRunMarker(t *testing.T) {
	doc := mustParse(t, Doc(P(R("Some text"), Sup("1"), Sup(",3"), R(" here."))))
	p := Build(extract.Locate(doc, nil), nil, map[int]int{3: 2})

	out, err := Apply(doc, p, nil)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	para := mustParse(t, out).Paragraphs[0]
	if para.Runs[1].Text != "1, 2" || para.Runs[2].Text != "" {
		t.Errorf("runs = %q, %q", para.Runs[1].Text, para.Runs[2].Text)
	}
	if !para.Runs[2].Superscript {
		t.Error("emptied run lost its formatting")
	}
}

func TestApply_SplitPrefix(t *testing.T) {
	doc := mustParse(t, Doc(P(R(" 1"), R("2. Split entry")), P(R("No number here"))))

	out, err := Apply(doc, Plan{}, []RefEdit{{Paragraph: 0, Source: 0, Old: 12, New: 7}})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got := mustParse(t, out).Paragraphs[0].FullText(); got != " 7. Split entry" {
		t.Errorf("renumbered = %q", got)
	}

	_, err = Apply(doc, Plan{}, []RefEdit{{Paragraph: 1, Source: 1, Old: 1, New: 2}})
	if !errors.Is(err, ErrNoNumberPrefix) {
		t.Errorf("expected ErrNoNumberPrefix, got %v", err)
	}

	if _, err := Apply(doc, Plan{}, []RefEdit{{Paragraph: 9, Source: 9}}); err == nil {
		t.Error("expected error for missing paragraph")
	}
}

func TestApply_NumberedTableCell(t *testing.T) {
	doc := mustParse(t, Doc(
		P(R("Imaging"), Sup("3"), R(".")),
		Table(Row(Cell(P(R("2. Dose escalation arm"), Sup("3"))))),
		P(R("1. Smith J. Paper. J 2020.")),
		P(R("2. Doe A. Other. Rad 2019.")),
		P(R("3. Smith J. Paper. J 2020.")),
	))
	refs := extract.References(doc)
	if refs[2] != "Doe A. Other. Rad 2019." {
		t.Fatalf("entry 2 = %q", refs[2])
	}
	dups := dedupe.Detect(refs, dedupe.DefaultThreshold)
	mapping := Mapping(ModeDensify, nil, dups, extract.MaxReference(refs))

	p := Build(extract.Locate(doc, nil), dups, mapping)
	if len(p.Entries) != 2 || p.Entries[1].Paragraph != 1 || p.Entries[1].Change != Duplicate {
		t.Fatalf("entries = %+v", p.Entries)
	}

	out, err := Apply(doc, p, Bibliography(doc, dups, mapping))
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	got := texts(mustParse(t, out))
	want := []string{
		"Imaging1.",
		"2. Dose escalation arm1",
		"1. Smith J. Paper. J 2020.",
		"2. Doe A. Other. Rad 2019.",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("applied paragraphs =\n%q\nwant\n%q", got, want)
	}
}
