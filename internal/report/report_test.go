package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matsen/citefix/internal/dedupe"
	"github.com/matsen/citefix/internal/extract"
	"github.com/matsen/citefix/internal/plan"
)

func TestParagraphs(t *testing.T) {
	records := []extract.ParagraphRecord{
		{Heading: "Hyperpolarized gas imaging", Citations: []string{"Citation 1", "Citations 3-5"}},
		{Heading: "Early work with", Citations: []string{"Table I"}},
	}

	var buf bytes.Buffer
	if err := Paragraphs(&buf, records); err != nil {
		t.Fatalf("Paragraphs() error = %v", err)
	}

	want := "# Citation Extraction by Paragraph\n\n" +
		"## 1. Hyperpolarized gas imaging...\n\n" +
		"- 1. Citation 1\n" +
		"- 2. Citations 3-5\n\n" +
		"## 2. Early work with...\n\n" +
		"- 1. Table I\n"
	if buf.String() != want {
		t.Errorf("Paragraphs() =\n%q\nwant\n%q", buf.String(), want)
	}
}

func TestPlan(t *testing.T) {
	p := plan.Plan{Entries: []plan.Entry{
		{Location: extract.Location{Paragraph: 0, Text: "1", Context: "imaging"}, Replacement: "1", Change: plan.Unchanged},
		{Location: extract.Location{Paragraph: 2, Text: "3,4", Context: "a | b"}, Replacement: "1, 3", Change: plan.Duplicate},
	}}
	refs := []plan.RefEdit{
		{Paragraph: 4, Source: 4, Old: 3, New: 1, Remove: true},
		{Paragraph: 5, Source: 5, Old: 4, New: 3},
		{Paragraph: 6, Source: 7, Old: 5, New: 5},
	}

	var buf bytes.Buffer
	if err := Plan(&buf, p, dedupe.Map{3: 1}, refs); err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"2 markers: 1 unchanged, 1 duplicate",
		`| 3 | …a \| b | 3,4 | 1, 3 | duplicate |`,
		"- 3 duplicates 1",
		"- remove entry 3 (now cited as 1)",
		"- entry 4 becomes 3",
		"- move entry 5",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Plan() missing %q in\n%s", want, out)
		}
	}
	if strings.Contains(out, "| 1 | …imaging") {
		t.Error("unchanged markers should not be listed")
	}
}

func TestHTML(t *testing.T) {
	var buf bytes.Buffer
	md := []byte("# Title\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")
	if err := HTML(&buf, "x < y", md); err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"<title>x &lt; y</title>", "<h1>Title</h1>", "<table>", "<td>2</td>"} {
		if !strings.Contains(out, want) {
			t.Errorf("HTML() missing %q in\n%s", want, out)
		}
	}
}
