package plan

import (
	"sort"

	"github.com/matsen/citefix/internal/dedupe"
	"github.com/matsen/citefix/internal/docxml"
	"github.com/matsen/citefix/internal/extract"
)

// RefEdit is one change to the bibliography. The entry that was in paragraph
// Source moves into paragraph Paragraph with its number prefix set to New.
// Remove drops the Paragraph entirely.
type RefEdit struct {
	Paragraph int  `json:"paragraph"`
	Source    int  `json:"source"`
	Old       int  `json:"old"`
	New       int  `json:"new"`
	Remove    bool `json:"remove,omitempty"`
}

// Bibliography plans the bibliography rewrite that matches mapping:
// duplicate entries are removed, and kept entries are renumbered and
// sorted by their new number into the paragraphs that kept entries
// occupied. Edits that would change nothing are omitted.
func Bibliography(doc *docxml.Document, dups dedupe.Map, mapping map[int]int) []RefEdit {
	var (
		edits []RefEdit
		kept  []extract.Reference
		slots []int
	)
	for _, ref := range extract.Bibliography(doc) {
		if _, dup := dups[ref.Number]; dup {
			edits = append(edits, RefEdit{
				Paragraph: ref.Paragraph,
				Source:    ref.Paragraph,
				Old:       ref.Number,
				New:       renumber(dups.Original(ref.Number), mapping),
				Remove:    true,
			})
			continue
		}
		kept = append(kept, ref)
		slots = append(slots, ref.Paragraph)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return renumber(kept[i].Number, mapping) < renumber(kept[j].Number, mapping)
	})
	for i, ref := range kept {
		e := RefEdit{
			Paragraph: slots[i],
			Source:    ref.Paragraph,
			Old:       ref.Number,
			New:       renumber(ref.Number, mapping),
		}
		if e.Paragraph == e.Source && e.Old == e.New {
			continue
		}
		edits = append(edits, e)
	}

	sort.SliceStable(edits, func(i, j int) bool {
		return edits[i].Paragraph < edits[j].Paragraph
	})
	return edits
}

func renumber(n int, mapping map[int]int) int {
	if m, ok := mapping[n]; ok {
		return m
	}
	return n
}
