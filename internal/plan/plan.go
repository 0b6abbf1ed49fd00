// Package plan turns citation locations and number mappings into a list of
// proposed marker rewrites, and applies them back onto a document.
package plan

import (
	"fmt"
	"slices"
	"sort"

	"github.com/matsen/citefix/internal/citation"
	"github.com/matsen/citefix/internal/dedupe"
	"github.com/matsen/citefix/internal/extract"
)

// Change describes what happens to a citation marker.
type Change string

const (
	Unchanged   Change = "unchanged"
	Renumbered  Change = "renumbered"
	Reformatted Change = "reformatted" // Same numbers, different text
	Merged      Change = "merged"      // Numbers collapsed onto fewer
	Duplicate   Change = "duplicate"   // Cites at least one duplicate reference
	Removed     Change = "removed"
)

// Mode selects how kept references are renumbered.
type Mode string

const (
	// ModeDensify closes gaps left by duplicates and keeps the existing order.
	ModeDensify Mode = "densify"
	// ModeOrder numbers references by first appearance in the text.
	ModeOrder Mode = "order"
)

// ParseMode validates a mode name. The empty string selects ModeDensify.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeDensify:
		return ModeDensify, nil
	case ModeOrder:
		return ModeOrder, nil
	}
	return "", fmt.Errorf("unknown mode %q (use %q or %q)", s, ModeDensify, ModeOrder)
}

// Mapping builds the total renumbering map for mode. order is only used by
// ModeOrder.
func Mapping(mode Mode, order []int, dups dedupe.Map, maxRef int) map[int]int {
	if mode == ModeOrder {
		return dedupe.Reorder(order, dups, maxRef)
	}
	return dedupe.Densify(dups, maxRef)
}

// Entry is the proposed rewrite of one citation marker.
type Entry struct {
	extract.Location
	Numbers     []int  `json:"numbers"`
	NewNumbers  []int  `json:"new_numbers"`
	Replacement string `json:"replacement"`
	Change      Change `json:"change"`
}

// Writes reports whether Apply rewrites the marker. Reformatted markers are
// left as typed.
func (e Entry) Writes() bool {
	return e.Change != Unchanged && e.Change != Reformatted
}

// Plan is the ordered list of marker rewrites for a document.
type Plan struct {
	Entries []Entry `json:"entries"`
}

// Counts tallies entries by change.
func (p Plan) Counts() map[Change]int {
	counts := make(map[Change]int)
	for _, e := range p.Entries {
		counts[e.Change]++
	}
	return counts
}

// Build computes the replacement text of every location: its numbers are
// sent through the duplicate map and mapping, then formatted without the
// "Citation(s) " prefix.
func Build(locs []extract.Location, dups dedupe.Map, mapping map[int]int) Plan {
	p := Plan{Entries: make([]Entry, 0, len(locs))}
	for _, loc := range locs {
		nums := numbers(loc.Text)
		mapped := dedupe.Apply(nums, dups, mapping)
		e := Entry{
			Location:    loc,
			Numbers:     nums,
			NewNumbers:  mapped,
			Replacement: citation.FormatBare(mapped),
		}
		e.Change = classify(loc.Text, e.Replacement, nums, mapped, dups)
		p.Entries = append(p.Entries, e)
	}
	return p
}

func numbers(raw string) []int {
	var nums []int
	for _, c := range citation.Parse(raw) {
		nums = append(nums, citation.Expand(c)...)
	}
	return nums
}

func classify(raw, replacement string, nums, mapped []int, dups dedupe.Map) Change {
	if replacement == raw {
		return Unchanged
	}
	if len(mapped) == 0 {
		return Removed
	}
	for _, n := range nums {
		if _, ok := dups[n]; ok {
			return Duplicate
		}
	}

	before := citation.Unique(nums)
	if len(mapped) < len(before) {
		return Merged
	}
	sort.Ints(before)
	if slices.Equal(before, mapped) {
		return Reformatted
	}
	return Renumbered
}
