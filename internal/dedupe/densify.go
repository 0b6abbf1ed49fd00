package dedupe

import (
	"sort"

	"github.com/matsen/citefix/internal/citation"
)

// Densify maps every number in 1..maxRef to its new number once duplicates
// are removed and the remaining numbers are closed up. Kept numbers keep
// their relative order; a duplicate takes the new number of its original.
func Densify(dups Map, maxRef int) map[int]int {
	return Reorder(nil, dups, maxRef)
}

// Reorder is Densify with kept numbers renumbered by a reading order
// instead of by value: numbers take their position of first appearance in
// order (after mapping duplicates to their originals), and kept numbers
// never cited follow in ascending order. Numbers in order outside
// 1..maxRef are ignored, as are duplicates whose original is out of range.
func Reorder(order []int, dups Map, maxRef int) map[int]int {
	resolved := Resolve(dups)
	isDup := func(n int) bool {
		orig, ok := resolved[n]
		return ok && orig >= 1 && orig <= maxRef
	}

	out := make(map[int]int, maxRef)
	next := 0
	assign := func(n int) {
		if n < 1 || n > maxRef || isDup(n) {
			return
		}
		if _, done := out[n]; done {
			return
		}
		next++
		out[n] = next
	}

	for _, n := range order {
		assign(resolved.Original(n))
	}
	for n := 1; n <= maxRef; n++ {
		assign(n)
	}
	for n := 1; n <= maxRef; n++ {
		if isDup(n) {
			out[n] = out[resolved[n]]
		}
	}
	return out
}

// Apply maps citation numbers through the duplicate map and then through
// mapping, and returns the distinct results in ascending order. Numbers
// absent from mapping pass through unchanged.
func Apply(nums []int, dups Map, mapping map[int]int) []int {
	out := make([]int, 0, len(nums))
	for _, n := range nums {
		n = dups.Original(n)
		if m, ok := mapping[n]; ok {
			n = m
		}
		out = append(out, n)
	}
	out = citation.Unique(out)
	sort.Ints(out)
	return out
}
