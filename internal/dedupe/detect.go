// Package dedupe finds bibliography entries that describe the same source
// under different numbers and builds the number mappings that collapse
// them.
package dedupe

import (
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/unicode/norm"
)

// DefaultThreshold is the similarity ratio at or above which two entries
// are treated as the same source.
const DefaultThreshold = 0.90

// Map sends a duplicate number to the number of its original. The original
// is always the lower number and is never itself a key.
type Map map[int]int

// Numbers returns the duplicate numbers in ascending order.
func (m Map) Numbers() []int {
	nums := make([]int, 0, len(m))
	for n := range m {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// Original returns the final original of n, or n itself.
func (m Map) Original(n int) int {
	seen := map[int]bool{n: true}
	for {
		next, ok := m[n]
		if !ok || seen[next] {
			return n
		}
		seen[next] = true
		n = next
	}
}

// Normalize prepares reference text for comparison: NFC, lower case,
// single spaces.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(norm.NFC.String(text))), " ")
}

// Similarity returns the difflib ratio of two already normalised texts,
// compared character by character.
func Similarity(a, b string) float64 {
	return difflib.NewMatcher(chars(a), chars(b)).Ratio()
}

func chars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// Detect compares every pair of entries and records n2 -> n1 (n1 < n2) when
// their similarity is at least threshold. Entries are visited in ascending
// order and numbers already claimed as duplicates are skipped, so the
// lowest number of a cluster becomes its original.
func Detect(refs map[int]string, threshold float64) Map {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	nums := make([]int, 0, len(refs))
	seqs := make(map[int][]string, len(refs))
	for n, text := range refs {
		normalized := Normalize(text)
		if normalized == "" {
			continue
		}
		nums = append(nums, n)
		seqs[n] = chars(normalized)
	}
	sort.Ints(nums)

	dups := make(Map)
	for i, n1 := range nums {
		if _, claimed := dups[n1]; claimed {
			continue
		}
		for _, n2 := range nums[i+1:] {
			if _, claimed := dups[n2]; claimed {
				continue
			}
			m := difflib.NewMatcher(seqs[n1], seqs[n2])
			if m.RealQuickRatio() < threshold || m.QuickRatio() < threshold {
				continue
			}
			if m.Ratio() >= threshold {
				dups[n2] = n1
			}
		}
	}

	return Resolve(dups)
}

// Resolve rewrites every entry to point at its final original so that no
// value is also a key.
func Resolve(m Map) Map {
	out := make(Map, len(m))
	for n := range m {
		if orig := m.Original(n); orig != n {
			out[n] = orig
		}
	}
	return out
}

// Pair is a duplicate relation supplied from outside the detector, for
// example by a reviewer. The order of the two numbers does not matter.
type Pair struct {
	Original  int `json:"original"`
	Duplicate int `json:"duplicate"`
}

// Merge combines detected duplicates with external pairs. Numbers connected
// through either source form one cluster whose lowest number is the
// original of all the others.
func Merge(core Map, pairs []Pair) Map {
	parent := make(map[int]int)
	var find func(int) int
	find = func(n int) int {
		p, ok := parent[n]
		if !ok || p == n {
			parent[n] = n
			return n
		}
		root := find(p)
		parent[n] = root
		return root
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		switch {
		case ra < rb:
			parent[rb] = ra
		case rb < ra:
			parent[ra] = rb
		}
	}

	for dup, orig := range core {
		union(dup, orig)
	}
	for _, p := range pairs {
		if p.Original <= 0 || p.Duplicate <= 0 || p.Original == p.Duplicate {
			continue
		}
		union(p.Original, p.Duplicate)
	}

	out := make(Map)
	for n := range parent {
		if root := find(n); root != n {
			out[n] = root
		}
	}
	return out
}
