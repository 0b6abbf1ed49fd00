package dedupe

import (
	"regexp"
	"sort"
	"strings"
)

var (
	firstAuthorPattern = regexp.MustCompile(`^\s*(\p{L}[\p{L}'’\-]*)`)
	yearPattern        = regexp.MustCompile(`\b(1[89]\d{2}|20\d{2})\b`)
	// volumePattern matches the Vancouver "2020;12:" or "2020;12(3):" form.
	volumePattern = regexp.MustCompile(`\b(?:1[89]\d{2}|20\d{2})[a-z]?\s*;\s*(\d+)\s*[(:]`)
)

// Signature is a coarse fingerprint of a bibliography entry.
type Signature struct {
	Author string `json:"author"` // First author surname, lower case
	Year   string `json:"year"`
	Volume string `json:"volume,omitempty"`
}

// SignatureOf extracts the first author, year and volume of an entry.
func SignatureOf(text string) Signature {
	var sig Signature
	if m := firstAuthorPattern.FindStringSubmatch(text); m != nil {
		sig.Author = strings.ToLower(m[1])
	}
	if m := yearPattern.FindStringSubmatch(text); m != nil {
		sig.Year = m[1]
	}
	if m := volumePattern.FindStringSubmatch(text); m != nil {
		sig.Volume = m[1]
	}
	return sig
}

// Usable reports whether the signature has enough fields to compare.
func (s Signature) Usable() bool {
	return s.Author != "" && s.Year != ""
}

// Candidate is a pair that shares a signature but fell below the
// similarity threshold, worth a second look by a reviewer.
type Candidate struct {
	A          int       `json:"a"`
	B          int       `json:"b"`
	Similarity float64   `json:"similarity"`
	Signature  Signature `json:"signature"`
}

// Candidates returns near-miss pairs: entries not already in dups whose
// signatures match but whose similarity is below threshold. Pairs are
// ordered by their lower number, then higher number.
func Candidates(refs map[int]string, dups Map, threshold float64) []Candidate {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	bySig := make(map[Signature][]int)
	for n, text := range refs {
		if _, claimed := dups[n]; claimed {
			continue
		}
		sig := SignatureOf(text)
		if !sig.Usable() {
			continue
		}
		bySig[sig] = append(bySig[sig], n)
	}

	var out []Candidate
	for sig, nums := range bySig {
		sort.Ints(nums)
		for i, a := range nums {
			for _, b := range nums[i+1:] {
				score := Similarity(Normalize(refs[a]), Normalize(refs[b]))
				if score < threshold {
					out = append(out, Candidate{A: a, B: b, Similarity: score, Signature: sig})
				}
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}
