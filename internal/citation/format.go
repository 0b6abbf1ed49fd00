// Package citation converts between raw superscript citation markers,
// canonical citation strings, and lists of citation numbers, and decides
// which superscript runs are citation markers at all.
//
// Canonical strings look like "Citation 7", "Citations 1, 2, 5-7" or
// "Table IV".
package citation

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	singularPrefix = "Citation "
	pluralPrefix   = "Citations "
	tablePrefix    = "Table "
)

// MaxRangeSpan is the widest range, end minus start, accepted in a
// citation. Wider ranges are treated as malformed.
const MaxRangeSpan = 1000

// numberOrRange matches a single comma-separated citation token.
var numberOrRange = regexp.MustCompile(`^\d+(?:-\d+)?$`)

// validToken reports whether tok is a number or an N-M range no wider than
// MaxRangeSpan.
func validToken(tok string) bool {
	if !numberOrRange.MatchString(tok) {
		return false
	}
	lo, hi, isRange := strings.Cut(tok, "-")
	if !isRange {
		return true
	}
	start, err1 := strconv.Atoi(lo)
	end, err2 := strconv.Atoi(hi)
	return err1 == nil && err2 == nil && end-start <= MaxRangeSpan
}

// dashReplacer folds typographic dashes used in ranges to '-'.
var dashReplacer = strings.NewReplacer("–", "-", "—", "-", "‒", "-", "−", "-")

// Parse turns raw superscript text such as "19-22,42" into canonical
// citation strings. Tokens that are neither a number nor an N-M range are
// dropped; if nothing survives the result is empty.
func Parse(raw string) []string {
	var kept []string
	for _, tok := range strings.Split(dashReplacer.Replace(raw), ",") {
		tok = strings.TrimSpace(tok)
		if validToken(tok) {
			kept = append(kept, tok)
		}
	}
	if len(kept) == 0 {
		return nil
	}

	return []string{wrap(strings.Join(kept, ", "), len(kept) == 1 && !strings.Contains(kept[0], "-"))}
}

// Expand returns the individual numbers of a citation string, in order and
// with duplicates preserved. Ranges are expanded inclusively. The prefix is
// optional, so raw marker text is accepted too. Table references yield nil.
func Expand(s string) []int {
	if IsTableRef(s) {
		return nil
	}

	var nums []int
	for _, tok := range strings.Split(dashReplacer.Replace(StripPrefix(s)), ",") {
		tok = strings.TrimSpace(tok)
		if !validToken(tok) {
			continue
		}

		lo, hi, isRange := strings.Cut(tok, "-")
		start, err := strconv.Atoi(lo)
		if err != nil {
			continue
		}
		if !isRange {
			nums = append(nums, start)
			continue
		}
		end, err := strconv.Atoi(hi)
		if err != nil {
			continue
		}
		for n := start; n <= end; n++ {
			nums = append(nums, n)
		}
	}
	return nums
}

// Format renders numbers as a canonical citation string. Numbers are
// de-duplicated and sorted; contiguous runs of three or more collapse to
// "start-end", runs of two stay as "a, b". Empty input gives "".
func Format(nums []int) string {
	body, single := formatBody(nums)
	if body == "" {
		return ""
	}
	return wrap(body, single)
}

// FormatBare is Format without the "Citation(s) " prefix, i.e. the text that
// belongs inside a superscript run.
func FormatBare(nums []int) string {
	body, _ := formatBody(nums)
	return body
}

func formatBody(nums []int) (string, bool) {
	uniq := Unique(nums)
	if len(uniq) == 0 {
		return "", false
	}
	sort.Ints(uniq)

	var parts []string
	for i := 0; i < len(uniq); {
		j := i
		for j+1 < len(uniq) && uniq[j+1] == uniq[j]+1 {
			j++
		}
		switch j - i + 1 {
		case 1:
			parts = append(parts, strconv.Itoa(uniq[i]))
		case 2:
			parts = append(parts, strconv.Itoa(uniq[i]), strconv.Itoa(uniq[j]))
		default:
			parts = append(parts, strconv.Itoa(uniq[i])+"-"+strconv.Itoa(uniq[j]))
		}
		i = j + 1
	}

	return strings.Join(parts, ", "), len(parts) == 1 && len(uniq) == 1
}

// Unique returns nums without repeats, keeping first occurrences in order.
func Unique(nums []int) []int {
	seen := make(map[int]bool, len(nums))
	out := make([]int, 0, len(nums))
	for _, n := range nums {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// StripPrefix removes a leading "Citation " or "Citations ".
func StripPrefix(s string) string {
	if rest, ok := strings.CutPrefix(s, pluralPrefix); ok {
		return rest
	}
	if rest, ok := strings.CutPrefix(s, singularPrefix); ok {
		return rest
	}
	return s
}

func wrap(body string, single bool) string {
	if single {
		return singularPrefix + body
	}
	return pluralPrefix + body
}
