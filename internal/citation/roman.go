package citation

import (
	"strings"
)

// IsRomanNumeral reports whether s consists only of Roman numeral letters.
// The check is deliberately loose: "IIII" or "VX" pass.
func IsRomanNumeral(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range strings.ToUpper(s) {
		if !strings.ContainsRune("IVXLCDM", r) {
			return false
		}
	}
	return true
}

// TableRef returns the citation string for a table label.
func TableRef(roman string) string {
	return tablePrefix + strings.ToUpper(roman)
}

// IsTableRef reports whether s is a "Table R" citation string.
func IsTableRef(s string) bool {
	_, ok := TableLabel(s)
	return ok
}

// TableLabel returns the Roman numeral of a "Table R" citation string.
func TableLabel(s string) (string, bool) {
	label, ok := strings.CutPrefix(s, tablePrefix)
	if !ok || !IsRomanNumeral(label) {
		return "", false
	}
	return label, true
}
