package common

import "strings"

// IsDecimal returns true if s is a non-negative decimal literal: ASCII digits
// with at most one '.', e.g. "4", "4.5", ".5" or "4.". Signs, exponents and
// blanks are rejected.
func IsDecimal(s string) bool {
	s = strings.Replace(s, ".", "", 1)
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
