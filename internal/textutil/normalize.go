package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// CapitalizeFirst upper-cases the first character of s and leaves the rest alone.
// An empty string is returned unchanged.
func CapitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	upper := unicode.ToUpper(r)
	if upper == r {
		return s
	}
	return string(upper) + s[size:]
}

// Normalize prepares a weather description for display. The text is plain, not
// markup: only surrounding whitespace is trimmed and the first character raised.
func Normalize(description string) string {
	return CapitalizeFirst(strings.TrimSpace(description))
}
