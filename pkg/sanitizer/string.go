package sanitizer

import (
	"strings"
	"unicode"
)

// TrimAndNormalize trims s and collapses every run of Unicode whitespace
// into a single ASCII space.
func TrimAndNormalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeName is used for display names and resource names.
func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

// NormalizeTitle drops control characters and collapses whitespace.
func NormalizeTitle(title string) string {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, title)
	return TrimAndNormalize(stripped)
}
