package util

import (
	"strings"
	"unicode"
)

// Slugify converts a title into a URL-safe slug
func Slugify(s string) string {
	var b strings.Builder
	lastDash := true // suppress leading dash
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteRune('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}

// CountWords returns the number of whitespace-separated words in s
func CountWords(s string) int {
	return len(strings.Fields(s))
}
