// Package strings holds small text helpers shared by the CLI output and the
// gateway's diagnostics.
package strings

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultDescriptionMaxLen is the description width used in tables.
const DefaultDescriptionMaxLen = 60

// minTruncateLen leaves room for one rune plus "...".
const minTruncateLen = 4

// Truncate collapses all whitespace runs to single spaces and shortens s to
// at most maxLen runes, marking a cut with "...".
func Truncate(s string, maxLen int) string {
	if maxLen < minTruncateLen {
		maxLen = minTruncateLen
	}

	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-3]) + "..."
}

// Excerpt returns the first maxBytes of s for logging, cut on a rune
// boundary, followed by a note of how many bytes were left out.
func Excerpt(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return fmt.Sprintf("%s... (%d more bytes)", s[:cut], len(s)-cut)
}
