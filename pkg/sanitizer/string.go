// Package sanitizer cleans free-text input before validation and storage.
// Asset display names in particular arrive with stray whitespace from the
// booking form, and the name-based asset lookup depends on a stable shape.
package sanitizer

import (
	"strings"
	"unicode"
)

// TrimAndNormalize trims the string and collapses internal whitespace runs to
// a single space. Control characters are dropped.
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var b strings.Builder
	lastWasSpace := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			if !lastWasSpace {
				b.WriteRune(' ')
				lastWasSpace = true
			}
		case unicode.IsControl(r):
			// skip
		default:
			b.WriteRune(r)
			lastWasSpace = false
		}
	}

	return strings.TrimSpace(b.String())
}

// SanitizeDisplayName normalizes a customer or asset display name.
func SanitizeDisplayName(name string) string {
	return TrimAndNormalize(name)
}

// SanitizeNoteText normalizes staff note text without collapsing line breaks
// into nothing: newlines become spaces like any other whitespace run.
func SanitizeNoteText(text string) string {
	return TrimAndNormalize(text)
}
