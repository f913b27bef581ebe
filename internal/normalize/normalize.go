// Package normalize holds the canonical forms used for storage and lookups.
package normalize

import "strings"

// Email returns a normalized form of an email address suitable for
// storage and comparisons: surrounding whitespace trimmed, lower-cased.
func Email(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// Trim trims surrounding whitespace from every non-nil field in place.
// Used on optional request fields where nil means "leave unchanged".
func Trim(fields ...*string) {
	for _, f := range fields {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
}
