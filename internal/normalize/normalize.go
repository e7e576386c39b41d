// Package normalize canonicalizes free-text labels for identity comparison.
//
// Option labels, attribute-set names, and strategy cells all arrive from
// hand-edited CSV files with inconsistent casing and stray whitespace.
// Key produces the canonical form used as the equality key wherever two
// labels must be compared or de-duplicated.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
)

var folder = cases.Fold()

// Key returns the identity key for a label: leading/trailing whitespace
// trimmed, internal whitespace runs collapsed to a single space, and
// Unicode case folding applied.
func Key(s string) string {
	return folder.String(Collapse(s))
}

// Collapse trims the string and collapses internal whitespace runs to a
// single space, preserving the original casing. This is the display form
// of a label after cleanup.
func Collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// EqualKeys reports whether two labels share the same identity key.
func EqualKeys(a, b string) bool {
	return Key(a) == Key(b)
}
