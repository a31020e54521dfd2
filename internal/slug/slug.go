// Package slug maps human-readable titles to canonical, URL-safe identifiers.
//
// Normalize is the single source of truth for title → slug conversion. Reference
// resolution, backlink lookup, document creation and vault sync all call it, so
// two titles refer to the same document exactly when their slugs are equal.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize converts title into lower-kebab ASCII:
//
//  1. lower-case everything;
//  2. decompose (NFD) and drop combining marks, so "Café" folds to "cafe";
//  3. drop apostrophes, so "Dragon's" stays one word;
//  4. collapse every run of characters outside [a-z0-9] into a single "-";
//  5. trim leading and trailing "-".
//
// The result may be empty. An empty slug never identifies a document.
func Normalize(title string) string {
	decomposed := norm.NFD.String(strings.ToLower(title))

	var b strings.Builder
	b.Grow(len(decomposed))

	pendingDash := false
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r), r == '\'', r == '’':
			continue
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		default:
			pendingDash = true
		}
	}
	return b.String()
}

// Valid reports whether s is a usable slug: non-empty and already normalized.
func Valid(s string) bool {
	return s != "" && Normalize(s) == s
}
