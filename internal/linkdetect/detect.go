// Package linkdetect suggests new wiki links by finding known document titles
// inside plain text.
//
// Detection is longest-title-first over a claimed-byte mask: once a range of the
// text is taken by a match (or excluded up front), no other title can use any
// byte of it. Matches are case-insensitive and must sit on word boundaries.
package linkdetect

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/starford/lorebook/internal/models"
	"github.com/starford/lorebook/internal/wikilink"
)

// Range is a half-open [Start, End) byte range of a text.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Span is one suggested link: the text in [Start, End) matched MatchedTitle.
type Span struct {
	Start        int    `json:"start"`
	End          int    `json:"end"`
	MatchedTitle string `json:"matched_title"`
	Slug         string `json:"slug"`
}

// Detect returns all non-overlapping occurrences of catalog titles in text,
// ordered by Start. Bytes covered by excluded ranges are never part of a match.
func Detect(text string, catalog []models.CatalogEntry, excluded ...Range) []Span {
	entries := sortCatalog(catalog)
	if len(entries) == 0 || text == "" {
		return nil
	}

	claimed := make([]bool, len(text))
	for _, r := range excluded {
		start, end := max(r.Start, 0), min(r.End, len(text))
		for i := start; i < end; i++ {
			claimed[i] = true
		}
	}

	var spans []Span
	for _, e := range entries {
		cursor := 0
		for cursor < len(text) {
			start, end, ok := indexFold(text, e.Title, cursor)
			if !ok {
				break
			}
			if overlaps(claimed, start, end) || !onWordBoundary(text, start, end) {
				cursor = nextRune(text, start)
				continue
			}
			for i := start; i < end; i++ {
				claimed[i] = true
			}
			spans = append(spans, Span{Start: start, End: end, MatchedTitle: e.Title, Slug: e.Slug})
			cursor = end
		}
	}

	slices.SortFunc(spans, func(a, b Span) int { return a.Start - b.Start })
	return spans
}

// sortCatalog drops titles that cannot be written as a marker and orders the rest by rune length
// descending, then case-folded title, then original catalog position.
func sortCatalog(catalog []models.CatalogEntry) []models.CatalogEntry {
	out := make([]models.CatalogEntry, 0, len(catalog))
	for _, e := range catalog {
		if wikilink.ValidTarget(e.Title) {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b models.CatalogEntry) int {
		la, lb := utf8.RuneCountInString(a.Title), utf8.RuneCountInString(b.Title)
		if la != lb {
			return lb - la
		}
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	})
	return out
}

// indexFold finds the first case-insensitive occurrence of title in text at or
// after byte offset from. The returned offsets are into text, so they stay
// correct even when case folding changes a rune's encoded width.
func indexFold(text, title string, from int) (start, end int, ok bool) {
	for i := from; i < len(text); {
		if e, hit := matchFoldAt(text, title, i); hit {
			return i, e, true
		}
		i = nextRune(text, i)
	}
	return 0, 0, false
}

func matchFoldAt(text, title string, i int) (int, bool) {
	for _, want := range title {
		if i >= len(text) {
			return 0, false
		}
		got, size := utf8.DecodeRuneInString(text[i:])
		if !equalFoldRune(got, want) {
			return 0, false
		}
		i += size
	}
	return i, true
}

func equalFoldRune(a, b rune) bool {
	if a == b {
		return true
	}
	for f := unicode.SimpleFold(a); f != a; f = unicode.SimpleFold(f) {
		if f == b {
			return true
		}
	}
	return false
}

func overlaps(claimed []bool, start, end int) bool {
	for i := start; i < end; i++ {
		if claimed[i] {
			return true
		}
	}
	return false
}

// onWordBoundary reports whether the runes just outside [start, end) are
// absent or not word characters.
func onWordBoundary(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func nextRune(text string, i int) int {
	_, size := utf8.DecodeRuneInString(text[i:])
	return i + size
}
