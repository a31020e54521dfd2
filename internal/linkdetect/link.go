package linkdetect

import (
	"slices"
	"strings"

	"github.com/starford/lorebook/internal/wikilink"
)

// Link turns accepted spans into [[...]] markers and returns the new text with
// the number of spans applied. Each span stands alone: one that is out of
// range, overlaps an earlier accepted span, or no longer matches its title in
// text is skipped and does not affect the others.
func Link(text string, spans []Span) (string, int) {
	accepted := make([]Span, 0, len(spans))
	sorted := slices.Clone(spans)
	slices.SortStableFunc(sorted, func(a, b Span) int { return a.Start - b.Start })

	last := 0
	for _, s := range sorted {
		if !Valid(text, s) || s.Start < last {
			continue
		}
		accepted = append(accepted, s)
		last = s.End
	}
	if len(accepted) == 0 {
		return text, 0
	}

	var b strings.Builder
	b.Grow(len(text) + 4*len(accepted))
	last = 0
	for _, s := range accepted {
		b.WriteString(text[last:s.Start])
		b.WriteString(wikilink.Format(s.MatchedTitle, text[s.Start:s.End]))
		last = s.End
	}
	b.WriteString(text[last:])
	return b.String(), len(accepted)
}

// Valid reports whether s still describes an occurrence of its title in text.
func Valid(text string, s Span) bool {
	if s.Start < 0 || s.End > len(text) || s.Start >= s.End || !wikilink.ValidTarget(s.MatchedTitle) {
		return false
	}
	end, ok := matchFoldAt(text, s.MatchedTitle, s.Start)
	return ok && end == s.End
}
