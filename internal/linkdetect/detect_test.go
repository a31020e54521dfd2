package linkdetect

import (
	"slices"
	"testing"

	"github.com/starford/lorebook/internal/models"
)

func catalog(titles ...string) []models.CatalogEntry {
	out := make([]models.CatalogEntry, len(titles))
	for i, t := range titles {
		out[i] = models.CatalogEntry{Title: t}
	}
	return out
}

func matched(text string, spans []Span) []string {
	out := make([]string, len(spans))
	for i, s := range spans {
		out[i] = text[s.Start:s.End]
	}
	return out
}

func wantMatched(t *testing.T, text string, spans []Span, want ...string) {
	t.Helper()
	if got := matched(text, spans); !slices.Equal(got, want) {
		t.Errorf("matched = %q, want %q", got, want)
	}
}

func TestDetect_LongestMatchWins(t *testing.T) {
	text := "Read Article One today"
	spans := Detect(text, catalog("Art", "Article One"))
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if want := (Span{Start: 5, End: 16, MatchedTitle: "Article One"}); spans[0] != want {
		t.Errorf("span = %+v, want %+v", spans[0], want)
	}
}

func TestDetect_WordBoundaryRejection(t *testing.T) {
	for _, text := range []string{"Article", "the smart one", "Art_work", "Art2"} {
		if spans := Detect(text, catalog("Art")); len(spans) != 0 {
			t.Errorf("Detect(%q) = %+v, want none", text, spans)
		}
	}
}

func TestDetect_NonOverlap(t *testing.T) {
	text := "I live in New York"
	spans := Detect(text, catalog("York", "New York"))
	wantMatched(t, text, spans, "New York")
	if len(spans) == 1 && spans[0].MatchedTitle != "New York" {
		t.Errorf("title = %q", spans[0].MatchedTitle)
	}
}

func TestDetect_SubstringTitleStillFoundElsewhere(t *testing.T) {
	text := "New York is big; York is old."
	wantMatched(t, text, Detect(text, catalog("York", "New York")), "New York", "York")
}

func TestDetect_EmptyInputs(t *testing.T) {
	tests := []struct {
		name string
		text string
		cat  []models.CatalogEntry
	}{
		{name: "nil catalog", text: "anything at all"},
		{name: "blank titles", text: "anything at all", cat: catalog("", "   ")},
		{name: "empty text", text: "", cat: catalog("Alice")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if spans := Detect(tt.text, tt.cat); len(spans) != 0 {
				t.Errorf("spans = %+v, want none", spans)
			}
		})
	}
}

func TestDetect_StartAndEndOfText(t *testing.T) {
	text := "Alice met Bob"
	spans := Detect(text, catalog("Alice", "Bob"))
	wantMatched(t, text, spans, "Alice", "Bob")
	if len(spans) == 2 && (spans[0].Start != 0 || spans[1].End != len(text)) {
		t.Errorf("spans = %+v", spans)
	}
}

func TestDetect_MultipleOccurrences(t *testing.T) {
	text := "Bob, bob and BOB. Bobby is not Bob."
	spans := Detect(text, catalog("Bob"))
	wantMatched(t, text, spans, "Bob", "bob", "BOB", "Bob")
	for _, s := range spans {
		if s.MatchedTitle != "Bob" {
			t.Errorf("MatchedTitle = %q, want catalog spelling", s.MatchedTitle)
		}
	}
}

func TestDetect_BoundaryFailureRetriesNextRune(t *testing.T) {
	// "a a" first occurs at offset 1 inside "ba a", which fails the boundary
	// check; the next valid occurrence starts one rune later.
	spans := Detect("ba a a", catalog("a a"))
	if len(spans) != 1 || spans[0].Start != 3 || spans[0].End != 6 {
		t.Errorf("spans = %+v, want [3,6)", spans)
	}
}

func TestDetect_ExcludedRangesNeverMatch(t *testing.T) {
	text := "# Alice\nAlice and [[Alice]]"
	excluded := []Range{{Start: 0, End: 7}, {Start: 18, End: 27}}
	spans := Detect(text, catalog("Alice"), excluded...)
	if len(spans) != 1 || spans[0].Start != 8 {
		t.Errorf("spans = %+v, want one at 8", spans)
	}
}

func TestDetect_ExcludedRangeBlocksPartialOverlap(t *testing.T) {
	spans := Detect("New York", catalog("New York", "New"), Range{Start: 4, End: 8})
	if len(spans) != 1 || spans[0].MatchedTitle != "New" {
		t.Errorf("spans = %+v, want only New", spans)
	}
}

func TestDetect_ExcludedRangeClampedToText(t *testing.T) {
	if spans := Detect("Alice", catalog("Alice"), Range{Start: -5, End: 100}); len(spans) != 0 {
		t.Errorf("spans = %+v, want none", spans)
	}
}

func TestDetect_EqualLengthTieBreakIsLexicographic(t *testing.T) {
	// "ab cd" and "cd ef" both have five runes and overlap on "cd".
	text := "ab cd ef"
	for _, cat := range [][]models.CatalogEntry{catalog("cd ef", "ab cd"), catalog("ab cd", "cd ef")} {
		spans := Detect(text, cat)
		if len(spans) != 1 || spans[0].MatchedTitle != "ab cd" {
			t.Errorf("catalog %v: spans = %+v", cat, spans)
		}
	}
}

func TestDetect_OffsetsIntoOriginalUnicodeText(t *testing.T) {
	text := "Über Straße und Café Crème."
	wantMatched(t, text, Detect(text, catalog("café crème", "straße")), "Straße", "Café Crème")
}

func TestDetect_AccentedNeighbourIsWordCharacter(t *testing.T) {
	if spans := Detect("éBob", catalog("Bob")); len(spans) != 0 {
		t.Errorf("spans = %+v, want none", spans)
	}
}

func TestDetect_TitlesWithMarkerSyntaxSkipped(t *testing.T) {
	text := "The Battle of [Redacted] split Either|Or fans."
	spans := Detect(text, catalog("Battle of [Redacted]", "Either|Or", "fans"))
	wantMatched(t, text, spans, "fans")
}

func TestDetect_SlugCarriedThrough(t *testing.T) {
	spans := Detect("see Alice", []models.CatalogEntry{{Title: "Alice", Slug: "alice"}})
	if len(spans) != 1 || spans[0].Slug != "alice" {
		t.Errorf("spans = %+v", spans)
	}
}

func TestDetect_EndToEndScenario(t *testing.T) {
	cat := []models.CatalogEntry{{Title: "Alice", Slug: "alice"}, {Title: "Bob", Slug: "bob"}}
	spans := Detect("Alice spoke with Bob", cat)
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	if spans[0].Slug != "alice" || spans[1].Slug != "bob" || spans[0].End > spans[1].Start {
		t.Errorf("spans = %+v", spans)
	}
}
