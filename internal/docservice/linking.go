package docservice

import (
	"context"
	"fmt"

	"github.com/starford/lorebook/internal/apperr"
	"github.com/starford/lorebook/internal/checksum"
	"github.com/starford/lorebook/internal/linkdetect"
	"github.com/starford/lorebook/internal/models"
)

// Suggestions is the result of link detection over one document. Checksum
// identifies the file state the spans were computed against.
type Suggestions struct {
	Slug     string            `json:"slug"`
	Checksum string            `json:"checksum"`
	Spans    []linkdetect.Span `json:"spans"`
}

// Detect runs link detection over arbitrary text with the live catalog.
func (s *Service) Detect(_ context.Context, text string) ([]linkdetect.Span, error) {
	cat, err := s.db.Catalog()
	if err != nil {
		return nil, err
	}
	return nonNilSlice(linkdetect.Detect(text, cat)), nil
}

// SuggestLinks detects unlinked mentions of known titles in a document body.
// Existing markers and headings are never suggested, and neither is the
// document's own title.
func (s *Service) SuggestLinks(_ context.Context, docSlug string) (*Suggestions, error) {
	cur, err := s.load(docSlug)
	if err != nil {
		return nil, err
	}
	cat, err := s.db.Catalog()
	if err != nil {
		return nil, err
	}
	spans := linkdetect.Detect(cur.res.Body, withoutSlug(cat, cur.row.Slug), cur.res.Excluded()...)
	return &Suggestions{
		Slug:     cur.row.Slug,
		Checksum: checksum.Sum(cur.data),
		Spans:    nonNilSlice(spans),
	}, nil
}

// AcceptSuggestions turns the accepted spans into markers and saves the
// document. Spans that no longer match the body are skipped; when none apply
// ErrStaleSuggestion is returned and nothing is written.
func (s *Service) AcceptSuggestions(_ context.Context, docSlug string, spans []linkdetect.Span, summary string) (*DocumentDetail, int, error) {
	cur, err := s.load(docSlug)
	if err != nil {
		return nil, 0, err
	}
	body, n := linkdetect.Link(cur.res.Body, spans)
	if n == 0 {
		return nil, 0, apperr.ErrStaleSuggestion
	}
	if summary == "" {
		summary = fmt.Sprintf("%s (%d)", SummaryLinked, n)
	}
	data, err := s.replace(cur, cur.row.Title, body, summary)
	if err != nil {
		return nil, 0, err
	}
	detail, err := s.buildDetail(cur.path, data)
	if err != nil {
		return nil, 0, err
	}
	return detail, n, nil
}

func withoutSlug(cat []models.CatalogEntry, exclude string) []models.CatalogEntry {
	out := make([]models.CatalogEntry, 0, len(cat))
	for _, e := range cat {
		if e.Slug != exclude {
			out = append(out, e)
		}
	}
	return out
}
