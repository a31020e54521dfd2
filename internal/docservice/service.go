// Package docservice coordinates the vault, the index and the linking and
// history algorithms behind the REST API and the MCP server.
package docservice

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"time"

	"github.com/starford/lorebook/internal/apperr"
	"github.com/starford/lorebook/internal/checksum"
	"github.com/starford/lorebook/internal/index"
	"github.com/starford/lorebook/internal/models"
	"github.com/starford/lorebook/internal/parser"
	"github.com/starford/lorebook/internal/slug"
	"github.com/starford/lorebook/internal/storage"
	"github.com/starford/lorebook/internal/wikilink"
)

// Default revision summaries.
const (
	SummaryEdited = "Edited"
	SummaryLinked = "Added links"
)

// DocumentDetail is the full representation of a document.
type DocumentDetail struct {
	Slug        string                `json:"slug"`
	Title       string                `json:"title"`
	Path        string                `json:"path"`
	Content     string                `json:"content"`
	Body        string                `json:"body"`
	Checksum    string                `json:"checksum"`
	Tags        []string              `json:"tags"`
	Frontmatter map[string]any        `json:"frontmatter,omitempty"`
	References  []wikilink.Reference  `json:"references"`
	Broken      int                   `json:"broken"`
	HTML        string                `json:"html"`
	Backlinks   []models.DocumentRef  `json:"backlinks"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// DocumentListItem is a lightweight item in a list response.
type DocumentListItem struct {
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	Tags      []string  `json:"tags"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpdateInput carries the fields of an update. An empty Title keeps the current one.
type UpdateInput struct {
	Title   string
	Content string
	Summary string
}

// Service coordinates storage and index operations.
type Service struct {
	store storage.Provider
	db    index.DocumentIndex
}

// NewService creates a new document service.
func NewService(store storage.Provider, db index.DocumentIndex) *Service {
	return &Service{store: store, db: db}
}

// current is a document as read from the vault for a mutation.
type current struct {
	path string
	data []byte
	res  *parser.Result
	row  index.DocumentRow
}

func (s *Service) load(docSlug string) (*current, error) {
	p := s.store.PathFor(docSlug)
	if indexed, err := s.db.GetDocument(docSlug); err == nil {
		p = indexed.Path
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	data, err := s.store.Read(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	row, err := index.BuildRow(p, docSlug, data)
	if err != nil {
		return nil, err
	}
	return &current{path: p, data: data, res: res, row: row}, nil
}

// Get reads a document, resolves its references against the live catalog,
// renders it and collects its backlinks.
func (s *Service) Get(_ context.Context, docSlug string) (*DocumentDetail, error) {
	cur, err := s.load(docSlug)
	if err != nil {
		return nil, err
	}
	return s.buildDetail(cur.path, cur.data)
}

// Create writes a new document whose slug is derived from title and indexes it.
// content may carry its own frontmatter; its title field is overwritten.
func (s *Service) Create(_ context.Context, title, content string) (*DocumentDetail, error) {
	docSlug := slug.Normalize(title)
	if docSlug == "" || !wikilink.ValidTarget(title) {
		return nil, apperr.ErrInvalidTitle
	}
	p := s.store.PathFor(docSlug)

	if _, err := s.db.GetDocument(docSlug); err == nil {
		return nil, apperr.ErrAlreadyExists
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	if _, err := s.store.Read(p); err == nil {
		return nil, apperr.ErrAlreadyExists
	}

	res, err := parser.Parse([]byte(content))
	if err != nil {
		return nil, err
	}
	data, err := compose(res.Frontmatter, title, res.Body)
	if err != nil {
		return nil, err
	}
	row, err := index.BuildRow(p, docSlug, data)
	if err != nil {
		return nil, err
	}
	if err := s.db.UpsertDocument(row); err != nil {
		return nil, fmt.Errorf("docservice: index: %w", err)
	}
	if err := s.store.Write(p, data); err != nil {
		_ = s.db.DeleteDocument(p)
		return nil, err
	}
	return s.buildDetail(p, data)
}

// Update replaces the title and body of a document. ifMatch, when non-empty,
// must equal the checksum of the file as currently stored.
func (s *Service) Update(_ context.Context, docSlug string, in UpdateInput, ifMatch string) (*DocumentDetail, error) {
	cur, err := s.load(docSlug)
	if err != nil {
		return nil, err
	}
	if !checksum.Match(cur.data, ifMatch) {
		return nil, apperr.ErrConflict
	}

	title := in.Title
	if title == "" {
		title = cur.row.Title
	} else if !wikilink.ValidTarget(title) {
		return nil, apperr.ErrInvalidTitle
	}
	summary := in.Summary
	if summary == "" {
		summary = SummaryEdited
	}

	res, err := parser.Parse([]byte(in.Content))
	if err != nil {
		return nil, err
	}
	data, err := s.replace(cur, title, res.Body, summary)
	if err != nil {
		return nil, err
	}
	return s.buildDetail(cur.path, data)
}

// Delete removes a document from the index and the vault. Its revisions are kept.
func (s *Service) Delete(_ context.Context, docSlug string) error {
	row, err := s.db.GetDocument(docSlug)
	if err != nil {
		return err
	}
	if err := s.db.DeleteDocument(row.Path); err != nil {
		return err
	}
	if err := s.store.Delete(row.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// List returns paginated documents with optional tag filter.
func (s *Service) List(_ context.Context, limit, offset int, tag, sort string) ([]DocumentListItem, int, error) {
	rows, total, err := s.db.ListDocuments(limit, offset, tag, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]DocumentListItem, len(rows))
	for i, r := range rows {
		items[i] = DocumentListItem{
			Slug:      r.Slug,
			Title:     r.Title,
			Checksum:  r.Checksum,
			Tags:      nonNilSlice(r.Tags),
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Catalog returns every known title and slug.
func (s *Service) Catalog(_ context.Context) ([]models.CatalogEntry, error) {
	return s.db.Catalog()
}

// Resolve resolves the markers in body against the live catalog.
func (s *Service) Resolve(_ context.Context, body string) (wikilink.AnnotatedBody, error) {
	cat, err := s.db.Catalog()
	if err != nil {
		return wikilink.AnnotatedBody{}, err
	}
	return wikilink.Resolve(body, cat), nil
}

// Backlinks returns the documents whose body links to docSlug.
func (s *Service) Backlinks(_ context.Context, docSlug string) ([]models.DocumentRef, error) {
	corpus, err := s.db.Corpus()
	if err != nil {
		return nil, err
	}
	return nonNilSlice(wikilink.FindBacklinks(docSlug, corpus)), nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// replace snapshots the current title and body as a revision and then
// overwrites the document. A failed snapshot leaves the document untouched.
// The index is updated before the file so that the watcher sees an unchanged
// checksum for our own write.
func (s *Service) replace(cur *current, title, body, summary string) ([]byte, error) {
	if _, err := s.db.AddRevision(models.Revision{
		Slug:    cur.row.Slug,
		Title:   cur.row.Title,
		Body:    cur.row.Body,
		Summary: summary,
	}); err != nil {
		return nil, fmt.Errorf("docservice: snapshot: %w", err)
	}

	data, err := compose(cur.res.Frontmatter, title, body)
	if err != nil {
		return nil, err
	}
	row, err := index.BuildRow(cur.path, cur.row.Slug, data)
	if err != nil {
		return nil, err
	}
	if err := s.db.UpsertDocument(row); err != nil {
		return nil, fmt.Errorf("docservice: index: %w", err)
	}
	if err := s.store.Write(cur.path, data); err != nil {
		_ = s.db.UpsertDocument(cur.row)
		return nil, err
	}
	return data, nil
}

// compose writes title into a copy of fm and renders the document.
func compose(fm map[string]any, title, body string) ([]byte, error) {
	out := make(map[string]any, len(fm)+1)
	maps.Copy(out, fm)
	out["title"] = title
	return parser.Compose(out, body)
}

// buildDetail constructs a DocumentDetail from raw data without re-reading the file.
func (s *Service) buildDetail(p string, data []byte) (*DocumentDetail, error) {
	row, err := index.BuildRow(p, s.store.SlugFor(p), data)
	if err != nil {
		return nil, err
	}
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	cat, err := s.db.Catalog()
	if err != nil {
		return nil, err
	}
	corpus, err := s.db.Corpus()
	if err != nil {
		return nil, err
	}

	resolved := wikilink.AnnotatedBody{
		Text:       res.Body,
		References: wikilink.ResolveMarkers(res.Markers, cat),
	}
	html, err := renderHTML(resolved)
	if err != nil {
		return nil, err
	}

	updated := row.UpdatedAt
	if indexed, err := s.db.GetDocument(row.Slug); err == nil {
		updated = indexed.UpdatedAt
	}

	return &DocumentDetail{
		Slug:        row.Slug,
		Title:       row.Title,
		Path:        p,
		Content:     string(data),
		Body:        row.Body,
		Checksum:    row.Checksum,
		Tags:        nonNilSlice(row.Tags),
		Frontmatter: res.Frontmatter,
		References:  nonNilSlice(resolved.References),
		Broken:      resolved.BrokenCount(),
		HTML:        html,
		Backlinks:   nonNilSlice(wikilink.FindBacklinks(row.Slug, corpus)),
		UpdatedAt:   updated,
	}, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
