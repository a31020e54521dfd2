package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/lorebook/internal/apperr"
	"github.com/starford/lorebook/internal/models"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// DocumentRow represents a row in the documents table.
type DocumentRow struct {
	Path      string
	Slug      string
	Title     string
	Checksum  string
	Tags      []string
	Body      string
	UpdatedAt time.Time
	// CreatedAt is set on first insert and never changed by later upserts.
	CreatedAt time.Time
}

// Document returns the core-facing form of the row.
func (r DocumentRow) Document() models.Document {
	return models.Document{ID: r.Path, Title: r.Title, Slug: r.Slug, Body: r.Body}
}

// SearchResult represents one search hit.
type SearchResult struct {
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// UpsertDocument inserts or replaces a document and its FTS entry within a transaction.
func (db *DB) UpsertDocument(r DocumentRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, _ := json.Marshal(tags)
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = time.Now().UTC()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = r.UpdatedAt
	}

	_, err = tx.Exec(`
		INSERT INTO documents (path, slug, title, checksum, tags, body, updated_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			slug       = excluded.slug,
			title      = excluded.title,
			checksum   = excluded.checksum,
			tags       = excluded.tags,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, r.Path, r.Slug, r.Title, r.Checksum, string(tagsJSON), r.Body, r.UpdatedAt.UTC(), r.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	if err := ftsUpsert(tx, r.Path, r.Slug, r.Title, r.Body, tags); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteDocument removes a document and its FTS entry. Revisions are kept.
func (db *DB) DeleteDocument(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	if _, err := tx.Exec(`DELETE FROM documents WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete document: %w", err)
	}

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a document, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM documents WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

const selectDocument = `SELECT path, slug, title, checksum, tags, body, updated_at, created_at FROM documents`

// GetDocument returns the indexed document with the given slug.
func (db *DB) GetDocument(slug string) (*DocumentRow, error) {
	return db.getOne(selectDocument+` WHERE slug = ?`, slug)
}

func (db *DB) getByPath(path string) (*DocumentRow, error) {
	return db.getOne(selectDocument+` WHERE path = ?`, path)
}

func (db *DB) getOne(query string, arg string) (*DocumentRow, error) {
	r, err := scanDocument(db.conn.QueryRow(query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get document: %w", err)
	}
	return r, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(s rowScanner) (*DocumentRow, error) {
	var r DocumentRow
	var tags string
	if err := s.Scan(&r.Path, &r.Slug, &r.Title, &r.Checksum, &tags, &r.Body, &r.UpdatedAt, &r.CreatedAt); err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(tags), &r.Tags)
	return &r, nil
}

// ListDocuments returns one page of documents and the total count matching tag.
// sort is one of "title", "slug", "created_at" (newest first) or "updated_at"
// (default, newest first).
func (db *DB) ListDocuments(limit, offset int, tag, sort string) ([]DocumentRow, int, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)
	offset = max(offset, 0)

	order := "updated_at DESC, slug"
	switch sort {
	case "title":
		order = "title COLLATE NOCASE, slug"
	case "slug":
		order = "slug"
	case "created_at":
		order = "created_at DESC, slug"
	}

	where := ""
	args := []any{}
	if tag != "" {
		where = ` WHERE EXISTS (SELECT 1 FROM json_each(documents.tags) WHERE json_each.value = ?)`
		args = append(args, tag)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count documents: %w", err)
	}

	rows, err := db.conn.Query(selectDocument+where+` ORDER BY `+order+` LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentRow
	for rows.Next() {
		r, err := scanDocument(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("index: scan document: %w", err)
		}
		out = append(out, *r)
	}
	return out, total, rows.Err()
}

// Catalog returns a fresh snapshot of every known title and slug, ordered by title.
func (db *DB) Catalog() ([]models.CatalogEntry, error) {
	rows, err := db.conn.Query(`SELECT title, slug FROM documents ORDER BY title COLLATE NOCASE, slug`)
	if err != nil {
		return nil, fmt.Errorf("index: catalog: %w", err)
	}
	defer rows.Close()

	out := []models.CatalogEntry{}
	for rows.Next() {
		var e models.CatalogEntry
		if err := rows.Scan(&e.Title, &e.Slug); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Corpus returns a fresh snapshot of every document body, ordered by slug.
func (db *DB) Corpus() ([]models.Document, error) {
	rows, err := db.conn.Query(`SELECT path, slug, title, body FROM documents ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("index: corpus: %w", err)
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.Slug, &d.Title, &d.Body); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// AllChecksums returns path → checksum for every indexed document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}
