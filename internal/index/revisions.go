package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/lorebook/internal/apperr"
	"github.com/starford/lorebook/internal/models"
)

// AddRevision appends an immutable snapshot to the revision log. A missing ID
// or timestamp is filled in; the stored revision is returned.
func (db *DB) AddRevision(rev models.Revision) (models.Revision, error) {
	if rev.Slug == "" {
		return models.Revision{}, fmt.Errorf("index: add revision: empty slug")
	}
	if rev.ID == "" {
		rev.ID = uuid.NewString()
	}
	if rev.CreatedAt.IsZero() {
		rev.CreatedAt = time.Now()
	}
	rev.CreatedAt = rev.CreatedAt.UTC()

	_, err := db.conn.Exec(`
		INSERT INTO revisions (id, slug, title, body, summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rev.ID, rev.Slug, rev.Title, rev.Body, rev.Summary, rev.CreatedAt)
	if err != nil {
		return models.Revision{}, fmt.Errorf("index: add revision: %w", err)
	}
	return rev, nil
}

// ListRevisions returns every revision of slug, newest first.
func (db *DB) ListRevisions(slug string) ([]models.Revision, error) {
	rows, err := db.conn.Query(`
		SELECT id, slug, title, body, summary, created_at
		FROM revisions
		WHERE slug = ?
		ORDER BY created_at DESC, rowid DESC
	`, slug)
	if err != nil {
		return nil, fmt.Errorf("index: list revisions: %w", err)
	}
	return scanRevisions(rows)
}

// RecentRevisions returns the newest revisions across all documents, including
// deleted ones. A non-positive limit means the default page size.
func (db *DB) RecentRevisions(limit int) ([]models.Revision, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)

	rows, err := db.conn.Query(`
		SELECT id, slug, title, body, summary, created_at
		FROM revisions
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("index: recent revisions: %w", err)
	}
	return scanRevisions(rows)
}

func scanRevisions(rows *sql.Rows) ([]models.Revision, error) {
	defer rows.Close()

	out := []models.Revision{}
	for rows.Next() {
		var r models.Revision
		if err := rows.Scan(&r.ID, &r.Slug, &r.Title, &r.Body, &r.Summary, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("index: scan revision: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRevision returns one revision by ID.
func (db *DB) GetRevision(id string) (*models.Revision, error) {
	var r models.Revision
	err := db.conn.QueryRow(`
		SELECT id, slug, title, body, summary, created_at FROM revisions WHERE id = ?
	`, id).Scan(&r.ID, &r.Slug, &r.Title, &r.Body, &r.Summary, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get revision: %w", err)
	}
	return &r, nil
}
