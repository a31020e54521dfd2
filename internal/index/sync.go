package index

import (
	"errors"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/starford/lorebook/internal/apperr"
	"github.com/starford/lorebook/internal/checksum"
	"github.com/starford/lorebook/internal/models"
	"github.com/starford/lorebook/internal/parser"
	"github.com/starford/lorebook/internal/storage"
)

// ExternalEditSummary is the revision summary recorded when a document changes
// on disk without going through the service.
const ExternalEditSummary = "Edited outside the application"

// Change kinds reported by indexing.
const (
	KindCreated = "created"
	KindUpdated = "updated"
	KindDeleted = "deleted"
	// KindReverted is reported by the service, never by indexing.
	KindReverted = "reverted"
)

// BuildRow parses raw document bytes into the index row of the document with
// slug docSlug stored at path p. The title falls back to the file stem when
// neither frontmatter nor a level-one heading provides one.
func BuildRow(p, docSlug string, data []byte) (DocumentRow, error) {
	res, err := parser.Parse(data)
	if err != nil {
		return DocumentRow{}, err
	}
	title := res.Title
	if title == "" {
		title = strings.TrimSuffix(path.Base(p), storage.Ext)
	}
	return DocumentRow{
		Path:      p,
		Slug:      docSlug,
		Title:     title,
		Checksum:  checksum.Sum(data),
		Tags:      res.Tags,
		Body:      res.Body,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

// Sync walks the vault and brings the index up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.Documents()
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if _, _, err := indexFile(db, m.Path, m.Slug, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteDocument(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// indexFile parses data and upserts it. When an indexed document changed its
// title or body, the previous state is first kept as a revision. It returns the
// change kind ("" when the checksum is unchanged) and the document slug.
func indexFile(db *DB, p, docSlug string, data []byte) (string, string, error) {
	row, err := BuildRow(p, docSlug, data)
	if err != nil {
		return "", "", err
	}

	prev, err := db.getByPath(p)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		prev = nil
	case err != nil:
		return "", "", err
	}

	kind := KindCreated
	if prev != nil {
		if prev.Checksum == row.Checksum {
			return "", row.Slug, nil
		}
		kind = KindUpdated
		if prev.Title != row.Title || prev.Body != row.Body {
			if _, err := db.AddRevision(models.Revision{
				Slug:    prev.Slug,
				Title:   prev.Title,
				Body:    prev.Body,
				Summary: ExternalEditSummary,
			}); err != nil {
				return "", "", err
			}
		}
	}

	if err := db.UpsertDocument(row); err != nil {
		return "", "", err
	}
	return kind, row.Slug, nil
}
