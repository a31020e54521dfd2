package docservice

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/starford/lorebook/internal/apperr"
	"github.com/starford/lorebook/internal/models"
	"github.com/starford/lorebook/internal/revdiff"
)

// Current names the live document state in diff requests.
const Current = "current"

// RevisionItem is one history entry. Stats compare the revision with the
// state that replaced it: the next newer revision, or the live document for
// the newest one.
type RevisionItem struct {
	ID        string        `json:"id"`
	Slug      string        `json:"slug"`
	Title     string        `json:"title"`
	Summary   string        `json:"summary,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	Stats     revdiff.Stats `json:"stats"`
}

// DiffResult is a line diff between two states of a document.
type DiffResult struct {
	Slug  string         `json:"slug"`
	From  string         `json:"from"`
	To    string         `json:"to"`
	Lines []revdiff.Line `json:"lines"`
	Stats revdiff.Stats  `json:"stats"`
}

// ListRevisions returns the history of a document, newest first. The history of
// a deleted document stays readable.
func (s *Service) ListRevisions(_ context.Context, docSlug string) ([]RevisionItem, error) {
	revs, err := s.db.ListRevisions(docSlug)
	if err != nil {
		return nil, err
	}

	var successor []string
	if row, err := s.db.GetDocument(docSlug); err == nil {
		successor = revdiff.SplitLines(row.Body)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	items := make([]RevisionItem, len(revs))
	for i, r := range revs {
		lines := revdiff.SplitLines(r.Body)
		items[i] = RevisionItem{
			ID:        r.ID,
			Slug:      r.Slug,
			Title:     r.Title,
			Summary:   r.Summary,
			CreatedAt: r.CreatedAt,
			Stats:     revdiff.Summarize(revdiff.Diff(lines, successor)),
		}
		successor = lines
	}
	return items, nil
}

// GetRevision returns one revision of docSlug.
func (s *Service) GetRevision(_ context.Context, docSlug, id string) (*models.Revision, error) {
	rev, err := s.db.GetRevision(id)
	if err != nil {
		return nil, err
	}
	if rev.Slug != docSlug {
		return nil, apperr.ErrNotFound
	}
	return rev, nil
}

// Diff compares two states of a document. from and to are revision IDs or
// Current; empty means Current.
func (s *Service) Diff(ctx context.Context, docSlug, from, to string) (*DiffResult, error) {
	if from == "" {
		from = Current
	}
	if to == "" {
		to = Current
	}
	oldBody, err := s.bodyAt(ctx, docSlug, from)
	if err != nil {
		return nil, err
	}
	newBody, err := s.bodyAt(ctx, docSlug, to)
	if err != nil {
		return nil, err
	}
	lines := revdiff.Diff(revdiff.SplitLines(oldBody), revdiff.SplitLines(newBody))
	return &DiffResult{
		Slug:  docSlug,
		From:  from,
		To:    to,
		Lines: nonNilSlice(lines),
		Stats: revdiff.Summarize(lines),
	}, nil
}

func (s *Service) bodyAt(ctx context.Context, docSlug, ref string) (string, error) {
	if ref == Current {
		row, err := s.db.GetDocument(docSlug)
		if err != nil {
			return "", err
		}
		return row.Body, nil
	}
	rev, err := s.GetRevision(ctx, docSlug, ref)
	if err != nil {
		return "", err
	}
	return rev.Body, nil
}

// RevertSummary is the summary of the snapshot taken before a revert.
func RevertSummary(rev models.Revision) string {
	return fmt.Sprintf("Reverted to revision from %s", rev.CreatedAt.UTC().Format(time.RFC3339))
}

// Revert restores the title and body of a revision. The live state is first
// kept as a new revision; if that fails the document is not modified.
func (s *Service) Revert(ctx context.Context, docSlug, id string) (*DocumentDetail, error) {
	rev, err := s.GetRevision(ctx, docSlug, id)
	if err != nil {
		return nil, err
	}
	cur, err := s.load(docSlug)
	if err != nil {
		return nil, err
	}
	data, err := s.replace(cur, rev.Title, rev.Body, RevertSummary(*rev))
	if err != nil {
		return nil, err
	}
	return s.buildDetail(cur.path, data)
}

// Change kinds in the recent-changes feed.
const (
	ChangeCreated = "created"
	ChangeEdited  = "edited"
)

// DefaultRecentLimit is the size of the recent-changes feed when none is given.
const DefaultRecentLimit = 50

// Change is one entry of the recent-changes feed. Edits point at the revision
// that kept the state they replaced.
type Change struct {
	Kind       string    `json:"kind"`
	Slug       string    `json:"slug"`
	Title      string    `json:"title"`
	Summary    string    `json:"summary,omitempty"`
	RevisionID string    `json:"revision_id,omitempty"`
	At         time.Time `json:"at"`
}

// RecentChanges merges the newest revisions across all documents with the
// newest created documents, newest first, and keeps at most limit entries.
// On equal timestamps an edit sorts before a creation.
func (s *Service) RecentChanges(_ context.Context, limit int) ([]Change, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	revs, err := s.db.RecentRevisions(limit)
	if err != nil {
		return nil, err
	}
	created, _, err := s.db.ListDocuments(limit, 0, "", "created_at")
	if err != nil {
		return nil, err
	}

	out := make([]Change, 0, len(revs)+len(created))
	for _, r := range revs {
		out = append(out, Change{
			Kind:       ChangeEdited,
			Slug:       r.Slug,
			Title:      r.Title,
			Summary:    r.Summary,
			RevisionID: r.ID,
			At:         r.CreatedAt,
		})
	}
	for _, d := range created {
		out = append(out, Change{Kind: ChangeCreated, Slug: d.Slug, Title: d.Title, At: d.CreatedAt})
	}
	slices.SortStableFunc(out, func(a, b Change) int { return b.At.Compare(a.At) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
