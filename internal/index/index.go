package index

import "github.com/starford/lorebook/internal/models"

// DocumentIndex defines the index operations used by the document service.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with fakes.
type DocumentIndex interface {
	UpsertDocument(row DocumentRow) error
	DeleteDocument(path string) error
	GetChecksum(path string) (string, error)
	GetDocument(slug string) (*DocumentRow, error)
	ListDocuments(limit, offset int, tag, sort string) ([]DocumentRow, int, error)
	Catalog() ([]models.CatalogEntry, error)
	Corpus() ([]models.Document, error)
	Search(query string, limit int) ([]SearchResult, error)
	AllChecksums() (map[string]string, error)

	AddRevision(rev models.Revision) (models.Revision, error)
	ListRevisions(slug string) ([]models.Revision, error)
	RecentRevisions(limit int) ([]models.Revision, error)
	GetRevision(id string) (*models.Revision, error)
}

// Verify *DB satisfies DocumentIndex at compile time.
var _ DocumentIndex = (*DB)(nil)
