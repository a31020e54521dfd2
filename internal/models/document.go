// Package models defines the domain types for Lorebook.
package models

import "time"

// Document is a single vault document as seen by the linking and history code.
// ID is the vault-relative path of the file that holds it.
type Document struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
	Body  string `json:"body"`
}

// Ref returns the lightweight reference form of d.
func (d Document) Ref() DocumentRef {
	return DocumentRef{ID: d.ID, Title: d.Title, Slug: d.Slug}
}

// DocumentRef identifies a document without its body.
type DocumentRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// CatalogEntry is one known document title and its canonical slug.
type CatalogEntry struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// DocumentMetadata is a lightweight representation returned by vault listings.
type DocumentMetadata struct {
	Path      string    `json:"path"`
	Slug      string    `json:"slug"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Revision is an immutable snapshot of a document's title and body.
type Revision struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Summary   string    `json:"summary,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
