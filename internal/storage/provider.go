// Package storage keeps documents as Markdown files in a vault directory.
//
// Paths are vault-relative and slash-separated. A document's slug is derived
// from its path, so a file moved between folders becomes a different document.
package storage

import (
	"errors"

	"github.com/starford/lorebook/internal/models"
)

// Ext is the file extension of vault documents.
const Ext = ".md"

// ErrOutsideVault is returned for paths that would resolve outside the vault.
var ErrOutsideVault = errors.New("storage: path outside vault")

// Provider is a vault of document files.
type Provider interface {
	// Root returns the absolute vault directory.
	Root() string
	// Documents lists every document file with its slug and checksum.
	// Hidden files and directories are skipped.
	Documents() ([]models.DocumentMetadata, error)
	// IsDocument reports whether path names a document file.
	IsDocument(path string) bool
	// PathFor returns the path a document with slug s is created at.
	PathFor(s string) string
	// SlugFor derives the slug of the document stored at path.
	SlugFor(path string) string

	Read(path string) ([]byte, error)
	// Write replaces the file at path atomically.
	Write(path string, content []byte) error
	Delete(path string) error
}
