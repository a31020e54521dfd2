package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/starford/lorebook/internal/checksum"
	"github.com/starford/lorebook/internal/models"
	"github.com/starford/lorebook/internal/slug"
)

// tempPrefix marks in-flight writes. The leading dot keeps them out of listings
// and away from the watcher.
const tempPrefix = ".lorebook-tmp-"

// Vault is a Provider on the local file system.
type Vault struct {
	root string
}

var _ Provider = (*Vault)(nil)

// Open returns the vault rooted at dir, creating the directory if needed.
func Open(dir string) (*Vault, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: open vault: %w", err)
	}
	return &Vault{root: root}, nil
}

// Root returns the absolute vault directory.
func (v *Vault) Root() string {
	return v.root
}

// PathFor places every new document at the vault root.
func (v *Vault) PathFor(s string) string {
	return s + Ext
}

// SlugFor flattens nested paths into one slug:
// "north/castle-black.md" becomes "north-castle-black".
func (v *Vault) SlugFor(p string) string {
	return slug.Normalize(strings.TrimSuffix(filepath.ToSlash(p), Ext))
}

// IsDocument reports whether p is a Markdown file outside hidden directories.
func (v *Vault) IsDocument(p string) bool {
	p = filepath.ToSlash(p)
	if path.Ext(p) != Ext {
		return false
	}
	for _, part := range strings.Split(p, "/") {
		if hidden(part) {
			return false
		}
	}
	return true
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// Documents walks the vault. Hidden directories such as .git or .obsidian are
// not entered.
func (v *Vault) Documents() ([]models.DocumentMetadata, error) {
	var docs []models.DocumentMetadata
	err := filepath.WalkDir(v.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == v.root {
			return nil
		}
		if d.IsDir() {
			if hidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(v.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !v.IsDocument(rel) {
			return nil
		}
		meta, err := v.describe(rel, p)
		if err != nil {
			return err
		}
		docs = append(docs, meta)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list documents: %w", err)
	}
	return docs, nil
}

func (v *Vault) describe(rel, abs string) (models.DocumentMetadata, error) {
	info, err := os.Stat(abs)
	if err != nil {
		return models.DocumentMetadata{}, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return models.DocumentMetadata{}, err
	}
	return models.DocumentMetadata{
		Path:      rel,
		Slug:      v.SlugFor(rel),
		Checksum:  checksum.Sum(data),
		UpdatedAt: info.ModTime(),
	}, nil
}

// locate maps a vault-relative path to the file system.
func (v *Vault) locate(rel string) (string, error) {
	native := filepath.FromSlash(rel)
	if !filepath.IsLocal(native) {
		return "", fmt.Errorf("%w: %q", ErrOutsideVault, rel)
	}
	return filepath.Join(v.root, native), nil
}

// Read returns the raw bytes of a document file. A missing file yields an
// error matching os.ErrNotExist.
func (v *Vault) Read(rel string) ([]byte, error) {
	p, err := v.locate(rel)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", rel, err)
	}
	return data, nil
}

// Write creates parent folders as needed. Readers see either the old content
// or the new one, never a partial file.
func (v *Vault) Write(rel string, content []byte) error {
	p, err := v.locate(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("storage: create folder for %s: %w", rel, err)
	}
	if err := replaceFile(p, content); err != nil {
		return fmt.Errorf("storage: write %s: %w", rel, err)
	}
	return nil
}

// replaceFile writes content to a temp file beside p, syncs it and renames it
// over p.
func replaceFile(p string, content []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(p), tempPrefix+"*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(content); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p)
}

// Delete removes a document file. A missing file yields an error matching
// os.ErrNotExist.
func (v *Vault) Delete(rel string) error {
	p, err := v.locate(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		return fmt.Errorf("storage: delete %s: %w", rel, err)
	}
	return nil
}
