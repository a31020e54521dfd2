package wikilink

import (
	"github.com/starford/lorebook/internal/models"
	"github.com/starford/lorebook/internal/slug"
)

// FindBacklinks returns the documents in corpus whose body holds at least one
// marker resolving to targetSlug. Each document appears once, in corpus order.
// A document linking to its own slug is included like any other.
func FindBacklinks(targetSlug string, corpus []models.Document) []models.DocumentRef {
	if targetSlug == "" {
		return nil
	}
	var out []models.DocumentRef
	for _, doc := range corpus {
		if linksTo(doc.Body, targetSlug) {
			out = append(out, doc.Ref())
		}
	}
	return out
}

func linksTo(body, targetSlug string) bool {
	for _, m := range Scan(body) {
		if slug.Normalize(m.Target) == targetSlug {
			return true
		}
	}
	return false
}
