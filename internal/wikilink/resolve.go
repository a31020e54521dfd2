package wikilink

import (
	"github.com/starford/lorebook/internal/models"
	"github.com/starford/lorebook/internal/slug"
)

// Status is the resolution outcome of a marker.
type Status string

const (
	StatusResolved Status = "resolved"
	StatusBroken   Status = "broken"
)

// Reference is a marker annotated with its target slug and status.
type Reference struct {
	Marker
	Slug   string `json:"slug"`
	Status Status `json:"status"`
}

// Broken reports whether the reference points at no known document.
func (r Reference) Broken() bool {
	return r.Status == StatusBroken
}

// AnnotatedBody is a body together with its resolved references.
type AnnotatedBody struct {
	Text       string      `json:"text"`
	References []Reference `json:"references"`
}

// BrokenCount returns the number of broken references.
func (a AnnotatedBody) BrokenCount() int {
	n := 0
	for _, r := range a.References {
		if r.Broken() {
			n++
		}
	}
	return n
}

// Resolve scans body for markers and resolves each against catalog.
func Resolve(body string, catalog []models.CatalogEntry) AnnotatedBody {
	return AnnotatedBody{
		Text:       body,
		References: ResolveMarkers(Scan(body), catalog),
	}
}

// ResolveMarkers resolves already scanned markers against catalog. A marker is
// resolved when Normalize(target) is non-empty and equals a catalog slug.
func ResolveMarkers(markers []Marker, catalog []models.CatalogEntry) []Reference {
	if len(markers) == 0 {
		return nil
	}
	known := make(map[string]struct{}, len(catalog))
	for _, e := range catalog {
		if e.Slug != "" {
			known[e.Slug] = struct{}{}
		}
	}

	out := make([]Reference, len(markers))
	for i, m := range markers {
		s := slug.Normalize(m.Target)
		status := StatusBroken
		if _, ok := known[s]; ok && s != "" {
			status = StatusResolved
		}
		out[i] = Reference{Marker: m, Slug: s, Status: status}
	}
	return out
}
