package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/lorebook/internal/docservice"
)

// NewRouter creates a chi router with all API routes mounted.
// Reads are public; mutations and the event stream require the bearer token
// when authEnabled is set. events, if non-nil, receives a notification for
// every mutation and is mounted at GET /events.
func NewRouter(svc *docservice.Service, authEnabled bool, token string, events EventSink) chi.Router {
	h := NewHandler(svc, events)

	r := chi.NewRouter()

	r.Get("/documents", h.ListDocuments)
	r.Get("/documents/{slug}", h.GetDocument)
	r.Get("/documents/{slug}/backlinks", h.Backlinks)
	r.Get("/documents/{slug}/suggestions", h.Suggestions)
	r.Get("/documents/{slug}/revisions", h.ListRevisions)
	r.Get("/documents/{slug}/revisions/{id}", h.GetRevision)
	r.Get("/documents/{slug}/diff", h.Diff)
	r.Get("/revisions/recent", h.RecentChanges)
	r.Get("/catalog", h.Catalog)
	r.Post("/detect", h.Detect)
	r.Get("/search", h.Search)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(authEnabled, token))

		r.Post("/documents", h.CreateDocument)
		r.Put("/documents/{slug}", h.UpdateDocument)
		r.Delete("/documents/{slug}", h.DeleteDocument)
		r.Post("/documents/{slug}/suggestions/accept", h.AcceptSuggestions)
		r.Post("/documents/{slug}/revisions/{id}/revert", h.RevertRevision)

		if stream, ok := events.(http.Handler); ok {
			r.Get("/events", stream.ServeHTTP)
		}
	})

	return r
}
