package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/lorebook/internal/docservice"
	"github.com/starford/lorebook/internal/index"
)

const maxBodyBytes = 10 << 20

// EventSink receives a notification for every document mutation made through the API.
type EventSink interface {
	PublishDocumentEvent(kind, slug string)
}

type discardEvents struct{}

func (discardEvents) PublishDocumentEvent(string, string) {}

// Handler holds API route handlers.
type Handler struct {
	svc    *docservice.Service
	events EventSink
}

// NewHandler creates a new Handler. A nil events discards notifications.
func NewHandler(svc *docservice.Service, events EventSink) *Handler {
	if events == nil {
		events = discardEvents{}
	}
	return &Handler{svc: svc, events: events}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

// ListDocuments handles GET /api/documents.
//
//	@Summary		List documents with optional pagination and filtering
//	@Tags			documents
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			tag		query		string	false	"Filter by tag"
//	@Param			sort	query		string	false	"Sort field"	Enums(updated_at, title, slug)
//	@Success		200		{object}	DocumentListResponse
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.List(r.Context(), limit, offset, q.Get("tag"), q.Get("sort"))
	if err != nil {
		writeServiceError(w, "list documents", err)
		return
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: items, Total: total})
}

// GetDocument handles GET /api/documents/{slug}.
//
//	@Summary		Get a document with resolved references, rendered HTML and backlinks
//	@Tags			documents
//	@Produce		json
//	@Param			slug	path		string	true	"Document slug"
//	@Success		200		{object}	DocumentDetail
//	@Failure		404		{object}	errResponse
//	@Router			/documents/{slug} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	docSlug := chi.URLParam(r, "slug")
	doc, err := h.svc.Get(r.Context(), docSlug)
	if err != nil {
		writeServiceError(w, "get document", err, slog.String("slug", docSlug))
		return
	}
	w.Header().Set("ETag", etag(doc.Checksum))
	writeJSON(w, http.StatusOK, doc)
}

// CreateDocument handles POST /api/documents.
//
//	@Summary		Create a new document; the slug is derived from the title
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateDocumentRequest	true	"Document to create"
//	@Success		201		{object}	DocumentDetail
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents [post]
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req CreateDocumentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("title is required"))
		return
	}
	doc, err := h.svc.Create(r.Context(), req.Title, req.Content)
	if err != nil {
		writeServiceError(w, "create document", err, slog.String("title", req.Title))
		return
	}
	h.events.PublishDocumentEvent(index.KindCreated, doc.Slug)
	w.Header().Set("ETag", etag(doc.Checksum))
	writeJSON(w, http.StatusCreated, doc)
}

// UpdateDocument handles PUT /api/documents/{slug}.
//
//	@Summary		Update a document with optimistic concurrency; the previous state is kept as a revision
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			slug		path	string					true	"Document slug"
//	@Param			If-Match	header	string					false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body	UpdateDocumentRequest	true	"Updated content"
//	@Success		200		{object}	DocumentDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{slug} [put]
func (h *Handler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	docSlug := chi.URLParam(r, "slug")
	var req UpdateDocumentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Content == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}

	doc, err := h.svc.Update(r.Context(), docSlug, docservice.UpdateInput{
		Title:   req.Title,
		Content: *req.Content,
		Summary: req.Summary,
	}, r.Header.Get("If-Match"))
	if err != nil {
		writeServiceError(w, "update document", err, slog.String("slug", docSlug))
		return
	}
	h.events.PublishDocumentEvent(index.KindUpdated, doc.Slug)
	w.Header().Set("ETag", etag(doc.Checksum))
	writeJSON(w, http.StatusOK, doc)
}

// DeleteDocument handles DELETE /api/documents/{slug}.
//
//	@Summary		Delete a document; its revisions are kept
//	@Tags			documents
//	@Param			slug	path	string	true	"Document slug"
//	@Success		204		"Document deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{slug} [delete]
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	docSlug := chi.URLParam(r, "slug")
	if err := h.svc.Delete(r.Context(), docSlug); err != nil {
		writeServiceError(w, "delete document", err, slog.String("slug", docSlug))
		return
	}
	h.events.PublishDocumentEvent(index.KindDeleted, docSlug)
	w.WriteHeader(http.StatusNoContent)
}

// Backlinks handles GET /api/documents/{slug}/backlinks.
//
//	@Summary		List documents that reference this document
//	@Tags			links
//	@Produce		json
//	@Param			slug	path		string	true	"Document slug"
//	@Success		200		{object}	BacklinksResponse
//	@Router			/documents/{slug}/backlinks [get]
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	docSlug := chi.URLParam(r, "slug")
	refs, err := h.svc.Backlinks(r.Context(), docSlug)
	if err != nil {
		writeServiceError(w, "backlinks", err, slog.String("slug", docSlug))
		return
	}
	writeJSON(w, http.StatusOK, BacklinksResponse{Backlinks: refs})
}

// Suggestions handles GET /api/documents/{slug}/suggestions.
//
//	@Summary		Detect unlinked mentions of known titles in a document
//	@Tags			links
//	@Produce		json
//	@Param			slug	path		string	true	"Document slug"
//	@Success		200		{object}	docservice.Suggestions
//	@Failure		404		{object}	errResponse
//	@Router			/documents/{slug}/suggestions [get]
func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	docSlug := chi.URLParam(r, "slug")
	sug, err := h.svc.SuggestLinks(r.Context(), docSlug)
	if err != nil {
		writeServiceError(w, "suggest links", err, slog.String("slug", docSlug))
		return
	}
	w.Header().Set("ETag", etag(sug.Checksum))
	writeJSON(w, http.StatusOK, sug)
}

// AcceptSuggestions handles POST /api/documents/{slug}/suggestions/accept.
//
//	@Summary		Turn accepted suggestions into references and save the document
//	@Tags			links
//	@Accept			json
//	@Produce		json
//	@Param			slug	path		string						true	"Document slug"
//	@Param			body	body		AcceptSuggestionsRequest	true	"Accepted spans"
//	@Success		200		{object}	AcceptSuggestionsResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{slug}/suggestions/accept [post]
func (h *Handler) AcceptSuggestions(w http.ResponseWriter, r *http.Request) {
	docSlug := chi.URLParam(r, "slug")
	var req AcceptSuggestionsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Spans) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("spans are required"))
		return
	}
	doc, n, err := h.svc.AcceptSuggestions(r.Context(), docSlug, req.Spans, req.Summary)
	if err != nil {
		writeServiceError(w, "accept suggestions", err, slog.String("slug", docSlug))
		return
	}
	h.events.PublishDocumentEvent(index.KindUpdated, doc.Slug)
	writeJSON(w, http.StatusOK, AcceptSuggestionsResponse{Document: doc, Applied: n})
}

// ListRevisions handles GET /api/documents/{slug}/revisions.
//
//	@Summary		List the revisions of a document, newest first
//	@Tags			revisions
//	@Produce		json
//	@Param			slug	path		string	true	"Document slug"
//	@Success		200		{object}	RevisionListResponse
//	@Router			/documents/{slug}/revisions [get]
func (h *Handler) ListRevisions(w http.ResponseWriter, r *http.Request) {
	docSlug := chi.URLParam(r, "slug")
	items, err := h.svc.ListRevisions(r.Context(), docSlug)
	if err != nil {
		writeServiceError(w, "list revisions", err, slog.String("slug", docSlug))
		return
	}
	if items == nil {
		items = []docservice.RevisionItem{}
	}
	writeJSON(w, http.StatusOK, RevisionListResponse{Revisions: items})
}

// GetRevision handles GET /api/documents/{slug}/revisions/{id}.
//
//	@Summary		Get one revision of a document
//	@Tags			revisions
//	@Produce		json
//	@Param			slug	path		string	true	"Document slug"
//	@Param			id		path		string	true	"Revision ID"
//	@Success		200		{object}	models.Revision
//	@Failure		404		{object}	errResponse
//	@Router			/documents/{slug}/revisions/{id} [get]
func (h *Handler) GetRevision(w http.ResponseWriter, r *http.Request) {
	docSlug, id := chi.URLParam(r, "slug"), chi.URLParam(r, "id")
	rev, err := h.svc.GetRevision(r.Context(), docSlug, id)
	if err != nil {
		writeServiceError(w, "get revision", err, slog.String("slug", docSlug), slog.String("id", id))
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

// RecentChanges handles GET /api/revisions/recent.
//
//	@Summary		Newest edits and creations across all documents
//	@Tags			revisions
//	@Produce		json
//	@Param			limit	query		int	false	"Max entries"	default(50)
//	@Success		200		{object}	RecentChangesResponse
//	@Router			/revisions/recent [get]
func (h *Handler) RecentChanges(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	changes, err := h.svc.RecentChanges(r.Context(), limit)
	if err != nil {
		writeServiceError(w, "recent changes", err)
		return
	}
	writeJSON(w, http.StatusOK, RecentChangesResponse{Changes: changes})
}

// RevertRevision handles POST /api/documents/{slug}/revisions/{id}/revert.
//
//	@Summary		Restore a revision; the current state is kept as a new revision first
//	@Tags			revisions
//	@Produce		json
//	@Param			slug	path		string	true	"Document slug"
//	@Param			id		path		string	true	"Revision ID"
//	@Success		200		{object}	DocumentDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{slug}/revisions/{id}/revert [post]
func (h *Handler) RevertRevision(w http.ResponseWriter, r *http.Request) {
	docSlug, id := chi.URLParam(r, "slug"), chi.URLParam(r, "id")
	doc, err := h.svc.Revert(r.Context(), docSlug, id)
	if err != nil {
		writeServiceError(w, "revert revision", err, slog.String("slug", docSlug), slog.String("id", id))
		return
	}
	h.events.PublishDocumentEvent(index.KindReverted, doc.Slug)
	w.Header().Set("ETag", etag(doc.Checksum))
	writeJSON(w, http.StatusOK, doc)
}

// Diff handles GET /api/documents/{slug}/diff.
//
//	@Summary		Line diff between two states of a document
//	@Tags			revisions
//	@Produce		json
//	@Param			slug	path		string	true	"Document slug"
//	@Param			from	query		string	false	"Revision ID or 'current'"
//	@Param			to		query		string	false	"Revision ID or 'current'"
//	@Success		200		{object}	docservice.DiffResult
//	@Failure		404		{object}	errResponse
//	@Router			/documents/{slug}/diff [get]
func (h *Handler) Diff(w http.ResponseWriter, r *http.Request) {
	docSlug := chi.URLParam(r, "slug")
	q := r.URL.Query()
	res, err := h.svc.Diff(r.Context(), docSlug, q.Get("from"), q.Get("to"))
	if err != nil {
		writeServiceError(w, "diff", err, slog.String("slug", docSlug))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Catalog handles GET /api/catalog.
//
//	@Summary		List every document title with its slug
//	@Tags			links
//	@Produce		json
//	@Success		200	{object}	CatalogResponse
//	@Router			/catalog [get]
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	cat, err := h.svc.Catalog(r.Context())
	if err != nil {
		writeServiceError(w, "catalog", err)
		return
	}
	writeJSON(w, http.StatusOK, CatalogResponse{Catalog: cat})
}

// Detect handles POST /api/detect.
//
//	@Summary		Detect mentions of known titles in arbitrary text
//	@Tags			links
//	@Accept			json
//	@Produce		json
//	@Param			body	body		DetectRequest	true	"Text to scan"
//	@Success		200		{object}	DetectResponse
//	@Router			/detect [post]
func (h *Handler) Detect(w http.ResponseWriter, r *http.Request) {
	var req DetectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	spans, err := h.svc.Detect(r.Context(), req.Text)
	if err != nil {
		writeServiceError(w, "detect", err)
		return
	}
	writeJSON(w, http.StatusOK, DetectResponse{Spans: spans})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across documents
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeServiceError(w, "search", err, slog.String("query", q))
		return
	}
	if results == nil {
		results = []SearchResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}
