package api

import (
	"github.com/starford/lorebook/internal/docservice"
	"github.com/starford/lorebook/internal/index"
	"github.com/starford/lorebook/internal/linkdetect"
	"github.com/starford/lorebook/internal/models"
)

// CreateDocumentRequest is the request body for creating a document.
type CreateDocumentRequest struct {
	Title   string `json:"title" example:"Winterfell" validate:"required"`
	Content string `json:"content" example:"Seat of [[House Stark]]."`
}

// UpdateDocumentRequest is the request body for updating a document.
// Content must be present but may be empty.
type UpdateDocumentRequest struct {
	Title   string  `json:"title,omitempty" example:"Winterfell"`
	Content *string `json:"content" example:"Seat of [[House Stark]] in the North." validate:"required"`
	Summary string  `json:"summary,omitempty" example:"Mention the North"`
}

// AcceptSuggestionsRequest carries the spans the user accepted.
type AcceptSuggestionsRequest struct {
	Spans   []linkdetect.Span `json:"spans" validate:"required"`
	Summary string            `json:"summary,omitempty"`
}

// AcceptSuggestionsResponse reports the saved document and how many spans applied.
type AcceptSuggestionsResponse struct {
	Document *DocumentDetail `json:"document" validate:"required"`
	Applied  int             `json:"applied" example:"2" validate:"required"`
}

// DetectRequest is the request body for detecting links in arbitrary text.
type DetectRequest struct {
	Text string `json:"text" example:"Alice met Bob at Winterfell." validate:"required"`
}

// DetectResponse wraps detected spans.
type DetectResponse struct {
	Spans []linkdetect.Span `json:"spans" validate:"required"`
}

// DocumentDetail is the full document response type (aliased from the domain layer).
type DocumentDetail = docservice.DocumentDetail

// DocumentListItem is a lightweight item in a list response (aliased from the domain layer).
type DocumentListItem = docservice.DocumentListItem

// DocumentListResponse wraps paginated document listings.
type DocumentListResponse struct {
	Documents []DocumentListItem `json:"documents" validate:"required"`
	Total     int                `json:"total" example:"42" validate:"required"`
}

// BacklinksResponse wraps the documents linking to a document.
type BacklinksResponse struct {
	Backlinks []models.DocumentRef `json:"backlinks" validate:"required"`
}

// CatalogResponse wraps the title catalog.
type CatalogResponse struct {
	Catalog []models.CatalogEntry `json:"catalog" validate:"required"`
}

// RevisionListResponse wraps a document's history.
type RevisionListResponse struct {
	Revisions []docservice.RevisionItem `json:"revisions" validate:"required"`
}

// RecentChangesResponse is the site-wide recent-changes feed.
type RecentChangesResponse struct {
	Changes []docservice.Change `json:"changes" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult = index.SearchResult

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}
