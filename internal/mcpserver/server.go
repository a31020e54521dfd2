// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Lorebook tools for LLM integration via stdio transport.
package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/lorebook/internal/apperr"
	"github.com/starford/lorebook/internal/docservice"
	"github.com/starford/lorebook/internal/revdiff"
)

// FormatResourceURI identifies the document format contract resource.
const FormatResourceURI = "lorebook://document-format"

const defaultSearchLimit = 20

// Server wraps the MCP server with Lorebook tools.
type Server struct {
	mcp *server.MCPServer
	svc *docservice.Service
}

// New creates a new MCP server with all Lorebook tools registered.
func New(svc *docservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Lorebook",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Full-text search through document titles and bodies."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
	), s.searchDocuments)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read the raw Markdown of a document, frontmatter included."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Document slug (e.g. house-stark)")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("list_catalog",
		mcp.WithDescription("List every document title with its slug, ordered by title."),
	), s.listCatalog)

	s.mcp.AddTool(mcp.NewTool("resolve_references",
		mcp.WithDescription("Find the [[references]] in a text and report for each one the slug "+
			"it points to and whether that document exists."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Markdown text to scan")),
	), s.resolveReferences)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all documents that reference the specified document."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Slug of the referenced document")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("suggest_links",
		mcp.WithDescription("Find mentions of known titles in a document that are not yet references. "+
			"Returns byte spans into the document body."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Document slug")),
	), s.suggestLinks)

	s.mcp.AddTool(mcp.NewTool("list_revisions",
		mcp.WithDescription("List the saved revisions of a document, newest first."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Document slug")),
	), s.listRevisions)

	s.mcp.AddTool(mcp.NewTool("recent_changes",
		mcp.WithDescription("List the newest edits and newly created documents across the whole "+
			"collection, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of entries (default 50)")),
	), s.recentChanges)

	s.mcp.AddTool(mcp.NewTool("diff_revisions",
		mcp.WithDescription("Line diff between two states of a document. Each state is a revision "+
			"ID or \"current\"; both default to current."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Document slug")),
		mcp.WithString("from", mcp.Description("Older state (revision ID or current)")),
		mcp.WithString("to", mcp.Description("Newer state (revision ID or current)")),
	), s.diffRevisions)

	s.mcp.AddTool(mcp.NewTool("create_document",
		mcp.WithDescription("Create a new document. The slug is derived from the title. "+
			"Content MUST follow the document format contract; read it first via "+
			"the get_document_contract tool or the "+FormatResourceURI+" resource."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Document title")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown body following the document format contract")),
	), s.createDocument)

	s.mcp.AddTool(mcp.NewTool("get_document_contract",
		mcp.WithDescription("Returns the Lorebook document format contract. "+
			"Call this before creating documents to ensure correct structure."),
	), s.getDocumentContract)

	s.mcp.AddResource(
		mcp.NewResource(FormatResourceURI, "Document Format Contract",
			mcp.WithResourceDescription("Markdown document format that all documents must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func errorResult(err error, slug string) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", slug))
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) searchDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, req.GetInt("limit", defaultSearchLimit))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.Get(ctx, slug)
	if err != nil {
		return errorResult(err, slug), nil
	}
	return mcp.NewToolResultText(doc.Content), nil
}

func (s *Server) listCatalog(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cat, err := s.svc.Catalog(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(cat)
}

func (s *Server) resolveReferences(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resolved, err := s.svc.Resolve(ctx, text)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"references": resolved.References,
		"broken":     resolved.BrokenCount(),
	})
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	refs, err := s.svc.Backlinks(ctx, slug)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(refs) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	lines := make([]string, len(refs))
	for i, r := range refs {
		lines[i] = r.Slug
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) suggestLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sug, err := s.svc.SuggestLinks(ctx, slug)
	if err != nil {
		return errorResult(err, slug), nil
	}
	return jsonResult(sug)
}

func (s *Server) listRevisions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items, err := s.svc.ListRevisions(ctx, slug)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText("no revisions found"), nil
	}
	return jsonResult(items)
}

func (s *Server) recentChanges(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	changes, err := s.svc.RecentChanges(ctx, req.GetInt("limit", docservice.DefaultRecentLimit))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(changes) == 0 {
		return mcp.NewToolResultText("no changes yet"), nil
	}

	var buf bytes.Buffer
	for _, c := range changes {
		fmt.Fprintf(&buf, "%s %s %s", c.At.UTC().Format(time.RFC3339), c.Kind, c.Slug)
		if c.Summary != "" {
			fmt.Fprintf(&buf, " (%s)", c.Summary)
		}
		if c.RevisionID != "" {
			fmt.Fprintf(&buf, " revision=%s", c.RevisionID)
		}
		buf.WriteByte('\n')
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (s *Server) diffRevisions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Diff(ctx, slug, req.GetString("from", ""), req.GetString("to", ""))
	if err != nil {
		return errorResult(err, slug), nil
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s: %s -> %s (+%d -%d)\n", res.Slug, res.From, res.To, res.Stats.Added, res.Stats.Removed)
	if err := revdiff.Write(&buf, res.Lines); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (s *Server) createDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc, err := s.svc.Create(ctx, title, content)
	switch {
	case errors.Is(err, apperr.ErrAlreadyExists):
		return mcp.NewToolResultError(fmt.Sprintf("document already exists: %s", title)), nil
	case errors.Is(err, apperr.ErrInvalidTitle):
		return mcp.NewToolResultError("title must contain a letter or digit and no [, ], | or line break"), nil
	case err != nil:
		return mcp.NewToolResultError(err.Error()), nil
	}

	msg := fmt.Sprintf("created: %s", doc.Slug)
	if doc.Broken > 0 {
		msg += fmt.Sprintf(" (%d broken references)", doc.Broken)
	}
	return mcp.NewToolResultText(msg), nil
}

func (s *Server) getDocumentContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DocumentFormatContract), nil
}

func (s *Server) readFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      FormatResourceURI,
			MIMEType: "text/markdown",
			Text:     DocumentFormatContract,
		},
	}, nil
}
