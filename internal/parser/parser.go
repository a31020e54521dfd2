// Package parser extracts frontmatter, reference markers, headings and tags from
// Markdown documents.
package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/starford/lorebook/internal/linkdetect"
	"github.com/starford/lorebook/internal/wikilink"
)

var tagRe = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)

var md = goldmark.New()

// Heading is an ATX or setext heading found in the body.
type Heading struct {
	Level int
	Text  string
	// Line is the byte range of the whole heading line in Body.
	Line linkdetect.Range
}

// Result holds the output of parsing a Markdown document.
type Result struct {
	Frontmatter map[string]any
	Body        string
	// Markers holds the references outside code blocks and code spans.
	Markers  []wikilink.Marker
	Links    []string
	Tags     []string
	Title    string
	Headings []Heading
	// Code holds the body ranges of code blocks and code spans.
	Code []linkdetect.Range
}

// Parse extracts frontmatter, body, markers, headings and tags from raw Markdown bytes.
func Parse(data []byte) (*Result, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	headings, code := outline(body)
	markers := outsideCode(wikilink.Scan(body), code)

	return &Result{
		Frontmatter: fm,
		Body:        body,
		Markers:     markers,
		Links:       wikilink.Targets(markers),
		Tags:        extractTags(body, fm),
		Title:       deriveTitle(fm, headings),
		Headings:    headings,
		Code:        code,
	}, nil
}

// Excluded returns the body ranges that link detection must not touch:
// existing markers, heading lines and code.
func (r *Result) Excluded() []linkdetect.Range {
	out := make([]linkdetect.Range, 0, len(r.Markers)+len(r.Headings)+len(r.Code))
	for _, m := range r.Markers {
		out = append(out, linkdetect.Range{Start: m.Start, End: m.End})
	}
	for _, h := range r.Headings {
		out = append(out, h.Line)
	}
	return append(out, r.Code...)
}

func outsideCode(markers []wikilink.Marker, code []linkdetect.Range) []wikilink.Marker {
	if len(code) == 0 {
		return markers
	}
	out := markers[:0]
	for _, m := range markers {
		inside := false
		for _, c := range code {
			if m.Start < c.End && c.Start < m.End {
				inside = true
				break
			}
		}
		if !inside {
			out = append(out, m)
		}
	}
	return out
}

// Compose renders frontmatter and body back into a Markdown document.
// An empty frontmatter map produces the body alone.
func Compose(fm map[string]any, body string) ([]byte, error) {
	if len(fm) == 0 {
		return []byte(body), nil
	}
	head, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("parser: marshal frontmatter: %w", err)
	}
	var buf bytes.Buffer
	buf.Grow(len(head) + len(body) + 8)
	buf.WriteString("---\n")
	buf.Write(head)
	buf.WriteString("---\n")
	buf.WriteString(body)
	return buf.Bytes(), nil
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (map[string]any, string, error) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data), nil
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]any
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		// Broken YAML is kept as body text.
		return nil, string(data), nil
	}

	return fm, body, nil
}

// outline walks the goldmark AST and returns every heading with the byte range
// of its full source line, plus the ranges covered by code.
func outline(body string) ([]Heading, []linkdetect.Range) {
	src := []byte(body)
	doc := md.Parser().Parse(text.NewReader(src))

	var (
		out  []Heading
		code []linkdetect.Range
	)
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if lines := node.Lines(); lines.Len() > 0 {
				// Code lines keep their trailing newline.
				stop := lines.At(lines.Len() - 1).Stop
				if stop > 0 && body[stop-1] == '\n' {
					stop--
				}
				code = append(code, lineBounds(body, lines.At(0).Start, stop))
			}
			return ast.WalkSkipChildren, nil
		case *ast.CodeSpan:
			if r, ok := inlineBounds(node); ok {
				code = append(code, r)
			}
			return ast.WalkSkipChildren, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		lines := h.Lines()
		if lines.Len() == 0 {
			return ast.WalkSkipChildren, nil
		}
		first, last := lines.At(0), lines.At(lines.Len()-1)

		var txt strings.Builder
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			txt.Write(seg.Value(src))
		}

		out = append(out, Heading{
			Level: h.Level,
			Text:  strings.TrimSpace(txt.String()),
			Line:  lineBounds(body, first.Start, last.Stop),
		})
		return ast.WalkContinue, nil
	})
	return out, code
}

// inlineBounds spans the text segments of an inline node's children.
func inlineBounds(n ast.Node) (linkdetect.Range, bool) {
	r := linkdetect.Range{Start: -1}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		t, ok := c.(*ast.Text)
		if !ok {
			continue
		}
		if r.Start < 0 {
			r.Start = t.Segment.Start
		}
		r.End = t.Segment.Stop
	}
	return r, r.Start >= 0
}

// lineBounds widens [start, stop) to the enclosing line(s), excluding the newline.
func lineBounds(s string, start, stop int) linkdetect.Range {
	lineStart := strings.LastIndexByte(s[:start], '\n') + 1
	lineEnd := len(s)
	if i := strings.IndexByte(s[stop:], '\n'); i >= 0 {
		lineEnd = stop + i
	}
	return linkdetect.Range{Start: lineStart, End: lineEnd}
}

// extractTags collects #tags from body and from frontmatter "tags" field.
func extractTags(body string, fm map[string]any) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		if s == "" {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	if raw, ok := fm["tags"].([]any); ok {
		for _, item := range raw {
			if s, ok := item.(string); ok {
				add(strings.TrimSpace(s))
			}
		}
	}

	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}

	return out
}

// deriveTitle returns the frontmatter "title" if present, otherwise the first
// level-one heading, otherwise empty string.
func deriveTitle(fm map[string]any, headings []Heading) string {
	if s, ok := fm["title"].(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	for _, h := range headings {
		if h.Level == 1 && h.Text != "" {
			return h.Text
		}
	}
	return ""
}
