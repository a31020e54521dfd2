package docservice

import (
	"bytes"
	"fmt"
	stdhtml "html"
	"net/url"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/starford/lorebook/internal/wikilink"
)

// markdown renders document bodies. Raw HTML in a body is omitted; references
// become anchors through the inline parser below, so markers inside code
// blocks and code spans stay literal.
var markdown = goldmark.New(goldmark.WithExtensions(references{}))

// referencesKey carries the resolved references of the body being rendered,
// keyed by the byte offset where each marker starts.
var referencesKey = parser.NewContextKey()

// renderHTML converts a body to HTML. Broken references keep their anchor and
// carry the wiki-link-broken class.
func renderHTML(a wikilink.AnnotatedBody) (string, error) {
	byStart := make(map[int]wikilink.Reference, len(a.References))
	for _, ref := range a.References {
		byStart[ref.Start] = ref
	}
	pc := parser.NewContext()
	pc.Set(referencesKey, byStart)

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(a.Text), &buf, parser.WithContext(pc)); err != nil {
		return "", fmt.Errorf("docservice: render: %w", err)
	}
	return buf.String(), nil
}

var kindReference = ast.NewNodeKind("Reference")

type referenceNode struct {
	ast.BaseInline
	ref wikilink.Reference
}

func (n *referenceNode) Kind() ast.NodeKind { return kindReference }

func (n *referenceNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Target": n.ref.Target,
		"Status": string(n.ref.Status),
	}, nil)
}

type references struct{}

func (references) Extend(m goldmark.Markdown) {
	// Ahead of the link parser, which also triggers on '['.
	m.Parser().AddOptions(parser.WithInlineParsers(util.Prioritized(referenceParser{}, 199)))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(util.Prioritized(referenceRenderer{}, 500)))
}

type referenceParser struct{}

func (referenceParser) Trigger() []byte { return []byte{'['} }

func (referenceParser) Parse(_ ast.Node, block text.Reader, pc parser.Context) ast.Node {
	byStart, _ := pc.Get(referencesKey).(map[int]wikilink.Reference)
	line, seg := block.PeekLine()
	ref, ok := byStart[seg.Start]
	if !ok || ref.End-ref.Start > len(line) {
		return nil
	}
	block.Advance(ref.End - ref.Start)
	return &referenceNode{ref: ref}
}

type referenceRenderer struct{}

func (r referenceRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(kindReference, r.render)
}

func (referenceRenderer) render(w util.BufWriter, _ []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString(anchor(n.(*referenceNode).ref))
	}
	return ast.WalkSkipChildren, nil
}

func anchor(ref wikilink.Reference) string {
	class := "wiki-link"
	if ref.Broken() {
		class += " wiki-link-broken"
	}
	return fmt.Sprintf(`<a class="%s" href="/documents/%s" data-wiki-link="%s">%s</a>`,
		class,
		url.PathEscape(ref.Slug),
		stdhtml.EscapeString(ref.Target),
		stdhtml.EscapeString(ref.Label),
	)
}
