package parser

import (
	"strings"
	"testing"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Castle Black\ntags:\n  - north\n  - watch\n---\n# The Wall\nGuarded by [[Night's Watch]].\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Title != "Castle Black" {
		t.Errorf("title = %q, want %q", r.Title, "Castle Black")
	}
	if len(r.Tags) < 2 || r.Tags[0] != "north" || r.Tags[1] != "watch" {
		t.Errorf("tags = %v, want [north watch]", r.Tags)
	}
	if r.Body != "# The Wall\nGuarded by [[Night's Watch]].\n" {
		t.Errorf("body = %q", r.Body)
	}
	if len(r.Markers) != 1 || r.Markers[0].Target != "Night's Watch" {
		t.Errorf("markers = %+v", r.Markers)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	input := []byte("# Just a heading\nSome text.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter, got %v", r.Frontmatter)
	}
	if r.Title != "Just a heading" {
		t.Errorf("title = %q, want %q", r.Title, "Just a heading")
	}
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	input := []byte("---\n: invalid: yaml: {{{\n---\nBody\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter on invalid YAML")
	}
	if r.Body != string(input) {
		t.Errorf("body = %q, want whole input", r.Body)
	}
}

func TestParse_LinksDeduplicated(t *testing.T) {
	r, err := Parse([]byte("See [[Note A]] and [[Note B|alias]].\nAlso [[Note A]] again."))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Markers) != 3 {
		t.Fatalf("len(markers) = %d, want 3", len(r.Markers))
	}
	if len(r.Links) != 2 || r.Links[0] != "Note A" || r.Links[1] != "Note B" {
		t.Errorf("links = %v", r.Links)
	}
}

func TestParse_EmptyTargetIgnored(t *testing.T) {
	r, _ := Parse([]byte("see [[ ]] and [[|alias]]"))
	if len(r.Links) != 0 {
		t.Errorf("expected no links, got %v", r.Links)
	}
}

func TestExtractTags_InlineAndFrontmatter(t *testing.T) {
	fm := map[string]any{
		"tags": []any{"alpha"},
	}
	body := "Some text #beta and #alpha again."
	tags := extractTags(body, fm)
	if len(tags) != 2 || tags[0] != "alpha" || tags[1] != "beta" {
		t.Errorf("tags = %v, want [alpha beta]", tags)
	}
}

func TestDeriveTitle_FrontmatterOverH1(t *testing.T) {
	r, _ := Parse([]byte("---\ntitle: FM Title\n---\n# H1 Title\ntext"))
	if r.Title != "FM Title" {
		t.Errorf("title = %q, want %q", r.Title, "FM Title")
	}
}

func TestDeriveTitle_H1Fallback(t *testing.T) {
	r, _ := Parse([]byte("some text\n\n## Not This\n\n# My Heading\nmore"))
	if r.Title != "My Heading" {
		t.Errorf("title = %q, want %q", r.Title, "My Heading")
	}
}

func TestHeadings_LineRanges(t *testing.T) {
	body := "intro\n\n## Alice ##\n\nAlice again\n"
	r, _ := Parse([]byte(body))
	if len(r.Headings) != 1 {
		t.Fatalf("headings = %+v", r.Headings)
	}
	h := r.Headings[0]
	if h.Level != 2 || h.Text != "Alice" {
		t.Errorf("heading = %+v", h)
	}
	if got := body[h.Line.Start:h.Line.End]; got != "## Alice ##" {
		t.Errorf("heading line = %q", got)
	}
}

func TestExcluded_MarkersAndHeadings(t *testing.T) {
	body := "# Alice\nAlice met [[Bob]].\n"
	r, _ := Parse([]byte(body))
	ex := r.Excluded()
	if len(ex) != 2 {
		t.Fatalf("excluded = %+v", ex)
	}
	got := map[string]bool{}
	for _, e := range ex {
		got[body[e.Start:e.End]] = true
	}
	if !got["[[Bob]]"] || !got["# Alice"] {
		t.Errorf("excluded text = %v", got)
	}
}

func TestParse_MarkersInCodeIgnored(t *testing.T) {
	body := "See [[Alice]].\n\n```\n[[Bob]] in a fence\n```\n\n    [[Carol]] indented\n\nInline `[[Dave]]` span and [[Eve]].\n"
	r, _ := Parse([]byte(body))

	if got := r.Links; len(got) != 2 || got[0] != "Alice" || got[1] != "Eve" {
		t.Errorf("links = %v, want [Alice Eve]", got)
	}
	if len(r.Code) != 3 {
		t.Fatalf("code = %+v, want 3 ranges", r.Code)
	}
	for i, want := range []string{"[[Bob]] in a fence", "    [[Carol]] indented", "[[Dave]]"} {
		if got := body[r.Code[i].Start:r.Code[i].End]; got != want {
			t.Errorf("code[%d] = %q, want %q", i, got, want)
		}
	}
}

func TestExcluded_IncludesCode(t *testing.T) {
	body := "Alice\n\n`Alice`\n"
	r, _ := Parse([]byte(body))
	ex := r.Excluded()
	if len(ex) != 1 || body[ex[0].Start:ex[0].End] != "Alice" || ex[0].Start == 0 {
		t.Errorf("excluded = %+v", ex)
	}
}

func TestCompose_RoundTrip(t *testing.T) {
	data, err := Compose(map[string]any{"title": "Winterfell", "tags": []string{"north"}}, "Body [[Stark]]\n")
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !strings.HasPrefix(string(data), "---\n") {
		t.Errorf("missing frontmatter fence: %q", data)
	}
	r, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.Title != "Winterfell" || r.Body != "Body [[Stark]]\n" {
		t.Errorf("round trip = title %q body %q", r.Title, r.Body)
	}
	if len(r.Tags) != 1 || r.Tags[0] != "north" {
		t.Errorf("tags = %v", r.Tags)
	}
}

func TestCompose_NoFrontmatter(t *testing.T) {
	data, err := Compose(nil, "plain")
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if string(data) != "plain" {
		t.Errorf("data = %q", data)
	}
}
