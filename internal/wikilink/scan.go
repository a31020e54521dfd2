// Package wikilink finds [[wiki link]] markers in document bodies, resolves
// them against a title catalog and computes backlinks over a corpus.
//
// Every function here is pure: catalogs and corpora are passed in by the caller
// and nothing is cached between calls.
package wikilink

import (
	"regexp"
	"strings"
)

// markerRe matches [[Target]] and [[Target|Label]] on a single line.
var markerRe = regexp.MustCompile(`\[\[([^\[\]\n]*)\]\]`)

// Marker is one reference marker found in a body. Start and End are byte
// offsets of the whole [[...]] token in that body.
type Marker struct {
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

// Scan returns every well-formed marker in body, in order of appearance.
// Markers with an empty target ("[[]]", "[[ |alias]]") are plain text.
func Scan(body string) []Marker {
	locs := markerRe.FindAllStringSubmatchIndex(body, -1)
	if len(locs) == 0 {
		return nil
	}
	out := make([]Marker, 0, len(locs))
	for _, loc := range locs {
		m, ok := parseMarker(body[loc[2]:loc[3]])
		if !ok {
			continue
		}
		m.Start, m.End = loc[0], loc[1]
		out = append(out, m)
	}
	return out
}

// parseMarker splits the inner text of a marker into target and label.
func parseMarker(inner string) (Marker, bool) {
	target, label, hasLabel := strings.Cut(inner, "|")
	target = strings.TrimSpace(target)
	if target == "" {
		return Marker{}, false
	}
	label = strings.TrimSpace(label)
	if !hasLabel || label == "" {
		label = target
	}
	return Marker{Target: target, Label: label}, true
}

// Targets returns the distinct marker targets in first-seen order.
func Targets(markers []Marker) []string {
	seen := make(map[string]struct{}, len(markers))
	var out []string
	for _, m := range markers {
		if _, ok := seen[m.Target]; ok {
			continue
		}
		seen[m.Target] = struct{}{}
		out = append(out, m.Target)
	}
	return out
}

// ValidTarget reports whether target can be written inside a marker and read
// back unchanged by Scan. Brackets, pipes and line breaks cannot.
func ValidTarget(target string) bool {
	return strings.TrimSpace(target) != "" && !strings.ContainsAny(target, "[]|\r\n")
}

// Format renders a marker token for target, adding label only when it differs.
func Format(target, label string) string {
	if label == "" || label == target {
		return "[[" + target + "]]"
	}
	return "[[" + target + "|" + label + "]]"
}
