// Package revdiff computes line-level differences between two document
// revisions using a longest-common-subsequence table.
package revdiff

import "strings"

// Kind classifies a diff line.
type Kind string

const (
	KindSame    Kind = "same"
	KindAdded   Kind = "added"
	KindRemoved Kind = "removed"
)

// Line is one line of a diff.
type Line struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
}

// Diff returns the edit script turning oldLines into newLines. Lines compare
// byte for byte. Unchanged lines that are blank after trimming are left out of
// the result; added and removed lines are always kept.
//
// The LCS table is the full (m+1)×(n+1) matrix. Documents are expected to be a
// few hundred lines, so there is no windowing or truncation.
func Diff(oldLines, newLines []string) []Line {
	m, n := len(oldLines), len(newLines)

	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if oldLines[i-1] == newLines[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else {
				dp[i][j] = max(dp[i-1][j], dp[i][j-1])
			}
		}
	}

	// Backtrack from (m, n); lines come out last-first and are reversed below.
	rev := make([]Line, 0, m+n)
	i, j := m, n
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && oldLines[i-1] == newLines[j-1]:
			rev = append(rev, Line{Kind: KindSame, Text: oldLines[i-1]})
			i--
			j--
		case j > 0 && (i == 0 || dp[i][j-1] >= dp[i-1][j]):
			rev = append(rev, Line{Kind: KindAdded, Text: newLines[j-1]})
			j--
		default:
			rev = append(rev, Line{Kind: KindRemoved, Text: oldLines[i-1]})
			i--
		}
	}

	out := make([]Line, 0, len(rev))
	for k := len(rev) - 1; k >= 0; k-- {
		l := rev[k]
		if l.Kind == KindSame && strings.TrimSpace(l.Text) == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}

// Old returns the lines of the old side: every same or removed line, in order.
func Old(lines []Line) []string {
	return side(lines, KindRemoved)
}

// New returns the lines of the new side: every same or added line, in order.
func New(lines []Line) []string {
	return side(lines, KindAdded)
}

func side(lines []Line, change Kind) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.Kind == KindSame || l.Kind == change {
			out = append(out, l.Text)
		}
	}
	return out
}

// SplitLines splits text into lines on "\n", treating "\r\n" as a single break.
// Empty text has no lines.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}

// Stats counts the lines of each kind in a diff.
type Stats struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
	Same    int `json:"same"`
}

// Changed reports whether the diff holds any added or removed line.
func (s Stats) Changed() bool {
	return s.Added > 0 || s.Removed > 0
}

// Summarize counts lines by kind.
func Summarize(lines []Line) Stats {
	var s Stats
	for _, l := range lines {
		switch l.Kind {
		case KindAdded:
			s.Added++
		case KindRemoved:
			s.Removed++
		case KindSame:
			s.Same++
		}
	}
	return s
}
