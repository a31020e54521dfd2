package revdiff

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

type writeOptions struct {
	colored bool
}

// WriteOption configures Write.
type WriteOption func(*writeOptions)

// WithColor enables or disables ANSI colouring of added and removed lines.
func WithColor(enabled bool) WriteOption {
	return func(o *writeOptions) {
		o.colored = enabled
	}
}

// Write renders lines in a unified-diff-like form: "+ " for added lines,
// "- " for removed lines and two spaces for unchanged ones.
func Write(w io.Writer, lines []Line, opts ...WriteOption) error {
	var o writeOptions
	for _, opt := range opts {
		opt(&o)
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	if o.colored {
		green.EnableColor()
		red.EnableColor()
	} else {
		green.DisableColor()
		red.DisableColor()
	}

	for _, l := range lines {
		var err error
		switch l.Kind {
		case KindAdded:
			_, err = fmt.Fprintln(w, green.Sprint("+ "+l.Text))
		case KindRemoved:
			_, err = fmt.Fprintln(w, red.Sprint("- "+l.Text))
		default:
			_, err = fmt.Fprintln(w, "  "+l.Text)
		}
		if err != nil {
			return fmt.Errorf("revdiff: write: %w", err)
		}
	}
	return nil
}
