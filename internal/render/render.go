// Package render formats drafts, history, audit records, and failures for
// the terminal.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/JaimeStill/alphadoc/internal/tags"
)

const defaultWidth = 100

// Options controls terminal output. Plain disables colors and markdown
// styling.
type Options struct {
	Width int
	Plain bool
}

// Renderer turns domain values into terminal text.
type Renderer struct {
	markdown *glamour.TermRenderer
	styles   Styles
	width    int
}

// New creates a renderer for output written to w.
func New(w io.Writer, opts Options) (*Renderer, error) {
	width := opts.Width
	if width <= 0 {
		width = defaultWidth
	}

	style := glamour.WithAutoStyle()
	if opts.Plain {
		style = glamour.WithStylePath("notty")
	}

	md, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return nil, fmt.Errorf("create markdown renderer: %w", err)
	}

	return &Renderer{
		markdown: md,
		styles:   NewStyles(lipgloss.NewRenderer(w)),
		width:    width,
	}, nil
}

func (r *Renderer) Styles() Styles {
	return r.styles
}

// Markdown converts narrative text into markdown with every reference tag
// rendered as a code span.
func Markdown(text string) string {
	var sb strings.Builder
	for seg := range tags.Parse(text) {
		if seg.Kind == tags.Reference {
			sb.WriteString("`")
			sb.WriteString(strings.ReplaceAll(seg.Text, "`", "'"))
			sb.WriteString("`")
			continue
		}
		sb.WriteString(seg.Text)
	}
	return sb.String()
}

// Narrative renders narrative text from the analysis engine. Text that
// fails to render as markdown is returned unchanged.
func (r *Renderer) Narrative(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	out, err := r.markdown.Render(Markdown(text))
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}
