package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	Primary     = lipgloss.Color("#8BC34A")
	Muted       = lipgloss.Color("#6b7280")
	Destructive = lipgloss.Color("#e53935")
	Warning     = lipgloss.Color("#FFC107")
	Info        = lipgloss.Color("#2196F3")
	Accent      = lipgloss.Color("#9c27b0")
)

// insightColors maps the engine's insight categories to display colors.
// Unknown categories render in Muted.
var insightColors = map[string]lipgloss.Color{
	"risk":           Destructive,
	"deadline":       Warning,
	"decision":       Info,
	"recommendation": Primary,
}

func InsightColor(kind string) lipgloss.Color {
	if c, ok := insightColors[strings.ToLower(strings.TrimSpace(kind))]; ok {
		return c
	}
	return Muted
}

// Styles holds the lipgloss styles bound to one output renderer.
type Styles struct {
	Title   lipgloss.Style
	Heading lipgloss.Style
	Label   lipgloss.Style
	Body    lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Success lipgloss.Style
	Badge   lipgloss.Style
}

func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Title:   r.NewStyle().Bold(true).Foreground(Primary),
		Heading: r.NewStyle().Bold(true).Underline(true),
		Label:   r.NewStyle().Foreground(Muted),
		Body:    r.NewStyle(),
		Bold:    r.NewStyle().Bold(true),
		Muted:   r.NewStyle().Foreground(Muted),
		Error:   r.NewStyle().Bold(true).Foreground(Destructive),
		Warning: r.NewStyle().Foreground(Warning),
		Success: r.NewStyle().Foreground(Primary),
		Badge:   r.NewStyle().Bold(true).Padding(0, 1),
	}
}

func (s Styles) insightBadge(kind string) string {
	return s.Badge.Foreground(InsightColor(kind)).Render(strings.ToUpper(kind))
}
