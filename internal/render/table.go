package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/JaimeStill/alphadoc/internal/admin"
	"github.com/JaimeStill/alphadoc/internal/history"
)

const timeLayout = "2006-01-02 15:04"

// Table renders static rows with padded columns.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

func NewTable(title string, headers ...string) *Table {
	return &Table{Title: title, Headers: headers}
}

func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

func (t *Table) View(s Styles) string {
	if len(t.Rows) == 0 {
		return ""
	}

	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}

	var sb strings.Builder
	if t.Title != "" {
		sb.WriteString(s.Title.Render(t.Title))
		sb.WriteString("\n")
	}

	writeRow := func(cells []string, style lipgloss.Style) {
		parts := make([]string, len(widths))
		for i := range widths {
			var cell string
			if i < len(cells) {
				cell = cells[i]
			}
			parts[i] = style.Width(widths[i]).Render(cell)
		}
		sb.WriteString(strings.TrimRight(strings.Join(parts, "  "), " "))
		sb.WriteString("\n")
	}

	writeRow(t.Headers, s.Bold)
	rule := make([]string, len(widths))
	for i, w := range widths {
		rule[i] = strings.Repeat("-", w)
	}
	sb.WriteString(s.Muted.Render(strings.Join(rule, "  ")))
	sb.WriteString("\n")
	for _, row := range t.Rows {
		writeRow(row, s.Body)
	}

	return strings.TrimRight(sb.String(), "\n")
}

// History renders the history list.
func (r *Renderer) History(entries []history.Entry) string {
	if len(entries) == 0 {
		return r.styles.Muted.Render("no documents in the repository")
	}

	t := NewTable("", "ID", "Filename", "Uploaded", "Current")
	for _, e := range entries {
		uploaded := e.RawUploadDate
		if !e.UploadDate.IsZero() {
			uploaded = e.UploadDate.Format(timeLayout)
		}
		current := "yes"
		if !e.Current {
			current = "no"
		}
		t.AddRow(e.ID, e.Filename, uploaded, current)
	}
	return t.View(r.styles)
}

// Audit renders audit records in the order given.
func (r *Renderer) Audit(entries []admin.AuditEntry) string {
	if len(entries) == 0 {
		return r.styles.Muted.Render("no audit records")
	}

	t := NewTable("", "Time", "User", "Role", "Action", "Details")
	for _, e := range entries {
		ts := ""
		if !e.Timestamp.IsZero() {
			ts = e.Timestamp.Format(timeLayout)
		}
		t.AddRow(ts, e.Username, e.Role, e.Action, truncate(e.DetailsText(), 60))
	}
	return t.View(r.styles)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
