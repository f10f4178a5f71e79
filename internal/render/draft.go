package render

import (
	"fmt"
	"strings"

	"github.com/JaimeStill/alphadoc/internal/intelligence"
)

// Draft renders the full report for d.
func (r *Renderer) Draft(d *intelligence.Draft) string {
	var sb strings.Builder
	s := r.styles

	title := d.Filename
	if d.FromHistory {
		title += s.Muted.Render(" (history " + d.SourceID + ", read-only)")
	}
	sb.WriteString(s.Title.Render(title))
	sb.WriteString("\n\n")

	r.field(&sb, "Intent", d.DocumentIntent)
	if len(d.MajorThemes) > 0 {
		r.field(&sb, "Themes", strings.Join(d.MajorThemes, ", "))
	}

	r.section(&sb, "Executive Summary", r.Narrative(d.Summaries.Executive))
	r.section(&sb, "Technical Summary", r.Narrative(d.Summaries.Technical))

	if len(d.Summaries.Sections) > 0 {
		var sec strings.Builder
		for i, section := range d.Summaries.Sections {
			if i > 0 {
				sec.WriteString("\n")
			}
			sec.WriteString(s.Bold.Render(section.Header))
			sec.WriteString("\n")
			sec.WriteString(r.Narrative(section.Text))
			sec.WriteString("\n")
		}
		r.section(&sb, "Sections", strings.TrimRight(sec.String(), "\n"))
	}

	r.section(&sb, "Insights", r.Insights(d.Actionable()))

	if len(d.Entities) > 0 {
		t := NewTable("", "Entity", "Type", "Chunk")
		for _, e := range d.Entities {
			t.AddRow(e.Name, e.Type, fmt.Sprint(e.ChunkIndex))
		}
		r.section(&sb, "Entities", t.View(s))
	}

	if len(d.Relationships) > 0 {
		t := NewTable("", "Subject", "Relation", "Object")
		for _, rel := range d.Relationships {
			t.AddRow(rel.Subject, rel.Relation, rel.Object)
		}
		r.section(&sb, "Obligations", t.View(s))
	}

	return strings.TrimRight(sb.String(), "\n") + "\n"
}

// Insights renders insights as badged blocks. Callers pass actionable
// insights only.
func (r *Renderer) Insights(insights []intelligence.Insight) string {
	if len(insights) == 0 {
		return ""
	}

	s := r.styles
	var sb strings.Builder
	for i, in := range insights {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(s.insightBadge(in.Type))
		if in.Header != "" {
			sb.WriteString(" ")
			sb.WriteString(s.Bold.Render(in.Header))
		}
		if in.DateOrValue != "" && !strings.EqualFold(in.DateOrValue, "N/A") {
			sb.WriteString(" ")
			sb.WriteString(s.Muted.Render("(" + in.DateOrValue + ")"))
		}
		sb.WriteString("\n")
		sb.WriteString(r.Narrative(in.Description))
		sb.WriteString("\n")
		if len(in.Entities) > 0 {
			sb.WriteString(s.Label.Render("  entities: " + strings.Join(in.Entities, ", ")))
			sb.WriteString("\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (r *Renderer) field(sb *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	sb.WriteString(r.styles.Label.Render(label + ": "))
	sb.WriteString(value)
	sb.WriteString("\n")
}

func (r *Renderer) section(sb *strings.Builder, heading, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	sb.WriteString("\n")
	sb.WriteString(r.styles.Heading.Render(heading))
	sb.WriteString("\n")
	sb.WriteString(body)
	sb.WriteString("\n")
}
