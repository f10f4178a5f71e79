// Package intelligence holds the analysis draft and the payloads exchanged
// with the remote analysis and storage service.
package intelligence

import "strings"

// Entity is a named data point extracted from a chunk.
type Entity struct {
	ChunkIndex int    `json:"chunk_index"`
	Name       string `json:"name"`
	Type       string `json:"type"`
}

// Relationship is an obligation or dependency between two entities.
type Relationship struct {
	ChunkIndex int    `json:"chunk_index"`
	Subject    string `json:"subject"`
	Relation   string `json:"relation"`
	Object     string `json:"object"`
}

// Section is the summary of one document section.
type Section struct {
	Header string `json:"section_header"`
	Text   string `json:"summary_text"`
}

type Summaries struct {
	Executive string    `json:"executive_summary"`
	Technical string    `json:"technical_summary"`
	Sections  []Section `json:"section_summaries"`
}

// Insight is an actionable finding: a risk, deadline, decision or
// recommendation tied to a source chunk.
type Insight struct {
	ChunkIndex  int      `json:"chunk_index"`
	Type        string   `json:"type"`
	Header      string   `json:"header,omitempty"`
	Description string   `json:"description"`
	Entities    []string `json:"entities"`
	DateOrValue string   `json:"date_or_value"`
}

// Placeholder reports whether the insight carries no usable description.
func (i Insight) Placeholder() bool {
	d := strings.TrimSpace(i.Description)
	return d == "" || strings.EqualFold(d, "N/A")
}

// Draft is the in-memory result of an analysis, or a committed version
// loaded back from history. Drafts loaded from history are read-only and
// cannot be committed.
type Draft struct {
	Filename       string
	DocumentIntent string
	MajorThemes    []string
	Entities       []Entity
	Relationships  []Relationship
	Summaries      Summaries
	Insights       []Insight
	RawChunks      []string
	Embeddings     [][]float64

	FromHistory bool
	SourceID    string
}

// Actionable returns the insights that are not placeholders.
func (d *Draft) Actionable() []Insight {
	out := make([]Insight, 0, len(d.Insights))
	for _, in := range d.Insights {
		if !in.Placeholder() {
			out = append(out, in)
		}
	}
	return out
}

// Committable reports whether the draft may be sent to the store.
func (d *Draft) Committable() bool {
	return d != nil && !d.FromHistory
}

// BaseName is the filename up to its first dot.
func (d *Draft) BaseName() string {
	name, _, _ := strings.Cut(d.Filename, ".")
	return name
}

func normalize(d *Draft) *Draft {
	if d.MajorThemes == nil {
		d.MajorThemes = []string{}
	}
	if d.Entities == nil {
		d.Entities = []Entity{}
	}
	if d.Relationships == nil {
		d.Relationships = []Relationship{}
	}
	if d.Summaries.Sections == nil {
		d.Summaries.Sections = []Section{}
	}
	if d.Insights == nil {
		d.Insights = []Insight{}
	}
	for i := range d.Insights {
		if d.Insights[i].Entities == nil {
			d.Insights[i].Entities = []string{}
		}
	}
	return d
}
