package sandbox

import (
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	"github.com/JaimeStill/alphadoc/internal/intelligence"
)

// EmbeddingDimensions matches the vector index the storage engine expects.
const EmbeddingDimensions = 768

const maxChunks = 8

// cannedAnalysis produces a deterministic extraction for u. The content is
// derived from the filename and page count only.
func cannedAnalysis(u *intelligence.Upload) *intelligence.AnalysisResult {
	base, _, _ := strings.Cut(u.Filename, ".")
	chunks := min(max(u.Pages, 1), maxChunks)

	raw := make([]string, chunks)
	embeddings := make([][]float64, chunks)
	for i := range chunks {
		raw[i] = fmt.Sprintf("Section %d of %s.", i+1, u.Filename)
		embeddings[i] = embed(raw[i])
	}

	last := chunks - 1
	return &intelligence.AnalysisResult{
		Filename: u.Filename,
		Intelligence: intelligence.Extraction{
			DocumentIntent: fmt.Sprintf("Establish the terms set out in %s.", u.Filename),
			Topics:         []string{"Obligations", "Timeline", "Risk"},
			Entities: []intelligence.Entity{
				{ChunkIndex: 0, Name: base, Type: "Document"},
				{ChunkIndex: 0, Name: "Provider", Type: "Organization"},
				{ChunkIndex: last, Name: "Client", Type: "Organization"},
			},
			Relationships: []intelligence.Relationship{
				{ChunkIndex: 0, Subject: "Provider", Relation: "delivers services to", Object: "Client"},
				{ChunkIndex: last, Subject: "Client", Relation: "pays", Object: "Provider"},
			},
		},
		Insights: intelligence.InsightList{Insights: []intelligence.Insight{
			{
				ChunkIndex:  0,
				Type:        "Risk",
				Header:      "Termination exposure",
				Description: fmt.Sprintf("[Provider, Organization] may terminate %s on short notice.", base),
				Entities:    []string{"Provider"},
				DateOrValue: "30 days",
			},
			{
				ChunkIndex:  last,
				Type:        "Deadline",
				Header:      "Payment due",
				Description: "[Client, Organization] must settle invoices within the payment window.",
				Entities:    []string{"Client"},
				DateOrValue: "Net 45",
			},
			{
				ChunkIndex:  last,
				Type:        "Recommendation",
				Header:      "Review renewal terms",
				Description: "Confirm renewal terms before the current period ends.",
				Entities:    []string{},
				DateOrValue: "N/A",
			},
			{ChunkIndex: last, Type: "Decision", Description: "N/A", Entities: []string{}},
		}},
		Summaries: intelligence.Summaries{
			Executive: fmt.Sprintf(
				"[%s, Document] binds [Provider, Organization] and [Client, Organization] to a services engagement.",
				base,
			),
			Technical: fmt.Sprintf("%s spans %d section(s) covering delivery, payment and termination.", u.Filename, chunks),
			Sections:  sections(chunks),
		},
		RawChunks:  raw,
		Embeddings: embeddings,
	}
}

func sections(n int) []intelligence.Section {
	out := make([]intelligence.Section, n)
	for i := range n {
		out[i] = intelligence.Section{
			Header: fmt.Sprintf("Section %d", i+1),
			Text:   fmt.Sprintf("Terms and conditions, part %d.", i+1),
		}
	}
	return out
}

// embed returns a unit vector seeded by text.
func embed(text string) []float64 {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := float64(h.Sum64() % 1000)

	v := make([]float64, EmbeddingDimensions)
	var norm float64
	for i := range v {
		v[i] = math.Sin(seed + float64(i))
		norm += v[i] * v[i]
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] /= norm
	}
	return v
}

// cannedAnswer answers query from the current documents of a workspace.
func cannedAnswer(query string, docs []*document) string {
	if len(docs) == 0 {
		return "The repository holds no current documents to answer from."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Answer to %q drawn from %d current document(s):\n\n", query, len(docs))
	for _, d := range docs {
		base, _, _ := strings.Cut(d.filename, ".")
		fmt.Fprintf(&b, "- [%s, Document]: %s\n", base, d.payload.Intelligence.DocumentIntent)
	}
	return b.String()
}

// cannedDashboard summarizes the latest document.
func cannedDashboard(d *document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Briefing: %s\n\n", d.filename)
	if exec := d.payload.Summaries.Executive; exec != "" {
		fmt.Fprintf(&b, "%s\n\n", exec)
	}

	b.WriteString("### Key decisions and risks\n\n")
	for _, in := range d.payload.Insights.Insights {
		if in.Placeholder() {
			continue
		}
		fmt.Fprintf(&b, "- **%s**: %s\n", in.Type, in.Description)
	}

	if rels := d.payload.Intelligence.Relationships; len(rels) > 0 {
		b.WriteString("\n### Stakeholders and obligations\n\n")
		for _, r := range rels {
			fmt.Fprintf(&b, "- %s %s %s\n", r.Subject, r.Relation, r.Object)
		}
	}

	if topics := d.payload.Intelligence.Topics; len(topics) > 0 {
		fmt.Fprintf(&b, "\n### Primary themes\n\n%s\n", strings.Join(topics, ", "))
	}
	return b.String()
}
