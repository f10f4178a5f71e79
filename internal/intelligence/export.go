package intelligence

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// ReportPrefix begins every exported snapshot filename.
const ReportPrefix = "Intelligence_Report_"

type SnapshotMetadata struct {
	Filename   string    `json:"filename"`
	ExportedAt time.Time `json:"exported_at"`
	Workspace  string    `json:"workspace"`
	Intent     string    `json:"intent"`
}

type SnapshotSummaries struct {
	Executive string    `json:"executive"`
	Technical string    `json:"technical"`
	Sectional []Section `json:"sectional"`
}

// Snapshot is the exported form of a draft.
type Snapshot struct {
	Metadata         SnapshotMetadata  `json:"metadata"`
	MajorThemes      []string          `json:"major_themes"`
	Summaries        SnapshotSummaries `json:"summaries"`
	Insights         []Insight         `json:"insights"`
	Entities         []Entity          `json:"entities"`
	ObligationsLogic []Relationship    `json:"obligations_logic"`
}

// NewSnapshot captures d at the given time. It does not modify d.
func NewSnapshot(d *Draft, workspace string, at time.Time) Snapshot {
	n := normalize(&Draft{
		MajorThemes:   d.MajorThemes,
		Entities:      d.Entities,
		Relationships: d.Relationships,
		Summaries:     d.Summaries,
		Insights:      slices.Clone(d.Insights),
	})

	return Snapshot{
		Metadata: SnapshotMetadata{
			Filename:   d.Filename,
			ExportedAt: at.UTC(),
			Workspace:  workspace,
			Intent:     d.DocumentIntent,
		},
		MajorThemes: n.MajorThemes,
		Summaries: SnapshotSummaries{
			Executive: n.Summaries.Executive,
			Technical: n.Summaries.Technical,
			Sectional: n.Summaries.Sections,
		},
		Insights:         n.Insights,
		Entities:         n.Entities,
		ObligationsLogic: n.Relationships,
	}
}

// Filename is the name the snapshot is written under.
func (s Snapshot) Filename() string {
	return ExportFilename(s.Metadata.Filename)
}

// Encode renders the snapshot as indented JSON.
func (s Snapshot) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a previously exported snapshot.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}

var separators = strings.NewReplacer("/", "_", "\\", "_")

// ExportFilename derives the report filename from a document filename.
// Path separators in the name become underscores.
func ExportFilename(filename string) string {
	d := Draft{Filename: filename}
	return ReportPrefix + separators.Replace(d.BaseName()) + ".json"
}
