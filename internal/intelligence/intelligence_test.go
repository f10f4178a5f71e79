package intelligence_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/alphadoc/internal/intelligence"
)

const analysisBody = `{
  "filename": "contract.pdf",
  "intelligence": {
    "document_intent": "Service agreement",
    "topics": ["Delivery", "Payment"],
    "entities": [{"chunk_index": 0, "name": "Itsolera", "type": "Organization"}],
    "relationships": [{"chunk_index": 1, "subject": "Itsolera", "relation": "must deliver", "object": "Report"}]
  },
  "insights": {"insights": [
    {"chunk_index": 0, "type": "Risk", "description": "Late delivery penalty [contract.pdf, Chunk 0]", "entities": ["Itsolera"], "date_or_value": "2026-01-01"},
    {"chunk_index": 1, "type": "Decision", "description": "N/A", "entities": null, "date_or_value": ""}
  ]},
  "summaries": {
    "executive_summary": "Executive view",
    "technical_summary": "Technical view",
    "section_summaries": [{"section_header": "Scope", "summary_text": "Covers delivery"}]
  },
  "raw_chunks": ["chunk zero", "chunk one"],
  "embeddings": [[0.1, 0.2], [0.3, 0.4]]
}`

func decodeAnalysis(t *testing.T) *intelligence.Draft {
	t.Helper()
	var res intelligence.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(analysisBody), &res))
	return res.Draft()
}

func TestAnalysisResultDraft(t *testing.T) {
	d := decodeAnalysis(t)

	assert.Equal(t, "contract.pdf", d.Filename)
	assert.Equal(t, []string{"Delivery", "Payment"}, d.MajorThemes)
	assert.False(t, d.FromHistory)
	assert.True(t, d.Committable())
	assert.Len(t, d.RawChunks, 2)
	assert.Equal(t, []string{}, d.Insights[1].Entities)
}

func TestAnalysisResultPrefersMajorThemes(t *testing.T) {
	res := intelligence.AnalysisResult{
		Intelligence: intelligence.Extraction{
			Topics:      []string{"a"},
			MajorThemes: []string{"b"},
		},
	}
	assert.Equal(t, []string{"b"}, res.Draft().MajorThemes)
}

func TestHistoryDetailDraft(t *testing.T) {
	body := `{
	  "filename": "contract.pdf",
	  "document_intent": "Service agreement",
	  "major_themes": ["Delivery"],
	  "entities": [],
	  "relationships": null,
	  "executive_summary": "E",
	  "technical_summary": "T",
	  "actionable_insights": [{"chunk_index": 2, "type": "Deadline", "description": "Ship", "entities": [], "date_or_value": "Q1"}],
	  "section_summaries": [{"section_header": "Scope", "summary_text": "N/A"}]
	}`

	var h intelligence.HistoryDetail
	require.NoError(t, json.Unmarshal([]byte(body), &h))
	d := h.Draft("doc-7")

	assert.True(t, d.FromHistory)
	assert.False(t, d.Committable())
	assert.Equal(t, "doc-7", d.SourceID)
	assert.Equal(t, "E", d.Summaries.Executive)
	assert.Equal(t, []intelligence.Relationship{}, d.Relationships)
	require.Len(t, d.Insights, 1)
	assert.Equal(t, "Deadline", d.Insights[0].Type)
}

func TestNewStoreRequest(t *testing.T) {
	d := decodeAnalysis(t)

	req := intelligence.NewStoreRequest(d, true, false)
	data, err := json.Marshal(req)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))

	assert.Equal(t, "contract.pdf", body["filename"])
	assert.Equal(t, true, body["confirm_update"])
	assert.Equal(t, false, body["force_new"])

	intel := body["intelligence"].(map[string]any)
	assert.Equal(t, "Service agreement", intel["document_intent"])
	assert.Equal(t, []any{"Delivery", "Payment"}, intel["topics"])

	insights := body["insights"].(map[string]any)["insights"].([]any)
	assert.Len(t, insights, 2)
}

func TestNewStoreRequestFromBareDraft(t *testing.T) {
	req := intelligence.NewStoreRequest(&intelligence.Draft{Filename: "a.pdf"}, false, true)
	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"raw_chunks":[]`)
	assert.Contains(t, string(data), `"embeddings":[]`)
}

func TestActionable(t *testing.T) {
	d := decodeAnalysis(t)
	got := d.Actionable()
	require.Len(t, got, 1)
	assert.Equal(t, "Risk", got[0].Type)

	assert.True(t, intelligence.Insight{Description: "  n/a "}.Placeholder())
	assert.True(t, intelligence.Insight{}.Placeholder())
	assert.False(t, intelligence.Insight{Description: "real"}.Placeholder())
}

func TestSnapshotRoundTrip(t *testing.T) {
	d := decodeAnalysis(t)
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	snap := intelligence.NewSnapshot(d, "ws-1", at)
	data, err := snap.Encode()
	require.NoError(t, err)

	back, err := intelligence.DecodeSnapshot(data)
	require.NoError(t, err)

	if diff := cmp.Diff(d.Summaries.Sections, back.Summaries.Sectional); diff != "" {
		t.Errorf("sections mismatch (-draft +snapshot):\n%s", diff)
	}
	if diff := cmp.Diff(d.Entities, back.Entities); diff != "" {
		t.Errorf("entities mismatch (-draft +snapshot):\n%s", diff)
	}
	if diff := cmp.Diff(d.Relationships, back.ObligationsLogic); diff != "" {
		t.Errorf("relationships mismatch (-draft +snapshot):\n%s", diff)
	}
	assert.Equal(t, d.MajorThemes, back.MajorThemes)
	assert.Equal(t, d.Summaries.Executive, back.Summaries.Executive)
	assert.Equal(t, d.Summaries.Technical, back.Summaries.Technical)
	assert.Equal(t, "ws-1", back.Metadata.Workspace)
	assert.Equal(t, "Service agreement", back.Metadata.Intent)
	assert.True(t, at.Equal(back.Metadata.ExportedAt))
	assert.Equal(t, "Intelligence_Report_contract.json", snap.Filename())
}

func TestSnapshotEncodingShape(t *testing.T) {
	snap := intelligence.NewSnapshot(&intelligence.Draft{Filename: "x.pdf"}, "ws", time.Unix(0, 0))
	data, err := snap.Encode()
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"metadata", "major_themes", "summaries", "insights", "entities", "obligations_logic"} {
		assert.Contains(t, raw, key)
	}
	assert.Equal(t, "[]", string(raw["entities"]))
	assert.Contains(t, string(data), "\n  \"metadata\"")
}

func TestExportFilename(t *testing.T) {
	tests := map[string]string{
		"contract.pdf":     "Intelligence_Report_contract.json",
		"contract.v2.docx": "Intelligence_Report_contract.json",
		"README":           "Intelligence_Report_README.json",
		"a/b.pdf":          "Intelligence_Report_a_b.json",
		`legal\nda.pdf`:    "Intelligence_Report_legal_nda.json",
		"../../etc.pdf":    "Intelligence_Report_.json",
	}
	for in, want := range tests {
		assert.Equal(t, want, intelligence.ExportFilename(in), in)
	}
}

func TestNewUpload(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
		maxSize  int64
		wantErr  error
	}{
		{"no filename", "", []byte("x"), 0, intelligence.ErrNoFile},
		{"unsupported extension", "notes.txt", []byte("x"), 0, intelligence.ErrUnsupportedType},
		{"empty", "a.docx", nil, 0, intelligence.ErrEmptyFile},
		{"too large", "a.docx", make([]byte, 11), 10, intelligence.ErrFileTooLarge},
		{"pdf without header", "a.pdf", []byte("hello"), 0, intelligence.ErrInvalidFile},
		{"docx accepted", "Report.DOCX", []byte("PK..."), 0, nil},
		{"pdf header accepted", "a.pdf", []byte("%PDF-1.7\n"), 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := intelligence.NewUpload(tt.filename, tt.data, tt.maxSize)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.Nil(t, u)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.data)), u.Size())
		})
	}
}

func TestOpenUpload(t *testing.T) {
	dir := t.TempDir()

	_, err := intelligence.OpenUpload("", 0)
	assert.ErrorIs(t, err, intelligence.ErrNoFile)

	_, err = intelligence.OpenUpload(filepath.Join(dir, "missing.pdf"), 0)
	assert.ErrorIs(t, err, intelligence.ErrNoFile)

	_, err = intelligence.OpenUpload(dir, 0)
	assert.ErrorIs(t, err, intelligence.ErrInvalidFile)

	big := filepath.Join(dir, "big.docx")
	require.NoError(t, os.WriteFile(big, make([]byte, 2048), 0o600))
	_, err = intelligence.OpenUpload(big, 1024)
	assert.ErrorIs(t, err, intelligence.ErrFileTooLarge)

	u, err := intelligence.OpenUpload(big, 4096)
	require.NoError(t, err)
	assert.Equal(t, "big.docx", u.Filename)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", u.ContentType)
}
