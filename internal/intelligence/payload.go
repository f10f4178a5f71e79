package intelligence

// Extraction is the semantic portion of an analysis result.
type Extraction struct {
	DocumentIntent string         `json:"document_intent"`
	Topics         []string       `json:"topics"`
	MajorThemes    []string       `json:"major_themes,omitempty"`
	Entities       []Entity       `json:"entities"`
	Relationships  []Relationship `json:"relationships"`
}

func (e Extraction) themes() []string {
	if len(e.MajorThemes) > 0 {
		return e.MajorThemes
	}
	return e.Topics
}

type InsightList struct {
	Insights []Insight `json:"insights"`
}

// AnalysisResult is the response body of the analyze operation.
type AnalysisResult struct {
	Filename     string      `json:"filename"`
	Intelligence Extraction  `json:"intelligence"`
	Insights     InsightList `json:"insights"`
	Summaries    Summaries   `json:"summaries"`
	RawChunks    []string    `json:"raw_chunks"`
	Embeddings   [][]float64 `json:"embeddings"`
}

// Draft converts the result into a fresh committable draft.
func (a AnalysisResult) Draft() *Draft {
	return normalize(&Draft{
		Filename:       a.Filename,
		DocumentIntent: a.Intelligence.DocumentIntent,
		MajorThemes:    a.Intelligence.themes(),
		Entities:       a.Intelligence.Entities,
		Relationships:  a.Intelligence.Relationships,
		Summaries:      a.Summaries,
		Insights:       a.Insights.Insights,
		RawChunks:      a.RawChunks,
		Embeddings:     a.Embeddings,
	})
}

// HistoryDetail is the flattened body returned when loading a version.
type HistoryDetail struct {
	Filename           string         `json:"filename"`
	DocumentIntent     string         `json:"document_intent"`
	MajorThemes        []string       `json:"major_themes"`
	Entities           []Entity       `json:"entities"`
	Relationships      []Relationship `json:"relationships"`
	ExecutiveSummary   string         `json:"executive_summary"`
	TechnicalSummary   string         `json:"technical_summary"`
	ActionableInsights []Insight      `json:"actionable_insights"`
	SectionSummaries   []Section      `json:"section_summaries"`
}

// Draft converts a loaded version into a read-only draft tagged with id.
func (h HistoryDetail) Draft(id string) *Draft {
	return normalize(&Draft{
		Filename:       h.Filename,
		DocumentIntent: h.DocumentIntent,
		MajorThemes:    h.MajorThemes,
		Entities:       h.Entities,
		Relationships:  h.Relationships,
		Summaries: Summaries{
			Executive: h.ExecutiveSummary,
			Technical: h.TechnicalSummary,
			Sections:  h.SectionSummaries,
		},
		Insights:    h.ActionableInsights,
		FromHistory: true,
		SourceID:    id,
	})
}

// StoreRequest is the body of the commit operation.
type StoreRequest struct {
	Filename      string      `json:"filename"`
	Summaries     Summaries   `json:"summaries"`
	Insights      InsightList `json:"insights"`
	Intelligence  Extraction  `json:"intelligence"`
	RawChunks     []string    `json:"raw_chunks"`
	Embeddings    [][]float64 `json:"embeddings"`
	ConfirmUpdate bool        `json:"confirm_update"`
	ForceNew      bool        `json:"force_new"`
}

// NewStoreRequest builds the commit body for d with the given resolution
// flags.
func NewStoreRequest(d *Draft, confirmUpdate, forceNew bool) StoreRequest {
	chunks := d.RawChunks
	if chunks == nil {
		chunks = []string{}
	}
	embeddings := d.Embeddings
	if embeddings == nil {
		embeddings = [][]float64{}
	}

	return StoreRequest{
		Filename:  d.Filename,
		Summaries: d.Summaries,
		Insights:  InsightList{Insights: d.Insights},
		Intelligence: Extraction{
			DocumentIntent: d.DocumentIntent,
			Topics:         d.MajorThemes,
			Entities:       d.Entities,
			Relationships:  d.Relationships,
		},
		RawChunks:     chunks,
		Embeddings:    embeddings,
		ConfirmUpdate: confirmUpdate,
		ForceNew:      forceNew,
	}
}

// StoreResult is the acknowledgement of a successful commit.
type StoreResult struct {
	Message string `json:"message"`
	DocID   string `json:"doc_id"`
}

// Conflict is the body of a 409 commit response.
type Conflict struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
}
