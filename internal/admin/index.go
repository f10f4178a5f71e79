package admin

import "encoding/json"

// EmbeddingDimensions is the vector size produced by the analysis engine's
// embedding model.
const EmbeddingDimensions = 768

// IndexField is one entry of a vector search index definition.
type IndexField struct {
	Type          string `json:"type"`
	Path          string `json:"path"`
	NumDimensions int    `json:"numDimensions,omitempty"`
	Similarity    string `json:"similarity,omitempty"`
}

// IndexDefinition is the vector search index the operator creates on the
// workspace chunk collection before linking storage.
type IndexDefinition struct {
	Fields []IndexField `json:"fields"`
}

// filterPaths are the chunk metadata fields grounded queries filter on.
var filterPaths = []string{
	"is_current",
	"parent_doc_id",
	"section_header",
	"insight_types",
	"entities.name",
	"entities.type",
	"relationships.relation",
}

func NewIndexDefinition() IndexDefinition {
	fields := []IndexField{{
		Type:          "vector",
		Path:          "embedding",
		NumDimensions: EmbeddingDimensions,
		Similarity:    "cosine",
	}}
	for _, p := range filterPaths {
		fields = append(fields, IndexField{Type: "filter", Path: p})
	}
	return IndexDefinition{Fields: fields}
}

// JSON renders the definition indented for pasting into the index editor.
func (d IndexDefinition) JSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}
