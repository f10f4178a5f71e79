package sandbox

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/JaimeStill/alphadoc/internal/intelligence"
	"github.com/JaimeStill/alphadoc/internal/session"
)

type account struct {
	id          string
	username    string
	hash        []byte
	role        session.Role
	workspaceID string
}

type workspace struct {
	id          string
	name        string
	engineKey   string
	storageURI  string
	vectorIndex string
}

func (w *workspace) requireStorage() error {
	if w.storageURI == "" {
		return ErrStorageMissing
	}
	return nil
}

func (w *workspace) requireEngine() error {
	if w.engineKey == "" {
		return ErrEngineMissing
	}
	return nil
}

// document is one stored version. Versions replaced through confirm_update
// share a group.
type document struct {
	id          string
	groupID     string
	workspaceID string
	owner       string
	filename    string
	uploaded    time.Time
	current     bool
	payload     intelligence.StoreRequest
}

func (d *document) detail() intelligence.HistoryDetail {
	p := d.payload
	return intelligence.HistoryDetail{
		Filename:           d.filename,
		DocumentIntent:     p.Intelligence.DocumentIntent,
		MajorThemes:        p.Intelligence.Topics,
		Entities:           p.Intelligence.Entities,
		Relationships:      p.Intelligence.Relationships,
		ExecutiveSummary:   p.Summaries.Executive,
		TechnicalSummary:   p.Summaries.Technical,
		ActionableInsights: p.Insights.Insights,
		SectionSummaries:   p.Summaries.Sections,
	}
}

// AuditEvent is one recorded action.
type AuditEvent struct {
	Timestamp   time.Time
	UserID      string
	Username    string
	Role        session.Role
	WorkspaceID string
	Action      string
	Details     map[string]any
}

const (
	ActionAnalysis    = "AI_ANALYSIS"
	ActionStored      = "DOCUMENT_STORED"
	ActionQuery       = "RAG_QUERY"
	ActionDeactivated = "VERSION_DEACTIVATED"
)

// auditLimit caps how many events a single audit log read returns.
const auditLimit = 50

// workspaceID derives the tenant identifier from a workspace name.
func workspaceID(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// currentDocs returns the current versions of a workspace, newest first.
// Versions stored at the same instant keep reverse insertion order.
// caller holds s.mu
func (s *Sandbox) currentDocs(workspaceID string) []*document {
	var out []*document
	for i := len(s.documents) - 1; i >= 0; i-- {
		if d := s.documents[i]; d.workspaceID == workspaceID && d.current {
			out = append(out, d)
		}
	}
	slices.SortStableFunc(out, func(a, b *document) int {
		return cmp.Compare(b.uploaded.UnixNano(), a.uploaded.UnixNano())
	})
	return out
}

// caller holds s.mu
func (s *Sandbox) findCurrent(workspaceID, filename string) *document {
	for _, d := range s.documents {
		if d.workspaceID == workspaceID && d.current && d.filename == filename {
			return d
		}
	}
	return nil
}

// caller holds s.mu
func (s *Sandbox) findDoc(workspaceID, id string) *document {
	for _, d := range s.documents {
		if d.workspaceID == workspaceID && d.id == id {
			return d
		}
	}
	return nil
}

// caller holds s.mu
func (s *Sandbox) record(p Principal, action string, details map[string]any) {
	var userID string
	if a, ok := s.accounts[p.Username]; ok {
		userID = a.id
	}
	s.audit = append(s.audit, AuditEvent{
		Timestamp:   s.now().UTC(),
		UserID:      userID,
		Username:    p.Username,
		Role:        p.Role,
		WorkspaceID: p.WorkspaceID,
		Action:      action,
		Details:     details,
	})
}
