// Package sandbox is an in-memory implementation of the remote analysis
// and storage service. It backs local development and end-to-end tests of
// the client; analysis, search and dashboard results are canned.
package sandbox

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/JaimeStill/alphadoc/internal/config"
	"github.com/JaimeStill/alphadoc/internal/intelligence"
	"github.com/JaimeStill/alphadoc/internal/session"
	"github.com/JaimeStill/alphadoc/pkg/middleware"
)

// DefaultVectorIndex is used when a storage link names no index.
const DefaultVectorIndex = "vector_index"

// Sandbox holds every workspace, account, document version and audit
// event in memory.
type Sandbox struct {
	mu         sync.Mutex
	accounts   map[string]*account
	workspaces map[string]*workspace
	documents  []*document
	audit      []AuditEvent

	tokens        *tokens
	cors          middleware.CORSConfig
	maxUploadSize int64
	logger        *slog.Logger
	now           func() time.Time
}

// New creates an empty sandbox from a finalized cfg.
func New(cfg *config.SandboxConfig, logger *slog.Logger) *Sandbox {
	return &Sandbox{
		accounts:      make(map[string]*account),
		workspaces:    make(map[string]*workspace),
		tokens:        newTokens(cfg.TokenSecret, cfg.TokenTTLDuration()),
		cors:          cfg.CORS,
		maxUploadSize: cfg.MaxUploadSizeBytes(),
		logger:        logger.With("system", "sandbox"),
		now:           time.Now,
	}
}

// RotateSecret replaces the token signing secret. Every issued token
// becomes invalid and callers must log in again.
func (s *Sandbox) RotateSecret() error {
	if err := s.tokens.rotate(); err != nil {
		return err
	}
	s.logger.Info("token secret rotated")
	return nil
}

// SignupAdmin creates a workspace and its first admin. The workspace id is
// derived from its name. An empty engine key leaves analysis unconfigured.
func (s *Sandbox) SignupAdmin(req session.AdminSignup) (string, error) {
	if req.Username == "" || req.Password == "" || strings.TrimSpace(req.WorkspaceName) == "" {
		return "", fmt.Errorf("%w: username, password and workspace_name are required", ErrInvalidRequest)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	id := workspaceID(req.WorkspaceName)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[req.Username]; ok {
		return "", ErrUsernameTaken
	}
	if _, ok := s.workspaces[id]; ok {
		return "", ErrWorkspaceExists
	}

	s.workspaces[id] = &workspace{
		id:        id,
		name:      req.WorkspaceName,
		engineKey: strings.TrimSpace(req.EngineKey),
	}
	s.accounts[req.Username] = &account{
		id:          uuid.NewString(),
		username:    req.Username,
		hash:        hash,
		role:        session.RoleAdmin,
		workspaceID: id,
	}

	s.logger.Info("workspace created", "workspace_id", id, "username", req.Username)
	return id, nil
}

// SignupResearcher registers a researcher in an existing workspace.
func (s *Sandbox) SignupResearcher(req session.ResearcherSignup) error {
	if req.Username == "" || req.Password == "" || req.WorkspaceID == "" {
		return fmt.Errorf("%w: username, password and workspace_id are required", ErrInvalidRequest)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.workspaces[req.WorkspaceID]; !ok {
		return ErrUnknownWorkspace
	}
	if _, ok := s.accounts[req.Username]; ok {
		return ErrUsernameTaken
	}

	s.accounts[req.Username] = &account{
		id:          uuid.NewString(),
		username:    req.Username,
		hash:        hash,
		role:        session.RoleResearcher,
		workspaceID: req.WorkspaceID,
	}

	s.logger.Info("researcher registered", "workspace_id", req.WorkspaceID, "username", req.Username)
	return nil
}

// Login verifies creds and issues an access token.
func (s *Sandbox) Login(creds session.Credentials) (Principal, string, error) {
	s.mu.Lock()
	a, ok := s.accounts[creds.Username]
	s.mu.Unlock()

	if !ok || bcrypt.CompareHashAndPassword(a.hash, []byte(creds.Password)) != nil {
		return Principal{}, "", ErrInvalidCredentials
	}

	p := Principal{Username: a.username, Role: a.role, WorkspaceID: a.workspaceID}
	token, err := s.tokens.issue(p)
	if err != nil {
		return Principal{}, "", err
	}
	return p, token, nil
}

// Authenticate verifies a bearer token.
func (s *Sandbox) Authenticate(token string) (Principal, error) {
	return s.tokens.verify(token)
}

// caller holds s.mu
func (s *Sandbox) workspace(p Principal) (*workspace, error) {
	w, ok := s.workspaces[p.WorkspaceID]
	if !ok {
		return nil, ErrTokenInvalid
	}
	return w, nil
}

// Analyze returns canned intelligence for upload.
func (s *Sandbox) Analyze(p Principal, upload *intelligence.Upload) (*intelligence.AnalysisResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.workspace(p)
	if err != nil {
		return nil, err
	}
	if err := w.requireEngine(); err != nil {
		return nil, err
	}

	result := cannedAnalysis(upload)
	s.record(p, ActionAnalysis, map[string]any{"filename": upload.Filename})
	return result, nil
}

// Store commits a reviewed draft. A current version with the same filename
// is a collision unless the request resolves it: ConfirmUpdate (admin only)
// replaces that version within its group, ForceNew starts a new group.
func (s *Sandbox) Store(p Principal, req intelligence.StoreRequest) (*intelligence.StoreResult, error) {
	if strings.TrimSpace(req.Filename) == "" {
		return nil, fmt.Errorf("%w: filename is required", ErrInvalidRequest)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.workspace(p)
	if err != nil {
		return nil, err
	}
	if err := w.requireStorage(); err != nil {
		return nil, err
	}
	if req.ConfirmUpdate && !p.IsAdmin() {
		return nil, ErrReplaceForbidden
	}

	existing := s.findCurrent(w.id, req.Filename)
	if existing != nil && !req.ConfirmUpdate && !req.ForceNew {
		return nil, ErrDuplicate
	}

	doc := &document{
		id:          uuid.NewString(),
		groupID:     uuid.NewString(),
		workspaceID: w.id,
		owner:       p.Username,
		filename:    req.Filename,
		uploaded:    s.now().UTC(),
		current:     true,
		payload:     req,
	}
	if req.ConfirmUpdate && existing != nil {
		doc.groupID = existing.groupID
		existing.current = false
	}
	s.documents = append(s.documents, doc)

	s.record(p, ActionStored, map[string]any{
		"filename":    req.Filename,
		"doc_id":      doc.id,
		"chunk_count": len(req.RawChunks),
	})
	s.logger.Info("document stored", "workspace_id", w.id, "doc_id", doc.id, "replaced", req.ConfirmUpdate && existing != nil)

	return &intelligence.StoreResult{Message: "Success!", DocID: doc.id}, nil
}

// HistoryItem is one current version in the repository list.
type HistoryItem struct {
	ID         string
	Filename   string
	UploadDate time.Time
}

// History lists the current versions of a workspace, newest first.
func (s *Sandbox) History(p Principal) ([]HistoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.workspace(p)
	if err != nil {
		return nil, err
	}
	if err := w.requireStorage(); err != nil {
		return nil, err
	}

	docs := s.currentDocs(w.id)
	items := make([]HistoryItem, len(docs))
	for i, d := range docs {
		items[i] = HistoryItem{ID: d.id, Filename: d.filename, UploadDate: d.uploaded}
	}
	return items, nil
}

// Detail returns the stored report of one version, current or not.
func (s *Sandbox) Detail(p Principal, id string) (*intelligence.HistoryDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.workspace(p)
	if err != nil {
		return nil, err
	}
	if err := w.requireStorage(); err != nil {
		return nil, err
	}

	d := s.findDoc(w.id, id)
	if d == nil {
		return nil, ErrNotFound
	}
	detail := d.detail()
	return &detail, nil
}

// Deactivate removes a version from the active repository.
func (s *Sandbox) Deactivate(p Principal, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.workspace(p)
	if err != nil {
		return err
	}
	if !p.IsAdmin() {
		return ErrAdminRequired
	}
	if err := w.requireStorage(); err != nil {
		return err
	}

	d := s.findDoc(w.id, id)
	if d == nil {
		return ErrNotFound
	}
	d.current = false

	s.record(p, ActionDeactivated, map[string]any{"doc_id": id})
	return nil
}

// Search answers query from the current versions of the workspace.
func (s *Sandbox) Search(p Principal, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("%w: user_query is required", ErrInvalidRequest)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.workspace(p)
	if err != nil {
		return "", err
	}
	if err := w.requireStorage(); err != nil {
		return "", err
	}
	if err := w.requireEngine(); err != nil {
		return "", err
	}

	answer := cannedAnswer(query, s.currentDocs(w.id))
	s.record(p, ActionQuery, map[string]any{"query": query})
	return answer, nil
}

// Dashboard summarizes the most recently stored current version.
func (s *Sandbox) Dashboard(p Principal) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.workspace(p)
	if err != nil {
		return "", err
	}
	if err := w.requireStorage(); err != nil {
		return "", err
	}

	docs := s.currentDocs(w.id)
	if len(docs) == 0 {
		return "", ErrNoDocuments
	}
	if err := w.requireEngine(); err != nil {
		return "", err
	}
	return cannedDashboard(docs[0]), nil
}

// AuditLogs returns the most recent events of the workspace, newest first.
func (s *Sandbox) AuditLogs(p Principal) ([]AuditEvent, error) {
	if !p.IsAdmin() {
		return nil, ErrAdminRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]AuditEvent, 0, auditLimit)
	for i := len(s.audit) - 1; i >= 0 && len(out) < auditLimit; i-- {
		if s.audit[i].WorkspaceID == p.WorkspaceID {
			out = append(out, s.audit[i])
		}
	}
	return out, nil
}

// SetEngineKey configures the analysis engine of the workspace.
func (s *Sandbox) SetEngineKey(p Principal, key string) error {
	if !p.IsAdmin() {
		return ErrAdminRequired
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: api key is required", ErrInvalidRequest)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.workspace(p)
	if err != nil {
		return err
	}
	w.engineKey = key
	s.logger.Info("engine key configured", "workspace_id", w.id)
	return nil
}

// LinkStorage links the workspace to a document store. vectorIndex
// defaults to DefaultVectorIndex.
func (s *Sandbox) LinkStorage(p Principal, uri, vectorIndex string) error {
	if !p.IsAdmin() {
		return ErrAdminRequired
	}
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return fmt.Errorf("%w: storage uri is required", ErrInvalidRequest)
	}
	if err := checkStorageURI(uri); err != nil {
		return err
	}
	if vectorIndex = strings.TrimSpace(vectorIndex); vectorIndex == "" {
		vectorIndex = DefaultVectorIndex
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.workspace(p)
	if err != nil {
		return err
	}
	w.storageURI = uri
	w.vectorIndex = vectorIndex
	s.logger.Info("storage linked", "workspace_id", w.id, "vector_index", vectorIndex)
	return nil
}

func checkStorageURI(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStorage, err)
	}
	if u.Scheme != "mongodb" && u.Scheme != "mongodb+srv" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidStorage, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidStorage)
	}
	return nil
}
