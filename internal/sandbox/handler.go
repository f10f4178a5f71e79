package sandbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/alphadoc/internal/intelligence"
	"github.com/JaimeStill/alphadoc/internal/session"
	"github.com/JaimeStill/alphadoc/pkg/handlers"
	"github.com/JaimeStill/alphadoc/pkg/middleware"
	"github.com/JaimeStill/alphadoc/pkg/routes"
)

// wireTimestamp is the naive UTC layout the service emits.
const wireTimestamp = "2006-01-02T15:04:05.000000"

// maxJSONBody caps non-store request bodies.
const maxJSONBody = 1 << 20

type handler struct {
	sb     *Sandbox
	logger *slog.Logger
}

type message struct {
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}

type loginResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	WorkspaceID string `json:"workspace_id"`
}

type signupResponse struct {
	Message     string `json:"message"`
	WorkspaceID string `json:"workspace_id,omitempty"`
}

type historyItem struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	UploadDate string `json:"upload_date"`
	IsCurrent  bool   `json:"is_current"`
}

type auditRecord struct {
	Timestamp   string         `json:"timestamp"`
	UserID      string         `json:"user_id"`
	Username    string         `json:"username"`
	Role        string         `json:"role"`
	WorkspaceID string         `json:"workspace_id"`
	Action      string         `json:"action"`
	Details     map[string]any `json:"details"`
}

type engineKeyRequest struct {
	APIKey string `json:"api_key"`
}

type storageLinkRequest struct {
	URI         string `json:"mongodb_uri"`
	VectorIndex string `json:"vector_index"`
}

// Handler returns the HTTP surface of the sandbox.
func (s *Sandbox) Handler() http.Handler {
	h := &handler{sb: s, logger: s.logger.With("handler", "sandbox")}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	routes.Register(mux, h.routes()...)

	mw := middleware.New()
	mw.Use(
		middleware.RequestID(),
		middleware.Logger(s.logger),
		middleware.CORS(&s.cors),
	)
	return mw.Apply(mux)
}

func (h *handler) routes() []routes.Group {
	return []routes.Group{
		{
			Prefix: "/auth",
			Routes: []routes.Route{
				{Method: "POST", Pattern: "/login", Handler: h.login},
				{Method: "POST", Pattern: "/signup/admin", Handler: h.signupAdmin},
				{Method: "POST", Pattern: "/signup/researcher", Handler: h.signupResearcher},
			},
		},
		{
			Middleware: []routes.Middleware{h.authenticate()},
			Routes: []routes.Route{
				{Method: "POST", Pattern: "/analyze", Handler: h.analyze},
				{Method: "POST", Pattern: "/store", Handler: h.store},
				{Method: "GET", Pattern: "/history", Handler: h.history},
				{Method: "GET", Pattern: "/history/{id}", Handler: h.detail},
				{Method: "DELETE", Pattern: "/documents/version/{id}", Handler: h.deactivate},
				{Method: "POST", Pattern: "/search", Handler: h.search},
				{Method: "GET", Pattern: "/dashboard/latest", Handler: h.dashboard},
			},
			Children: []routes.Group{{
				Prefix:     "/admin",
				Middleware: []routes.Middleware{h.requireAdmin()},
				Routes: []routes.Route{
					{Method: "GET", Pattern: "/audit-logs", Handler: h.auditLogs},
					{Method: "POST", Pattern: "/config/gemini-key", Handler: h.setEngineKey},
					{Method: "POST", Pattern: "/config/mongodb-uri", Handler: h.linkStorage},
				},
			}},
		},
	}
}

func (h *handler) fail(w http.ResponseWriter, err error) {
	handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
}

func decode(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ErrFileTooLarge
		}
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

func principal(r *http.Request) Principal {
	p, _ := PrincipalFrom(r.Context())
	return p
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var creds session.Credentials
	if err := decode(w, r, maxJSONBody, &creds); err != nil {
		h.fail(w, err)
		return
	}

	p, token, err := h.sb.Login(creds)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, loginResponse{
		Message:     "Login successful",
		AccessToken: token,
		TokenType:   "bearer",
		Username:    p.Username,
		Role:        string(p.Role),
		WorkspaceID: p.WorkspaceID,
	})
}

func (h *handler) signupAdmin(w http.ResponseWriter, r *http.Request) {
	var req session.AdminSignup
	if err := decode(w, r, maxJSONBody, &req); err != nil {
		h.fail(w, err)
		return
	}

	id, err := h.sb.SignupAdmin(req)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, signupResponse{
		Message:     "Admin and Workspace created",
		WorkspaceID: id,
	})
}

func (h *handler) signupResearcher(w http.ResponseWriter, r *http.Request) {
	var req session.ResearcherSignup
	if err := decode(w, r, maxJSONBody, &req); err != nil {
		h.fail(w, err)
		return
	}

	if err := h.sb.SignupResearcher(req); err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, signupResponse{Message: "Researcher registered successfully"})
}

func (h *handler) analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.sb.maxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(h.sb.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(w, ErrFileTooLarge)
			return
		}
		h.fail(w, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.fail(w, fmt.Errorf("%w: file is required", ErrInvalidRequest))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.fail(w, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}

	upload, err := intelligence.NewUpload(header.Filename, data, h.sb.maxUploadSize)
	switch {
	case errors.Is(err, intelligence.ErrUnsupportedType):
		h.fail(w, ErrUnsupportedFile)
		return
	case errors.Is(err, intelligence.ErrFileTooLarge):
		h.fail(w, ErrFileTooLarge)
		return
	case err != nil:
		h.fail(w, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}

	result, err := h.sb.Analyze(principal(r), upload)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *handler) store(w http.ResponseWriter, r *http.Request) {
	var req intelligence.StoreRequest
	if err := decode(w, r, h.sb.maxUploadSize, &req); err != nil {
		h.fail(w, err)
		return
	}

	result, err := h.sb.Store(principal(r), req)
	if errors.Is(err, ErrDuplicate) {
		handlers.RespondJSON(w, http.StatusConflict, intelligence.Conflict{
			Message:  "A document with this name already exists.",
			Filename: req.Filename,
		})
		return
	}
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *handler) history(w http.ResponseWriter, r *http.Request) {
	items, err := h.sb.History(principal(r))
	if err != nil {
		h.fail(w, err)
		return
	}

	out := make([]historyItem, len(items))
	for i, it := range items {
		out[i] = historyItem{
			ID:         it.ID,
			Filename:   it.Filename,
			UploadDate: it.UploadDate.Format(wireTimestamp),
			IsCurrent:  true,
		}
	}
	handlers.RespondJSON(w, http.StatusOK, out)
}

func (h *handler) detail(w http.ResponseWriter, r *http.Request) {
	detail, err := h.sb.Detail(principal(r), r.PathValue("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, detail)
}

func (h *handler) deactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.sb.Deactivate(principal(r), r.PathValue("id")); err != nil {
		h.fail(w, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, message{Message: "Version removed from active repository."})
}

func (h *handler) search(w http.ResponseWriter, r *http.Request) {
	answer, err := h.sb.Search(principal(r), r.URL.Query().Get("user_query"))
	if err != nil {
		h.fail(w, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

func (h *handler) dashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.sb.Dashboard(principal(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, map[string]string{"dashboard_summary": summary})
}

func (h *handler) auditLogs(w http.ResponseWriter, r *http.Request) {
	events, err := h.sb.AuditLogs(principal(r))
	if err != nil {
		h.fail(w, err)
		return
	}

	out := make([]auditRecord, len(events))
	for i, e := range events {
		out[i] = auditRecord{
			Timestamp:   e.Timestamp.Format(wireTimestamp),
			UserID:      e.UserID,
			Username:    e.Username,
			Role:        string(e.Role),
			WorkspaceID: e.WorkspaceID,
			Action:      e.Action,
			Details:     e.Details,
		}
	}
	handlers.RespondJSON(w, http.StatusOK, out)
}

func (h *handler) setEngineKey(w http.ResponseWriter, r *http.Request) {
	var req engineKeyRequest
	if err := decode(w, r, maxJSONBody, &req); err != nil {
		h.fail(w, err)
		return
	}

	if err := h.sb.SetEngineKey(principal(r), req.APIKey); err != nil {
		h.fail(w, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, message{Message: "Google API Key successfully set for the workspace."})
}

func (h *handler) linkStorage(w http.ResponseWriter, r *http.Request) {
	var req storageLinkRequest
	if err := decode(w, r, maxJSONBody, &req); err != nil {
		h.fail(w, err)
		return
	}

	if err := h.sb.LinkStorage(principal(r), req.URI, req.VectorIndex); err != nil {
		h.fail(w, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, message{
		Status:  "success",
		Message: "Storage Engine configured. Repository and Search are now active.",
	})
}
