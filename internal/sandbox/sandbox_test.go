package sandbox_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/alphadoc/internal/config"
	"github.com/JaimeStill/alphadoc/internal/intelligence"
	"github.com/JaimeStill/alphadoc/internal/sandbox"
	"github.com/JaimeStill/alphadoc/internal/session"
)

const storageURI = "mongodb://db.local:27017/alphadoc"

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSandbox(t *testing.T, ttl string) (*sandbox.Sandbox, *httptest.Server) {
	t.Helper()

	cfg := &config.SandboxConfig{TokenTTL: ttl}
	require.NoError(t, cfg.Finalize())

	sb := sandbox.New(cfg, discard())
	srv := httptest.NewServer(sb.Handler())
	t.Cleanup(srv.Close)
	return sb, srv
}

// seed creates the acme_legal workspace with admin ada and researcher rey.
func seed(t *testing.T, sb *sandbox.Sandbox, engineKey string) {
	t.Helper()

	id, err := sb.SignupAdmin(session.AdminSignup{
		Username:      "ada",
		Password:      "secret1",
		WorkspaceName: "Acme Legal",
		EngineKey:     engineKey,
	})
	require.NoError(t, err)
	require.Equal(t, "acme_legal", id)

	require.NoError(t, sb.SignupResearcher(session.ResearcherSignup{
		Username:    "rey",
		Password:    "secret2",
		WorkspaceID: id,
	}))
}

func token(t *testing.T, sb *sandbox.Sandbox, username, password string) string {
	t.Helper()
	_, tok, err := sb.Login(session.Credentials{Username: username, Password: password})
	require.NoError(t, err)
	return tok
}

type response struct {
	status int
	body   []byte
}

func (r response) detail(t *testing.T) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(r.body, &body), string(r.body))
	return body.Detail
}

func call(t *testing.T, srv *httptest.Server, method, path, tok string, body any) response {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, srv.URL+path, rdr)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return send(t, srv, req)
}

func upload(t *testing.T, srv *httptest.Server, tok, filename string, data []byte) response {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/analyze", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+tok)
	return send(t, srv, req)
}

func send(t *testing.T, srv *httptest.Server, req *http.Request) response {
	t.Helper()
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return response{status: resp.StatusCode, body: data}
}

func TestHealthz(t *testing.T) {
	_, srv := newSandbox(t, "")
	resp := call(t, srv, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.status)
}

func TestLogin(t *testing.T) {
	sb, srv := newSandbox(t, "")
	seed(t, sb, "engine-key")

	resp := call(t, srv, http.MethodPost, "/auth/login", "", session.Credentials{Username: "rey", Password: "secret2"})
	require.Equal(t, http.StatusOK, resp.status)

	var body map[string]string
	require.NoError(t, json.Unmarshal(resp.body, &body))
	assert.Equal(t, "bearer", body["token_type"])
	assert.Equal(t, "researcher", body["role"])
	assert.Equal(t, "acme_legal", body["workspace_id"])
	assert.NotEmpty(t, body["access_token"])

	principal, err := sb.Authenticate(body["access_token"])
	require.NoError(t, err)
	assert.Equal(t, "rey", principal.Username)
	assert.False(t, principal.IsAdmin())
}

func TestSignupRejections(t *testing.T) {
	sb, srv := newSandbox(t, "")
	seed(t, sb, "engine-key")

	tests := []struct {
		name string
		path string
		body any
	}{
		{
			name: "username taken",
			path: "/auth/signup/admin",
			body: session.AdminSignup{Username: "ada", Password: "secret1", WorkspaceName: "Other"},
		},
		{
			name: "workspace exists",
			path: "/auth/signup/admin",
			body: session.AdminSignup{Username: "zed", Password: "secret1", WorkspaceName: "acme legal"},
		},
		{
			name: "unknown workspace",
			path: "/auth/signup/researcher",
			body: session.ResearcherSignup{Username: "zed", Password: "secret1", WorkspaceID: "nowhere"},
		},
		{
			name: "missing fields",
			path: "/auth/signup/researcher",
			body: map[string]string{"username": "zed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := call(t, srv, http.MethodPost, tt.path, "", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.status)
			assert.NotEmpty(t, resp.detail(t))
		})
	}
}

func TestAuthentication(t *testing.T) {
	sb, srv := newSandbox(t, "")
	seed(t, sb, "engine-key")

	tests := []struct {
		name   string
		token  string
		detail string
	}{
		{"missing token", "", "authentication token required"},
		{"garbage token", "not-a-token", "invalid token signature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := call(t, srv, http.MethodGet, "/history", tt.token, nil)
			assert.Equal(t, http.StatusUnauthorized, resp.status)
			assert.Equal(t, tt.detail, resp.detail(t))
		})
	}

	resp := call(t, srv, http.MethodPost, "/auth/login", "", session.Credentials{Username: "ada", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.status)
}

func TestExpiredToken(t *testing.T) {
	sb, srv := newSandbox(t, "-1m")
	seed(t, sb, "engine-key")

	resp := call(t, srv, http.MethodGet, "/dashboard/latest", token(t, sb, "ada", "secret1"), nil)
	assert.Equal(t, http.StatusUnauthorized, resp.status)
	assert.Equal(t, "token has expired", resp.detail(t))
}

func TestRotateSecretInvalidatesTokens(t *testing.T) {
	sb, srv := newSandbox(t, "")
	seed(t, sb, "engine-key")
	tok := token(t, sb, "ada", "secret1")

	require.NoError(t, sb.RotateSecret())

	resp := call(t, srv, http.MethodGet, "/history", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.status)

	fresh := token(t, sb, "ada", "secret1")
	resp = call(t, srv, http.MethodGet, "/history", fresh, nil)
	assert.Equal(t, http.StatusPreconditionRequired, resp.status)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	sb, srv := newSandbox(t, "")
	seed(t, sb, "engine-key")
	tok := token(t, sb, "rey", "secret2")

	for _, path := range []string{"/admin/audit-logs", "/admin/config/gemini-key", "/admin/config/mongodb-uri"} {
		method := http.MethodPost
		if path == "/admin/audit-logs" {
			method = http.MethodGet
		}
		resp := call(t, srv, method, path, tok, map[string]string{})
		assert.Equal(t, http.StatusForbidden, resp.status, path)
	}
}

func TestConfigurationMarkers(t *testing.T) {
	sb, srv := newSandbox(t, "")
	seed(t, sb, "")
	tok := token(t, sb, "ada", "secret1")

	for _, path := range []string{"/history", "/history/abc", "/dashboard/latest"} {
		resp := call(t, srv, http.MethodGet, path, tok, nil)
		assert.Equal(t, http.StatusPreconditionRequired, resp.status, path)
		assert.Equal(t, sandbox.MarkerStorageMissing, resp.detail(t), path)
	}

	resp := upload(t, srv, tok, "contract.pdf", []byte("%PDF-1.4\n"))
	assert.Equal(t, http.StatusPreconditionRequired, resp.status)
	assert.Equal(t, sandbox.MarkerEngineMissing, resp.detail(t))

	resp = call(t, srv, http.MethodPost, "/admin/config/mongodb-uri", tok, map[string]string{"mongodb_uri": storageURI})
	require.Equal(t, http.StatusOK, resp.status)

	resp = call(t, srv, http.MethodPost, "/search?user_query=terms", tok, nil)
	assert.Equal(t, http.StatusPreconditionRequired, resp.status)
	assert.Equal(t, sandbox.MarkerEngineMissing, resp.detail(t))

	resp = call(t, srv, http.MethodGet, "/dashboard/latest", tok, nil)
	assert.Equal(t, http.StatusNotFound, resp.status)
	assert.Equal(t, "no documents found", resp.detail(t))
}

func TestAnalyzeRejectsUnsupportedFile(t *testing.T) {
	sb, srv := newSandbox(t, "")
	seed(t, sb, "engine-key")

	resp := upload(t, srv, token(t, sb, "rey", "secret2"), "notes.txt", []byte("hello"))
	assert.Equal(t, http.StatusBadRequest, resp.status)
	assert.Equal(t, "only PDF files are supported", resp.detail(t))
}

func TestStoreCollision(t *testing.T) {
	sb, srv := newSandbox(t, "")
	seed(t, sb, "engine-key")
	admin := token(t, sb, "ada", "secret1")
	researcher := token(t, sb, "rey", "secret2")

	resp := call(t, srv, http.MethodPost, "/admin/config/mongodb-uri", admin, map[string]string{"mongodb_uri": storageURI})
	require.Equal(t, http.StatusOK, resp.status)

	analyzed := upload(t, srv, researcher, "contract.pdf", []byte("%PDF-1.4\n"))
	require.Equal(t, http.StatusOK, analyzed.status)

	var result intelligence.AnalysisResult
	require.NoError(t, json.Unmarshal(analyzed.body, &result))
	assert.Equal(t, "contract.pdf", result.Filename)
	require.Len(t, result.Embeddings, len(result.RawChunks))
	assert.Len(t, result.Embeddings[0], sandbox.EmbeddingDimensions)

	req := intelligence.NewStoreRequest(result.Draft(), false, false)

	resp = call(t, srv, http.MethodPost, "/store", researcher, req)
	require.Equal(t, http.StatusOK, resp.status)

	resp = call(t, srv, http.MethodPost, "/store", researcher, req)
	require.Equal(t, http.StatusConflict, resp.status)
	var conflict intelligence.Conflict
	require.NoError(t, json.Unmarshal(resp.body, &conflict))
	assert.Equal(t, "contract.pdf", conflict.Filename)

	req.ConfirmUpdate = true
	resp = call(t, srv, http.MethodPost, "/store", researcher, req)
	assert.Equal(t, http.StatusForbidden, resp.status)

	resp = call(t, srv, http.MethodPost, "/store", admin, req)
	require.Equal(t, http.StatusOK, resp.status)

	var items []map[string]any
	resp = call(t, srv, http.MethodGet, "/history", researcher, nil)
	require.NoError(t, json.Unmarshal(resp.body, &items))
	assert.Len(t, items, 1, "replacement keeps a single current version")
}

func TestDeactivate(t *testing.T) {
	sb, srv := newSandbox(t, "")
	seed(t, sb, "engine-key")
	admin := token(t, sb, "ada", "secret1")
	researcher := token(t, sb, "rey", "secret2")

	call(t, srv, http.MethodPost, "/admin/config/mongodb-uri", admin, map[string]string{"mongodb_uri": storageURI})

	var stored intelligence.StoreResult
	resp := call(t, srv, http.MethodPost, "/store", admin, intelligence.StoreRequest{Filename: "memo.pdf"})
	require.Equal(t, http.StatusOK, resp.status)
	require.NoError(t, json.Unmarshal(resp.body, &stored))

	resp = call(t, srv, http.MethodDelete, "/documents/version/"+stored.DocID, researcher, nil)
	assert.Equal(t, http.StatusForbidden, resp.status)

	resp = call(t, srv, http.MethodDelete, "/documents/version/"+stored.DocID, admin, nil)
	assert.Equal(t, http.StatusOK, resp.status)

	resp = call(t, srv, http.MethodDelete, "/documents/version/missing", admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.status)

	resp = call(t, srv, http.MethodGet, "/history", admin, nil)
	assert.JSONEq(t, `[]`, string(resp.body))

	resp = call(t, srv, http.MethodGet, "/history/"+stored.DocID, admin, nil)
	assert.Equal(t, http.StatusOK, resp.status, "deactivated versions stay loadable by id")
}

func TestLinkStorageValidation(t *testing.T) {
	sb, srv := newSandbox(t, "")
	seed(t, sb, "engine-key")
	admin := token(t, sb, "ada", "secret1")

	for _, uri := range []string{"", "postgres://db.local/alphadoc", "mongodb://"} {
		resp := call(t, srv, http.MethodPost, "/admin/config/mongodb-uri", admin, map[string]string{"mongodb_uri": uri})
		assert.Equal(t, http.StatusBadRequest, resp.status, uri)
	}

	resp := call(t, srv, http.MethodPost, "/admin/config/gemini-key", admin, map[string]string{"api_key": " "})
	assert.Equal(t, http.StatusBadRequest, resp.status)
}

func TestAuditLogs(t *testing.T) {
	sb, srv := newSandbox(t, "")
	seed(t, sb, "engine-key")
	admin := token(t, sb, "ada", "secret1")
	researcher := token(t, sb, "rey", "secret2")

	call(t, srv, http.MethodPost, "/admin/config/mongodb-uri", admin, map[string]string{"mongodb_uri": storageURI})
	require.Equal(t, http.StatusOK, upload(t, srv, researcher, "contract.pdf", []byte("%PDF-1.4\n")).status)
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, "/search?user_query=payment+terms", researcher, nil).status)

	resp := call(t, srv, http.MethodGet, "/admin/audit-logs", admin, nil)
	require.Equal(t, http.StatusOK, resp.status)

	var records []struct {
		Username string          `json:"username"`
		Action   string          `json:"action"`
		Details  json.RawMessage `json:"details"`
	}
	require.NoError(t, json.Unmarshal(resp.body, &records))
	require.Len(t, records, 2)
	assert.Equal(t, sandbox.ActionQuery, records[0].Action)
	assert.JSONEq(t, `{"query":"payment terms"}`, string(records[0].Details))
	assert.Equal(t, sandbox.ActionAnalysis, records[1].Action)
	assert.Equal(t, "rey", records[1].Username)
}
