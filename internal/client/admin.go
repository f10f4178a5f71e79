package client

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/JaimeStill/alphadoc/internal/failures"
	"github.com/JaimeStill/alphadoc/pkg/formatting"
)

// AuditRecord is one remote audit log row. Details is either a JSON string
// or a structured value.
type AuditRecord struct {
	Timestamp formatting.Timestamp `json:"timestamp"`
	UserID    string               `json:"user_id,omitempty"`
	Username  string               `json:"username"`
	Role      string               `json:"role"`
	Action    string               `json:"action"`
	Details   json.RawMessage      `json:"details"`
}

type engineKeyRequest struct {
	APIKey string `json:"api_key"`
}

type storageLinkRequest struct {
	URI         string `json:"mongodb_uri"`
	VectorIndex string `json:"vector_index"`
}

// AuditLogs returns the most recent audit records, newest first.
func (c *Client) AuditLogs(ctx context.Context) ([]AuditRecord, error) {
	var records []AuditRecord
	if err := c.do(ctx, request{
		op:     failures.OpAuditLogs,
		method: http.MethodGet,
		path:   "/admin/audit-logs",
	}, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// SetEngineKey stores the analysis engine key for the workspace.
func (c *Client) SetEngineKey(ctx context.Context, key string) (string, error) {
	body, err := jsonBody(engineKeyRequest{APIKey: key})
	if err != nil {
		return "", err
	}

	var resp ack
	if err := c.do(ctx, request{
		op:          failures.OpSetEngineKey,
		method:      http.MethodPost,
		path:        "/admin/config/gemini-key",
		body:        body,
		contentType: "application/json",
	}, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// SetStorageLink links the workspace to a document store and vector index.
func (c *Client) SetStorageLink(ctx context.Context, uri, vectorIndex string) (string, error) {
	body, err := jsonBody(storageLinkRequest{URI: uri, VectorIndex: vectorIndex})
	if err != nil {
		return "", err
	}

	var resp ack
	if err := c.do(ctx, request{
		op:          failures.OpSetStorageLink,
		method:      http.MethodPost,
		path:        "/admin/config/mongodb-uri",
		body:        body,
		contentType: "application/json",
	}, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}
