package client

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/JaimeStill/alphadoc/internal/failures"
	"github.com/JaimeStill/alphadoc/internal/intelligence"
)

// HistoryRecord is one row of the remote history list. IsCurrent is nil
// when the remote omits it.
type HistoryRecord struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	UploadDate string `json:"upload_date"`
	IsCurrent  *bool  `json:"is_current,omitempty"`
}

type ack struct {
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}

// Analyze uploads a document for analysis and returns the extraction.
func (c *Client) Analyze(ctx context.Context, upload *intelligence.Upload) (*intelligence.AnalysisResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, upload.Filename))
	h.Set("Content-Type", upload.ContentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := part.Write(upload.Data); err != nil {
		return nil, fmt.Errorf("write multipart part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	var result intelligence.AnalysisResult
	if err := c.do(ctx, request{
		op:          failures.OpAnalyze,
		method:      http.MethodPost,
		path:        "/analyze",
		body:        &buf,
		contentType: w.FormDataContentType(),
	}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Store commits a draft. A filename collision without resolution flags
// yields a Conflict failure carrying the filename.
func (c *Client) Store(ctx context.Context, req intelligence.StoreRequest) (*intelligence.StoreResult, error) {
	body, err := jsonBody(req)
	if err != nil {
		return nil, err
	}

	var result intelligence.StoreResult
	if err := c.do(ctx, request{
		op:          failures.OpCommit,
		method:      http.MethodPost,
		path:        "/store",
		body:        body,
		contentType: "application/json",
	}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// History lists the current versions in the workspace repository.
func (c *Client) History(ctx context.Context) ([]HistoryRecord, error) {
	var records []HistoryRecord
	if err := c.do(ctx, request{
		op:     failures.OpListHistory,
		method: http.MethodGet,
		path:   "/history",
	}, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// HistoryDetail loads the full report for one version.
func (c *Client) HistoryDetail(ctx context.Context, id string) (*intelligence.HistoryDetail, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrEmptyID
	}

	var detail intelligence.HistoryDetail
	if err := c.do(ctx, request{
		op:     failures.OpLoadVersion,
		method: http.MethodGet,
		path:   "/history/" + url.PathEscape(id),
	}, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// DeactivateVersion soft-deletes a version.
func (c *Client) DeactivateVersion(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrEmptyID
	}

	var resp ack
	return c.do(ctx, request{
		op:     failures.OpDeactivateVersion,
		method: http.MethodDelete,
		path:   "/documents/version/" + url.PathEscape(id),
	}, &resp)
}
