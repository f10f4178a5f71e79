// Package client is the HTTP transport for the remote analysis and storage
// service. Every failed call is classified once, here, into a
// *failures.Failure; an Unauthenticated failure expires the session that
// issued the request.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/alphadoc/internal/config"
	"github.com/JaimeStill/alphadoc/internal/failures"
	"github.com/JaimeStill/alphadoc/internal/session"
)

// HeaderRequestID carries a per-call identifier for correlating logs.
const HeaderRequestID = "X-Request-ID"

// maxErrorBody caps how much of a failed response is read for classification.
const maxErrorBody = 64 * 1024

// Identity supplies the session attached to outbound calls and expires it
// when the remote rejects its token.
type Identity interface {
	Require() (session.Session, error)
	Expire(token string) bool
}

// Client calls the remote service on behalf of the current session.
type Client struct {
	base        *url.URL
	http        *http.Client
	identity    Identity
	logger      *slog.Logger
	maxResponse int64
}

// New creates a Client from cfg. A nil httpClient uses a client with the
// configured timeout.
func New(cfg *config.ClientConfig, httpClient *http.Client, identity Identity, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.TimeoutDuration()}
	}

	return &Client{
		base:        base,
		http:        httpClient,
		identity:    identity,
		logger:      logger.With("system", "client"),
		maxResponse: cfg.MaxResponseSizeBytes(),
	}, nil
}

// BaseURL returns the remote service root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

type request struct {
	op          failures.Operation
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	public      bool
}

func jsonBody(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return bytes.NewReader(data), nil
}

// do executes req and decodes a successful response into out (when non-nil).
func (c *Client) do(ctx context.Context, req request, out any) error {
	var s session.Session
	if !req.public {
		var err error
		if s, err = c.identity.Require(); err != nil {
			return err
		}
	}

	u := c.base.JoinPath(req.path)
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), req.body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", req.op, err)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set(HeaderRequestID, requestID)
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if !req.public {
		for k, v := range s.Headers() {
			httpReq.Header.Set(k, v)
		}
	}

	logger := c.logger.With("op", req.op, "request_id", requestID)
	start := time.Now()

	resp, err := c.http.Do(httpReq)
	if err != nil {
		logger.Warn("request failed", "error", err)
		return fmt.Errorf("%s: %w", req.op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		f := failures.Classify(req.op, resp.StatusCode, body)
		f.RequestID = requestID

		logger.Warn(
			"remote failure",
			"status", resp.StatusCode,
			"kind", f.Kind,
			"duration", time.Since(start),
		)

		if f.Kind == failures.Unauthenticated && !req.public {
			c.identity.Expire(s.Token)
		}
		return f
	}

	logger.Debug("request complete", "status", resp.StatusCode, "duration", time.Since(start))

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return nil
	}

	limited := io.LimitReader(resp.Body, c.maxResponse+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", req.op, err)
	}
	if int64(len(data)) > c.maxResponse {
		return fmt.Errorf("%s: %w", req.op, ErrResponseTooLarge)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: %w: %v", req.op, ErrMalformedResponse, err)
	}
	return nil
}
