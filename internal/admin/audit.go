// Package admin holds the administrator-only views: the workspace audit log
// and workspace engine and storage configuration.
package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/JaimeStill/alphadoc/internal/client"
	"github.com/JaimeStill/alphadoc/internal/failures"
	"github.com/JaimeStill/alphadoc/internal/session"
)

type Identity interface {
	Require() (session.Session, error)
}

type AuditRemote interface {
	AuditLogs(ctx context.Context) ([]client.AuditRecord, error)
}

// AuditEntry is one read-only audit record.
type AuditEntry struct {
	Timestamp time.Time
	Username  string
	Role      string
	Action    string
	Details   json.RawMessage
}

// DetailsText renders Details for display: the string itself when the
// remote sent a string, compact JSON otherwise.
func (e AuditEntry) DetailsText() string {
	trimmed := bytes.TrimSpace(e.Details)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return string(trimmed)
	}
	return buf.String()
}

// AuditLog fetches and holds the workspace audit trail, newest first.
type AuditLog struct {
	mu         sync.Mutex
	entries    []AuditEntry
	failure    *failures.Failure
	generation uint64
	fetching   *semaphore.Weighted

	remote   AuditRemote
	identity Identity
	logger   *slog.Logger
}

func NewAuditLog(remote AuditRemote, identity Identity, logger *slog.Logger) *AuditLog {
	return &AuditLog{
		fetching: semaphore.NewWeighted(1),
		remote:   remote,
		identity: identity,
		logger:   logger.With("system", "audit"),
	}
}

// Fetch replaces the held entries with the remote audit trail. Non-admin
// sessions are rejected locally.
func (a *AuditLog) Fetch(ctx context.Context) ([]AuditEntry, error) {
	s, err := a.identity.Require()
	if err != nil {
		return nil, err
	}
	if err := s.RequireAdmin(); err != nil {
		return nil, err
	}

	if !a.fetching.TryAcquire(1) {
		return nil, ErrBusy
	}
	defer a.fetching.Release(1)

	a.mu.Lock()
	gen := a.generation
	a.mu.Unlock()

	records, err := a.remote.AuditLogs(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()

	if gen != a.generation {
		return nil, ErrSuperseded
	}
	if err != nil {
		if f, ok := failures.As(err); ok {
			a.failure = f
		}
		return nil, err
	}

	entries := make([]AuditEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, AuditEntry{
			Timestamp: r.Timestamp.Time,
			Username:  r.Username,
			Role:      r.Role,
			Action:    r.Action,
			Details:   r.Details,
		})
	}
	a.entries = entries
	a.failure = nil

	a.logger.Debug("audit log fetched", "entries", len(entries))
	return slices.Clone(entries), nil
}

func (a *AuditLog) Entries() []AuditEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.entries)
}

func (a *AuditLog) LastFailure() *failures.Failure {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.failure
}

func (a *AuditLog) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.generation++
	a.entries = nil
	a.failure = nil
}
