// Package history keeps the workspace's list of current document versions
// and loads or deactivates individual versions.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/JaimeStill/alphadoc/internal/client"
	"github.com/JaimeStill/alphadoc/internal/failures"
	"github.com/JaimeStill/alphadoc/internal/intelligence"
	"github.com/JaimeStill/alphadoc/internal/session"
	"github.com/JaimeStill/alphadoc/pkg/formatting"
)

// Remote performs the history calls.
type Remote interface {
	History(ctx context.Context) ([]client.HistoryRecord, error)
	HistoryDetail(ctx context.Context, id string) (*intelligence.HistoryDetail, error)
	DeactivateVersion(ctx context.Context, id string) error
}

// DraftSink receives drafts loaded from history and is told when the
// version behind a loaded draft is deactivated.
type DraftSink interface {
	Load(d *intelligence.Draft) error
	DiscardIfFrom(id string) bool
}

type Identity interface {
	Require() (session.Session, error)
}

// Entry is one version in the history list.
type Entry struct {
	ID         string
	Filename   string
	UploadDate time.Time
	// RawUploadDate is the remote value, kept for display when it does not
	// parse.
	RawUploadDate string
	Current       bool
}

func newEntry(r client.HistoryRecord) Entry {
	e := Entry{
		ID:            r.ID,
		Filename:      r.Filename,
		RawUploadDate: r.UploadDate,
		Current:       r.IsCurrent == nil || *r.IsCurrent,
	}
	if t, err := formatting.ParseTimestamp(r.UploadDate); err == nil {
		e.UploadDate = t
	}
	return e
}

// System defines the history list and its operations. A refresh replaces
// the list in full; a failed refresh leaves it unchanged.
type System interface {
	Bind(sink DraftSink)
	Entries() []Entry
	Loaded() bool
	LastFailure() *failures.Failure

	Refresh(ctx context.Context) error
	RefreshInBackground()
	Wait()

	LoadAsDraft(ctx context.Context, id string) (*intelligence.Draft, error)
	Deactivate(ctx context.Context, id string) error
	Reset()
}

type repo struct {
	mu           sync.Mutex
	entries      []Entry
	loaded       bool
	failure      *failures.Failure
	refreshing   bool
	pending      bool
	loading      bool
	deactivating map[string]bool
	generation   uint64
	wg           sync.WaitGroup

	remote   Remote
	identity Identity
	sink     DraftSink
	logger   *slog.Logger
}

func New(remote Remote, identity Identity, logger *slog.Logger) System {
	return &repo{
		deactivating: make(map[string]bool),
		remote:       remote,
		identity:     identity,
		logger:       logger.With("system", "history"),
	}
}

// Bind sets the sink for loaded drafts. It must be called before
// LoadAsDraft.
func (r *repo) Bind(sink DraftSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sink = sink
}

// Entries returns a copy of the current list.
func (r *repo) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.entries)
}

// Loaded reports whether a refresh has succeeded since the last reset.
func (r *repo) Loaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded
}

func (r *repo) LastFailure() *failures.Failure {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failure
}

// Refresh fetches the list and replaces the held entries.
func (r *repo) Refresh(ctx context.Context) error {
	if _, err := r.identity.Require(); err != nil {
		return err
	}

	r.mu.Lock()
	if r.refreshing {
		r.mu.Unlock()
		return ErrBusy
	}
	r.refreshing = true
	gen := r.generation
	r.wg.Add(1)
	r.mu.Unlock()
	defer r.wg.Done()

	return r.refresh(ctx, gen)
}

// RefreshInBackground starts a refresh without blocking. Requests made
// while one is running are coalesced into a single follow-up refresh.
func (r *repo) RefreshInBackground() {
	if _, err := r.identity.Require(); err != nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.refreshing {
		r.pending = true
		return
	}
	r.refreshing = true
	r.spawn(r.generation)
}

// Wait blocks until in-flight refreshes, including follow-ups they
// spawn, have finished.
func (r *repo) Wait() {
	r.wg.Wait()
}

// caller holds r.mu
func (r *repo) spawn(gen uint64) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.refresh(context.Background(), gen); err != nil && !errors.Is(err, ErrSuperseded) {
			r.logger.Warn("background refresh failed", "error", err)
		}
	}()
}

func (r *repo) refresh(ctx context.Context, gen uint64) error {
	records, err := r.remote.History(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.generation {
		return ErrSuperseded
	}
	r.refreshing = false
	defer r.followUp(gen)

	if err != nil {
		if f, ok := failures.As(err); ok {
			r.failure = f
		}
		return err
	}

	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, newEntry(rec))
	}
	r.entries = entries
	r.loaded = true
	r.failure = nil

	r.logger.Debug("history refreshed", "entries", len(entries))
	return nil
}

// caller holds r.mu
func (r *repo) followUp(gen uint64) {
	if !r.pending || gen != r.generation {
		return
	}
	r.pending = false
	r.refreshing = true
	r.spawn(gen)
}

// LoadAsDraft fetches version id and hands it to the bound sink as a
// read-only draft.
func (r *repo) LoadAsDraft(ctx context.Context, id string) (*intelligence.Draft, error) {
	if _, err := r.identity.Require(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		return nil, ErrNoSelection
	}

	r.mu.Lock()
	if r.loading {
		r.mu.Unlock()
		return nil, ErrBusy
	}
	r.loading = true
	gen := r.generation
	r.mu.Unlock()

	detail, err := r.remote.HistoryDetail(ctx, id)

	r.mu.Lock()
	if gen != r.generation {
		r.mu.Unlock()
		return nil, ErrSuperseded
	}
	r.loading = false
	sink := r.sink
	if err != nil {
		if f, ok := failures.As(err); ok {
			r.failure = f
		}
		r.mu.Unlock()
		return nil, err
	}
	r.mu.Unlock()

	d := detail.Draft(id)
	if sink == nil {
		return nil, ErrNoSink
	}
	if err := sink.Load(d); err != nil {
		return nil, fmt.Errorf("load version %s: %w", id, err)
	}

	r.logger.Info("version loaded", "doc_id", id, "filename", d.Filename)
	return d, nil
}

// Deactivate soft-deletes version id. It requires the admin role and is
// rejected locally otherwise. On success the entry is removed, a draft
// loaded from it is discarded, and the list is refreshed.
func (r *repo) Deactivate(ctx context.Context, id string) error {
	s, err := r.identity.Require()
	if err != nil {
		return err
	}
	if err := s.RequireAdmin(); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return ErrNoSelection
	}

	r.mu.Lock()
	if r.deactivating[id] {
		r.mu.Unlock()
		return ErrBusy
	}
	r.deactivating[id] = true
	gen := r.generation
	r.mu.Unlock()

	err = r.remote.DeactivateVersion(ctx, id)

	r.mu.Lock()
	if gen != r.generation {
		r.mu.Unlock()
		return ErrSuperseded
	}
	delete(r.deactivating, id)
	if err != nil {
		if f, ok := failures.As(err); ok {
			r.failure = f
		}
		r.mu.Unlock()
		return err
	}
	r.entries = slices.DeleteFunc(r.entries, func(e Entry) bool { return e.ID == id })
	sink := r.sink
	r.mu.Unlock()

	r.logger.Info("version deactivated", "doc_id", id)

	if sink != nil {
		sink.DiscardIfFrom(id)
	}
	r.RefreshInBackground()
	return nil
}

// Reset empties the list and discards results of in-flight calls. It runs
// when the session is cleared.
func (r *repo) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.generation++
	r.entries = nil
	r.loaded = false
	r.failure = nil
	r.refreshing = false
	r.pending = false
	r.loading = false
	clear(r.deactivating)
}
