// Package workflow drives a document from upload through analysis to a
// committed version, including filename-collision resolution.
//
// State transitions:
//
//	Idle → Analyzing → Analyzed → Committing → Idle
//	                              Committing → ConflictPending → Committing → Idle
//	Analyzed | ConflictPending → Idle (discard)
//
// A failed remote call returns the controller to the stable state the call
// was issued from.
package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/alphadoc/internal/failures"
	"github.com/JaimeStill/alphadoc/internal/intelligence"
	"github.com/JaimeStill/alphadoc/internal/session"
)

// Remote performs the analysis and commit calls.
type Remote interface {
	Analyze(ctx context.Context, upload *intelligence.Upload) (*intelligence.AnalysisResult, error)
	Store(ctx context.Context, req intelligence.StoreRequest) (*intelligence.StoreResult, error)
}

// HistorySync is notified after every successful commit.
type HistorySync interface {
	RefreshInBackground()
}

// Identity supplies the current session.
type Identity interface {
	Require() (session.Session, error)
}

// CommitOptions resolve a filename collision. ConfirmUpdate replaces the
// current version and requires the admin role; ForceNew stores an
// independent copy.
type CommitOptions struct {
	ConfirmUpdate bool
	ForceNew      bool
}

// CommitResult describes a successful commit.
type CommitResult struct {
	DocID    string
	Filename string
	Message  string
	Replaced bool
}

// Conflict records a filename collision awaiting resolution.
type Conflict struct {
	Filename string
	Message  string
}

// Controller is the analysis workflow state machine. All methods are safe
// for concurrent use; remote calls are made without holding the lock.
type Controller struct {
	mu       sync.Mutex
	state    State
	draft    *intelligence.Draft
	conflict *Conflict
	failure  *failures.Failure
	attempt  uuid.UUID

	remote   Remote
	history  HistorySync
	identity Identity
	logger   *slog.Logger
	now      func() time.Time
}

// New creates an idle controller. history may be nil.
func New(remote Remote, history HistorySync, identity Identity, logger *slog.Logger) *Controller {
	return &Controller{
		remote:   remote,
		history:  history,
		identity: identity,
		logger:   logger.With("system", "workflow"),
		now:      time.Now,
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Draft returns the live draft, if any. The draft must not be modified.
func (c *Controller) Draft() (*intelligence.Draft, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft, c.draft != nil
}

// Conflict returns the pending collision while in ConflictPending.
func (c *Controller) Conflict() (Conflict, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != ConflictPending || c.conflict == nil {
		return Conflict{}, false
	}
	return *c.conflict, true
}

// LastFailure returns the classification of the most recent failed remote
// call. It is cleared when the next call starts.
func (c *Controller) LastFailure() *failures.Failure {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failure
}

// Submit sends upload for analysis. It is allowed only from Idle; on
// success the controller holds a fresh committable draft.
func (c *Controller) Submit(ctx context.Context, upload *intelligence.Upload) (*intelligence.Draft, error) {
	if _, err := c.identity.Require(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	switch c.state {
	case Idle:
	case Analyzing, Committing:
		c.mu.Unlock()
		return nil, ErrBusy
	default:
		s := c.state
		c.mu.Unlock()
		return nil, invalidState("submit", s)
	}
	if upload == nil {
		c.mu.Unlock()
		return nil, intelligence.ErrNoFile
	}

	token := c.begin(Analyzing)
	c.mu.Unlock()

	logger := c.logger.With("filename", upload.Filename, "attempt", token)
	logger.Info("analysis started", "size", upload.Size(), "pages", upload.Pages)

	res, err := c.remote.Analyze(ctx, upload)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.attempt != token {
		logger.Info("analysis result discarded")
		if err != nil {
			return nil, err
		}
		return nil, ErrSuperseded
	}

	if err != nil {
		c.state = Idle
		c.recordFailure(err)
		logger.Warn("analysis failed", "error", err)
		return nil, err
	}

	c.draft = res.Draft()
	c.state = Analyzed
	logger.Info(
		"analysis complete",
		"entities", len(c.draft.Entities),
		"insights", len(c.draft.Insights),
		"chunks", len(c.draft.RawChunks),
	)
	return c.draft, nil
}

// Commit stores the live draft. From Analyzed, a collision with no
// resolution flags moves to ConflictPending; from ConflictPending exactly
// one flag is required. Replacing requires the admin role and is rejected
// locally otherwise. On success the draft is discarded and history is
// refreshed.
func (c *Controller) Commit(ctx context.Context, opts CommitOptions) (*CommitResult, error) {
	s, err := c.identity.Require()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	from := c.state
	switch from {
	case Analyzed, ConflictPending:
	case Analyzing, Committing:
		c.mu.Unlock()
		return nil, ErrBusy
	default:
		c.mu.Unlock()
		return nil, invalidState("commit", from)
	}

	if err := c.checkCommit(s, from, opts); err != nil {
		c.mu.Unlock()
		return nil, err
	}

	req := intelligence.NewStoreRequest(c.draft, opts.ConfirmUpdate, opts.ForceNew)
	token := c.begin(Committing)
	c.mu.Unlock()

	logger := c.logger.With(
		"filename", req.Filename,
		"attempt", token,
		"confirm_update", opts.ConfirmUpdate,
		"force_new", opts.ForceNew,
	)
	logger.Info("commit started")

	res, err := c.remote.Store(ctx, req)

	c.mu.Lock()
	if c.attempt != token {
		c.mu.Unlock()
		if err != nil {
			return nil, err
		}
		logger.Info("commit completed after workflow moved on", "doc_id", res.DocID)
		c.syncHistory()
		return nil, ErrSuperseded
	}

	if err != nil {
		c.recordFailure(err)
		if f, ok := failures.As(err); ok && f.Kind == failures.Conflict && from == Analyzed && !opts.ConfirmUpdate && !opts.ForceNew {
			filename := f.Filename
			if filename == "" {
				filename = req.Filename
			}
			c.conflict = &Conflict{Filename: filename, Message: f.Message}
			c.state = ConflictPending
			c.mu.Unlock()
			logger.Info("commit collision", "existing", filename)
			return nil, err
		}

		c.state = from
		c.mu.Unlock()
		logger.Warn("commit failed", "error", err)
		return nil, err
	}

	c.clear()
	c.mu.Unlock()

	logger.Info("commit complete", "doc_id", res.DocID)
	c.syncHistory()

	return &CommitResult{
		DocID:    res.DocID,
		Filename: req.Filename,
		Message:  res.Message,
		Replaced: opts.ConfirmUpdate,
	}, nil
}

// caller holds c.mu
func (c *Controller) checkCommit(s session.Session, from State, opts CommitOptions) error {
	if !c.draft.Committable() {
		return ErrHistoryDraft
	}
	if opts.ConfirmUpdate && opts.ForceNew {
		return ErrConflictingOptions
	}
	if opts.ConfirmUpdate {
		if err := s.RequireAdmin(); err != nil {
			return err
		}
	}
	if from == ConflictPending && !opts.ConfirmUpdate && !opts.ForceNew {
		return ErrResolutionRequired
	}
	return nil
}

// Discard drops the live draft and returns to Idle with no remote effect.
// While a call is in flight it abandons the call; its late result is
// discarded.
func (c *Controller) Discard() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Analyzed, ConflictPending:
	case Analyzing, Committing:
		c.logger.Info("abandoning in-flight call", "state", c.state)
		c.attempt = uuid.Nil
	default:
		return invalidState("discard", c.state)
	}

	c.clear()
	return nil
}

// Cancel abandons a pending conflict resolution. It is Discard under the
// name the conflict dialog uses.
func (c *Controller) Cancel() error {
	return c.Discard()
}

// Load installs a read-only draft loaded from history. It replaces any
// draft held in Analyzed; it is refused while a call is in flight or a
// conflict is pending.
func (c *Controller) Load(d *intelligence.Draft) error {
	if d == nil {
		return errors.New("load: nil draft")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Idle, Analyzed:
	case Analyzing, Committing:
		return ErrBusy
	default:
		return invalidState("load", c.state)
	}

	c.draft = d
	c.conflict = nil
	c.failure = nil
	c.state = Analyzed
	c.logger.Info("history draft loaded", "doc_id", d.SourceID, "filename", d.Filename)
	return nil
}

// DiscardIfFrom drops the live draft if it was loaded from the history
// version id.
func (c *Controller) DiscardIfFrom(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Analyzed || c.draft == nil || !c.draft.FromHistory || c.draft.SourceID != id {
		return false
	}

	c.clear()
	c.logger.Info("discarded draft of deactivated version", "doc_id", id)
	return true
}

// Export snapshots the live draft. It has no effect on workflow state.
func (c *Controller) Export() (intelligence.Snapshot, error) {
	s, err := c.identity.Require()
	if err != nil {
		return intelligence.Snapshot{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Analyzed {
		return intelligence.Snapshot{}, invalidState("export", c.state)
	}
	return intelligence.NewSnapshot(c.draft, s.WorkspaceID, c.now()), nil
}

// Reset returns to Idle unconditionally, dropping the draft and any
// in-flight result. It runs when the session is cleared.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clear()
	c.failure = nil
	c.attempt = uuid.Nil
}

// caller holds c.mu
func (c *Controller) begin(s State) uuid.UUID {
	c.state = s
	c.failure = nil
	c.attempt = uuid.New()
	return c.attempt
}

// caller holds c.mu
func (c *Controller) clear() {
	c.state = Idle
	c.draft = nil
	c.conflict = nil
}

// caller holds c.mu
func (c *Controller) recordFailure(err error) {
	if f, ok := failures.As(err); ok {
		c.failure = f
	}
}

func (c *Controller) syncHistory() {
	if c.history != nil {
		c.history.RefreshInBackground()
	}
}
