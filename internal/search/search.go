// Package search asks grounded questions of the workspace repository and
// fetches the aggregate dashboard summary.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/semaphore"

	"github.com/JaimeStill/alphadoc/internal/failures"
	"github.com/JaimeStill/alphadoc/internal/session"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Remote performs the query and dashboard calls.
type Remote interface {
	Search(ctx context.Context, query string) (string, error)
	Dashboard(ctx context.Context) (string, error)
}

type Identity interface {
	Require() (session.Session, error)
}

// Query is a grounded question.
type Query struct {
	Text string `validate:"required,max=4000"`
}

func (q Query) Validate() error {
	err := validate.Struct(q)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Tag() == "max" {
		return fmt.Errorf("%w: limit %s characters", ErrQueryTooLong, verrs[0].Param())
	}
	return ErrEmptyQuery
}

// Answer pairs a query with the answer last shown for it.
type Answer struct {
	Query string
	Text  string
}

// System defines grounded queries and the workspace dashboard. It holds
// nothing apart from the last answer and dashboard summary shown. Each
// operation allows one call in flight.
type System interface {
	Ask(ctx context.Context, text string) (Answer, error)
	RefreshDashboard(ctx context.Context) (string, error)
	LastAnswer() (Answer, bool)
	Dashboard() string
	LastFailure() *failures.Failure
	Reset()
}

type console struct {
	mu         sync.Mutex
	answer     *Answer
	dashboard  string
	failure    *failures.Failure
	generation uint64

	querying   *semaphore.Weighted
	refreshing *semaphore.Weighted

	remote   Remote
	identity Identity
	logger   *slog.Logger
}

func New(remote Remote, identity Identity, logger *slog.Logger) System {
	return &console{
		querying:   semaphore.NewWeighted(1),
		refreshing: semaphore.NewWeighted(1),
		remote:     remote,
		identity:   identity,
		logger:     logger.With("system", "search"),
	}
}

// Ask submits text as a grounded query. Blank text is rejected locally.
func (c *console) Ask(ctx context.Context, text string) (Answer, error) {
	if _, err := c.identity.Require(); err != nil {
		return Answer{}, err
	}

	q := Query{Text: strings.TrimSpace(text)}
	if err := q.Validate(); err != nil {
		return Answer{}, err
	}

	if !c.querying.TryAcquire(1) {
		return Answer{}, ErrBusy
	}
	defer c.querying.Release(1)

	gen := c.gen()
	c.logger.Info("query submitted", "length", len(q.Text))

	reply, err := c.remote.Search(ctx, q.Text)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return Answer{}, ErrSuperseded
	}
	if err != nil {
		c.record(err)
		return Answer{}, err
	}

	c.answer = &Answer{Query: q.Text, Text: reply}
	c.failure = nil
	return *c.answer, nil
}

// RefreshDashboard fetches the aggregate summary of the latest document.
// On failure the previously shown summary is kept.
func (c *console) RefreshDashboard(ctx context.Context) (string, error) {
	if _, err := c.identity.Require(); err != nil {
		return "", err
	}

	if !c.refreshing.TryAcquire(1) {
		return "", ErrBusy
	}
	defer c.refreshing.Release(1)

	gen := c.gen()
	summary, err := c.remote.Dashboard(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return "", ErrSuperseded
	}
	if err != nil {
		c.record(err)
		return "", err
	}

	c.dashboard = summary
	c.failure = nil
	return summary, nil
}

// LastAnswer returns the most recent successful answer.
func (c *console) LastAnswer() (Answer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.answer == nil {
		return Answer{}, false
	}
	return *c.answer, true
}

func (c *console) Dashboard() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dashboard
}

func (c *console) LastFailure() *failures.Failure {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failure
}

// Reset clears everything shown and discards in-flight results.
func (c *console) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.answer = nil
	c.dashboard = ""
	c.failure = nil
}

func (c *console) gen() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// caller holds c.mu
func (c *console) record(err error) {
	if f, ok := failures.As(err); ok {
		c.failure = f
		c.logger.Warn("request failed", "op", f.Op, "kind", f.Kind, "status", f.Status)
	}
}
