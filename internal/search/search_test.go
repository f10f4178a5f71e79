package search_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/alphadoc/internal/failures"
	"github.com/JaimeStill/alphadoc/internal/search"
	"github.com/JaimeStill/alphadoc/internal/session"
)

type mockRemote struct {
	searchFn    func(ctx context.Context, q string) (string, error)
	dashboardFn func(ctx context.Context) (string, error)
	calls       atomic.Int32
}

func (m *mockRemote) Search(ctx context.Context, q string) (string, error) {
	m.calls.Add(1)
	return m.searchFn(ctx, q)
}

func (m *mockRemote) Dashboard(ctx context.Context) (string, error) {
	m.calls.Add(1)
	return m.dashboardFn(ctx)
}

type identity struct{ err error }

func (i identity) Require() (session.Session, error) {
	return session.Session{Token: "t", WorkspaceID: "ws", Username: "u", Role: session.RoleResearcher}, i.err
}

func newConsole(remote *mockRemote) search.System {
	return search.New(remote, identity{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAsk(t *testing.T) {
	remote := &mockRemote{searchFn: func(ctx context.Context, q string) (string, error) {
		return "Answer to " + q, nil
	}}
	c := newConsole(remote)

	a, err := c.Ask(context.Background(), "  what are the deadlines?  ")
	require.NoError(t, err)
	assert.Equal(t, "what are the deadlines?", a.Query)
	assert.Equal(t, "Answer to what are the deadlines?", a.Text)

	last, ok := c.LastAnswer()
	require.True(t, ok)
	assert.Equal(t, a, last)
}

func TestAskRejectsLocally(t *testing.T) {
	remote := &mockRemote{}
	c := newConsole(remote)

	tests := []struct {
		name string
		text string
		want error
	}{
		{"empty", "", search.ErrEmptyQuery},
		{"whitespace", " \t\n", search.ErrEmptyQuery},
		{"too long", strings.Repeat("a", 4001), search.ErrQueryTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Ask(context.Background(), tt.text)
			assert.ErrorIs(t, err, tt.want)

			_, classified := failures.As(err)
			assert.False(t, classified)
		})
	}
	assert.Zero(t, remote.calls.Load())
}

func TestAskWithoutSession(t *testing.T) {
	remote := &mockRemote{}
	c := search.New(remote, identity{err: session.ErrNoSession}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := c.Ask(context.Background(), "q")
	assert.ErrorIs(t, err, session.ErrNoSession)
	assert.Zero(t, remote.calls.Load())
}

func TestAskFailureKeepsLastAnswer(t *testing.T) {
	fail := false
	remote := &mockRemote{searchFn: func(ctx context.Context, q string) (string, error) {
		if fail {
			return "", failures.Classify(failures.OpSearch, http.StatusPreconditionRequired, []byte(`{"detail":"AI_CONFIG_MISSING"}`))
		}
		return "first", nil
	}}
	c := newConsole(remote)

	_, err := c.Ask(context.Background(), "q1")
	require.NoError(t, err)

	fail = true
	_, err = c.Ask(context.Background(), "q2")
	assert.True(t, failures.IsKind(err, failures.EngineNotConfigured))

	last, ok := c.LastAnswer()
	require.True(t, ok)
	assert.Equal(t, "first", last.Text)
	assert.Equal(t, failures.EngineNotConfigured, c.LastFailure().Kind)
}

func TestAskBusy(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	remote := &mockRemote{searchFn: func(ctx context.Context, q string) (string, error) {
		close(started)
		<-release
		return "a", nil
	}}
	c := newConsole(remote)

	done := make(chan error, 1)
	go func() {
		_, err := c.Ask(context.Background(), "q")
		done <- err
	}()
	<-started

	_, err := c.Ask(context.Background(), "again")
	assert.ErrorIs(t, err, search.ErrBusy)

	close(release)
	require.NoError(t, <-done)
}

func TestDashboardWithoutStorage(t *testing.T) {
	remote := &mockRemote{dashboardFn: func(ctx context.Context) (string, error) {
		return "", failures.Classify(failures.OpDashboard, http.StatusPreconditionRequired, []byte(`{"detail":"STORAGE_CONFIG_MISSING"}`))
	}}
	c := newConsole(remote)

	_, err := c.RefreshDashboard(context.Background())
	assert.True(t, failures.IsKind(err, failures.StorageNotConfigured))
	assert.Empty(t, c.Dashboard())
}

func TestDashboard(t *testing.T) {
	remote := &mockRemote{dashboardFn: func(ctx context.Context) (string, error) {
		return "### Summary", nil
	}}
	c := newConsole(remote)

	got, err := c.RefreshDashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "### Summary", got)
	assert.Equal(t, "### Summary", c.Dashboard())

	c.Reset()
	assert.Empty(t, c.Dashboard())
}

func TestResetDiscardsInFlightAnswer(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	remote := &mockRemote{searchFn: func(ctx context.Context, q string) (string, error) {
		close(started)
		<-release
		return "late", nil
	}}
	c := newConsole(remote)

	done := make(chan error, 1)
	go func() {
		_, err := c.Ask(context.Background(), "q")
		done <- err
	}()
	<-started

	c.Reset()
	close(release)

	assert.ErrorIs(t, <-done, search.ErrSuperseded)
	_, ok := c.LastAnswer()
	assert.False(t, ok)
}
