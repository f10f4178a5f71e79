package session_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/alphadoc/internal/session"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func token(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"exp": exp.Unix(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func validSession(tok string) session.Session {
	return session.Session{
		Token:       tok,
		WorkspaceID: "ws-1",
		Username:    "alice",
		Role:        session.RoleAdmin,
	}
}

type fakeAuth struct {
	calls int
	s     session.Session
	err   error
}

func (f *fakeAuth) Authenticate(ctx context.Context, creds session.Credentials) (session.Session, error) {
	f.calls++
	return f.s, f.err
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    session.Role
		wantErr bool
	}{
		{"admin", session.RoleAdmin, false},
		{" Researcher ", session.RoleResearcher, false},
		{"owner", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := session.ParseRole(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, session.ErrUnknownRole)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSessionHeaders(t *testing.T) {
	s := validSession("tok")
	h := s.Headers()

	assert.Equal(t, "Bearer tok", h["Authorization"])
	assert.Equal(t, "ws-1", h["workspace-id"])
	assert.Equal(t, "alice", h["username"])
	assert.Equal(t, "admin", h["role"])
}

func TestRequireAdmin(t *testing.T) {
	s := validSession("tok")
	assert.NoError(t, s.RequireAdmin())

	s.Role = session.RoleResearcher
	assert.ErrorIs(t, s.RequireAdmin(), session.ErrAdminRequired)
}

func TestRequireWithoutSession(t *testing.T) {
	c := session.New(&session.MemoryStore{}, discardLogger())

	_, err := c.Require()
	assert.ErrorIs(t, err, session.ErrNoSession)
	assert.True(t, session.IsNoSession(err))
}

func TestLogin(t *testing.T) {
	t.Run("establishes session", func(t *testing.T) {
		store := &session.MemoryStore{}
		c := session.New(store, discardLogger())
		auth := &fakeAuth{s: validSession("tok")}

		s, err := c.Login(context.Background(), auth, session.Credentials{Username: "alice", Password: "pw"})
		require.NoError(t, err)
		assert.Equal(t, "alice", s.Username)

		current, ok := c.Current()
		require.True(t, ok)
		assert.Equal(t, s, current)

		persisted, err := store.Load()
		require.NoError(t, err)
		assert.Equal(t, s, *persisted)
	})

	t.Run("missing password rejected locally", func(t *testing.T) {
		c := session.New(&session.MemoryStore{}, discardLogger())
		auth := &fakeAuth{s: validSession("tok")}

		_, err := c.Login(context.Background(), auth, session.Credentials{Username: "alice"})
		assert.ErrorIs(t, err, session.ErrInvalidCredentials)
		assert.Zero(t, auth.calls)
	})

	t.Run("remote failure leaves no session", func(t *testing.T) {
		c := session.New(&session.MemoryStore{}, discardLogger())
		remote := errors.New("rejected")
		auth := &fakeAuth{err: remote}

		_, err := c.Login(context.Background(), auth, session.Credentials{Username: "alice", Password: "pw"})
		assert.ErrorIs(t, err, remote)

		_, ok := c.Current()
		assert.False(t, ok)
	})

	t.Run("incomplete remote identity rejected", func(t *testing.T) {
		c := session.New(&session.MemoryStore{}, discardLogger())
		s := validSession("tok")
		s.WorkspaceID = ""
		auth := &fakeAuth{s: s}

		_, err := c.Login(context.Background(), auth, session.Credentials{Username: "alice", Password: "pw"})
		assert.ErrorIs(t, err, session.ErrInvalidSession)
	})
}

func TestRestore(t *testing.T) {
	tests := []struct {
		name   string
		stored *session.Session
		ok     bool
	}{
		{"nothing stored", nil, false},
		{"valid token", ptr(validSession("")), true},
		{"expired token", ptr(validSession("")), false},
		{"opaque token", ptr(validSession("opaque-token")), true},
		{"unknown role", &session.Session{Token: "t", WorkspaceID: "w", Username: "u", Role: "owner"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.stored != nil && tt.stored.Token == "" {
				exp := time.Now().Add(time.Hour)
				if tt.name == "expired token" {
					exp = time.Now().Add(-time.Hour)
				}
				tt.stored.Token = token(t, exp)
			}

			store := &session.MemoryStore{}
			if tt.stored != nil {
				require.NoError(t, store.Save(*tt.stored))
			}

			c := session.New(store, discardLogger())
			_, ok := c.Restore()
			assert.Equal(t, tt.ok, ok)

			persisted, err := store.Load()
			require.NoError(t, err)
			if tt.ok {
				assert.NotNil(t, persisted)
			} else {
				assert.Nil(t, persisted)
			}
		})
	}
}

func TestClearRunsHooks(t *testing.T) {
	store := &session.MemoryStore{}
	c := session.New(store, discardLogger())
	require.NoError(t, c.Establish(validSession("tok")))

	var calls int
	c.OnClear(func() { calls++ })

	require.NoError(t, c.Clear())

	assert.Equal(t, 1, calls)
	_, ok := c.Current()
	assert.False(t, ok)
	persisted, _ := store.Load()
	assert.Nil(t, persisted)
}

func TestEstablishReplacingSessionRunsHooks(t *testing.T) {
	c := session.New(&session.MemoryStore{}, discardLogger())
	var calls int
	c.OnClear(func() { calls++ })

	require.NoError(t, c.Establish(validSession("first")))
	assert.Zero(t, calls)

	require.NoError(t, c.Establish(validSession("second")))
	assert.Equal(t, 1, calls)
}

func TestExpireIgnoresStaleToken(t *testing.T) {
	c := session.New(&session.MemoryStore{}, discardLogger())
	var calls int
	c.OnClear(func() { calls++ })

	require.NoError(t, c.Establish(validSession("current")))

	assert.False(t, c.Expire("previous"))
	_, ok := c.Current()
	assert.True(t, ok)

	assert.True(t, c.Expire("current"))
	_, ok = c.Current()
	assert.False(t, ok)
	assert.Equal(t, 1, calls)
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := session.NewFileStore(path)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)

	s := validSession("tok")
	require.NoError(t, store.Save(s))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, s, *loaded)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())

	loaded, err = store.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))

	_, err := session.NewFileStore(path).Load()
	assert.ErrorIs(t, err, session.ErrInvalidSession)

	c := session.New(session.NewFileStore(path), discardLogger())
	_, ok := c.Restore()
	assert.False(t, ok)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestSignupValidation(t *testing.T) {
	assert.NoError(t, session.AdminSignup{
		Username: "root", Password: "secret1", WorkspaceName: "Acme", EngineKey: "k",
	}.Validate())

	err := session.AdminSignup{Username: "root", Password: "123", WorkspaceName: "Acme", EngineKey: "k"}.Validate()
	assert.ErrorIs(t, err, session.ErrInvalidCredentials)
	assert.Contains(t, err.Error(), "Password must be at least 6 characters")

	err = session.ResearcherSignup{Username: "bob", Password: "secret1"}.Validate()
	assert.ErrorIs(t, err, session.ErrInvalidCredentials)
	assert.Contains(t, err.Error(), "WorkspaceID is required")
}

func ptr[T any](v T) *T { return &v }
