package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Authenticator exchanges credentials for a session with the remote service.
type Authenticator interface {
	Authenticate(ctx context.Context, creds Credentials) (Session, error)
}

// Context holds the single current Session. It is the only component that
// creates or destroys one; everything else reads it through Current or
// Require.
type Context struct {
	mu      sync.RWMutex
	current *Session
	store   Store
	hooks   []func()
	logger  *slog.Logger
	now     func() time.Time
}

func New(store Store, logger *slog.Logger) *Context {
	return &Context{
		store:  store,
		logger: logger.With("system", "session"),
		now:    time.Now,
	}
}

// Restore loads the persisted session, if any. A persisted session that is
// malformed or whose token has expired is removed.
func (c *Context) Restore() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.store.Load()
	if err != nil {
		c.logger.Warn("discarding unreadable session", "error", err)
		c.clearStore()
		return Session{}, false
	}
	if s == nil {
		return Session{}, false
	}

	if err := s.Validate(); err != nil {
		c.logger.Warn("discarding invalid session", "error", err)
		c.clearStore()
		return Session{}, false
	}

	if expired(s.Token, c.now()) {
		c.logger.Info("persisted session expired", "username", s.Username)
		c.clearStore()
		return Session{}, false
	}

	c.current = s
	c.logger.Debug("session restored", "username", s.Username, "workspace_id", s.WorkspaceID)
	return *s, true
}

// Login validates creds locally, authenticates them remotely, and
// establishes the resulting session.
func (c *Context) Login(ctx context.Context, auth Authenticator, creds Credentials) (Session, error) {
	if err := creds.Validate(); err != nil {
		return Session{}, err
	}

	s, err := auth.Authenticate(ctx, creds)
	if err != nil {
		return Session{}, err
	}

	if err := c.Establish(s); err != nil {
		return Session{}, err
	}
	return s, nil
}

// Establish replaces the current session with s and persists it. Any prior
// session's dependents are invalidated through the clear hooks.
func (c *Context) Establish(s Session) error {
	if err := s.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	replaced := c.current != nil && c.current.Token != s.Token
	if err := c.store.Save(s); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("save session: %w", err)
	}
	c.current = &s
	c.mu.Unlock()

	if replaced {
		c.runHooks()
	}

	c.logger.Info("session established", "username", s.Username, "role", s.Role, "workspace_id", s.WorkspaceID)
	return nil
}

// Current returns the session if one is established.
func (c *Context) Current() (Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return Session{}, false
	}
	return *c.current, true
}

// Require returns the current session or ErrNoSession.
func (c *Context) Require() (Session, error) {
	s, ok := c.Current()
	if !ok {
		return Session{}, ErrNoSession
	}
	return s, nil
}

// Clear wipes the in-memory and persisted session and notifies dependents.
func (c *Context) Clear() error {
	c.mu.Lock()
	had := c.current != nil
	c.current = nil
	err := c.clearStore()
	c.mu.Unlock()

	if had {
		c.logger.Info("session cleared")
	}
	c.runHooks()
	return err
}

// Expire clears the session only if it is still the one identified by
// token. A late authentication failure from a request issued under an
// earlier session leaves a newer session untouched.
func (c *Context) Expire(token string) bool {
	c.mu.Lock()
	if c.current == nil || c.current.Token != token {
		c.mu.Unlock()
		return false
	}
	c.current = nil
	if err := c.clearStore(); err != nil {
		c.logger.Error("failed to remove persisted session", "error", err)
	}
	c.mu.Unlock()

	c.logger.Warn("session expired by remote")
	c.runHooks()
	return true
}

// OnClear registers fn to run whenever the session is cleared or replaced.
func (c *Context) OnClear(fn func()) {
	c.mu.Lock()
	c.hooks = append(c.hooks, fn)
	c.mu.Unlock()
}

func (c *Context) runHooks() {
	c.mu.RLock()
	hooks := make([]func(), len(c.hooks))
	copy(hooks, c.hooks)
	c.mu.RUnlock()

	for _, fn := range hooks {
		fn()
	}
}

// caller holds c.mu
func (c *Context) clearStore() error {
	if err := c.store.Clear(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// expired reads the exp claim without verifying the signature. Tokens that
// are not JWTs or carry no exp are left to the remote service to judge.
func expired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}

// IsNoSession reports whether err stems from a missing session.
func IsNoSession(err error) bool {
	return errors.Is(err, ErrNoSession)
}
