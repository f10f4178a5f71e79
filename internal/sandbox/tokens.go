package sandbox

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/JaimeStill/alphadoc/internal/session"
)

// Principal is the identity carried by a verified token.
type Principal struct {
	Username    string
	Role        session.Role
	WorkspaceID string
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == session.RoleAdmin
}

type claims struct {
	Username    string `json:"username"`
	Role        string `json:"role"`
	WorkspaceID string `json:"workspace_id"`
	jwt.RegisteredClaims
}

// tokens issues and verifies HS256 access tokens.
type tokens struct {
	mu     sync.RWMutex
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func newTokens(secret string, ttl time.Duration) *tokens {
	return &tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *tokens) issue(p Principal) (string, error) {
	now := t.now()
	c := claims{
		Username:    p.Username,
		Role:        string(p.Role),
		WorkspaceID: p.WorkspaceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (t *tokens) verify(raw string) (Principal, error) {
	if raw == "" {
		return Principal{}, ErrTokenRequired
	}

	t.mu.RLock()
	secret := t.secret
	t.mu.RUnlock()

	var c claims
	_, err := jwt.ParseWithClaims(
		raw,
		&c,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return Principal{}, ErrTokenExpired
	case err != nil:
		return Principal{}, ErrTokenInvalid
	}

	role, err := session.ParseRole(c.Role)
	if err != nil || c.Username == "" || c.WorkspaceID == "" {
		return Principal{}, ErrTokenInvalid
	}

	return Principal{Username: c.Username, Role: role, WorkspaceID: c.WorkspaceID}, nil
}

// rotate replaces the signing secret, invalidating every issued token.
func (t *tokens) rotate() error {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return fmt.Errorf("generate secret: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.secret = secret
	return nil
}
