// Package session owns the authenticated identity used by every remote call.
package session

import (
	"fmt"
	"strings"
)

// Role is the workspace role granted to the authenticated user.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleResearcher Role = "researcher"
)

// ParseRole normalizes s into a Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleResearcher:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// Session is an authenticated identity. It is created once per login and
// never modified; a new login produces a new Session.
type Session struct {
	Token       string `json:"token" validate:"required"`
	WorkspaceID string `json:"workspace_id" validate:"required"`
	Username    string `json:"username" validate:"required"`
	Role        Role   `json:"role" validate:"required,oneof=admin researcher"`
}

// IsAdmin reports whether the session carries the admin role.
func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// RequireAdmin returns ErrAdminRequired unless the session is an admin.
func (s Session) RequireAdmin() error {
	if !s.IsAdmin() {
		return ErrAdminRequired
	}
	return nil
}

// Headers returns the identity headers attached to every outbound request.
func (s Session) Headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + s.Token,
		"workspace-id":  s.WorkspaceID,
		"username":      s.Username,
		"role":          string(s.Role),
	}
}
