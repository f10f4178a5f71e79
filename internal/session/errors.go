package session

import "errors"

var (
	ErrNoSession          = errors.New("not logged in")
	ErrAdminRequired      = errors.New("admin role required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid session")
	ErrUnknownRole        = errors.New("unknown role")
)
