package storage

import "errors"

var (
	// ErrNotConfigured indicates neither a connection string nor a service URL was provided.
	ErrNotConfigured = errors.New("blob storage not configured")
	// ErrEmptyKey indicates an empty storage key was provided.
	ErrEmptyKey = errors.New("storage key must not be empty")
	// ErrInvalidKey indicates the storage key contains a path traversal segment.
	ErrInvalidKey = errors.New("storage key contains invalid path segment")
)
