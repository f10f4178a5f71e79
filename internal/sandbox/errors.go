package sandbox

import (
	"errors"
	"net/http"
)

// Configuration markers sent as the detail of a 428 response.
const (
	MarkerEngineMissing  = "AI_CONFIG_MISSING"
	MarkerStorageMissing = "STORAGE_CONFIG_MISSING"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrWorkspaceExists    = errors.New("workspace already exists")
	ErrUnknownWorkspace   = errors.New("invalid workspace id, get the correct id from your admin")
	ErrInvalidRequest     = errors.New("invalid request")

	ErrTokenRequired = errors.New("authentication token required")
	ErrTokenExpired  = errors.New("token has expired")
	ErrTokenInvalid  = errors.New("invalid token signature")

	ErrAdminRequired    = errors.New("admin role required")
	ErrReplaceForbidden = errors.New("only admins can authorize a document version replacement")

	ErrEngineMissing  = errors.New(MarkerEngineMissing)
	ErrStorageMissing = errors.New(MarkerStorageMissing)

	ErrUnsupportedFile = errors.New("only PDF files are supported")
	ErrFileTooLarge    = errors.New("file exceeds maximum upload size")
	ErrDuplicate       = errors.New("a document with this name already exists")
	ErrNotFound        = errors.New("document not found")
	ErrNoDocuments     = errors.New("no documents found")
	ErrInvalidStorage  = errors.New("storage connection failed")
)

// MapHTTPStatus maps sandbox errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrTokenRequired),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrTokenInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAdminRequired), errors.Is(err, ErrReplaceForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrEngineMissing), errors.Is(err, ErrStorageMissing):
		return http.StatusPreconditionRequired
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoDocuments):
		return http.StatusNotFound
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrUsernameTaken),
		errors.Is(err, ErrWorkspaceExists),
		errors.Is(err, ErrUnknownWorkspace),
		errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrUnsupportedFile),
		errors.Is(err, ErrInvalidStorage):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
