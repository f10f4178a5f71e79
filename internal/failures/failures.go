// Package failures classifies failed remote calls into the fixed set of
// kinds the rest of the client reacts to.
package failures

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind is the semantic classification of a failed remote call.
type Kind int

const (
	Generic Kind = iota
	Unauthenticated
	EngineNotConfigured
	StorageNotConfigured
	Conflict
	Forbidden
)

func (k Kind) String() string {
	switch k {
	case Unauthenticated:
		return "unauthenticated"
	case EngineNotConfigured:
		return "engine_not_configured"
	case StorageNotConfigured:
		return "storage_not_configured"
	case Conflict:
		return "conflict"
	case Forbidden:
		return "forbidden"
	default:
		return "generic"
	}
}

// FallbackMessage is used for Generic failures whose body carries no message.
const FallbackMessage = "request failed"

// Detail markers the remote service places in 428 responses.
const (
	MarkerEngineMissing  = "AI_CONFIG_MISSING"
	MarkerStorageMissing = "STORAGE_CONFIG_MISSING"
)

// Failure is a classified remote failure.
type Failure struct {
	Kind      Kind
	Op        Operation
	Status    int
	Message   string
	Filename  string
	RequestID string
}

func (f *Failure) Error() string {
	if f.Message != "" {
		return fmt.Sprintf("%s: %s (%d): %s", f.Op, f.Kind, f.Status, f.Message)
	}
	return fmt.Sprintf("%s: %s (%d)", f.Op, f.Kind, f.Status)
}

// Classify maps a non-2xx response to a Failure. It is total: every status
// outside the 2xx range produces exactly one Kind.
func Classify(op Operation, status int, body []byte) *Failure {
	b := decodeBody(body)

	f := &Failure{
		Op:      op,
		Status:  status,
		Message: b.message(),
	}

	switch status {
	case http.StatusUnauthorized:
		f.Kind = Unauthenticated
	case http.StatusPreconditionRequired:
		f.Kind = notConfigured(op, b.marker())
	case http.StatusConflict:
		f.Kind = Conflict
		f.Filename = b.Filename
	case http.StatusForbidden:
		f.Kind = Forbidden
	default:
		f.Kind = Generic
		if f.Message == "" {
			f.Message = FallbackMessage
		}
	}

	return f
}

// As extracts a *Failure from err.
func As(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// IsKind reports whether err is a Failure of the given kind.
func IsKind(err error, kind Kind) bool {
	f, ok := As(err)
	return ok && f.Kind == kind
}

func notConfigured(op Operation, marker string) Kind {
	switch marker {
	case MarkerEngineMissing:
		return EngineNotConfigured
	case MarkerStorageMissing:
		return StorageNotConfigured
	}
	if op.Dependency() == DependsOnEngine {
		return EngineNotConfigured
	}
	return StorageNotConfigured
}

type body struct {
	Detail   json.RawMessage `json:"detail"`
	Message  string          `json:"message"`
	Error    string          `json:"error"`
	Filename string          `json:"filename"`
}

func decodeBody(data []byte) body {
	var b body
	if len(data) == 0 {
		return b
	}
	if err := json.Unmarshal(data, &b); err != nil {
		return body{}
	}
	return b
}

// detail is usually a string; validation errors carry a list of objects.
func (b body) detailText() string {
	if len(b.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(b.Detail, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(b.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

func (b body) message() string {
	if d := b.detailText(); d != "" {
		return d
	}
	if b.Message != "" {
		return b.Message
	}
	return b.Error
}

func (b body) marker() string {
	d := b.detailText()
	switch {
	case strings.Contains(d, MarkerEngineMissing):
		return MarkerEngineMissing
	case strings.Contains(d, MarkerStorageMissing):
		return MarkerStorageMissing
	}
	return ""
}
