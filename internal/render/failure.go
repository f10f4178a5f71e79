package render

import (
	"errors"
	"fmt"

	"github.com/JaimeStill/alphadoc/internal/failures"
	"github.com/JaimeStill/alphadoc/internal/session"
)

// Prompt is the user-facing surface of an error.
type Prompt struct {
	Title  string
	Detail string
	// Hint names the command that resolves the problem, if any.
	Hint string
}

// Describe maps err to the prompt shown for it. Remote failures follow
// their classification; local errors show their message.
func Describe(err error) Prompt {
	if errors.Is(err, session.ErrNoSession) {
		return Prompt{Title: "not logged in", Hint: "alphadoc login"}
	}
	if errors.Is(err, session.ErrAdminRequired) {
		return Prompt{Title: "admin role required", Detail: err.Error()}
	}

	f, ok := failures.As(err)
	if !ok {
		return Prompt{Title: err.Error()}
	}

	switch f.Kind {
	case failures.Unauthenticated:
		if f.Op == failures.OpLogin {
			return Prompt{Title: "invalid credentials", Detail: f.Message}
		}
		return Prompt{Title: "session expired", Hint: "alphadoc login"}
	case failures.EngineNotConfigured:
		return Prompt{
			Title:  "analysis engine not configured for this workspace",
			Detail: "an admin must set the engine key",
			Hint:   "alphadoc config engine-key",
		}
	case failures.StorageNotConfigured:
		return Prompt{
			Title:  "storage engine not linked to this workspace",
			Detail: "an admin must link the document store and vector index",
			Hint:   "alphadoc config storage",
		}
	case failures.Conflict:
		return Prompt{
			Title:  fmt.Sprintf("a document named %q already exists", f.Filename),
			Detail: f.Message,
		}
	case failures.Forbidden:
		return Prompt{Title: "forbidden", Detail: f.Message}
	default:
		return Prompt{Title: f.Message}
	}
}

// Failure renders the prompt for err.
func (r *Renderer) Failure(err error) string {
	p := Describe(err)
	s := r.styles

	out := s.Error.Render("error: ") + p.Title
	if p.Detail != "" && p.Detail != p.Title {
		out += "\n  " + s.Muted.Render(p.Detail)
	}
	if p.Hint != "" {
		out += "\n  " + s.Warning.Render("run `"+p.Hint+"`")
	}
	return out
}
