package sandbox

import (
	"context"
	"net/http"
	"strings"

	"github.com/JaimeStill/alphadoc/pkg/handlers"
	"github.com/JaimeStill/alphadoc/pkg/routes"
)

type principalKey struct{}

func withPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the identity stored by the authentication
// middleware.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

func bearer(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func (h *handler) authenticate() routes.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := h.sb.Authenticate(bearer(r))
			if err != nil {
				w.Header().Set("WWW-Authenticate", "Bearer")
				handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
				return
			}
			next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), p)))
		})
	}
}

func (h *handler) requireAdmin() routes.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p, ok := PrincipalFrom(r.Context()); !ok || !p.IsAdmin() {
				handlers.RespondError(w, h.logger, http.StatusForbidden, ErrAdminRequired)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
