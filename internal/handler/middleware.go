package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/hilltop-eats/hilltop/internal/domain/user"
)

// identity is the authenticated caller attached to the request context.
type identity struct {
	UserID string
	Role   user.Role
}

type identityKey struct{}

func withIdentity(ctx context.Context, id *identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func identityFrom(ctx context.Context) (*identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*identity)
	return id, ok
}

// authenticate parses the session token from the cookie or Authorization
// header and rejects the request when neither yields a valid identity.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := tokenFromRequest(r)
		if raw == "" {
			h.writeError(w, r, errUnauthorized)
			return
		}
		id, err := h.parseToken(raw)
		if err != nil {
			h.writeError(w, r, errUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
	})
}

// requireRole gates a route group behind a minimum privilege level. Must run
// after authenticate.
func (h *Handler) requireRole(required user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := identityFrom(r.Context())
			if !ok {
				h.writeError(w, r, errUnauthorized)
				return
			}
			if err := user.Authorize(id.Role, required); err != nil {
				h.writeError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if raw, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return raw
		}
	}
	if c, err := r.Cookie(sessionCookie); err == nil {
		return c.Value
	}
	return ""
}
