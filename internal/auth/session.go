package auth

import (
	"context"
	"net/http"

	"github.com/tubeclone/tubeclone/internal/httputil"
)

type contextKey string

const sessionKey contextKey = "session"

// Session is the authenticated caller, resolved once per request by
// Handler.Middleware and handed to handlers through the request context.
type Session struct {
	UserID  string
	IsAdmin bool
}

// CanModify reports whether the caller may edit or delete a resource owned by ownerID.
func (s Session) CanModify(ownerID string) bool {
	return s.IsAdmin || (s.UserID != "" && s.UserID == ownerID)
}

func ContextWithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)
	return s, ok
}

func UserIDFromContext(ctx context.Context) string {
	s, _ := SessionFromContext(ctx)
	return s.UserID
}

// RequireAdmin must run after Middleware.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := SessionFromContext(r.Context())
		if !ok {
			httputil.WriteError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !s.IsAdmin {
			httputil.WriteError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
