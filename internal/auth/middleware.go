package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/nexboard/nexboard/internal/user"
	"github.com/nexboard/nexboard/pkg/cerr"
	"github.com/nexboard/nexboard/pkg/clog"
)

// SessionMiddleware resolves the session token on every request and stores
// the acting user in the context. Requests without a valid, unexpired session
// are rejected before any handler runs.
func SessionMiddleware(sessions Repository, users user.Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := tokenFromRequest(r)
			if token == "" {
				cerr.SetNewJSONError(ctx, cerr.Unauthenticated, "missing session token", nil)
				return
			}
			session, err := sessions.Get(ctx, token)
			if err != nil {
				if cerr.IsCode(err, cerr.NotFound) {
					cerr.SetNewJSONError(ctx, cerr.Unauthenticated, "invalid session token", err)
					return
				}
				cerr.SetJSONError(ctx, err)
				return
			}
			if session.Expired(time.Now()) {
				cerr.SetNewJSONError(ctx, cerr.Unauthenticated, "session expired", nil)
				return
			}
			u, err := users.Get(ctx, session.UserID)
			if err != nil {
				if cerr.IsCode(err, cerr.NotFound) {
					cerr.SetNewJSONError(ctx, cerr.Unauthenticated, "invalid session token", err)
					return
				}
				cerr.SetJSONError(ctx, err)
				return
			}
			clog.AddAttribute(ctx, "user_id", u.ID)
			next.ServeHTTP(w, r.WithContext(ContextWithUser(ctx, u)))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if token := r.Header.Get("X-Session-Token"); token != "" {
		return token
	}
	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimPrefix(authz, "Bearer ")
	}
	return ""
}
