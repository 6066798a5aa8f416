package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	applog "fintrack/internal/log"
)

// SessionCookie carries the opaque session ID that scopes category lists.
const SessionCookie = "fintrack_session"

type sessionKey struct{}

// sessionMiddleware makes sure every request carries a session ID. A
// missing or malformed cookie is replaced with a fresh random ID.
func sessionMiddleware(ttl time.Duration, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := ""
			if c, err := r.Cookie(SessionCookie); err == nil {
				if id, err := uuid.Parse(c.Value); err == nil {
					sid = id.String()
				}
			}
			if sid == "" {
				sid = uuid.NewString()
			}

			// Refresh on every request so the cookie lives as long as the
			// session data does.
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    sid,
				Path:     "/",
				MaxAge:   int(ttl / time.Second),
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})

			ctx := context.WithValue(r.Context(), sessionKey{}, sid)
			logger := applog.FromContext(ctx).With(applog.FieldSessionID, sid)
			next.ServeHTTP(w, r.WithContext(applog.NewContext(ctx, logger)))
		})
	}
}

// sessionID returns the session bound to ctx by sessionMiddleware.
func sessionID(ctx context.Context) string {
	sid, _ := ctx.Value(sessionKey{}).(string)
	return sid
}
