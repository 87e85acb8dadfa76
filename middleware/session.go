package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/palmistry/core/logger"
	"github.com/dmitrymomot/palmistry/core/response"
	"github.com/dmitrymomot/palmistry/core/session"
)

type sessionKey struct{}

// SessionManager is the part of session.Manager the middleware needs.
type SessionManager interface {
	RefreshActivity(ctx context.Context, id string) bool
	Get(ctx context.Context, id string) (session.Session, error)
}

// SessionCookie reads and clears the signed session cookie.
type SessionCookie interface {
	Read(r *http.Request) (string, error)
	Clear(w http.ResponseWriter)
}

// Session resolves the session cookie on every request. A valid session is
// refreshed and stored in the context. A cookie pointing at a missing or
// expired session is cleared and the request continues anonymously.
func Session(sessions SessionManager, cookies SessionCookie, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := cookies.Read(r)
			if err != nil || id == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			if !sessions.RefreshActivity(ctx, id) {
				log.DebugContext(ctx, "stale session cookie cleared", logger.SessionID(id))
				cookies.Clear(w)
				next.ServeHTTP(w, r)
				return
			}

			sess, err := sessions.Get(ctx, id)
			if err != nil {
				cookies.Clear(w)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, sessionKey{}, sess)))
		})
	}
}

// RequireSession answers 401 when no session was resolved.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetSession(r.Context()); !ok {
			response.Error(w, response.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetSession returns the session stored by Session.
func GetSession(ctx context.Context) (session.Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(session.Session)
	return sess, ok
}

// UserIDFromRequest returns the authenticated user. It matches
// csrf.UserResolver.
func UserIDFromRequest(r *http.Request) (string, bool) {
	sess, ok := GetSession(r.Context())
	if !ok || sess.UserID == "" {
		return "", false
	}
	return sess.UserID, true
}

// WithSession stores sess in ctx. Handlers that create or rotate a session
// use it so the rest of the request sees the new one.
func WithSession(ctx context.Context, sess session.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}
