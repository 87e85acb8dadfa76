package api

import (
	"log/slog"
	"maps"
	"net/http"
	"time"

	"github.com/dmitrymomot/palmistry/core/conversation"
	"github.com/dmitrymomot/palmistry/core/cookie"
	"github.com/dmitrymomot/palmistry/core/logger"
	"github.com/dmitrymomot/palmistry/core/session"
	"github.com/dmitrymomot/palmistry/middleware"
)

// Handler serves the session and follow-up endpoints.
type Handler struct {
	sessions      *session.Manager
	cookies       *cookie.SessionCookie
	conversations *conversation.Service
	logger        *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHandler creates a Handler.
func NewHandler(sessions *session.Manager, cookies *cookie.SessionCookie, conversations *conversation.Service, opts ...Option) *Handler {
	h := &Handler{
		sessions:      sessions,
		cookies:       cookies,
		conversations: conversations,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// StartSession creates a session for an authenticated user, sets the
// session cookie and returns the session with its CSRF token. Login,
// registration and OAuth handlers call it once the user is verified.
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request, p session.CreateParams, reason string) (session.Session, error) {
	info := map[string]string{
		session.ClientIP:        middleware.ClientIPFromRequest(r),
		session.ClientUserAgent: r.UserAgent(),
		session.ClientReason:    reason,
	}
	maps.Copy(info, p.ClientInfo)
	p.ClientInfo = info

	sess, err := h.sessions.Create(r.Context(), p)
	if err != nil {
		return session.Session{}, err
	}
	if err := h.cookies.Set(w, sess.ID, h.cookieMaxAge()); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to set session cookie",
			logger.SessionID(sess.ID),
			logger.Error(err),
		)
		h.sessions.Delete(r.Context(), sess.ID)
		return session.Session{}, err
	}
	return sess, nil
}

// cookieMaxAge outlives the server record; the store decides validity.
func (h *Handler) cookieMaxAge() time.Duration {
	cfg := h.sessions.Config()
	if cfg.AbsoluteMaxAge > 0 {
		return cfg.AbsoluteMaxAge
	}
	return cfg.TTL
}
