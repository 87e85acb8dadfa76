package csrf

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmitrymomot/palmistry/core/logger"
	"github.com/dmitrymomot/palmistry/core/response"
	"github.com/dmitrymomot/palmistry/core/session"
	"github.com/dmitrymomot/palmistry/pkg/token"
)

// SessionLoader resolves a session record by identifier.
type SessionLoader interface {
	Get(ctx context.Context, id string) (session.Session, error)
}

// SessionIDReader extracts the session identifier from the request cookie.
type SessionIDReader interface {
	Read(r *http.Request) (string, error)
}

// UserResolver returns the authenticated user of a request.
type UserResolver func(r *http.Request) (userID string, ok bool)

// Guard validates mutating requests against the origin allow-list and the
// session-bound token.
type Guard struct {
	sessions   SessionLoader
	cookies    SessionIDReader
	allowed    map[string]struct{}
	headerName string
	formField  string
	logger     *slog.Logger
}

// Option configures a Guard.
type Option func(*Guard)

// WithConfig applies allow-list and field names from cfg.
func WithConfig(cfg Config) Option {
	return func(g *Guard) {
		WithAllowedOrigins(cfg.AllowedOrigins...)(g)
		if cfg.HeaderName != "" {
			g.headerName = cfg.HeaderName
		}
		if cfg.FormField != "" {
			g.formField = cfg.FormField
		}
	}
}

// WithAllowedOrigins adds origins to the allow-list.
// Entries are normalized the same way request origins are.
func WithAllowedOrigins(origins ...string) Option {
	return func(g *Guard) {
		for _, o := range origins {
			if n := NormalizeOrigin(o); n != "" {
				g.allowed[n] = struct{}{}
			}
		}
	}
}

// WithHeaderName sets the request header carrying the token.
func WithHeaderName(name string) Option {
	return func(g *Guard) {
		if name != "" {
			g.headerName = name
		}
	}
}

// WithFormField sets the form field consulted when the header is absent.
func WithFormField(name string) Option {
	return func(g *Guard) {
		if name != "" {
			g.formField = name
		}
	}
}

// WithLogger sets the logger used for rejection audit records.
func WithLogger(l *slog.Logger) Option {
	return func(g *Guard) {
		if l != nil {
			g.logger = l
		}
	}
}

// New creates a Guard.
func New(sessions SessionLoader, cookies SessionIDReader, opts ...Option) *Guard {
	cfg := DefaultConfig()
	g := &Guard{
		sessions:   sessions,
		cookies:    cookies,
		allowed:    make(map[string]struct{}),
		headerName: cfg.HeaderName,
		formField:  cfg.FormField,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AllowedOrigins returns the normalized allow-list.
func (g *Guard) AllowedOrigins() []string {
	out := make([]string, 0, len(g.allowed))
	for o := range g.allowed {
		out = append(out, o)
	}
	return out
}

// HeaderName returns the request header that carries the token.
func (g *Guard) HeaderName() string {
	return g.headerName
}

// Verify checks a request made by userID. Safe methods always pass.
// Any other outcome than nil is a *Rejection.
func (g *Guard) Verify(r *http.Request, userID string) error {
	if isSafeMethod(r.Method) {
		return nil
	}

	origin, present := requestOrigin(r.Header.Get("Origin"), r.Header.Get("Referer"))
	if err := g.check(r, userID, origin, present); err != nil {
		rej := reject(err)
		rejectionsTotal.WithLabelValues(rej.Reason).Inc()
		g.logger.WarnContext(r.Context(), "csrf check failed",
			logger.Reason(rej.Reason),
			logger.Origin(firstNonEmpty(r.Header.Get("Origin"), r.Header.Get("Referer"))),
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
			logger.UserID(userID),
		)
		return rej
	}
	return nil
}

func (g *Guard) check(r *http.Request, userID, origin string, present bool) error {
	if !present {
		return ErrMissingOrigin
	}
	if _, ok := g.allowed[origin]; !ok || origin == "" {
		return ErrOriginNotAllowed
	}

	submitted := g.submittedToken(r)
	if submitted == "" {
		return ErrMissingToken
	}

	sid, err := g.cookies.Read(r)
	if err != nil || sid == "" {
		return ErrNoSession
	}
	sess, err := g.sessions.Get(r.Context(), sid)
	if err != nil {
		return ErrNoSession
	}

	if !token.Equal(submitted, sess.CSRFToken) {
		return ErrTokenMismatch
	}
	if userID == "" || sess.UserID != userID {
		return ErrUserMismatch
	}
	return nil
}

func (g *Guard) submittedToken(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(g.headerName)); v != "" {
		return v
	}
	if g.formField == "" {
		return ""
	}
	return strings.TrimSpace(r.PostFormValue(g.formField))
}

// Middleware rejects failing requests with a JSON error body.
// resolve supplies the authenticated user; an unauthenticated request is
// checked with an empty user id.
func (g *Guard) Middleware(resolve UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var userID string
			if resolve != nil {
				userID, _ = resolve(r)
			}
			if err := g.Verify(r, userID); err != nil {
				var rej *Rejection
				if !errors.As(err, &rej) {
					response.Error(w, err)
					return
				}
				base := response.ErrForbidden
				if rej.Status == http.StatusUnauthorized {
					base = response.ErrUnauthorized
				}
				response.Error(w, base.WithMessage(rej.Err.Error()).WithDetails(map[string]any{"reason": rej.Reason}))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
