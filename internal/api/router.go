package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/palmistry/core/csrf"
	"github.com/dmitrymomot/palmistry/core/health"
	"github.com/dmitrymomot/palmistry/core/response"
	"github.com/dmitrymomot/palmistry/middleware"
)

// RouterConfig carries the collaborators the router needs beyond the Handler.
type RouterConfig struct {
	Guard        *csrf.Guard
	HealthChecks map[string]health.Check
	// MetricsHandler defaults to the Prometheus default registry.
	MetricsHandler http.Handler
	// Development disables HSTS.
	Development bool
}

// NewRouter wires middleware and routes. Authenticated routes pass through
// session resolution, then the CSRF guard, then the session requirement,
// so an unsafe request without a session is rejected by the guard with 401.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	if cfg.MetricsHandler == nil {
		cfg.MetricsHandler = promhttp.Handler()
	}
	security := middleware.APISecurity
	security.IsDevelopment = cfg.Development

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(),
		middleware.ClientIP,
		middleware.Metrics,
		middleware.LoggingWithConfig(middleware.LoggingConfig{
			Logger: h.logger,
			Skip:   isProbe,
		}),
		middleware.SecurityHeaders(security),
		middleware.CORS(cfg.Guard.AllowedOrigins(), cfg.Guard.HeaderName()),
		middleware.BodyLimit(middleware.DefaultBodyLimit),
	)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, response.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, response.ErrMethodNotAllowed)
	})

	r.Get("/livez", health.Liveness)
	r.Get("/healthz", health.Readiness(h.logger, cfg.HealthChecks))
	r.Handle("/metrics", cfg.MetricsHandler)

	r.Group(func(r chi.Router) {
		r.Use(
			middleware.Session(h.sessions, h.cookies, h.logger),
			cfg.Guard.Middleware(middleware.UserIDFromRequest),
			middleware.RequireSession,
		)

		r.Route("/auth/sessions", func(r chi.Router) {
			r.Get("/", h.listSessions)
			r.Delete("/", h.invalidateOtherSessions)
			r.Post("/rotate", h.rotateSession)
			r.Get("/current", h.currentSession)
			r.Delete("/current", h.logout)
		})

		r.Route("/analyses/{analysisID}/followup", func(r chi.Router) {
			r.Post("/", h.startFollowup)
			r.Get("/status", h.followupStatus)
		})

		r.Route("/followups/{conversationID}", func(r chi.Router) {
			r.Post("/questions", h.askQuestion)
			r.Get("/messages", h.listMessages)
		})
	})

	return r
}

func isProbe(r *http.Request) bool {
	switch r.URL.Path {
	case "/livez", "/healthz", "/metrics":
		return true
	}
	return false
}
