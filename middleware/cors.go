package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows credentialed cross-origin requests from origins. The list is
// the same one the CSRF guard checks, so preflight and guard never disagree.
func CORS(origins []string, csrfHeader string) func(http.Handler) http.Handler {
	if csrfHeader == "" {
		csrfHeader = "X-CSRF-Token"
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", csrfHeader},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
