package middleware

import (
	"context"
	"net/http"

	"github.com/dmitrymomot/palmistry/pkg/clientip"
)

type clientIPContextKey struct{}

// ClientIP resolves the client address once and stores it in the context.
func ClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientip.GetIP(r)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clientIPContextKey{}, ip)))
	})
}

// ClientIPFromRequest returns the address stored by ClientIP, resolving it
// on the spot when the middleware did not run.
func ClientIPFromRequest(r *http.Request) string {
	if ip, ok := r.Context().Value(clientIPContextKey{}).(string); ok {
		return ip
	}
	return clientip.GetIP(r)
}
