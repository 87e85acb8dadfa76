package middleware

import (
	"fmt"
	"net/http"

	"github.com/dmitrymomot/palmistry/core/response"
)

// DefaultBodyLimit is enough for any JSON request this API accepts.
const DefaultBodyLimit int64 = 64 << 10

// BodyLimit rejects requests whose declared length exceeds maxSize and caps
// the body reader for the rest.
func BodyLimit(maxSize int64) func(http.Handler) http.Handler {
	if maxSize <= 0 {
		maxSize = DefaultBodyLimit
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxSize {
				response.Error(w, response.ErrRequestEntityTooLarge.
					WithMessage(fmt.Sprintf("Request body too large. Maximum allowed: %d bytes", maxSize)).
					WithDetails(map[string]any{"limit": maxSize, "size": r.ContentLength}))
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxSize)
			}
			next.ServeHTTP(w, r)
		})
	}
}
