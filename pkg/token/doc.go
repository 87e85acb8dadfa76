// Package token generates opaque, URL-safe random tokens for session identifiers
// and CSRF secrets.
//
// Tokens are read from crypto/rand and encoded with base64 raw URL encoding,
// so they can be used directly as cookie values, header values and Redis keys.
//
// # Basic Usage
//
//	import "github.com/dmitrymomot/palmistry/pkg/token"
//
//	sessionID := token.NewSessionID() // 48 random bytes, 64 chars
//	csrfToken := token.NewCSRFToken() // 32 random bytes, 43 chars
//
//	// Arbitrary sizes
//	apiKey, err := token.Generate(24)
//	if err != nil {
//		// entropy source failure
//	}
//
// # Comparison
//
// Use Equal to compare a submitted secret with a stored one. It runs in
// constant time with respect to the token contents:
//
//	if !token.Equal(submitted, sess.CSRFToken) {
//		// reject
//	}
//
// # Failure Mode
//
// NewSessionID and NewCSRFToken panic if the system entropy source fails.
// There is no meaningful recovery from that state; Generate returns the error
// for callers that prefer to handle it.
package token
