package token

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
)

const (
	// SessionIDBytes is the amount of entropy in a session identifier (384 bits).
	SessionIDBytes = 48
	// CSRFTokenBytes is the amount of entropy in a CSRF token (256 bits).
	CSRFTokenBytes = 32
)

// ErrInvalidSize is returned when a token of zero or negative size is requested.
var ErrInvalidSize = errors.New("token size must be positive")

// Generate returns n cryptographically secure random bytes encoded as
// base64 URL-safe string without padding.
func Generate(n int) (string, error) {
	if n <= 0 {
		return "", ErrInvalidSize
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// NewSessionID returns a new session identifier.
func NewSessionID() string {
	return mustGenerate(SessionIDBytes)
}

// NewCSRFToken returns a new CSRF token.
func NewCSRFToken() string {
	return mustGenerate(CSRFTokenBytes)
}

// EncodedLen returns the length of an encoded token built from n bytes.
func EncodedLen(n int) int {
	return base64.RawURLEncoding.EncodedLen(n)
}

// Equal reports whether a and b are the same token.
// Empty tokens never match.
func Equal(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func mustGenerate(n int) string {
	t, err := Generate(n)
	if err != nil {
		panic(err)
	}
	return t
}
