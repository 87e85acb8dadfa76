package cookie

import (
	"net/http"
	"time"
)

// SessionCookie carries the opaque session identifier between the server and
// the browser. The value is signed so a forged identifier is rejected before
// any store lookup.
type SessionCookie struct {
	manager *Manager
	name    string
}

// NewSessionCookie binds a session cookie name to a manager.
// An empty name falls back to "__session".
func NewSessionCookie(m *Manager, name string) *SessionCookie {
	if name == "" {
		name = "__session"
	}
	return &SessionCookie{manager: m, name: name}
}

// Name returns the cookie name.
func (s *SessionCookie) Name() string {
	return s.name
}

// Set writes the session identifier with the given lifetime.
// The cookie is always HttpOnly.
func (s *SessionCookie) Set(w http.ResponseWriter, sessionID string, maxAge time.Duration) error {
	return s.manager.SetSigned(w, s.name, sessionID,
		WithMaxAge(int(maxAge/time.Second)),
		WithHTTPOnly(true),
	)
}

// Read returns the session identifier, or an error when the cookie is absent
// or its signature does not verify.
func (s *SessionCookie) Read(r *http.Request) (string, error) {
	id, err := s.manager.GetSigned(r, s.name)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", ErrCookieNotFound
	}
	return id, nil
}

// Clear expires the session cookie on the client.
func (s *SessionCookie) Clear(w http.ResponseWriter) {
	s.manager.Delete(w, s.name)
}
