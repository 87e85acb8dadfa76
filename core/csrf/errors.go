package csrf

import (
	"errors"
	"net/http"
)

var (
	ErrMissingOrigin    = errors.New("missing origin information")
	ErrOriginNotAllowed = errors.New("origin not allowed")
	ErrMissingToken     = errors.New("missing csrf token")
	ErrNoSession        = errors.New("no valid session")
	ErrTokenMismatch    = errors.New("csrf token mismatch")
	ErrUserMismatch     = errors.New("session does not belong to the authenticated user")
)

// Rejection is returned by Guard.Verify when a request must not proceed.
// Status is 401 when no session could be resolved and 403 otherwise.
type Rejection struct {
	Status int
	Reason string
	Err    error
}

func (r *Rejection) Error() string {
	return "csrf: " + r.Err.Error()
}

func (r *Rejection) Unwrap() error {
	return r.Err
}

// StatusCode reports the HTTP status that matches the rejection.
func (r *Rejection) StatusCode() int {
	return r.Status
}

// reasonCode is the metric label and log value for a rejection cause.
func reasonCode(err error) string {
	switch {
	case errors.Is(err, ErrMissingOrigin):
		return "missing_origin"
	case errors.Is(err, ErrOriginNotAllowed):
		return "origin_not_allowed"
	case errors.Is(err, ErrMissingToken):
		return "missing_token"
	case errors.Is(err, ErrNoSession):
		return "no_session"
	case errors.Is(err, ErrTokenMismatch):
		return "token_mismatch"
	case errors.Is(err, ErrUserMismatch):
		return "user_mismatch"
	default:
		return "unknown"
	}
}

func reject(err error) *Rejection {
	status := http.StatusForbidden
	if errors.Is(err, ErrNoSession) {
		status = http.StatusUnauthorized
	}
	return &Rejection{Status: status, Reason: reasonCode(err), Err: err}
}
