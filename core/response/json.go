package response

import (
	"encoding/json"
	"errors"
	"net/http"
)

// statusCode is an interface that errors can implement
// to provide a custom HTTP status code.
type statusCode interface {
	StatusCode() int
}

// JSON writes v as an application/json body with the given status.
// A zero status means 200, or 204 when v is nil.
func JSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	if status == 0 {
		if v == nil {
			status = http.StatusNoContent
		} else {
			status = http.StatusOK
		}
	}

	w.WriteHeader(status)

	switch status {
	case http.StatusNoContent, http.StatusNotModified:
		return nil
	}

	return json.NewEncoder(w).Encode(v)
}

// Error writes err as a JSON HTTPError body.
// Errors that are not HTTPError never expose their text to the client.
func Error(w http.ResponseWriter, err error) {
	httpErr := ToHTTPError(err)
	_ = JSON(w, httpErr.Status, httpErr)
}

// ToHTTPError converts any error to an HTTPError. It checks for HTTPError
// first, then the statusCode interface, and defaults to 500.
func ToHTTPError(err error) HTTPError {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	status := http.StatusInternalServerError
	var sc statusCode
	if errors.As(err, &sc) {
		status = sc.StatusCode()
	}

	baseErr, ok := httpErrorsByStatus[status]
	if !ok {
		baseErr = ErrInternalServerError
	}
	return baseErr
}
