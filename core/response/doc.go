// Package response writes JSON bodies and structured HTTPError values for
// plain net/http handlers.
//
//	if err := svc.Do(r.Context()); err != nil {
//		response.Error(w, response.ErrForbidden.WithMessage("origin not allowed"))
//		return
//	}
//	_ = response.JSON(w, http.StatusOK, result)
//
// Error converts arbitrary errors with ToHTTPError: an HTTPError anywhere in
// the chain is used as-is, an error implementing StatusCode() int picks the
// matching predefined error, and everything else becomes a generic 500. The
// text of a non-HTTPError error is never written to the client.
package response
