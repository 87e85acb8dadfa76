// Package sanitizer normalizes user-supplied strings before they are
// validated or stored.
//
// Functions can be called directly or through `sanitize` struct tags:
//
//	type askRequest struct {
//		Question string `json:"question" sanitize:"user_text"`
//	}
//
//	if err := sanitizer.SanitizeStruct(&req); err != nil {
//		return err
//	}
//
// Sanitizing is cosmetic. It is not a security boundary and does not
// replace content validation.
package sanitizer
