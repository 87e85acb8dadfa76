// Package cookie provides signed HTTP cookies and the session cookie helper.
//
// Values written with SetSigned carry an HMAC-SHA256 signature. Several
// secrets may be configured: the first signs new cookies and all of them are
// tried on verification, which allows rolling a secret without logging every
// user out.
//
//	m, err := cookie.New([]string{os.Getenv("COOKIE_SECRET")},
//		cookie.WithSameSite(http.SameSiteStrictMode))
//	if err != nil {
//		return err
//	}
//	sc := cookie.NewSessionCookie(m, "__session")
//	_ = sc.Set(w, sess.ID, 24*time.Hour)
//
//	id, err := sc.Read(r)
//	if err != nil {
//		// missing or tampered cookie: treat the request as anonymous
//	}
//
// Defaults are Path "/", HttpOnly, Secure and SameSite=Lax. Config reads the
// same settings from COOKIE_* environment variables; COOKIE_SECRETS is a
// comma-separated list.
package cookie
