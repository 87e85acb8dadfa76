// Package csrf guards state-changing requests with two independent checks:
// the declared origin must be on an allow-list, and the caller must echo the
// token stored on its server-side session.
//
// For every method other than GET, HEAD, OPTIONS and TRACE, Guard.Verify runs
// these steps and stops at the first failure:
//
//  1. Take the Origin header, or the origin part of Referer when Origin is absent.
//  2. Reject when neither header is present.
//  3. Reject when the origin is not on the allow-list.
//  4. Read the token from the configured header, falling back to the form field.
//     Reject when empty.
//  5. Load the session named by the session cookie. Reject with 401 when there
//     is no cookie or no session.
//  6. Reject when the submitted token differs from the session token.
//  7. Reject when the session belongs to a different user than the caller.
//
// All rejections other than step 5 are 403. Rejections are logged with origin
// and path and counted in palmistry_csrf_rejections_total{reason}. Token
// values are never logged.
//
//	guard := csrf.New(sessions, sessionCookie,
//		csrf.WithConfig(cfg),
//		csrf.WithLogger(log),
//	)
//	r.Use(guard.Middleware(middleware.UserIDFromRequest))
package csrf
