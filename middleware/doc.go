// Package middleware provides net/http middleware for the API router.
//
// Every constructor returns func(http.Handler) http.Handler so the values
// plug directly into chi:
//
//	r := chi.NewRouter()
//	r.Use(middleware.RequestID())
//	r.Use(middleware.ClientIP)
//	r.Use(middleware.Metrics)
//	r.Use(middleware.Logging(log))
//	r.Use(middleware.SecurityHeaders(middleware.APISecurity))
//	r.Use(middleware.CORS(origins, "X-CSRF-Token"))
//	r.Use(middleware.BodyLimit(middleware.DefaultBodyLimit))
//	r.Use(middleware.Session(manager, sessionCookie, log))
//
// Session refreshes the rolling activity window of the session named by
// the cookie and stores it in the context. GetSession and UserIDFromRequest
// read it back. RequireSession rejects anonymous requests with 401.
//
// Metrics labels requests by chi route pattern, never by raw path.
package middleware
