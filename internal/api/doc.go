// Package api is the HTTP surface of the palm reading backend: session
// management, follow-up conversations, health and metrics.
//
//	POST   /auth/sessions/rotate
//	GET    /auth/sessions
//	DELETE /auth/sessions                 log out every other session
//	GET    /auth/sessions/current         includes the CSRF token
//	DELETE /auth/sessions/current         log out
//	POST   /analyses/{analysisID}/followup
//	GET    /analyses/{analysisID}/followup/status
//	POST   /followups/{conversationID}/questions
//	GET    /followups/{conversationID}/messages?limit=N
//	GET    /livez
//	GET    /healthz                       readiness of redis, postgres, s3
//	GET    /metrics
//
// Conversation errors map to statuses by kind: not found and not owned give
// 404, budget exhausted 429, content policy 403, analysis not completed 400,
// and upstream or internal failures 500 with a generic message.
//
// Sessions are created by the login, registration and OAuth handlers, which
// live outside this package and call Handler.StartSession.
package api
