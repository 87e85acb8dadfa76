// Package logger provides structured logging utilities built on Go's standard slog package.
//
// Loggers are created with New and functional options, and log attributes are
// produced by small helper functions that return an empty slog.Attr for zero
// input, so calls never need nil checks:
//
//	log := logger.New(
//		logger.WithProduction("palmistry"),
//		logger.WithLevel(slog.LevelInfo),
//	)
//
//	log.Warn("csrf rejected",
//		logger.Component("csrf"),
//		logger.Origin(origin),
//		logger.Path(r.URL.Path),
//		logger.Reason("origin not allowed"),
//	)
//
// # Secrets
//
// SessionID and UserID log only a short prefix of the identifier. Session
// identifiers and CSRF tokens are bearer secrets and must never appear in full
// in log output.
//
// # Context Extractors
//
// WithContextExtractors decorates the handler so request-scoped attributes
// (request IDs, user IDs) are added to every record logged with a context:
//
//	log := logger.New(
//		logger.WithProduction("palmistry"),
//		logger.WithContextExtractors(func(ctx context.Context) (slog.Attr, bool) {
//			id, ok := ctx.Value(requestIDKey{}).(string)
//			return logger.RequestID(id), ok
//		}),
//	)
package logger
