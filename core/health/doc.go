// Package health provides liveness and readiness probe handlers.
//
// Liveness only proves the process answers HTTP. Readiness runs dependency
// checks with the func(context.Context) error signature used by the
// integration packages (pg.Healthcheck, redis.Healthcheck, s3 Healthcheck).
package health
