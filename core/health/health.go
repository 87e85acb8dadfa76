package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/palmistry/core/logger"
	"github.com/dmitrymomot/palmistry/core/response"
	"github.com/dmitrymomot/palmistry/pkg/async"
)

// Check probes one dependency.
type Check func(ctx context.Context) error

// DefaultTimeout bounds a whole readiness probe.
const DefaultTimeout = 3 * time.Second

// Liveness reports that the process is up. It never touches dependencies.
func Liveness(w http.ResponseWriter, _ *http.Request) {
	_ = response.JSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// NoContent answers 204 with no body.
func NoContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// Readiness runs every check concurrently under DefaultTimeout and answers
// 503 if any of them fails. Failure details are logged, never returned.
//
//	r.Get("/healthz", health.Readiness(log, map[string]health.Check{
//		"postgres": pg.Healthcheck(pool),
//		"redis":    redis.Healthcheck(client),
//	}))
func Readiness(log *slog.Logger, checks map[string]Check) http.HandlerFunc {
	if log == nil {
		log = logger.Discard()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), DefaultTimeout)
		defer cancel()

		names := make([]string, 0, len(checks))
		futures := make([]*async.Future[struct{}], 0, len(checks))
		for name, check := range checks {
			names = append(names, name)
			futures = append(futures, async.Async(ctx, check, func(ctx context.Context, c Check) (struct{}, error) {
				return struct{}{}, c(ctx)
			}))
		}

		status := make(map[string]string, len(checks))
		healthy := true
		for i, f := range futures {
			if _, err := f.Await(); err != nil {
				healthy = false
				status[names[i]] = "unavailable"
				log.ErrorContext(r.Context(), "readiness check failed",
					logger.Component(names[i]),
					logger.Error(err),
				)
				continue
			}
			status[names[i]] = "ok"
		}

		code := http.StatusOK
		overall := "ok"
		if !healthy {
			code = http.StatusServiceUnavailable
			overall = "unavailable"
		}
		_ = response.JSON(w, code, map[string]any{"status": overall, "checks": status})
	}
}
