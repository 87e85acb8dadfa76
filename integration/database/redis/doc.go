// Package redis provides Redis client initialization, health checking and a
// Redis-backed session.Cache.
//
// # Connecting
//
//	client, err := redis.Connect(ctx, redis.Config{
//		ConnectionURL:  "redis://localhost:6379/0",
//		RetryAttempts:  3,
//		RetryInterval:  5 * time.Second,
//		ConnectTimeout: 30 * time.Second,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
// Connect validates the URL (redis:// or rediss://), retries with exponential
// backoff and verifies connectivity with PING before returning.
//
// # Session Cache
//
// NewCache adapts a client to the session.Cache interface:
//
//	cache := redis.NewCache(client)
//	mgr := session.NewManager(session.NewStore(cache))
//
// Batched index updates (SetSwap, SetReplace) run inside MULTI/EXEC so the
// per-user session index is never observed half-updated.
//
// # Health Checking
//
//	check := redis.Healthcheck(client)
//	if err := check(ctx); err != nil {
//		// ErrHealthcheckFailed
//	}
package redis
