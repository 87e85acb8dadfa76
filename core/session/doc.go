// Package session provides server-side session management backed by a
// key-value cache.
//
// A Session is an opaque high-entropy identifier bound to a user, a CSRF token
// and client metadata. Records live in a Cache (Redis in production, MemoryCache
// in tests and single-process deployments) under Config.KeyPrefix + ID, and each
// user has an index set of their session identifiers under
// Config.IndexPrefix + UserID.
//
// # Components
//
//   - Cache: narrow key-value-with-TTL-and-sets interface implemented by backends
//   - Store: JSON serialization over a Cache that never propagates backend errors
//   - Manager: session lifecycle on top of a Store
//
// # Basic Usage
//
//	cache := session.NewMemoryCache()
//	mgr := session.NewManager(
//		session.NewStore(cache, session.WithStoreLogger(log)),
//		session.WithConfig(cfg),
//		session.WithLogger(log),
//	)
//
//	sess, err := mgr.Create(ctx, session.CreateParams{
//		UserID:     user.ID,
//		Email:      user.Email,
//		ClientInfo: map[string]string{session.ClientReason: session.ReasonLogin},
//	})
//	if err != nil {
//		// ErrSaveSession: unable to establish session
//	}
//
// # Lifecycle
//
// A session is either absent or active. It becomes active on Create, stays
// active across any number of Rotate calls and becomes absent on Delete,
// absolute-age expiry, concurrency-cap eviction or InvalidateUserSessions.
//
// RefreshActivity implements rolling expiry: once Config.RollingWindow has passed
// since the last recorded activity, the activity time is rewritten and the store
// TTL re-extended to Config.TTL. Inside the window it does not write. Regardless
// of activity, no session survives Config.AbsoluteMaxAge after creation.
//
// # Failure Policy
//
// Reads degrade to "absent" when the backend fails. Writes that establish new
// state (Create, Rotate) return ErrSaveSession instead of pretending success.
// Rotate writes the new record before deleting the old one, so a failed write
// leaves the caller's current session valid.
//
// # Concurrency
//
// Manager has no in-process locking and relies on per-key atomicity of the
// Cache. Two concurrent rotations of the same session both succeed and the
// later index update wins; the index is advisory and records are
// authoritative. Index updates on rotation and mass invalidation are sent as
// one batch (MULTI/EXEC on Redis).
package session
