package session

import (
	"context"
	"time"
)

// NoExpiry is returned by Cache.TTL for keys that never expire.
const NoExpiry time.Duration = -1

// Cache is the remote key-value cache the session store is built on.
// Implementations must be safe for concurrent use; each call is expected to be
// atomic per key.
//
// Get and TTL return ErrCacheMiss for absent keys. A ttl <= 0 passed to Set or
// the set operations means "no expiry".
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes keys and reports how many existed.
	Delete(ctx context.Context, keys ...string) (int64, error)
	Exists(ctx context.Context, key string) (bool, error)
	// Expire updates a key's TTL without rewriting its value.
	// It reports false if the key does not exist.
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	TTL(ctx context.Context, key string) (time.Duration, error)

	// SetAdd adds members to the set at key and refreshes the key's TTL.
	SetAdd(ctx context.Context, key string, ttl time.Duration, members ...string) error
	SetRemove(ctx context.Context, key string, members ...string) error
	SetMembers(ctx context.Context, key string) ([]string, error)
	// SetSwap removes one member, adds another and refreshes the TTL as a
	// single batch.
	SetSwap(ctx context.Context, key, remove, add string, ttl time.Duration) error
	// SetReplace replaces the whole set with members as a single batch.
	// With no members the key is deleted.
	SetReplace(ctx context.Context, key string, ttl time.Duration, members ...string) error
}
