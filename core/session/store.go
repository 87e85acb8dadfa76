package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrymomot/palmistry/core/logger"
)

// Store is the session persistence layer. It serializes values to JSON and
// never propagates backend errors: every failure is logged and reported as a
// false or empty result, which callers must read as "effectively absent".
type Store struct {
	cache  Cache
	logger *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreLogger sets the logger for backend failures.
func WithStoreLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore wraps a cache backend.
func NewStore(cache Cache, opts ...StoreOption) *Store {
	if cache == nil {
		panic("session: cache is required")
	}
	s := &Store{
		cache:  cache,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Set serializes value and stores it under key.
func (s *Store) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	data, err := json.Marshal(value)
	if err != nil {
		s.fail(ctx, "set", key, err)
		return false
	}
	if err := s.cache.Set(ctx, key, data, ttl); err != nil {
		s.fail(ctx, "set", key, err)
		return false
	}
	return true
}

// Get loads the value at key into dst. It reports false when the key is
// absent, the backend fails, or the stored value cannot be decoded.
func (s *Store) Get(ctx context.Context, key string, dst any) bool {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			s.fail(ctx, "get", key, err)
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.fail(ctx, "decode", key, err)
		return false
	}
	return true
}

// Delete removes key and reports whether a value was removed.
func (s *Store) Delete(ctx context.Context, key string) bool {
	n, err := s.cache.Delete(ctx, key)
	if err != nil {
		s.fail(ctx, "delete", key, err)
		return false
	}
	return n > 0
}

// Exists reports whether key is present.
func (s *Store) Exists(ctx context.Context, key string) bool {
	ok, err := s.cache.Exists(ctx, key)
	if err != nil {
		s.fail(ctx, "exists", key, err)
		return false
	}
	return ok
}

// Expire updates the TTL of key without rewriting its value.
func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration) bool {
	ok, err := s.cache.Expire(ctx, key, ttl)
	if err != nil {
		s.fail(ctx, "expire", key, err)
		return false
	}
	return ok
}

// TTL returns the remaining lifetime of key.
func (s *Store) TTL(ctx context.Context, key string) (time.Duration, bool) {
	ttl, err := s.cache.TTL(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			s.fail(ctx, "ttl", key, err)
		}
		return 0, false
	}
	return ttl, true
}

// IndexAdd adds member to the set at key and refreshes its TTL.
func (s *Store) IndexAdd(ctx context.Context, key, member string, ttl time.Duration) bool {
	if err := s.cache.SetAdd(ctx, key, ttl, member); err != nil {
		s.fail(ctx, "index_add", key, err)
		return false
	}
	return true
}

// IndexRemove removes members from the set at key.
func (s *Store) IndexRemove(ctx context.Context, key string, members ...string) bool {
	if len(members) == 0 {
		return true
	}
	if err := s.cache.SetRemove(ctx, key, members...); err != nil {
		s.fail(ctx, "index_remove", key, err)
		return false
	}
	return true
}

// IndexSwap replaces remove with add in the set at key in one batch.
func (s *Store) IndexSwap(ctx context.Context, key, remove, add string, ttl time.Duration) bool {
	if err := s.cache.SetSwap(ctx, key, remove, add, ttl); err != nil {
		s.fail(ctx, "index_swap", key, err)
		return false
	}
	return true
}

// IndexReplace rebuilds the set at key to contain exactly members.
func (s *Store) IndexReplace(ctx context.Context, key string, ttl time.Duration, members ...string) bool {
	if err := s.cache.SetReplace(ctx, key, ttl, members...); err != nil {
		s.fail(ctx, "index_replace", key, err)
		return false
	}
	return true
}

// IndexMembers lists the set at key. Backend failures yield an empty list.
func (s *Store) IndexMembers(ctx context.Context, key string) []string {
	members, err := s.cache.SetMembers(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			s.fail(ctx, "index_members", key, err)
		}
		return nil
	}
	return members
}

func (s *Store) fail(ctx context.Context, op, key string, err error) {
	s.logger.ErrorContext(ctx, "session store operation failed",
		logger.Component("session_store"),
		logger.Action(op),
		slog.String("key", redactKey(key)),
		logger.Error(err),
	)
}

// redactKey keeps the key namespace and a short prefix of the identifier.
func redactKey(key string) string {
	i := strings.LastIndexByte(key, ':')
	if i < 0 {
		return logger.Prefix(key)
	}
	return key[:i+1] + logger.Prefix(key[i+1:])
}
