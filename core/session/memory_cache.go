package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrWrongType is returned when a string operation hits a set key or vice versa.
var ErrWrongType = errors.New("cache: operation against a key holding the wrong kind of value")

type memoryEntry struct {
	value     []byte
	members   map[string]struct{}
	isSet     bool
	expiresAt time.Time // zero = no expiry
}

// MemoryCache is an in-process Cache. Expired keys are dropped lazily on access.
// Batched set operations run inside one critical section.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

// MemoryCacheOption configures a MemoryCache.
type MemoryCacheOption func(*MemoryCache)

// WithMemoryClock overrides the time source used for expiry.
func WithMemoryClock(now func() time.Time) MemoryCacheOption {
	return func(c *MemoryCache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache(opts ...MemoryCacheOption) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Len returns the number of live keys.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for key := range c.entries {
		if c.lookup(key) != nil {
			n++
		}
	}
	return n
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.lookup(key)
	if e == nil {
		return nil, ErrCacheMiss
	}
	if e.isSet {
		return nil, ErrWrongType
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	c.entries[key] = &memoryEntry{value: v, expiresAt: c.deadline(ttl)}
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, keys ...string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var n int64
	for _, key := range keys {
		if c.lookup(key) != nil {
			n++
		}
		delete(c.entries, key)
	}
	return n, nil
}

func (c *MemoryCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookup(key) != nil, nil
}

func (c *MemoryCache) Expire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.lookup(key)
	if e == nil {
		return false, nil
	}
	if ttl <= 0 {
		delete(c.entries, key)
		return true, nil
	}
	e.expiresAt = c.deadline(ttl)
	return true, nil
}

func (c *MemoryCache) TTL(_ context.Context, key string) (time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.lookup(key)
	if e == nil {
		return 0, ErrCacheMiss
	}
	if e.expiresAt.IsZero() {
		return NoExpiry, nil
	}
	return e.expiresAt.Sub(c.now()), nil
}

func (c *MemoryCache) SetAdd(_ context.Context, key string, ttl time.Duration, members ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, err := c.setEntry(key)
	if err != nil {
		return err
	}
	for _, m := range members {
		e.members[m] = struct{}{}
	}
	e.expiresAt = c.deadline(ttl)
	return nil
}

func (c *MemoryCache) SetRemove(_ context.Context, key string, members ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.lookup(key)
	if e == nil {
		return nil
	}
	if !e.isSet {
		return ErrWrongType
	}
	for _, m := range members {
		delete(e.members, m)
	}
	if len(e.members) == 0 {
		delete(c.entries, key)
	}
	return nil
}

func (c *MemoryCache) SetMembers(_ context.Context, key string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.lookup(key)
	if e == nil {
		return []string{}, nil
	}
	if !e.isSet {
		return nil, ErrWrongType
	}
	out := make([]string, 0, len(e.members))
	for m := range e.members {
		out = append(out, m)
	}
	return out, nil
}

func (c *MemoryCache) SetSwap(_ context.Context, key, remove, add string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, err := c.setEntry(key)
	if err != nil {
		return err
	}
	delete(e.members, remove)
	e.members[add] = struct{}{}
	e.expiresAt = c.deadline(ttl)
	return nil
}

func (c *MemoryCache) SetReplace(_ context.Context, key string, ttl time.Duration, members ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	if len(members) == 0 {
		return nil
	}
	e := &memoryEntry{isSet: true, members: make(map[string]struct{}, len(members)), expiresAt: c.deadline(ttl)}
	for _, m := range members {
		e.members[m] = struct{}{}
	}
	c.entries[key] = e
	return nil
}

// lookup returns a live entry or nil, evicting it if expired. Caller holds mu.
func (c *MemoryCache) lookup(key string) *memoryEntry {
	e, ok := c.entries[key]
	if !ok {
		return nil
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil
	}
	return e
}

// setEntry returns the set at key, creating it if needed. Caller holds mu.
func (c *MemoryCache) setEntry(key string) (*memoryEntry, error) {
	e := c.lookup(key)
	if e == nil {
		e = &memoryEntry{isSet: true, members: make(map[string]struct{})}
		c.entries[key] = e
		return e, nil
	}
	if !e.isSet {
		return nil, ErrWrongType
	}
	return e, nil
}

func (c *MemoryCache) deadline(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return c.now().Add(ttl)
}
