package session_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrymomot/palmistry/core/session"
)

var errBackend = errors.New("connection refused")

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// flakyCache wraps MemoryCache and fails selected operations.
type flakyCache struct {
	*session.MemoryCache
	mu   sync.Mutex
	fail map[string]bool
}

func newFlakyCache(clock *testClock) *flakyCache {
	return &flakyCache{
		MemoryCache: session.NewMemoryCache(session.WithMemoryClock(clock.Now)),
		fail:        map[string]bool{},
	}
}

func (f *flakyCache) FailOn(ops ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, op := range ops {
		f.fail[op] = true
	}
}

func (f *flakyCache) Heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = map[string]bool{}
}

func (f *flakyCache) failing(op string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fail[op]
}

func (f *flakyCache) Get(ctx context.Context, key string) ([]byte, error) {
	if f.failing("get") {
		return nil, errBackend
	}
	return f.MemoryCache.Get(ctx, key)
}

func (f *flakyCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if f.failing("set") {
		return errBackend
	}
	return f.MemoryCache.Set(ctx, key, value, ttl)
}

func (f *flakyCache) Delete(ctx context.Context, keys ...string) (int64, error) {
	if f.failing("delete") {
		return 0, errBackend
	}
	return f.MemoryCache.Delete(ctx, keys...)
}

func (f *flakyCache) Exists(ctx context.Context, key string) (bool, error) {
	if f.failing("exists") {
		return false, errBackend
	}
	return f.MemoryCache.Exists(ctx, key)
}

func (f *flakyCache) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if f.failing("expire") {
		return false, errBackend
	}
	return f.MemoryCache.Expire(ctx, key, ttl)
}

func (f *flakyCache) SetAdd(ctx context.Context, key string, ttl time.Duration, members ...string) error {
	if f.failing("sadd") {
		return errBackend
	}
	return f.MemoryCache.SetAdd(ctx, key, ttl, members...)
}

func (f *flakyCache) SetMembers(ctx context.Context, key string) ([]string, error) {
	if f.failing("smembers") {
		return nil, errBackend
	}
	return f.MemoryCache.SetMembers(ctx, key)
}

type fixture struct {
	clock *testClock
	cache *flakyCache
	mgr   *session.Manager
}

func newFixture(opts ...session.Option) *fixture {
	clock := newTestClock()
	cache := newFlakyCache(clock)
	base := []session.Option{
		session.WithClock(clock.Now),
		session.WithTTL(time.Hour),
		session.WithRollingWindow(10 * time.Minute),
		session.WithAbsoluteMaxAge(3 * time.Hour),
		session.WithMaxConcurrent(0),
	}
	mgr := session.NewManager(session.NewStore(cache), append(base, opts...)...)
	return &fixture{clock: clock, cache: cache, mgr: mgr}
}

func (f *fixture) create(ctx context.Context, userID string) session.Session {
	sess, err := f.mgr.Create(ctx, session.CreateParams{
		UserID:      userID,
		Email:       userID + "@example.com",
		DisplayName: "User " + userID,
		ClientInfo:  map[string]string{session.ClientIP: "203.0.113.7", session.ClientReason: session.ReasonLogin},
	})
	if err != nil {
		panic(err)
	}
	return sess
}
