package session

import (
	"cmp"
	"context"
	"io"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/dmitrymomot/palmistry/core/logger"
	"github.com/dmitrymomot/palmistry/pkg/token"
)

// Manager handles session lifecycle: creation with a per-user concurrency cap,
// rolling activity refresh bounded by an absolute max age, identifier rotation,
// enumeration and mass invalidation.
//
// Manager holds no in-process locks. Concurrent rotation of one session is
// last-write-wins: the losing caller receives an identifier that may already be
// superseded.
type Manager struct {
	store   *Store
	cfg     Config
	now     func() time.Time
	newID   func() string
	newCSRF func() string
	logger  *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(m *Manager) {
		m.cfg = cfg
	}
}

// WithTTL sets the session store expiry.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.cfg.TTL = ttl
	}
}

// WithRollingWindow sets the minimum time between activity writes.
func WithRollingWindow(d time.Duration) Option {
	return func(m *Manager) {
		m.cfg.RollingWindow = d
	}
}

// WithAbsoluteMaxAge sets the hard lifetime ceiling.
func WithAbsoluteMaxAge(d time.Duration) Option {
	return func(m *Manager) {
		m.cfg.AbsoluteMaxAge = d
	}
}

// WithMaxConcurrent limits live sessions per user. 0 disables the limit.
func WithMaxConcurrent(n int) Option {
	return func(m *Manager) {
		m.cfg.MaxConcurrent = n
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithIDGenerator overrides session ID and CSRF token generation.
func WithIDGenerator(sessionID, csrfToken func() string) Option {
	return func(m *Manager) {
		if sessionID != nil {
			m.newID = sessionID
		}
		if csrfToken != nil {
			m.newCSRF = csrfToken
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates a session manager on top of store.
func NewManager(store *Store, opts ...Option) *Manager {
	if store == nil {
		panic("session: store is required")
	}
	m := &Manager{
		store:   store,
		cfg:     DefaultConfig(),
		now:     time.Now,
		newID:   token.NewSessionID,
		newCSRF: token.NewCSRFToken,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.cfg = m.cfg.normalize()
	return m
}

// Config returns the effective configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// Create establishes a new session for a user and returns it with its
// identifier and CSRF token. When the user is at the concurrency limit the
// oldest sessions are evicted first. A failed write returns ErrSaveSession.
func (m *Manager) Create(ctx context.Context, p CreateParams) (Session, error) {
	if p.UserID == "" {
		return Session{}, ErrMissingUserID
	}

	now := m.now()
	sess := Session{
		ID:             m.newID(),
		UserID:         p.UserID,
		Email:          p.Email,
		DisplayName:    p.DisplayName,
		CSRFToken:      m.newCSRF(),
		CreatedAt:      now,
		LastActivityAt: now,
		ClientInfo:     maps.Clone(p.ClientInfo),
	}

	if m.cfg.MaxConcurrent > 0 {
		m.enforceLimit(ctx, p.UserID, now)
	}

	if !m.store.Set(ctx, m.sessionKey(sess.ID), sess, m.ttlFor(sess, now)) {
		return Session{}, ErrSaveSession
	}

	if !m.store.IndexAdd(ctx, m.indexKey(sess.UserID), sess.ID, m.cfg.indexTTL()) {
		// The record is authoritative; an unindexed session still works and expires by TTL.
		m.logger.WarnContext(ctx, "session created but not indexed",
			logger.Component("session"),
			logger.UserID(sess.UserID),
			logger.SessionID(sess.ID),
		)
	}

	m.logger.InfoContext(ctx, "session created",
		logger.Component("session"),
		logger.UserID(sess.UserID),
		logger.SessionID(sess.ID),
		logger.Reason(sess.ClientInfo[ClientReason]),
	)

	return sess, nil
}

// Get loads a live session. Sessions past their absolute max age are deleted
// and reported as ErrExpired.
func (m *Manager) Get(ctx context.Context, id string) (Session, error) {
	sess, ok := m.load(ctx, id)
	if !ok {
		return Session{}, ErrNotFound
	}
	if m.pastAbsolute(sess, m.now()) {
		m.destroy(ctx, sess)
		return Session{}, ErrExpired
	}
	return sess, nil
}

// Info returns a projection of a session with derived timings.
func (m *Manager) Info(ctx context.Context, id string) (Info, error) {
	sess, err := m.Get(ctx, id)
	if err != nil {
		return Info{}, err
	}
	ttl, known := m.store.TTL(ctx, m.sessionKey(id))
	return sess.info(m.now(), ttl, known && ttl >= 0), nil
}

// Rotate replaces a session's identifier and CSRF token while keeping its
// payload. The new record is written before the old one is touched, so a
// failed write leaves the old session valid.
func (m *Manager) Rotate(ctx context.Context, oldID string) (Session, error) {
	old, err := m.Get(ctx, oldID)
	if err != nil {
		return Session{}, err
	}

	now := m.now()
	next := old.clone()
	next.ID = m.newID()
	next.CSRFToken = m.newCSRF()
	next.RotationCount = old.RotationCount + 1
	next.LastActivityAt = now
	next.RotatedFrom = old.ID

	if !m.store.Set(ctx, m.sessionKey(next.ID), next, m.ttlFor(next, now)) {
		return Session{}, ErrSaveSession
	}

	if !m.store.IndexSwap(ctx, m.indexKey(next.UserID), old.ID, next.ID, m.cfg.indexTTL()) {
		m.logger.WarnContext(ctx, "session index not updated on rotation",
			logger.Component("session"),
			logger.UserID(next.UserID),
			logger.SessionID(next.ID),
		)
	}

	if !m.store.Delete(ctx, m.sessionKey(old.ID)) {
		m.logger.WarnContext(ctx, "superseded session not deleted",
			logger.Component("session"),
			logger.SessionID(old.ID),
		)
	}

	m.logger.InfoContext(ctx, "session rotated",
		logger.Component("session"),
		logger.UserID(next.UserID),
		logger.SessionID(next.ID),
		logger.Count("rotation_count", next.RotationCount),
	)

	return next, nil
}

// RefreshActivity implements rolling expiry. It reports false if the session
// is absent or has outlived the absolute max age (in which case it is
// deleted). Once the rolling window has elapsed since the last recorded
// activity, the activity time is updated and the store TTL re-extended;
// inside the window nothing is written.
func (m *Manager) RefreshActivity(ctx context.Context, id string) bool {
	sess, ok := m.load(ctx, id)
	if !ok {
		return false
	}

	now := m.now()
	if m.pastAbsolute(sess, now) {
		m.destroy(ctx, sess)
		m.logger.InfoContext(ctx, "session reached absolute max age",
			logger.Component("session"),
			logger.UserID(sess.UserID),
			logger.SessionID(sess.ID),
		)
		return false
	}

	if now.Sub(sess.LastActivityAt) <= m.cfg.RollingWindow {
		return true
	}

	sess.LastActivityAt = now
	if !m.store.Set(ctx, m.sessionKey(sess.ID), sess, m.ttlFor(sess, now)) {
		// The existing record and its TTL are still in place.
		m.logger.WarnContext(ctx, "session activity not recorded",
			logger.Component("session"),
			logger.SessionID(sess.ID),
		)
	}
	return true
}

// Delete removes a single session (logout). It reports whether a record was removed.
func (m *Manager) Delete(ctx context.Context, id string) bool {
	sess, ok := m.load(ctx, id)
	if !ok {
		return false
	}
	return m.destroy(ctx, sess)
}

// InvalidateUserSessions deletes every session of a user except the optional
// preserved one and rebuilds the user's index to contain only that one.
// It returns the number of sessions deleted.
func (m *Manager) InvalidateUserSessions(ctx context.Context, userID, except string) int {
	indexKey := m.indexKey(userID)
	members := m.store.IndexMembers(ctx, indexKey)

	deleted := 0
	keep := make([]string, 0, 1)
	for _, id := range members {
		if except != "" && id == except {
			if m.store.Exists(ctx, m.sessionKey(id)) {
				keep = append(keep, id)
			}
			continue
		}
		if m.store.Delete(ctx, m.sessionKey(id)) {
			deleted++
		}
	}

	m.store.IndexReplace(ctx, indexKey, m.cfg.indexTTL(), keep...)

	m.logger.InfoContext(ctx, "user sessions invalidated",
		logger.Component("session"),
		logger.UserID(userID),
		logger.Count("deleted", deleted),
		logger.Count("kept", len(keep)),
	)

	return deleted
}

// ListUserSessions returns the user's live sessions, newest first.
// Index entries whose records have expired are dropped and pruned.
func (m *Manager) ListUserSessions(ctx context.Context, userID string) []Info {
	live, stale := m.userSessions(ctx, userID)
	if len(stale) > 0 {
		m.store.IndexRemove(ctx, m.indexKey(userID), stale...)
	}

	now := m.now()
	out := make([]Info, 0, len(live))
	for i := len(live) - 1; i >= 0; i-- {
		sess := live[i]
		ttl, known := m.store.TTL(ctx, m.sessionKey(sess.ID))
		out = append(out, sess.info(now, ttl, known && ttl >= 0))
	}
	return out
}

// enforceLimit evicts the oldest sessions until one slot is free.
func (m *Manager) enforceLimit(ctx context.Context, userID string, now time.Time) {
	live, stale := m.userSessions(ctx, userID)

	var evicted []string
	for len(live) >= m.cfg.MaxConcurrent {
		oldest := live[0]
		live = live[1:]
		m.store.Delete(ctx, m.sessionKey(oldest.ID))
		evicted = append(evicted, oldest.ID)
	}

	if drop := append(stale, evicted...); len(drop) > 0 {
		m.store.IndexRemove(ctx, m.indexKey(userID), drop...)
	}

	if len(evicted) > 0 {
		m.logger.InfoContext(ctx, "evicted sessions over concurrency limit",
			logger.Component("session"),
			logger.UserID(userID),
			logger.Count("evicted", len(evicted)),
			logger.Count("limit", m.cfg.MaxConcurrent),
		)
	}
}

// userSessions loads every indexed session of a user, oldest first.
// Sessions past the absolute max age count as stale.
func (m *Manager) userSessions(ctx context.Context, userID string) (live []Session, stale []string) {
	now := m.now()
	for _, id := range m.store.IndexMembers(ctx, m.indexKey(userID)) {
		sess, ok := m.load(ctx, id)
		if !ok || m.pastAbsolute(sess, now) {
			stale = append(stale, id)
			continue
		}
		live = append(live, sess)
	}
	slices.SortFunc(live, func(a, b Session) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return live, stale
}

func (m *Manager) load(ctx context.Context, id string) (Session, bool) {
	if id == "" {
		return Session{}, false
	}
	var sess Session
	if !m.store.Get(ctx, m.sessionKey(id), &sess) {
		return Session{}, false
	}
	return sess, true
}

// destroy deletes the record and its index entry.
func (m *Manager) destroy(ctx context.Context, sess Session) bool {
	removed := m.store.Delete(ctx, m.sessionKey(sess.ID))
	m.store.IndexRemove(ctx, m.indexKey(sess.UserID), sess.ID)
	return removed
}

func (m *Manager) pastAbsolute(sess Session, now time.Time) bool {
	if m.cfg.AbsoluteMaxAge <= 0 {
		return false
	}
	return now.Sub(sess.CreatedAt) > m.cfg.AbsoluteMaxAge
}

// ttlFor is the full session TTL, capped one second past the absolute
// deadline. A session is still valid at exactly its max age.
func (m *Manager) ttlFor(sess Session, now time.Time) time.Duration {
	ttl := m.cfg.TTL
	if m.cfg.AbsoluteMaxAge > 0 {
		if rem := sess.CreatedAt.Add(m.cfg.AbsoluteMaxAge).Sub(now) + time.Second; rem < ttl {
			ttl = rem
		}
	}
	if ttl < time.Second {
		ttl = time.Second
	}
	return ttl
}

func (m *Manager) sessionKey(id string) string {
	return m.cfg.KeyPrefix + id
}

func (m *Manager) indexKey(userID string) string {
	return m.cfg.IndexPrefix + userID
}
