package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/palmistry/core/session"
	"github.com/dmitrymomot/palmistry/pkg/token"
)

func TestManager_Create(t *testing.T) {
	t.Parallel()

	t.Run("stores session and returns identifiers", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		ctx := context.Background()

		sess := f.create(ctx, "user-1")

		assert.Len(t, sess.ID, token.EncodedLen(token.SessionIDBytes))
		assert.Len(t, sess.CSRFToken, token.EncodedLen(token.CSRFTokenBytes))
		assert.Equal(t, f.clock.Now(), sess.CreatedAt)
		assert.Equal(t, sess.CreatedAt, sess.LastActivityAt)
		assert.Zero(t, sess.RotationCount)

		loaded, err := f.mgr.Get(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, "user-1", loaded.UserID)
		assert.Equal(t, "user-1@example.com", loaded.Email)
		assert.Equal(t, sess.CSRFToken, loaded.CSRFToken)
		assert.Equal(t, "203.0.113.7", loaded.ClientInfo[session.ClientIP])

		list := f.mgr.ListUserSessions(ctx, "user-1")
		require.Len(t, list, 1)
		assert.Equal(t, sess.ID, list[0].ID)
	})

	t.Run("requires user id", func(t *testing.T) {
		t.Parallel()
		f := newFixture()

		_, err := f.mgr.Create(context.Background(), session.CreateParams{})
		assert.ErrorIs(t, err, session.ErrMissingUserID)
	})

	t.Run("fails when store write fails", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		f.cache.FailOn("set")

		_, err := f.mgr.Create(context.Background(), session.CreateParams{UserID: "user-1"})
		assert.ErrorIs(t, err, session.ErrSaveSession)
		assert.Empty(t, f.mgr.ListUserSessions(context.Background(), "user-1"))
	})

	t.Run("succeeds when only the index write fails", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		f.cache.FailOn("sadd")
		ctx := context.Background()

		sess, err := f.mgr.Create(ctx, session.CreateParams{UserID: "user-1"})
		require.NoError(t, err)

		_, err = f.mgr.Get(ctx, sess.ID)
		assert.NoError(t, err)
	})

	t.Run("csrf tokens are unique per session", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		ctx := context.Background()

		a := f.create(ctx, "user-1")
		b := f.create(ctx, "user-1")
		assert.NotEqual(t, a.ID, b.ID)
		assert.NotEqual(t, a.CSRFToken, b.CSRFToken)
	})
}

func TestManager_ConcurrentSessionCap(t *testing.T) {
	t.Parallel()

	t.Run("limit plus one leaves the newest limit sessions", func(t *testing.T) {
		t.Parallel()
		const limit = 3
		f := newFixture(session.WithMaxConcurrent(limit))
		ctx := context.Background()

		var created []session.Session
		for range limit + 1 {
			created = append(created, f.create(ctx, "user-1"))
			f.clock.Advance(time.Second)
		}

		list := f.mgr.ListUserSessions(ctx, "user-1")
		require.Len(t, list, limit)

		ids := make([]string, 0, len(list))
		for _, info := range list {
			ids = append(ids, info.ID)
		}
		for _, sess := range created[1:] {
			assert.Contains(t, ids, sess.ID)
		}

		_, err := f.mgr.Get(ctx, created[0].ID)
		assert.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("expired index entries do not count against the limit", func(t *testing.T) {
		t.Parallel()
		f := newFixture(session.WithMaxConcurrent(2))
		ctx := context.Background()

		first := f.create(ctx, "user-1")
		f.clock.Advance(61 * time.Minute) // first expires by TTL
		second := f.create(ctx, "user-1")
		third := f.create(ctx, "user-1")

		_, err := f.mgr.Get(ctx, first.ID)
		assert.ErrorIs(t, err, session.ErrNotFound)
		_, err = f.mgr.Get(ctx, second.ID)
		assert.NoError(t, err)
		_, err = f.mgr.Get(ctx, third.ID)
		assert.NoError(t, err)
	})

	t.Run("limit is per user", func(t *testing.T) {
		t.Parallel()
		f := newFixture(session.WithMaxConcurrent(1))
		ctx := context.Background()

		a := f.create(ctx, "user-a")
		b := f.create(ctx, "user-b")

		_, err := f.mgr.Get(ctx, a.ID)
		assert.NoError(t, err)
		_, err = f.mgr.Get(ctx, b.ID)
		assert.NoError(t, err)
	})
}

func TestManager_Rotate(t *testing.T) {
	t.Parallel()

	t.Run("preserves identity and changes secrets", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		ctx := context.Background()

		old := f.create(ctx, "user-1")
		f.clock.Advance(time.Minute)

		next, err := f.mgr.Rotate(ctx, old.ID)
		require.NoError(t, err)

		assert.NotEqual(t, old.ID, next.ID)
		assert.NotEqual(t, old.CSRFToken, next.CSRFToken)
		assert.Equal(t, old.UserID, next.UserID)
		assert.Equal(t, old.Email, next.Email)
		assert.Equal(t, old.CreatedAt, next.CreatedAt)
		assert.Equal(t, old.RotationCount+1, next.RotationCount)
		assert.Equal(t, old.ID, next.RotatedFrom)
		assert.Equal(t, f.clock.Now(), next.LastActivityAt)

		_, err = f.mgr.Get(ctx, old.ID)
		assert.ErrorIs(t, err, session.ErrNotFound)

		loaded, err := f.mgr.Get(ctx, next.ID)
		require.NoError(t, err)
		assert.Equal(t, next.CSRFToken, loaded.CSRFToken)

		list := f.mgr.ListUserSessions(ctx, "user-1")
		require.Len(t, list, 1)
		assert.Equal(t, next.ID, list[0].ID)
	})

	t.Run("increments rotation count each time", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		ctx := context.Background()

		sess := f.create(ctx, "user-1")
		for i := 1; i <= 3; i++ {
			var err error
			sess, err = f.mgr.Rotate(ctx, sess.ID)
			require.NoError(t, err)
			assert.Equal(t, i, sess.RotationCount)
		}
	})

	t.Run("missing session", func(t *testing.T) {
		t.Parallel()
		f := newFixture()

		_, err := f.mgr.Rotate(context.Background(), "does-not-exist")
		assert.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("failed write keeps the old session valid", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		ctx := context.Background()

		old := f.create(ctx, "user-1")
		f.cache.FailOn("set")

		_, err := f.mgr.Rotate(ctx, old.ID)
		require.ErrorIs(t, err, session.ErrSaveSession)

		f.cache.Heal()
		loaded, err := f.mgr.Get(ctx, old.ID)
		require.NoError(t, err)
		assert.Equal(t, old.CSRFToken, loaded.CSRFToken)
		assert.Len(t, f.mgr.ListUserSessions(ctx, "user-1"), 1)
	})
}

func TestManager_RefreshActivity(t *testing.T) {
	t.Parallel()

	t.Run("absent session", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		assert.False(t, f.mgr.RefreshActivity(context.Background(), "nope"))
	})

	t.Run("inside rolling window does not write", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		ctx := context.Background()

		sess := f.create(ctx, "user-1")
		f.clock.Advance(5 * time.Minute)

		assert.True(t, f.mgr.RefreshActivity(ctx, sess.ID))

		loaded, err := f.mgr.Get(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, sess.LastActivityAt, loaded.LastActivityAt)

		info, err := f.mgr.Info(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, int64((55 * time.Minute).Seconds()), info.ExpiresIn)
	})

	t.Run("past rolling window updates activity and extends ttl", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		ctx := context.Background()

		sess := f.create(ctx, "user-1")
		f.clock.Advance(11 * time.Minute)

		assert.True(t, f.mgr.RefreshActivity(ctx, sess.ID))

		info, err := f.mgr.Info(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, f.clock.Now(), info.LastActivityAt)
		assert.Equal(t, int64(time.Hour.Seconds()), info.ExpiresIn)
		assert.Equal(t, int64(0), info.IdleSeconds)
		assert.Equal(t, int64(11*60), info.AgeSeconds)
	})

	t.Run("survives past original expiry but never past absolute max age", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		ctx := context.Background()

		sess := f.create(ctx, "user-1")
		deadline := sess.CreatedAt.Add(3 * time.Hour)

		for !f.clock.Now().Add(9 * time.Minute).After(deadline) {
			f.clock.Advance(9 * time.Minute)
			require.True(t, f.mgr.RefreshActivity(ctx, sess.ID), "alive at %s", f.clock.Now().Sub(sess.CreatedAt))
		}
		assert.True(t, f.clock.Now().After(sess.CreatedAt.Add(time.Hour)), "outlived original TTL")

		f.clock.Advance(9 * time.Minute)
		assert.False(t, f.mgr.RefreshActivity(ctx, sess.ID))

		_, err := f.mgr.Get(ctx, sess.ID)
		assert.ErrorIs(t, err, session.ErrNotFound)
		assert.Empty(t, f.mgr.ListUserSessions(ctx, "user-1"))
	})

	t.Run("store ttl never exceeds absolute deadline", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		ctx := context.Background()

		sess := f.create(ctx, "user-1")
		for range 3 {
			f.clock.Advance(50 * time.Minute)
			require.True(t, f.mgr.RefreshActivity(ctx, sess.ID))
		}

		info, err := f.mgr.Info(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, int64((30*time.Minute + time.Second).Seconds()), info.ExpiresIn)
	})

	t.Run("valid at exactly absolute max age", func(t *testing.T) {
		t.Parallel()
		f := newFixture(session.WithTTL(48*time.Hour), session.WithAbsoluteMaxAge(24*time.Hour))
		ctx := context.Background()

		sess := f.create(ctx, "user-1")
		f.clock.Advance(24 * time.Hour)
		assert.True(t, f.mgr.RefreshActivity(ctx, sess.ID))

		_, err := f.mgr.Get(ctx, sess.ID)
		require.NoError(t, err)

		f.clock.Advance(time.Nanosecond)
		assert.False(t, f.mgr.RefreshActivity(ctx, sess.ID))
		_, err = f.mgr.Get(ctx, sess.ID)
		assert.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("idle longer than ttl expires", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		ctx := context.Background()

		sess := f.create(ctx, "user-1")
		f.clock.Advance(time.Hour + time.Second)

		assert.False(t, f.mgr.RefreshActivity(ctx, sess.ID))
	})
}

func TestManager_InvalidateUserSessions(t *testing.T) {
	t.Parallel()

	t.Run("keeps the preserved session", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		ctx := context.Background()

		a := f.create(ctx, "user-1")
		b := f.create(ctx, "user-1")
		c := f.create(ctx, "user-1")
		other := f.create(ctx, "user-2")

		n := f.mgr.InvalidateUserSessions(ctx, "user-1", b.ID)
		assert.Equal(t, 2, n)

		for _, id := range []string{a.ID, c.ID} {
			_, err := f.mgr.Get(ctx, id)
			assert.ErrorIs(t, err, session.ErrNotFound)
		}
		_, err := f.mgr.Get(ctx, b.ID)
		assert.NoError(t, err)
		_, err = f.mgr.Get(ctx, other.ID)
		assert.NoError(t, err)

		list := f.mgr.ListUserSessions(ctx, "user-1")
		require.Len(t, list, 1)
		assert.Equal(t, b.ID, list[0].ID)
	})

	t.Run("without exception removes everything", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		ctx := context.Background()

		f.create(ctx, "user-1")
		f.create(ctx, "user-1")

		assert.Equal(t, 2, f.mgr.InvalidateUserSessions(ctx, "user-1", ""))
		assert.Empty(t, f.mgr.ListUserSessions(ctx, "user-1"))
	})

	t.Run("unknown user", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		assert.Zero(t, f.mgr.InvalidateUserSessions(context.Background(), "ghost", ""))
	})
}

func TestManager_ListUserSessions(t *testing.T) {
	t.Parallel()

	t.Run("drops expired sessions and orders newest first", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		ctx := context.Background()

		f.create(ctx, "user-1")
		f.clock.Advance(30 * time.Minute)
		second := f.create(ctx, "user-1")
		f.clock.Advance(10 * time.Minute)
		third := f.create(ctx, "user-1")
		f.clock.Advance(31 * time.Minute) // first is now 71 minutes idle

		list := f.mgr.ListUserSessions(ctx, "user-1")
		require.Len(t, list, 2)
		assert.Equal(t, third.ID, list[0].ID)
		assert.Equal(t, second.ID, list[1].ID)
		assert.Equal(t, int64(41*60), list[1].AgeSeconds)
		assert.Equal(t, int64(41*60), list[1].IdleSeconds)
		assert.Equal(t, int64(19*60), list[1].ExpiresIn)
	})

	t.Run("backend failure yields empty list", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		ctx := context.Background()

		f.create(ctx, "user-1")
		f.cache.FailOn("smembers")

		assert.Empty(t, f.mgr.ListUserSessions(ctx, "user-1"))
	})
}

func TestManager_Delete(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	sess := f.create(ctx, "user-1")
	assert.True(t, f.mgr.Delete(ctx, sess.ID))
	assert.False(t, f.mgr.Delete(ctx, sess.ID))

	_, err := f.mgr.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)
	assert.Empty(t, f.mgr.ListUserSessions(ctx, "user-1"))
}

func TestManager_GetDegradesOnBackendFailure(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	sess := f.create(ctx, "user-1")
	f.cache.FailOn("get")

	_, err := f.mgr.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)
	assert.False(t, f.mgr.RefreshActivity(ctx, sess.ID))
}
