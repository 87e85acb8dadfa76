package pg_test

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/palmistry/core/conversation"
	"github.com/dmitrymomot/palmistry/core/logger"
	"github.com/dmitrymomot/palmistry/integration/database/pg"
)

func connect(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.Connect(ctx, pg.Config{ConnectionString: url, RetryAttempts: 1})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pg.Healthcheck(pool)(ctx))
	require.NoError(t, pg.Migrate(ctx, pool, logger.Discard()))
	return pool
}

func seedAnalysis(t *testing.T, pool *pgxpool.Pool, userID string) string {
	t.Helper()
	id := uuid.NewString()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO analyses (id, user_id, status, summary, report, image_keys) VALUES ($1, $2, 'completed', 'sum', 'report', $3)`,
		id, userID, []string{"left.jpg", "right.jpg"},
	)
	require.NoError(t, err)
	return id
}

func newConversation(analysisID, userID string, maxQuestions int) conversation.Conversation {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return conversation.Conversation{
		ID:            uuid.NewString(),
		AnalysisID:    analysisID,
		UserID:        userID,
		Summary:       "sum",
		Report:        "report",
		Files:         []conversation.FileRef{{ImageKey: "left.jpg", FileID: "file-1"}},
		MaxQuestions:  maxQuestions,
		IsActive:      true,
		CreatedAt:     now,
		LastMessageAt: now,
	}
}

func exchange(convID string, at time.Time) (conversation.Message, conversation.Message) {
	q := conversation.Message{ID: uuid.NewString(), ConversationID: convID, Role: conversation.RoleUser, Content: "What does my heart line say?", CreatedAt: at}
	a := conversation.Message{ID: uuid.NewString(), ConversationID: convID, Role: conversation.RoleAssistant, Content: "It is long and curved.", TokensUsed: 120, Cost: 0.0012, CreatedAt: at.Add(time.Microsecond)}
	return q, a
}

func TestRepository(t *testing.T) {
	pool := connect(t)
	repo := pg.NewRepository(pool)
	ctx := context.Background()
	userID := uuid.NewString()

	t.Run("analysis", func(t *testing.T) {
		id := seedAnalysis(t, pool, userID)
		a, err := repo.GetAnalysis(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, conversation.AnalysisCompleted, a.Status)
		assert.Equal(t, []string{"left.jpg", "right.jpg"}, a.ImageKeys)

		_, err = repo.GetAnalysis(ctx, uuid.NewString())
		assert.ErrorIs(t, err, conversation.ErrAnalysisNotFound)
	})

	t.Run("one conversation per analysis", func(t *testing.T) {
		analysisID := seedAnalysis(t, pool, userID)
		c := newConversation(analysisID, userID, 5)
		require.NoError(t, repo.CreateConversation(ctx, c))

		err := repo.CreateConversation(ctx, newConversation(analysisID, userID, 5))
		assert.ErrorIs(t, err, conversation.ErrConversationExists)

		got, err := repo.GetConversationByAnalysis(ctx, analysisID)
		require.NoError(t, err)
		assert.Equal(t, c.ID, got.ID)
		assert.Equal(t, c.Files, got.Files)
		assert.True(t, got.IsActive)
	})

	t.Run("unknown analysis", func(t *testing.T) {
		err := repo.CreateConversation(ctx, newConversation(uuid.NewString(), userID, 5))
		assert.ErrorIs(t, err, conversation.ErrAnalysisNotFound)
	})

	t.Run("update files", func(t *testing.T) {
		c := newConversation(seedAnalysis(t, pool, userID), userID, 5)
		require.NoError(t, repo.CreateConversation(ctx, c))

		files := []conversation.FileRef{{ImageKey: "left.jpg", FileID: "file-2"}}
		require.NoError(t, repo.UpdateFiles(ctx, c.ID, files))

		got, err := repo.GetConversation(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, files, got.Files)

		assert.ErrorIs(t, repo.UpdateFiles(ctx, uuid.NewString(), files), conversation.ErrConversationNotFound)
	})

	t.Run("record exchange enforces budget", func(t *testing.T) {
		c := newConversation(seedAnalysis(t, pool, userID), userID, 2)
		require.NoError(t, repo.CreateConversation(ctx, c))

		base := time.Now().UTC().Truncate(time.Microsecond)
		for i := range 2 {
			q, a := exchange(c.ID, base.Add(time.Duration(i)*time.Second))
			updated, err := repo.RecordExchange(ctx, c.ID, q, a)
			require.NoError(t, err)
			assert.Equal(t, i+1, updated.QuestionsAsked)
		}

		q, a := exchange(c.ID, base.Add(time.Minute))
		_, err := repo.RecordExchange(ctx, c.ID, q, a)
		assert.ErrorIs(t, err, conversation.ErrBudgetExhausted)

		spent, err := repo.GetConversation(ctx, c.ID)
		require.NoError(t, err)
		assert.True(t, spent.IsActive, "exhaustion does not deactivate")

		msgs, err := repo.ListMessages(ctx, c.ID, 0)
		require.NoError(t, err)
		require.Len(t, msgs, 4)
		assert.Equal(t, conversation.RoleUser, msgs[0].Role)
		assert.Equal(t, conversation.RoleAssistant, msgs[3].Role)

		latest, err := repo.ListMessages(ctx, c.ID, 2)
		require.NoError(t, err)
		assert.Equal(t, msgs[2:], latest)

		_, err = repo.RecordExchange(ctx, uuid.NewString(), q, a)
		assert.ErrorIs(t, err, conversation.ErrConversationNotFound)
	})

	t.Run("concurrent exchanges", func(t *testing.T) {
		c := newConversation(seedAnalysis(t, pool, userID), userID, 3)
		require.NoError(t, repo.CreateConversation(ctx, c))

		var ok atomic.Int32
		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				q, a := exchange(c.ID, time.Now().UTC())
				if _, err := repo.RecordExchange(ctx, c.ID, q, a); err == nil {
					ok.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(3), ok.Load())
		got, err := repo.GetConversation(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, got.QuestionsAsked)
	})

	t.Run("joins context transaction", func(t *testing.T) {
		c := newConversation(seedAnalysis(t, pool, userID), userID, 5)
		require.NoError(t, repo.CreateConversation(ctx, c))

		tx, err := pool.Begin(ctx)
		require.NoError(t, err)
		txCtx := pg.WithTx(ctx, tx)

		require.NoError(t, repo.UpdateFiles(txCtx, c.ID, nil))
		require.NoError(t, tx.Rollback(ctx))

		got, err := repo.GetConversation(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, c.Files, got.Files)

		_, ok := pg.TxFromContext(txCtx)
		assert.True(t, ok)
		assert.True(t, pg.IsTxClosedError(tx.Commit(ctx)))
	})

	t.Run("missing conversation", func(t *testing.T) {
		_, err := repo.GetConversation(ctx, uuid.NewString())
		assert.ErrorIs(t, err, conversation.ErrConversationNotFound)
	})
}
