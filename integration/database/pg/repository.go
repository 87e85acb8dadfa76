package pg

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/palmistry/core/conversation"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository implements conversation.Repository on PostgreSQL.
// Operations join a transaction carried by the context (see WithTx).
type Repository struct {
	pool *pgxpool.Pool
}

var _ conversation.Repository = (*Repository)(nil)

// NewRepository creates a Repository backed by pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) db(ctx context.Context) querier {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}
	return r.pool
}

const conversationColumns = `id, analysis_id, user_id, summary, report, files,
	questions_asked, max_questions, is_active, created_at, last_message_at`

func (r *Repository) GetAnalysis(ctx context.Context, id string) (conversation.Analysis, error) {
	const q = `SELECT id, user_id, status, summary, report, image_keys, created_at
		FROM analyses WHERE id = $1`

	var a conversation.Analysis
	var status string
	err := r.db(ctx).QueryRow(ctx, q, id).Scan(
		&a.ID, &a.UserID, &status, &a.Summary, &a.Report, &a.ImageKeys, &a.CreatedAt,
	)
	if err != nil {
		if IsNotFoundError(err) {
			return conversation.Analysis{}, conversation.ErrAnalysisNotFound
		}
		return conversation.Analysis{}, fmt.Errorf("get analysis: %w", err)
	}
	a.Status = conversation.AnalysisStatus(status)
	return a, nil
}

func (r *Repository) GetConversation(ctx context.Context, id string) (conversation.Conversation, error) {
	q := `SELECT ` + conversationColumns + ` FROM followup_conversations WHERE id = $1`
	return r.getConversation(ctx, q, id)
}

func (r *Repository) GetConversationByAnalysis(ctx context.Context, analysisID string) (conversation.Conversation, error) {
	q := `SELECT ` + conversationColumns + ` FROM followup_conversations WHERE analysis_id = $1`
	return r.getConversation(ctx, q, analysisID)
}

func (r *Repository) getConversation(ctx context.Context, q string, arg string) (conversation.Conversation, error) {
	c, err := scanConversation(r.db(ctx).QueryRow(ctx, q, arg))
	if err != nil {
		if IsNotFoundError(err) {
			return conversation.Conversation{}, conversation.ErrConversationNotFound
		}
		return conversation.Conversation{}, fmt.Errorf("get conversation: %w", err)
	}
	return c, nil
}

func (r *Repository) CreateConversation(ctx context.Context, c conversation.Conversation) error {
	const q = `INSERT INTO followup_conversations (` + conversationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	files, err := encodeFiles(c.Files)
	if err != nil {
		return err
	}

	_, err = r.db(ctx).Exec(ctx, q,
		c.ID, c.AnalysisID, c.UserID, c.Summary, c.Report, files,
		c.QuestionsAsked, c.MaxQuestions, c.IsActive, c.CreatedAt, c.LastMessageAt,
	)
	if err != nil {
		if IsDuplicateKeyError(err) {
			return conversation.ErrConversationExists
		}
		if IsForeignKeyViolationError(err) {
			return conversation.ErrAnalysisNotFound
		}
		return fmt.Errorf("create conversation: %w", err)
	}
	return nil
}

func (r *Repository) UpdateFiles(ctx context.Context, conversationID string, files []conversation.FileRef) error {
	const q = `UPDATE followup_conversations SET files = $2 WHERE id = $1`

	data, err := encodeFiles(files)
	if err != nil {
		return err
	}

	tag, err := r.db(ctx).Exec(ctx, q, conversationID, data)
	if err != nil {
		return fmt.Errorf("update files: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return conversation.ErrConversationNotFound
	}
	return nil
}

func (r *Repository) ListMessages(ctx context.Context, conversationID string, limit int) ([]conversation.Message, error) {
	// Latest rows first, then reversed in SQL to chronological order.
	const q = `SELECT id, conversation_id, role, content, tokens_used, cost, created_at FROM (
			SELECT id, conversation_id, role, content, tokens_used, cost, created_at, seq
			FROM followup_messages
			WHERE conversation_id = $1
			ORDER BY created_at DESC, seq DESC
			LIMIT $2
		) latest ORDER BY created_at ASC, seq ASC`

	var lim *int
	if limit > 0 {
		lim = &limit
	}

	rows, err := r.db(ctx).Query(ctx, q, conversationID, lim)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	msgs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (conversation.Message, error) {
		var m conversation.Message
		var role string
		err := row.Scan(&m.ID, &m.ConversationID, &role, &m.Content, &m.TokensUsed, &m.Cost, &m.CreatedAt)
		m.Role = conversation.Role(role)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// RecordExchange increments the counter only while it is below the limit and
// inserts both messages in the same transaction.
func (r *Repository) RecordExchange(ctx context.Context, conversationID string, question, answer conversation.Message) (conversation.Conversation, error) {
	const bump = `UPDATE followup_conversations
		SET questions_asked = questions_asked + 1, last_message_at = $2
		WHERE id = $1 AND questions_asked < max_questions
		RETURNING ` + conversationColumns

	const insert = `INSERT INTO followup_messages
		(id, conversation_id, role, content, tokens_used, cost, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	var updated conversation.Conversation
	err := pgx.BeginFunc(ctx, r.db(ctx), func(tx pgx.Tx) error {
		c, err := scanConversation(tx.QueryRow(ctx, bump, conversationID, answer.CreatedAt))
		if err != nil {
			if !IsNotFoundError(err) {
				return fmt.Errorf("increment questions: %w", err)
			}
			var exists bool
			if err := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM followup_conversations WHERE id = $1)`, conversationID,
			).Scan(&exists); err != nil {
				return fmt.Errorf("check conversation: %w", err)
			}
			if !exists {
				return conversation.ErrConversationNotFound
			}
			return conversation.ErrBudgetExhausted
		}

		for _, m := range []conversation.Message{question, answer} {
			if _, err := tx.Exec(ctx, insert,
				m.ID, conversationID, string(m.Role), m.Content, m.TokensUsed, m.Cost, m.CreatedAt,
			); err != nil {
				return fmt.Errorf("insert message: %w", err)
			}
		}
		updated = c
		return nil
	})
	if err != nil {
		return conversation.Conversation{}, err
	}
	return updated, nil
}

func scanConversation(row pgx.Row) (conversation.Conversation, error) {
	var c conversation.Conversation
	var files []byte
	err := row.Scan(
		&c.ID, &c.AnalysisID, &c.UserID, &c.Summary, &c.Report, &files,
		&c.QuestionsAsked, &c.MaxQuestions, &c.IsActive, &c.CreatedAt, &c.LastMessageAt,
	)
	if err != nil {
		return conversation.Conversation{}, err
	}
	if len(files) > 0 {
		if err := json.Unmarshal(files, &c.Files); err != nil {
			return conversation.Conversation{}, fmt.Errorf("decode files: %w", err)
		}
	}
	return c, nil
}

func encodeFiles(files []conversation.FileRef) ([]byte, error) {
	if files == nil {
		files = []conversation.FileRef{}
	}
	data, err := json.Marshal(files)
	if err != nil {
		return nil, fmt.Errorf("encode files: %w", err)
	}
	return data, nil
}
