// Package pg provides PostgreSQL connectivity and the persistent store for
// follow-up conversations.
//
// Connect creates a pgx pool and retries the initial ping with exponential
// backoff. Migrate applies the embedded goose migrations, which create the
// analyses, followup_conversations and followup_messages tables.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, log); err != nil {
//		return err
//	}
//
//	repo := pg.NewRepository(pool)
//
// Repository implements conversation.Repository. A conversation per analysis
// is enforced by a unique index, so concurrent creators get
// conversation.ErrConversationExists. RecordExchange increments
// questions_asked with a guarded UPDATE and inserts both messages in one
// transaction, so the question budget cannot be overrun.
//
// # Transactions
//
// WithTx attaches a pgx.Tx to a context and every Repository method called
// with that context joins it:
//
//	err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
//		ctx := pg.WithTx(ctx, tx)
//		return repo.UpdateFiles(ctx, id, files)
//	})
//
// # Errors
//
// IsNotFoundError, IsDuplicateKeyError, IsForeignKeyViolationError and
// IsTxClosedError classify driver errors.
package pg
