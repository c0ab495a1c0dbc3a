package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/medrecords-api/internal/model"
	"github.com/jwalitptl/medrecords-api/internal/repository"
)

type outboxRepository struct {
	BaseRepository
}

func NewOutboxRepository(base BaseRepository) repository.OutboxRepository {
	return &outboxRepository{base}
}

func (r *outboxRepository) ProcessPending(ctx context.Context, limit int, policy repository.RetryPolicy, fn repository.EventHandler) (repository.OutboxResult, error) {
	var res repository.OutboxResult

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			SELECT id, event_type, payload, status, error_message, retry_count,
				retry_at, created_at, processed_at, updated_at
			FROM outbox_events
			WHERE status IN ('pending', 'retry')
			AND (retry_at IS NULL OR retry_at <= NOW())
			ORDER BY created_at ASC
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		`
		var events []*model.OutboxEvent
		if err := tx.SelectContext(ctx, &events, query, limit); err != nil {
			return fmt.Errorf("failed to get pending events: %w", err)
		}

		for _, evt := range events {
			handleErr := fn(ctx, evt)
			if handleErr == nil {
				if err := markProcessed(ctx, tx, evt); err != nil {
					return err
				}
				res.Processed++
				continue
			}

			attempts := evt.RetryCount + 1
			msg := handleErr.Error()
			if attempts >= policy.MaxAttempts {
				if err := markFailed(ctx, tx, evt, attempts, msg); err != nil {
					return err
				}
				res.Failed++
				continue
			}

			retryAt := time.Now().Add(policy.Delay * time.Duration(attempts))
			if err := markRetry(ctx, tx, evt, attempts, msg, retryAt); err != nil {
				return err
			}
			res.Retried++
		}
		return nil
	})

	return res, err
}

func markProcessed(ctx context.Context, tx *sqlx.Tx, evt *model.OutboxEvent) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE outbox_events
		SET status = $1, error_message = NULL, processed_at = NOW(), updated_at = NOW()
		WHERE id = $2
	`, model.OutboxStatusProcessed, evt.ID)
	if err != nil {
		return fmt.Errorf("failed to mark event %s processed: %w", evt.ID, err)
	}
	return nil
}

func markRetry(ctx context.Context, tx *sqlx.Tx, evt *model.OutboxEvent, attempts int, msg string, retryAt time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE outbox_events
		SET status = $1, error_message = $2, retry_count = $3, retry_at = $4, updated_at = NOW()
		WHERE id = $5
	`, model.OutboxStatusRetry, msg, attempts, retryAt, evt.ID)
	if err != nil {
		return fmt.Errorf("failed to reschedule event %s: %w", evt.ID, err)
	}
	return nil
}

func markFailed(ctx context.Context, tx *sqlx.Tx, evt *model.OutboxEvent, attempts int, msg string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE outbox_events
		SET status = $1, error_message = $2, retry_count = $3, updated_at = NOW()
		WHERE id = $4
	`, model.OutboxStatusFailed, msg, attempts, evt.ID)
	if err != nil {
		return fmt.Errorf("failed to mark event %s failed: %w", evt.ID, err)
	}
	return nil
}

func (r *outboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM outbox_events
		WHERE status = 'processed'
		AND processed_at < $1
	`
	result, err := r.GetDB().ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete processed events: %w", err)
	}

	return result.RowsAffected()
}
