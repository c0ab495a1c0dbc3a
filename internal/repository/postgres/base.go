package postgres

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/medrecords-api/internal/model"
	"github.com/jwalitptl/medrecords-api/internal/repository"
	"github.com/jwalitptl/medrecords-api/pkg/errors"
)

const (
	pqForeignKeyViolation = "23503"
	pqUniqueViolation     = "23505"
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db *sqlx.DB
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(db *sqlx.DB) BaseRepository {
	return BaseRepository{db: db}
}

// GetDB returns the database instance
func (r *BaseRepository) GetDB() *sqlx.DB {
	return r.db
}

// WithTx executes a function within a transaction
func (r *BaseRepository) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// writeJournal inserts the outbox event and audit entry of j inside tx.
func writeJournal(ctx context.Context, tx *sqlx.Tx, j repository.Journal) error {
	if j.Event != nil {
		if err := insertOutboxEvent(ctx, tx, j.Event); err != nil {
			return err
		}
	}
	if j.Audit != nil {
		if err := insertAuditLog(ctx, tx, j.Audit); err != nil {
			return err
		}
	}
	return nil
}

func insertOutboxEvent(ctx context.Context, tx sqlx.ExecerContext, event *model.OutboxEvent) error {
	query := `
		INSERT INTO outbox_events (
			id, event_type, payload, status, retry_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.ExecContext(ctx, query,
		event.ID,
		event.EventType,
		[]byte(event.Payload),
		event.Status,
		event.RetryCount,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}

func insertAuditLog(ctx context.Context, tx sqlx.ExecerContext, log *model.AuditLog) error {
	query := `
		INSERT INTO audit_logs (
			id, actor_id, action, entity_type, entity_id,
			changes, ip_address, user_agent, request_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	var changes interface{}
	if len(log.Changes) > 0 {
		changes = []byte(log.Changes)
	}
	_, err := tx.ExecContext(ctx, query,
		log.ID,
		log.ActorID,
		log.Action,
		log.EntityType,
		log.EntityID,
		changes,
		log.IPAddress,
		log.UserAgent,
		log.RequestID,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

// mapConstraintError turns referential violations into application errors.
// Other errors are returned unchanged.
func mapConstraintError(err error, resource string) error {
	var pqErr *pq.Error
	if !stderrors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pqForeignKeyViolation:
		return errors.NewNotFound(resource, err)
	case pqUniqueViolation:
		return errors.NewValidation(fmt.Sprintf("%s already exists", resource), err)
	}
	return err
}
