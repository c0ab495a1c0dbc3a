package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/medrecords-api/internal/repository"
	"github.com/jwalitptl/medrecords-api/pkg/logger"
)

// RetentionWorker periodically deletes audit logs and processed outbox
// events older than their retention windows.
type RetentionWorker struct {
	audit           repository.AuditRepository
	outbox          repository.OutboxRepository
	auditRetention  time.Duration
	outboxRetention time.Duration
	cleanupInterval time.Duration
	logger          *logger.Logger
	now             func() time.Time
}

type RetentionConfig struct {
	AuditLogs     time.Duration
	OutboxEvents  time.Duration
	SweepInterval time.Duration
}

func NewRetentionWorker(audit repository.AuditRepository, outbox repository.OutboxRepository, cfg RetentionConfig, log *logger.Logger) *RetentionWorker {
	return &RetentionWorker{
		audit:           audit,
		outbox:          outbox,
		auditRetention:  cfg.AuditLogs,
		outboxRetention: cfg.OutboxEvents,
		cleanupInterval: cfg.SweepInterval,
		logger:          log,
		now:             time.Now,
	}
}

func (w *RetentionWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Sweep(ctx); err != nil {
				w.logger.Error(err, "Retention sweep failed")
			}
		}
	}
}

// Sweep runs one cleanup pass. A zero retention disables that table.
func (w *RetentionWorker) Sweep(ctx context.Context) error {
	now := w.now()

	if w.auditRetention > 0 {
		cutoff := now.Add(-w.auditRetention)
		rows, err := w.audit.Cleanup(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("failed to cleanup audit logs: %w", err)
		}
		w.logger.Info("Cleaned up audit logs", "rows", rows, "cutoff", cutoff)
	}

	if w.outboxRetention > 0 {
		cutoff := now.Add(-w.outboxRetention)
		rows, err := w.outbox.DeleteProcessedBefore(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("failed to cleanup outbox events: %w", err)
		}
		w.logger.Info("Cleaned up processed outbox events", "rows", rows, "cutoff", cutoff)
	}

	return nil
}
