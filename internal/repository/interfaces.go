package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/medrecords-api/internal/model"
)

// Journal holds the entries written in the same transaction as a record
// change. Either field may be nil.
type Journal struct {
	Event *model.OutboxEvent
	Audit *model.AuditLog
}

// JournalFunc builds the journal for a status change once the previous
// status and the updated row are known.
type JournalFunc func(prev model.RecordStatus, updated *model.MedicalRecord) (Journal, error)

// EventHandler publishes one outbox event. A non-nil error schedules a retry.
type EventHandler func(ctx context.Context, evt *model.OutboxEvent) error

// All repository interfaces in one file
type (
	MedicalRecordRepository interface {
		Create(ctx context.Context, record *model.MedicalRecord, journal Journal) error
		ListByPatientAndStatus(ctx context.Context, patientID uuid.UUID, status model.RecordStatus) ([]*model.MedicalRecord, error)
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalRecord, error)
		ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.MedicalRecord, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.RecordStatus, at time.Time, journal JournalFunc) (*model.MedicalRecord, error)
	}

	UserRepository interface {
		GetByIDAndRole(ctx context.Context, id uuid.UUID, role model.Role) (*model.User, error)
		UpsertByEmail(ctx context.Context, user *model.User) error
	}

	PatientFormRepository interface {
		Create(ctx context.Context, form *model.PatientForm) error
	}

	AuditRepository interface {
		Create(ctx context.Context, log *model.AuditLog) error
		Cleanup(ctx context.Context, before time.Time) (int64, error)
	}

	OutboxRepository interface {
		// ProcessPending locks up to limit due events, hands each to fn and
		// records the outcome before releasing the lock.
		ProcessPending(ctx context.Context, limit int, policy RetryPolicy, fn EventHandler) (OutboxResult, error)
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)

// RetryPolicy controls how failed outbox events are rescheduled.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// OutboxResult summarises one ProcessPending batch.
type OutboxResult struct {
	Processed int
	Retried   int
	Failed    int
}
