package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusRetry     OutboxStatus = "retry"
	OutboxStatusProcessed OutboxStatus = "processed"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// Event types written to the outbox alongside record changes.
const (
	EventRecordCreated       = "record.created"
	EventRecordStatusChanged = "record.status_changed"
)

type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       OutboxStatus    `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	RetryAt      *time.Time      `db:"retry_at" json:"retry_at,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// NewOutboxEvent encodes payload into a pending event.
func NewOutboxEvent(eventType string, payload interface{}, now time.Time) (*OutboxEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   raw,
		Status:    OutboxStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

type RecordCreatedPayload struct {
	RecordID  uuid.UUID    `json:"recordId"`
	PatientID uuid.UUID    `json:"patientId"`
	DoctorID  uuid.UUID    `json:"doctorId"`
	Diagnosis string       `json:"diagnosis"`
	Status    RecordStatus `json:"status"`
}

type RecordStatusChangedPayload struct {
	RecordID  uuid.UUID    `json:"recordId"`
	PatientID uuid.UUID    `json:"patientId"`
	DoctorID  uuid.UUID    `json:"doctorId"`
	From      RecordStatus `json:"from"`
	To        RecordStatus `json:"to"`
}
