package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLog records who touched which entity and how.
type AuditLog struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	ActorID    *uuid.UUID      `json:"actor_id,omitempty" db:"actor_id"`
	Action     string          `json:"action" db:"action"`
	EntityType string          `json:"entity_type" db:"entity_type"`
	EntityID   uuid.UUID       `json:"entity_id" db:"entity_id"`
	Changes    json.RawMessage `json:"changes,omitempty" db:"changes"`
	IPAddress  string          `json:"ip_address" db:"ip_address"`
	UserAgent  string          `json:"user_agent" db:"user_agent"`
	RequestID  string          `json:"request_id" db:"request_id"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// Audit actions
const (
	AuditActionCreate     = "create"
	AuditActionRead       = "read"
	AuditActionTransition = "transition"
)
