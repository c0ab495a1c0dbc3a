package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/medrecords-api/internal/model"
	"github.com/jwalitptl/medrecords-api/internal/repository"
)

const (
	EntityMedicalRecord = "medical_record"
	EntityUser          = "user"
	EntityPatientForm   = "patient_form"
)

type Service struct {
	repo repository.AuditRepository
	now  func() time.Time
}

func NewService(repo repository.AuditRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Entry builds an audit log for the request in ctx without storing it, so
// it can be written in the same transaction as the change it describes.
func (s *Service) Entry(ctx context.Context, action, entityType string, entityID uuid.UUID, changes interface{}) (*model.AuditLog, error) {
	var raw json.RawMessage
	if changes != nil {
		var err error
		raw, err = json.Marshal(changes)
		if err != nil {
			return nil, err
		}
	}

	info := RequestInfoFrom(ctx)
	return &model.AuditLog{
		ID:         uuid.New(),
		ActorID:    info.ActorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Changes:    raw,
		IPAddress:  info.IPAddress,
		UserAgent:  info.UserAgent,
		RequestID:  info.RequestID,
		CreatedAt:  s.now().UTC(),
	}, nil
}

// Log stores an entry immediately. Failures are logged and swallowed so that
// auditing a read never fails the read itself.
func (s *Service) Log(ctx context.Context, action, entityType string, entityID uuid.UUID, changes interface{}) {
	entry, err := s.Entry(ctx, action, entityType, entityID, changes)
	if err == nil {
		err = s.repo.Create(ctx, entry)
	}
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).
			Str("action", action).
			Str("entity_type", entityType).
			Str("entity_id", entityID.String()).
			Msg("failed to write audit log")
	}
}

func (s *Service) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	return s.repo.Cleanup(ctx, before)
}
