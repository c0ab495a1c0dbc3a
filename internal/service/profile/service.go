package profile

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/medrecords-api/internal/model"
	"github.com/jwalitptl/medrecords-api/internal/repository"
	"github.com/jwalitptl/medrecords-api/internal/service/audit"
	"github.com/jwalitptl/medrecords-api/pkg/errors"
	"github.com/jwalitptl/medrecords-api/pkg/validator"
)

type Service interface {
	GetUserProfile(ctx context.Context, q *model.ProfileQuery) (*model.UserProfile, error)
}

type service struct {
	users     repository.UserRepository
	records   repository.MedicalRecordRepository
	auditor   *audit.Service
	validator validator.Validator
}

func NewService(users repository.UserRepository, records repository.MedicalRecordRepository, auditor *audit.Service) Service {
	return &service{
		users:     users,
		records:   records,
		auditor:   auditor,
		validator: model.NewValidator(),
	}
}

// GetUserProfile finds the user with the given id and role and attaches the
// records they own as a patient and the ones they wrote as a doctor.
func (s *service) GetUserProfile(ctx context.Context, q *model.ProfileQuery) (*model.UserProfile, error) {
	if err := s.validator.Validate(q); err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(q.UserID)
	if err != nil {
		return nil, errors.NewValidation("userId is malformed", err)
	}
	role, err := model.ParseRole(q.Role)
	if err != nil {
		return nil, errors.NewValidation("role must be one of: patient, doctor, admin", err)
	}

	user, err := s.users.GetByIDAndRole(ctx, userID, role)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFound("User", err)
		}
		return nil, errors.NewUpstream("Error fetching user", err)
	}

	asPatient, err := s.records.ListByPatient(ctx, user.ID)
	if err != nil {
		return nil, errors.NewUpstream("Error fetching user", err)
	}
	asDoctor, err := s.records.ListByDoctor(ctx, user.ID)
	if err != nil {
		return nil, errors.NewUpstream("Error fetching user", err)
	}

	s.auditor.Log(ctx, model.AuditActionRead, audit.EntityUser, user.ID, nil)

	return &model.UserProfile{
		User:           user,
		MedicalRecords: nonNil(asPatient),
		DoctorRecords:  nonNil(asDoctor),
	}, nil
}

func nonNil(records []*model.MedicalRecord) []*model.MedicalRecord {
	if records == nil {
		return []*model.MedicalRecord{}
	}
	return records
}
