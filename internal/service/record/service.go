package record

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/medrecords-api/internal/model"
	"github.com/jwalitptl/medrecords-api/internal/repository"
	"github.com/jwalitptl/medrecords-api/internal/service/audit"
	"github.com/jwalitptl/medrecords-api/pkg/errors"
	"github.com/jwalitptl/medrecords-api/pkg/metrics"
	"github.com/jwalitptl/medrecords-api/pkg/validator"
)

// Service manages the record lifecycle: records are created pending and are
// then accepted or rejected.
type Service interface {
	Create(ctx context.Context, req *model.CreateRecordRequest) (*model.MedicalRecord, error)
	ListByPatientAndStatus(ctx context.Context, filters *model.RecordFilters) ([]*model.MedicalRecord, error)
	Transition(ctx context.Context, req *model.UpdateStatusRequest) (*model.MedicalRecord, error)
}

type service struct {
	repo      repository.MedicalRecordRepository
	auditor   *audit.Service
	validator validator.Validator
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewService(repo repository.MedicalRecordRepository, auditor *audit.Service, m *metrics.Metrics) Service {
	return &service{
		repo:      repo,
		auditor:   auditor,
		validator: model.NewValidator(),
		metrics:   m,
		now:       now,
	}
}

// now is truncated to what postgres stores so returned records compare
// equal to what a later read yields.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func (s *service) Create(ctx context.Context, req *model.CreateRecordRequest) (*model.MedicalRecord, error) {
	req.Normalize()
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	patientID, err := parseID("patientId", req.PatientID)
	if err != nil {
		return nil, err
	}
	doctorID, err := parseID("doctorId", req.DoctorID)
	if err != nil {
		return nil, err
	}

	medications := model.Medications(req.Medications)
	if medications == nil {
		medications = model.Medications{}
	}

	record := &model.MedicalRecord{
		PatientID:           patientID,
		DoctorID:            doctorID,
		Diagnosis:           req.Diagnosis,
		Prescription:        req.Prescription,
		Medications:         medications,
		SpecialInstructions: req.SpecialInstructions,
		Notes:               req.Notes,
		IsAcceptedStatus:    model.RecordStatusPending,
	}
	record.Touch(s.now())

	event, err := model.NewOutboxEvent(model.EventRecordCreated, model.RecordCreatedPayload{
		RecordID:  record.ID,
		PatientID: record.PatientID,
		DoctorID:  record.DoctorID,
		Diagnosis: record.Diagnosis,
		Status:    record.IsAcceptedStatus,
	}, record.CreatedAt)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	entry, err := s.auditor.Entry(ctx, model.AuditActionCreate, audit.EntityMedicalRecord, record.ID, record)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	if err := s.repo.Create(ctx, record, repository.Journal{Event: event, Audit: entry}); err != nil {
		s.metrics.DatabaseOperations.WithLabelValues("create_record", "error").Inc()
		return nil, storeError(err, "Error creating medical record")
	}
	s.metrics.DatabaseOperations.WithLabelValues("create_record", "success").Inc()
	s.metrics.RecordsCreated.Inc()

	log.Ctx(ctx).Info().
		Str("record_id", record.ID.String()).
		Str("patient_id", record.PatientID.String()).
		Str("doctor_id", record.DoctorID.String()).
		Msg("medical record created")

	return record, nil
}

func (s *service) ListByPatientAndStatus(ctx context.Context, filters *model.RecordFilters) ([]*model.MedicalRecord, error) {
	if err := s.validator.Validate(filters); err != nil {
		return nil, err
	}

	patientID, err := parseID("patientId", filters.PatientID)
	if err != nil {
		return nil, err
	}
	status, err := model.ParseRecordStatus(filters.Status)
	if err != nil {
		return nil, errors.NewValidation("isAcceptedStatus must be one of: pending, accepted, rejected", err)
	}

	records, err := s.repo.ListByPatientAndStatus(ctx, patientID, status)
	if err != nil {
		s.metrics.DatabaseOperations.WithLabelValues("list_records", "error").Inc()
		return nil, storeError(err, "Error fetching patient records")
	}
	s.metrics.DatabaseOperations.WithLabelValues("list_records", "success").Inc()

	if records == nil {
		records = []*model.MedicalRecord{}
	}
	return records, nil
}

// Transition moves a record to accepted or rejected. The last write wins:
// the previous status is not a precondition.
func (s *service) Transition(ctx context.Context, req *model.UpdateStatusRequest) (*model.MedicalRecord, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	recordID, err := parseID("recordId", req.RecordID)
	if err != nil {
		return nil, err
	}
	target, err := model.ParseRecordStatus(req.IsAcceptedStatus)
	if err != nil || !target.IsTerminal() {
		return nil, errors.NewValidation("isAcceptedStatus must be one of: accepted, rejected", err)
	}

	journal := func(prev model.RecordStatus, updated *model.MedicalRecord) (repository.Journal, error) {
		if prev.IsTerminal() {
			log.Ctx(ctx).Warn().
				Str("record_id", updated.ID.String()).
				Str("from", string(prev)).
				Str("to", string(target)).
				Msg("overwriting terminal record status")
		}

		payload := model.RecordStatusChangedPayload{
			RecordID:  updated.ID,
			PatientID: updated.PatientID,
			DoctorID:  updated.DoctorID,
			From:      prev,
			To:        target,
		}
		event, err := model.NewOutboxEvent(model.EventRecordStatusChanged, payload, updated.UpdatedAt)
		if err != nil {
			return repository.Journal{}, err
		}
		entry, err := s.auditor.Entry(ctx, model.AuditActionTransition, audit.EntityMedicalRecord, updated.ID, payload)
		if err != nil {
			return repository.Journal{}, err
		}
		return repository.Journal{Event: event, Audit: entry}, nil
	}

	updated, err := s.repo.UpdateStatus(ctx, recordID, target, s.now(), journal)
	if err != nil {
		s.metrics.DatabaseOperations.WithLabelValues("update_record_status", "error").Inc()
		return nil, storeError(err, "Error updating record status")
	}
	s.metrics.DatabaseOperations.WithLabelValues("update_record_status", "success").Inc()
	s.metrics.RecordTransitions.WithLabelValues(string(target)).Inc()

	log.Ctx(ctx).Info().
		Str("record_id", updated.ID.String()).
		Str("status", string(target)).
		Msg("medical record status updated")

	return updated, nil
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.NewValidation(field+" is malformed", err)
	}
	return id, nil
}

// storeError keeps not-found and validation errors and reports anything
// else as an upstream failure with msg as the client-facing message.
func storeError(err error, msg string) error {
	switch errors.CodeOf(err) {
	case errors.ErrNotFound, errors.ErrValidation:
		return err
	}
	return errors.NewUpstream(msg, err)
}
