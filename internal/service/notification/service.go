package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/medrecords-api/internal/email"
	"github.com/jwalitptl/medrecords-api/internal/model"
	"github.com/jwalitptl/medrecords-api/internal/repository"
	"github.com/jwalitptl/medrecords-api/pkg/errors"
	"github.com/jwalitptl/medrecords-api/pkg/logger"
	"github.com/jwalitptl/medrecords-api/pkg/messaging"
	"github.com/jwalitptl/medrecords-api/pkg/metrics"
)

// Service emails the people affected by record lifecycle events.
type Service struct {
	users    repository.UserRepository
	emailSvc email.Service
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewService(users repository.UserRepository, emailSvc email.Service, log *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{
		users:    users,
		emailSvc: emailSvc,
		logger:   log,
		metrics:  m,
	}
}

// Register routes the lifecycle events to d.
func (s *Service) Register(d *messaging.Dispatcher) {
	d.Handle(model.EventRecordCreated, s.HandleRecordCreated)
	d.Handle(model.EventRecordStatusChanged, s.HandleStatusChanged)
}

// HandleRecordCreated tells the patient a record is waiting for review.
func (s *Service) HandleRecordCreated(ctx context.Context, msg messaging.Message) error {
	var p model.RecordCreatedPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		return fmt.Errorf("invalid %s payload: %w", msg.Type, err)
	}

	body := fmt.Sprintf(
		"A new medical record (diagnosis: %s) has been added to your account and is awaiting your review.\n\nRecord ID: %s",
		p.Diagnosis, p.RecordID,
	)
	return s.notify(ctx, p.PatientID, model.RolePatient, "New medical record awaiting review", body)
}

// HandleStatusChanged tells the doctor the patient's decision.
func (s *Service) HandleStatusChanged(ctx context.Context, msg messaging.Message) error {
	var p model.RecordStatusChangedPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		return fmt.Errorf("invalid %s payload: %w", msg.Type, err)
	}

	body := fmt.Sprintf("Medical record %s was %s by the patient.", p.RecordID, p.To)
	return s.notify(ctx, p.DoctorID, model.RoleDoctor, fmt.Sprintf("Medical record %s", p.To), body)
}

func (s *Service) notify(ctx context.Context, userID uuid.UUID, role model.Role, subject, body string) error {
	user, err := s.users.GetByIDAndRole(ctx, userID, role)
	if err != nil {
		if errors.IsNotFound(err) {
			s.logger.Warn("Notification recipient not found", "user_id", userID.String(), "role", string(role))
			s.metrics.NotificationsSent.WithLabelValues("skipped").Inc()
			return nil
		}
		return err
	}

	if err := s.emailSvc.SendCustom(ctx, user.Email, subject, body); err != nil {
		s.metrics.NotificationsSent.WithLabelValues("error").Inc()
		return err
	}

	s.metrics.NotificationsSent.WithLabelValues("sent").Inc()
	s.logger.Info("Notification sent", "user_id", userID.String(), "subject", subject)
	return nil
}
