package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medrecords-api/internal/model"
	apperrors "github.com/jwalitptl/medrecords-api/pkg/errors"
	"github.com/jwalitptl/medrecords-api/pkg/logger"
	"github.com/jwalitptl/medrecords-api/pkg/messaging"
	"github.com/jwalitptl/medrecords-api/pkg/metrics"
)

type fakeUsers struct {
	users map[uuid.UUID]*model.User
}

func (f *fakeUsers) GetByIDAndRole(ctx context.Context, id uuid.UUID, role model.Role) (*model.User, error) {
	if u, ok := f.users[id]; ok && u.Role == role {
		return u, nil
	}
	return nil, apperrors.NewNotFound("User", nil)
}

func (f *fakeUsers) UpsertByEmail(ctx context.Context, user *model.User) error { return nil }

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendCustom(ctx context.Context, to, subject, content string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to, subject, content})
	return nil
}

func envelope(t *testing.T, eventType string, payload interface{}) messaging.Message {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return messaging.Message{ID: uuid.NewString(), Type: eventType, Payload: raw}
}

func setup() (*model.User, *model.User, *fakeMailer, *Service, *metrics.Metrics) {
	patient := &model.User{Base: model.Base{ID: uuid.New()}, Email: "patient@example.com", Role: model.RolePatient}
	doctor := &model.User{Base: model.Base{ID: uuid.New()}, Email: "doctor@example.com", Role: model.RoleDoctor}
	users := &fakeUsers{users: map[uuid.UUID]*model.User{patient.ID: patient, doctor.ID: doctor}}
	mailer := &fakeMailer{}
	m := metrics.Nop()
	return patient, doctor, mailer, NewService(users, mailer, logger.Nop(), m), m
}

func TestService_HandleRecordCreated(t *testing.T) {
	patient, doctor, mailer, svc, m := setup()

	msg := envelope(t, model.EventRecordCreated, model.RecordCreatedPayload{
		RecordID:  uuid.New(),
		PatientID: patient.ID,
		DoctorID:  doctor.ID,
		Diagnosis: "hemorrhoid",
		Status:    model.RecordStatusPending,
	})
	require.NoError(t, svc.HandleRecordCreated(context.Background(), msg))

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "patient@example.com", mailer.sent[0].to)
	assert.Contains(t, mailer.sent[0].body, "hemorrhoid")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.NotificationsSent.WithLabelValues("sent")))
}

func TestService_HandleStatusChanged(t *testing.T) {
	patient, doctor, mailer, svc, _ := setup()

	msg := envelope(t, model.EventRecordStatusChanged, model.RecordStatusChangedPayload{
		RecordID:  uuid.New(),
		PatientID: patient.ID,
		DoctorID:  doctor.ID,
		From:      model.RecordStatusPending,
		To:        model.RecordStatusRejected,
	})
	require.NoError(t, svc.HandleStatusChanged(context.Background(), msg))

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "doctor@example.com", mailer.sent[0].to)
	assert.Equal(t, "Medical record rejected", mailer.sent[0].subject)
}

func TestService_UnknownRecipientIsSkipped(t *testing.T) {
	_, _, mailer, svc, m := setup()

	msg := envelope(t, model.EventRecordCreated, model.RecordCreatedPayload{PatientID: uuid.New()})
	require.NoError(t, svc.HandleRecordCreated(context.Background(), msg))

	assert.Empty(t, mailer.sent)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.NotificationsSent.WithLabelValues("skipped")))
}

func TestService_Failures(t *testing.T) {
	patient, _, mailer, svc, _ := setup()

	err := svc.HandleRecordCreated(context.Background(), messaging.Message{Type: model.EventRecordCreated, Payload: []byte(`[`)})
	assert.ErrorContains(t, err, "invalid record.created payload")

	mailer.err = errors.New("smtp down")
	msg := envelope(t, model.EventRecordCreated, model.RecordCreatedPayload{PatientID: patient.ID})
	assert.ErrorContains(t, svc.HandleRecordCreated(context.Background(), msg), "smtp down")
}
