package main

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medrecords-api/internal/model"
	"github.com/jwalitptl/medrecords-api/internal/repository"
	"github.com/jwalitptl/medrecords-api/pkg/security"
)

func TestDefaultFixture(t *testing.T) {
	f, err := parseFixture(defaultFixture)
	require.NoError(t, err)

	require.Len(t, f.Users, 2)
	require.Len(t, f.Records, 1)
	rec := f.Records[0]
	assert.Equal(t, "hemorrhoid", rec.Diagnosis)
	assert.Equal(t, "accepted", rec.Status)
	require.Len(t, rec.Medications, 1)
	assert.Equal(t, model.Medication{Name: "Aspirin", Dosage: "500mg", Quantity: 20, Instructions: "Take 2 tablets daily"}, rec.Medications[0])
}

func TestParseFixtureRejectsUnknownUser(t *testing.T) {
	_, err := parseFixture([]byte(`
users:
  - {name: A, email: a@x, password: pass, role: patient}
records:
  - {patient: a@x, doctor: ghost@x, diagnosis: flu, prescription: rest}
`))
	assert.Error(t, err)

	_, err = parseFixture([]byte(`
users:
  - {name: A, email: a@x, password: pass, role: nurse}
`))
	assert.Error(t, err)
}

type fakeUsers struct{ byEmail map[string]*model.User }

func (f *fakeUsers) GetByIDAndRole(context.Context, uuid.UUID, model.Role) (*model.User, error) {
	return nil, nil
}

func (f *fakeUsers) UpsertByEmail(_ context.Context, u *model.User) error {
	if existing, ok := f.byEmail[u.Email]; ok {
		u.ID = existing.ID
		return nil
	}
	f.byEmail[u.Email] = u
	return nil
}

type fakeRecords struct {
	repository.MedicalRecordRepository
	byPatient map[uuid.UUID][]*model.MedicalRecord
}

func (f *fakeRecords) ListByPatient(_ context.Context, id uuid.UUID) ([]*model.MedicalRecord, error) {
	return f.byPatient[id], nil
}

type fakeLifecycle struct {
	created     []*model.CreateRecordRequest
	transitions []*model.UpdateStatusRequest
}

func (f *fakeLifecycle) Create(_ context.Context, req *model.CreateRecordRequest) (*model.MedicalRecord, error) {
	f.created = append(f.created, req)
	rec := &model.MedicalRecord{Diagnosis: req.Diagnosis}
	rec.ID = uuid.New()
	return rec, nil
}

func (f *fakeLifecycle) ListByPatientAndStatus(context.Context, *model.RecordFilters) ([]*model.MedicalRecord, error) {
	return nil, nil
}

func (f *fakeLifecycle) Transition(_ context.Context, req *model.UpdateStatusRequest) (*model.MedicalRecord, error) {
	f.transitions = append(f.transitions, req)
	return &model.MedicalRecord{}, nil
}

func TestSeederCreatesAndAccepts(t *testing.T) {
	f, err := parseFixture(defaultFixture)
	require.NoError(t, err)

	users := &fakeUsers{byEmail: map[string]*model.User{}}
	lifecycle := &fakeLifecycle{}
	s := &seeder{
		users:     users,
		records:   &fakeRecords{byPatient: map[uuid.UUID][]*model.MedicalRecord{}},
		lifecycle: lifecycle,
		hasher:    security.NewBcryptHasher(4),
	}
	require.NoError(t, s.run(context.Background(), f))

	patient := users.byEmail["patient1@example.com"]
	require.NotNil(t, patient)
	assert.NotEqual(t, uuid.Nil, patient.ID)
	assert.NoError(t, s.hasher.Compare(patient.PasswordHash, "pass"))

	require.Len(t, lifecycle.created, 1)
	assert.Equal(t, patient.ID.String(), lifecycle.created[0].PatientID)
	require.NotNil(t, lifecycle.created[0].Notes)
	require.Len(t, lifecycle.transitions, 1)
	assert.Equal(t, "accepted", lifecycle.transitions[0].IsAcceptedStatus)
}

func TestSeederSkipsExistingRecord(t *testing.T) {
	f, err := parseFixture(defaultFixture)
	require.NoError(t, err)

	patientID, doctorID := uuid.New(), uuid.New()
	users := &fakeUsers{byEmail: map[string]*model.User{
		"patient1@example.com": {Base: model.Base{ID: patientID}},
		"doctor1@example.com":  {Base: model.Base{ID: doctorID}},
	}}
	lifecycle := &fakeLifecycle{}
	s := &seeder{
		users: users,
		records: &fakeRecords{byPatient: map[uuid.UUID][]*model.MedicalRecord{
			patientID: {{Diagnosis: "hemorrhoid", DoctorID: doctorID}},
		}},
		lifecycle: lifecycle,
		hasher:    security.NewBcryptHasher(4),
	}
	require.NoError(t, s.run(context.Background(), f))
	assert.Empty(t, lifecycle.created)
}
