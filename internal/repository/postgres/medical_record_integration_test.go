package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medrecords-api/internal/model"
	"github.com/jwalitptl/medrecords-api/internal/repository"
	"github.com/jwalitptl/medrecords-api/pkg/errors"
)

// testDSNEnv names a disposable PostgreSQL database; the tests below are
// skipped without it.
const testDSNEnv = "RECORDS_TEST_DATABASE_DSN"

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", testDSNEnv)
	}

	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = Migrate(context.Background(), db)
	require.NoError(t, err)
	return db
}

func seedUser(t *testing.T, repo repository.UserRepository, role model.Role, now time.Time) *model.User {
	t.Helper()
	user := &model.User{
		Name:  "Test " + string(role),
		Email: uuid.NewString() + "@records.test",
		Role:  role,
	}
	user.Touch(now)
	require.NoError(t, repo.UpsertByEmail(context.Background(), user))
	return user
}

func noJournal(model.RecordStatus, *model.MedicalRecord) (repository.Journal, error) {
	return repository.Journal{}, nil
}

func TestMedicalRecordRepository_StatusListing(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	base := NewBaseRepository(db)
	users := NewUserRepository(base)
	records := NewMedicalRecordRepository(base)

	t0 := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	patient := seedUser(t, users, model.RolePatient, t0)
	doctor := seedUser(t, users, model.RoleDoctor, t0)
	t.Cleanup(func() {
		_, _ = db.Exec(`DELETE FROM medical_records WHERE patient_id = $1`, patient.ID)
		_, _ = db.Exec(`DELETE FROM users WHERE id IN ($1, $2)`, patient.ID, doctor.ID)
	})

	newRecord := func() *model.MedicalRecord {
		rec := &model.MedicalRecord{
			PatientID:        patient.ID,
			DoctorID:         doctor.ID,
			Diagnosis:        "hemorrhoid",
			Prescription:     "Test",
			Medications:      model.Medications{},
			IsAcceptedStatus: model.RecordStatusPending,
		}
		rec.Touch(t0)
		require.NoError(t, records.Create(ctx, rec, repository.Journal{}))
		return rec
	}
	first, second := newRecord(), newRecord()

	ids := func(status model.RecordStatus) []uuid.UUID {
		got, err := records.ListByPatientAndStatus(ctx, patient.ID, status)
		require.NoError(t, err)
		out := make([]uuid.UUID, len(got))
		for i, r := range got {
			require.NotNil(t, r.Doctor)
			assert.Equal(t, doctor.ID, r.Doctor.ID)
			assert.Equal(t, doctor.Name, r.Doctor.Name)
			assert.Equal(t, doctor.Email, r.Doctor.Email)
			assert.Equal(t, status, r.IsAcceptedStatus)
			out[i] = r.ID
		}
		return out
	}

	assert.ElementsMatch(t, []uuid.UUID{first.ID, second.ID}, ids(model.RecordStatusPending))
	assert.Empty(t, ids(model.RecordStatusAccepted))

	updated, err := records.UpdateStatus(ctx, second.ID, model.RecordStatusAccepted, t0.Add(time.Minute), noJournal)
	require.NoError(t, err)
	assert.Equal(t, model.RecordStatusAccepted, updated.IsAcceptedStatus)
	assert.True(t, updated.UpdatedAt.Equal(t0.Add(time.Minute)))

	_, err = records.UpdateStatus(ctx, first.ID, model.RecordStatusAccepted, t0.Add(2*time.Minute), noJournal)
	require.NoError(t, err)

	assert.Empty(t, ids(model.RecordStatusPending))
	assert.Equal(t, []uuid.UUID{first.ID, second.ID}, ids(model.RecordStatusAccepted))

	_, err = records.UpdateStatus(ctx, second.ID, model.RecordStatusAccepted, t0.Add(3*time.Minute), noJournal)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{second.ID, first.ID}, ids(model.RecordStatusAccepted))

	_, err = records.UpdateStatus(ctx, first.ID, model.RecordStatusRejected, t0.Add(4*time.Minute), noJournal)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{second.ID}, ids(model.RecordStatusAccepted))
	assert.Equal(t, []uuid.UUID{first.ID}, ids(model.RecordStatusRejected))
}

func TestMedicalRecordRepository_UpdateUnknownRecord(t *testing.T) {
	db := openTestDB(t)
	records := NewMedicalRecordRepository(NewBaseRepository(db))

	_, err := records.UpdateStatus(context.Background(), uuid.New(), model.RecordStatusAccepted, time.Now().UTC(), noJournal)

	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}
