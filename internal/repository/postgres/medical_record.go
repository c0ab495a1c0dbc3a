package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/medrecords-api/internal/model"
	"github.com/jwalitptl/medrecords-api/internal/repository"
	"github.com/jwalitptl/medrecords-api/pkg/errors"
)

const recordColumns = `
	id, patient_id, doctor_id, diagnosis, prescription, medications,
	special_instructions, notes, is_accepted_status, created_at, updated_at
`

const recordWithDoctorSelect = `
	SELECT
		r.id, r.patient_id, r.doctor_id, r.diagnosis, r.prescription, r.medications,
		r.special_instructions, r.notes, r.is_accepted_status, r.created_at, r.updated_at,
		d.id AS "doctor.id", d.name AS "doctor.name", d.email AS "doctor.email"
	FROM medical_records r
	JOIN users d ON d.id = r.doctor_id
`

// recordRow is a record joined with its authoring doctor.
type recordRow struct {
	model.MedicalRecord
	Doctor model.DoctorSummary `db:"doctor"`
}

func (row *recordRow) toModel() *model.MedicalRecord {
	rec := row.MedicalRecord
	doctor := row.Doctor
	rec.Doctor = &doctor
	return &rec
}

type medicalRecordRepository struct {
	BaseRepository
}

func NewMedicalRecordRepository(base BaseRepository) repository.MedicalRecordRepository {
	return &medicalRecordRepository{base}
}

func (r *medicalRecordRepository) Create(ctx context.Context, record *model.MedicalRecord, journal repository.Journal) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO medical_records (` + recordColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`
		_, err := tx.ExecContext(ctx, query,
			record.ID,
			record.PatientID,
			record.DoctorID,
			record.Diagnosis,
			record.Prescription,
			record.Medications,
			record.SpecialInstructions,
			record.Notes,
			record.IsAcceptedStatus,
			record.CreatedAt,
			record.UpdatedAt,
		)
		if err != nil {
			return mapConstraintError(fmt.Errorf("failed to create medical record: %w", err), "patient or doctor")
		}

		return writeJournal(ctx, tx, journal)
	})
}

func (r *medicalRecordRepository) ListByPatientAndStatus(ctx context.Context, patientID uuid.UUID, status model.RecordStatus) ([]*model.MedicalRecord, error) {
	query := recordWithDoctorSelect + `
		WHERE r.patient_id = $1 AND r.is_accepted_status = $2
		ORDER BY r.updated_at DESC
	`
	return r.selectWithDoctor(ctx, query, patientID, status)
}

func (r *medicalRecordRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalRecord, error) {
	query := recordWithDoctorSelect + `
		WHERE r.patient_id = $1
		ORDER BY r.updated_at DESC
	`
	return r.selectWithDoctor(ctx, query, patientID)
}

func (r *medicalRecordRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.MedicalRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM medical_records WHERE doctor_id = $1 ORDER BY updated_at DESC`

	records := []*model.MedicalRecord{}
	if err := r.GetDB().SelectContext(ctx, &records, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to list doctor records: %w", err)
	}
	return records, nil
}

func (r *medicalRecordRepository) selectWithDoctor(ctx context.Context, query string, args ...interface{}) ([]*model.MedicalRecord, error) {
	var rows []recordRow
	if err := r.GetDB().SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list medical records: %w", err)
	}

	records := make([]*model.MedicalRecord, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].toModel())
	}
	return records, nil
}

func (r *medicalRecordRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.RecordStatus, at time.Time, journal repository.JournalFunc) (*model.MedicalRecord, error) {
	var updated model.MedicalRecord

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var prev model.RecordStatus
		err := tx.GetContext(ctx, &prev, `SELECT is_accepted_status FROM medical_records WHERE id = $1 FOR UPDATE`, id)
		if stderrors.Is(err, sql.ErrNoRows) {
			return errors.NewNotFound("medical record", err)
		}
		if err != nil {
			return fmt.Errorf("failed to lock medical record: %w", err)
		}

		query := `
			UPDATE medical_records
			SET is_accepted_status = $1, updated_at = $2
			WHERE id = $3
			RETURNING ` + recordColumns
		if err := tx.GetContext(ctx, &updated, query, status, at, id); err != nil {
			return fmt.Errorf("failed to update record status: %w", err)
		}

		if journal == nil {
			return nil
		}
		j, err := journal(prev, &updated)
		if err != nil {
			return err
		}
		return writeJournal(ctx, tx, j)
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}
