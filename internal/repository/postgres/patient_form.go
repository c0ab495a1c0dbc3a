package postgres

import (
	"context"
	"fmt"

	"github.com/jwalitptl/medrecords-api/internal/model"
	"github.com/jwalitptl/medrecords-api/internal/repository"
)

type patientFormRepository struct {
	BaseRepository
}

func NewPatientFormRepository(base BaseRepository) repository.PatientFormRepository {
	return &patientFormRepository{base}
}

func (r *patientFormRepository) Create(ctx context.Context, form *model.PatientForm) error {
	query := `
		INSERT INTO patient_forms (id, name, age, sex, medical_history, image, created_at)
		VALUES (:id, :name, :age, :sex, :medical_history, :image, :created_at)
	`
	if _, err := r.GetDB().NamedExecContext(ctx, query, form); err != nil {
		return fmt.Errorf("failed to create patient form: %w", err)
	}
	return nil
}
