package intake

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/medrecords-api/internal/model"
	"github.com/jwalitptl/medrecords-api/internal/repository"
	"github.com/jwalitptl/medrecords-api/internal/service/audit"
	"github.com/jwalitptl/medrecords-api/pkg/errors"
	"github.com/jwalitptl/medrecords-api/pkg/metrics"
	"github.com/jwalitptl/medrecords-api/pkg/storage"
)

const (
	// ImageFolder is where intake images are stored.
	ImageFolder = "patient_records"

	providerCloudinary = "cloudinary"
)

type Service interface {
	AddPatientRecord(ctx context.Context, in *model.PatientFormInput) (*model.PatientForm, error)
}

type service struct {
	forms   repository.PatientFormRepository
	images  storage.ImageStore
	auditor *audit.Service
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(forms repository.PatientFormRepository, images storage.ImageStore, auditor *audit.Service, m *metrics.Metrics) Service {
	return &service{
		forms:   forms,
		images:  images,
		auditor: auditor,
		metrics: m,
		now:     time.Now,
	}
}

func (s *service) AddPatientRecord(ctx context.Context, in *model.PatientFormInput) (*model.PatientForm, error) {
	if in.Image == nil || in.Image.Reader == nil {
		return nil, errors.NewValidation("Image is required", nil)
	}
	if in.Age < 0 {
		return nil, errors.NewValidation("age must be a non-negative integer", nil)
	}

	start := time.Now()
	uploaded, err := s.images.UploadImage(ctx, in.Image.Reader, storage.UploadOptions{
		Folder:   ImageFolder,
		Filename: in.Image.Filename,
	})
	s.metrics.ObserveUpstream(providerCloudinary, start, err)
	if err != nil {
		return nil, errors.NewUpstream("Internal server error", err)
	}

	form := &model.PatientForm{
		ID:             uuid.New(),
		Name:           strings.TrimSpace(in.Name),
		Age:            in.Age,
		Sex:            strings.TrimSpace(in.Sex),
		MedicalHistory: in.MedicalHistory,
		Image:          uploaded.URL,
		CreatedAt:      s.now().UTC().Truncate(time.Microsecond),
	}

	if err := s.forms.Create(ctx, form); err != nil {
		s.metrics.DatabaseOperations.WithLabelValues("create_patient_form", "error").Inc()
		log.Ctx(ctx).Error().Err(err).
			Str("image_public_id", uploaded.PublicID).
			Msg("patient form not saved after image upload")
		return nil, errors.NewUpstream("Internal server error", err)
	}
	s.metrics.DatabaseOperations.WithLabelValues("create_patient_form", "success").Inc()

	s.auditor.Log(ctx, model.AuditActionCreate, audit.EntityPatientForm, form.ID, form)

	return form, nil
}
