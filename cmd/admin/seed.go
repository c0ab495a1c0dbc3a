package main

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jwalitptl/medrecords-api/internal/model"
	"github.com/jwalitptl/medrecords-api/internal/repository"
	"github.com/jwalitptl/medrecords-api/internal/repository/postgres"
	"github.com/jwalitptl/medrecords-api/internal/service/audit"
	"github.com/jwalitptl/medrecords-api/internal/service/record"
	"github.com/jwalitptl/medrecords-api/pkg/metrics"
	"github.com/jwalitptl/medrecords-api/pkg/security"
)

//go:embed fixtures/seed.yaml
var defaultFixture []byte

type fixture struct {
	Users   []fixtureUser   `yaml:"users"`
	Records []fixtureRecord `yaml:"records"`
}

type fixtureUser struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

type fixtureRecord struct {
	Patient             string             `yaml:"patient"`
	Doctor              string             `yaml:"doctor"`
	Diagnosis           string             `yaml:"diagnosis"`
	Prescription        string             `yaml:"prescription"`
	Status              string             `yaml:"status"`
	SpecialInstructions string             `yaml:"specialInstructions"`
	Notes               string             `yaml:"notes"`
	Medications         []model.Medication `yaml:"medications"`
}

func parseFixture(data []byte) (*fixture, error) {
	var f fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}

	users := make(map[string]bool, len(f.Users))
	for i, u := range f.Users {
		if u.Email == "" || u.Password == "" {
			return nil, fmt.Errorf("user %d: email and password are required", i)
		}
		if _, err := model.ParseRole(u.Role); err != nil {
			return nil, fmt.Errorf("user %s: %w", u.Email, err)
		}
		users[u.Email] = true
	}
	for i, r := range f.Records {
		if !users[r.Patient] || !users[r.Doctor] {
			return nil, fmt.Errorf("record %d: patient and doctor must be fixture users", i)
		}
		if r.Status != "" {
			if _, err := model.ParseRecordStatus(r.Status); err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
		}
	}
	return &f, nil
}

func seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create sample users and records",
		RunE: func(cmd *cobra.Command, args []string) error {
			data := defaultFixture
			if file != "" {
				var err error
				if data, err = os.ReadFile(file); err != nil {
					return err
				}
			}
			f, err := parseFixture(data)
			if err != nil {
				return err
			}

			_, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer db.Close()

			base := postgres.NewBaseRepository(db)
			s := &seeder{
				users:   postgres.NewUserRepository(base),
				records: postgres.NewMedicalRecordRepository(base),
				hasher:  security.NewBcryptHasher(0),
			}
			s.lifecycle = record.NewService(s.records, audit.NewService(postgres.NewAuditRepository(base)),
				metrics.NewMetrics("records_admin", prometheus.NewRegistry()))
			return s.run(cmd.Context(), f)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML fixture (defaults to the built-in sample data)")
	return cmd
}

type seeder struct {
	users     repository.UserRepository
	records   repository.MedicalRecordRepository
	lifecycle record.Service
	hasher    security.PasswordHasher
}

func (s *seeder) run(ctx context.Context, f *fixture) error {
	ids := make(map[string]*model.User, len(f.Users))
	for _, u := range f.Users {
		role, _ := model.ParseRole(u.Role)
		hash, err := s.hasher.Hash(u.Password)
		if err != nil {
			return fmt.Errorf("user %s: %w", u.Email, err)
		}
		user := &model.User{Name: u.Name, Email: u.Email, PasswordHash: hash, Role: role}
		user.Touch(time.Now().UTC())
		if err := s.users.UpsertByEmail(ctx, user); err != nil {
			return fmt.Errorf("user %s: %w", u.Email, err)
		}
		ids[u.Email] = user
		log.Info().Str("email", u.Email).Str("id", user.ID.String()).Str("role", string(user.Role)).Msg("seeded user")
	}

	for _, r := range f.Records {
		if err := s.seedRecord(ctx, r, ids[r.Patient], ids[r.Doctor]); err != nil {
			return err
		}
	}
	return nil
}

// seedRecord skips records the patient already has with the same diagnosis.
func (s *seeder) seedRecord(ctx context.Context, r fixtureRecord, patient, doctor *model.User) error {
	existing, err := s.records.ListByPatient(ctx, patient.ID)
	if err != nil {
		return err
	}
	for _, e := range existing {
		if e.Diagnosis == r.Diagnosis && e.DoctorID == doctor.ID {
			log.Info().Str("record_id", e.ID.String()).Msg("record already seeded")
			return nil
		}
	}

	req := &model.CreateRecordRequest{
		PatientID:    patient.ID.String(),
		DoctorID:     doctor.ID.String(),
		Diagnosis:    r.Diagnosis,
		Prescription: r.Prescription,
		Medications:  r.Medications,
	}
	if r.SpecialInstructions != "" {
		req.SpecialInstructions = &r.SpecialInstructions
	}
	if r.Notes != "" {
		req.Notes = &r.Notes
	}

	created, err := s.lifecycle.Create(ctx, req)
	if err != nil {
		return fmt.Errorf("record %q: %w", r.Diagnosis, err)
	}

	if r.Status != "" && r.Status != string(model.RecordStatusPending) {
		if _, err := s.lifecycle.Transition(ctx, &model.UpdateStatusRequest{
			RecordID:         created.ID.String(),
			IsAcceptedStatus: r.Status,
		}); err != nil {
			return fmt.Errorf("record %q: %w", r.Diagnosis, err)
		}
	}

	log.Info().Str("record_id", created.ID.String()).Str("status", r.Status).Msg("seeded record")
	return nil
}
