package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// RecordStatus is the approval state of a medical record.
type RecordStatus string

const (
	RecordStatusPending  RecordStatus = "pending"
	RecordStatusAccepted RecordStatus = "accepted"
	RecordStatusRejected RecordStatus = "rejected"
)

// ParseRecordStatus accepts exactly the three known statuses.
func ParseRecordStatus(s string) (RecordStatus, error) {
	switch st := RecordStatus(s); st {
	case RecordStatusPending, RecordStatusAccepted, RecordStatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("invalid record status %q", s)
}

func (s RecordStatus) Valid() bool {
	_, err := ParseRecordStatus(string(s))
	return err == nil
}

// IsTerminal reports whether the record has left the pending state. Only
// terminal statuses are Transition targets.
func (s RecordStatus) IsTerminal() bool {
	return s == RecordStatusAccepted || s == RecordStatusRejected
}


type Medication struct {
	Name         string `json:"name" validate:"required"`
	Dosage       string `json:"dosage" validate:"required"`
	Quantity     int    `json:"quantity" validate:"min=1"`
	Instructions string `json:"instructions,omitempty"`
}

// Medications is stored as a JSONB array.
type Medications []Medication

func (m Medications) Value() (driver.Value, error) {
	if m == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(m)
}

func (m *Medications) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = Medications{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Medications", src)
	}
	out := Medications{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("failed to unmarshal medications: %w", err)
	}
	*m = out
	return nil
}

// DoctorSummary is the authoring doctor as embedded in record listings.
type DoctorSummary struct {
	ID    uuid.UUID `json:"id" db:"id"`
	Name  string    `json:"name" db:"name"`
	Email string    `json:"email" db:"email"`
}

type MedicalRecord struct {
	Base
	PatientID           uuid.UUID      `db:"patient_id" json:"patientId"`
	DoctorID            uuid.UUID      `db:"doctor_id" json:"doctorId"`
	Diagnosis           string         `db:"diagnosis" json:"diagnosis"`
	Prescription        string         `db:"prescription" json:"prescription"`
	Medications         Medications    `db:"medications" json:"medications"`
	SpecialInstructions *string        `db:"special_instructions" json:"specialInstructions,omitempty"`
	Notes               *string        `db:"notes" json:"notes,omitempty"`
	IsAcceptedStatus    RecordStatus   `db:"is_accepted_status" json:"isAcceptedStatus"`
	Doctor              *DoctorSummary `db:"-" json:"doctor,omitempty"`
}

// CreateRecordRequest is the create-record body.
type CreateRecordRequest struct {
	PatientID           string       `json:"patientId" validate:"required,uuid"`
	DoctorID            string       `json:"doctorId" validate:"required,uuid"`
	Diagnosis           string       `json:"diagnosis" validate:"required"`
	Prescription        string       `json:"prescription" validate:"required"`
	Medications         []Medication `json:"medications" validate:"omitempty,dive"`
	SpecialInstructions *string      `json:"specialInstructions"`
	Notes               *string      `json:"notes"`
}

// Normalize trims the free-text fields so whitespace-only values count as
// missing.
func (r *CreateRecordRequest) Normalize() {
	r.PatientID = strings.TrimSpace(r.PatientID)
	r.DoctorID = strings.TrimSpace(r.DoctorID)
	r.Diagnosis = strings.TrimSpace(r.Diagnosis)
	r.Prescription = strings.TrimSpace(r.Prescription)
	r.SpecialInstructions = trimOptional(r.SpecialInstructions)
	r.Notes = trimOptional(r.Notes)
	for i := range r.Medications {
		r.Medications[i].Name = strings.TrimSpace(r.Medications[i].Name)
		r.Medications[i].Dosage = strings.TrimSpace(r.Medications[i].Dosage)
	}
}

// RecordFilters selects a patient's records by status (get-records query).
type RecordFilters struct {
	PatientID string `form:"patientId" json:"patientId" validate:"required,uuid"`
	Status    string `form:"isAcceptedStatus" json:"isAcceptedStatus" validate:"required,record_status"`
}

// UpdateStatusRequest is the update-accepted-status body.
type UpdateStatusRequest struct {
	RecordID         string `json:"recordId" validate:"required,uuid"`
	IsAcceptedStatus string `json:"isAcceptedStatus" validate:"required,transition_status"`
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
