package model

import (
	"io"
	"time"

	"github.com/google/uuid"
)

// PatientForm is a patient intake submission with its uploaded image.
type PatientForm struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Age            int       `json:"age" db:"age"`
	Sex            string    `json:"sex" db:"sex"`
	MedicalHistory string    `json:"medicalHistory" db:"medical_history"`
	Image          string    `json:"image" db:"image"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}

// Upload is a file received from a multipart form.
type Upload struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// PatientFormInput is the parsed add-patient-record form.
type PatientFormInput struct {
	Name           string
	Age            int
	Sex            string
	MedicalHistory string
	Image          *Upload
}
