package handler

import "github.com/jwalitptl/medrecords-api/internal/model"

type RecordResponse struct {
	Success bool                 `json:"success"`
	Record  *model.MedicalRecord `json:"record"`
}

type RecordsResponse struct {
	Success bool                   `json:"success"`
	Records []*model.MedicalRecord `json:"records"`
}

type ProfileResponse struct {
	Success bool               `json:"success"`
	User    *model.UserProfile `json:"user"`
}

type PatientFormResponse struct {
	Message     string             `json:"message"`
	PatientForm *model.PatientForm `json:"patientForm"`
}

type TranscriptionResponse struct {
	Transcription string `json:"transcription"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}
