package model

import (
	"fmt"
	"strings"
)

// Role of a user account.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// ParseRole is case-insensitive; older clients send PATIENT/DOCTOR/ADMIN.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("invalid role %q", s)
}

// User represents a system user
type User struct {
	Base
	Name         string `json:"name" db:"name"`
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-" db:"password_hash"`
	Role         Role   `json:"role" db:"role"`
}

// UserProfile is a user together with the records they own as a patient
// and the records they authored as a doctor.
type UserProfile struct {
	*User
	MedicalRecords []*MedicalRecord `json:"medicalRecords"`
	DoctorRecords  []*MedicalRecord `json:"doctorRecords"`
}

// ProfileQuery is the get-user-profile query.
type ProfileQuery struct {
	UserID string `form:"userId" json:"userId" validate:"required,uuid"`
	Role   string `form:"role" json:"role" validate:"required,user_role"`
}
