package model

import (
	playground "github.com/go-playground/validator/v10"

	"github.com/jwalitptl/medrecords-api/pkg/validator"
)

// NewValidator returns a validator that also understands the record_status,
// transition_status and user_role tags.
func NewValidator() validator.Validator {
	return validator.New(
		validator.WithRule("record_status", func(fl playground.FieldLevel) bool {
			return RecordStatus(fl.Field().String()).Valid()
		}, "%s must be one of: pending, accepted, rejected"),
		validator.WithRule("transition_status", func(fl playground.FieldLevel) bool {
			return RecordStatus(fl.Field().String()).IsTerminal()
		}, "%s must be one of: accepted, rejected"),
		validator.WithRule("user_role", func(fl playground.FieldLevel) bool {
			_, err := ParseRole(fl.Field().String())
			return err == nil
		}, "%s must be one of: patient, doctor, admin"),
	)
}
