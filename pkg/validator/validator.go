package validator

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/medrecords-api/pkg/errors"
)

// Validator provides validation functionality
type Validator interface {
	Validate(interface{}) error
}

type structValidator struct {
	v        *validator.Validate
	messages map[string]string
}

// Option customises a Validator.
type Option func(*structValidator)

// WithRule registers a custom tag together with the message reported when a
// field fails it. The message receives the field name as its only argument.
func WithRule(tag string, fn validator.Func, message string) Option {
	return func(s *structValidator) {
		if err := s.v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("validator: register %q: %v", tag, err))
		}
		s.messages[tag] = message
	}
}

// New returns a Validator reading `validate` struct tags. Field names in
// messages follow the json tag so they match what clients sent.
func New(opts ...Option) Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	s := &structValidator{v: v, messages: map[string]string{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate returns nil or an *errors.AppError with code ErrValidation that
// describes the first failing field.
func (s *structValidator) Validate(obj interface{}) error {
	err := s.v.Struct(obj)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if stderrors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return errors.NewValidation(s.describe(fieldErrs[0]), err)
	}
	return errors.NewValidation("invalid request", err)
}

func (s *structValidator) describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	if msg, ok := s.messages[fe.Tag()]; ok {
		return fmt.Sprintf(msg, field)
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "uuid", "uuid4":
		return fmt.Sprintf("%s is malformed", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
