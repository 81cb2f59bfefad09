package models

import (
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// letterPattern accepts Russian and Latin letters and the hyphen, nothing else.
var letterPattern = regexp.MustCompile(`^[а-яА-ЯёЁa-zA-Z\-]+$`)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError reports a request field that breaks an input rule.
// It carries no transport details; the HTTP layer decides the status code.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// IsValidationError reports whether err is, or wraps, a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validate checks the body field by field in declaration order and returns
// the first failure.
func (u UserCreate) Validate() error {
	if !letterPattern.MatchString(u.Name) {
		return &ValidationError{Field: "name", Message: "Name should contains only letters"}
	}
	if !letterPattern.MatchString(u.Surname) {
		return &ValidationError{Field: "surname", Message: "Surname should contains only letters"}
	}
	if err := validate.Var(u.Email, "required,email"); err != nil {
		return &ValidationError{Field: "email", Message: "Email should be a valid email address"}
	}
	return nil
}
