package models

import "errors"

var ErrInvalidCredentials = errors.New("Invalid credentials")

// ValidationError marks caller mistakes (missing or blank required fields) so
// the HTTP boundary can answer 400 instead of 500.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidationError(message string) error {
	return &ValidationError{Message: message}
}
