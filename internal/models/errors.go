package models

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the validator, ledger, and storage layers.
var (
	ErrValidation             = errors.New("validation error")
	ErrNotFound               = errors.New("not found")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrInvariantViolation     = errors.New("invariant violation")
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
)

// Rejection reasons carried by ValidationError.
const (
	ReasonMissingField = "missing field"
	ReasonInvalid      = "invalid format"
	ReasonNotPositive  = "must be greater than 0"
	ReasonTooLarge     = "too large"
)

// ValidationError describes bad input for a single field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
