package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrRunInProgress = errors.New("ingestion run already in progress")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
// Record-scoped: the ingestion loop counts these and continues.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// FetchError is returned by the feed client after all retry attempts for a
// page have been exhausted. It is terminal for the whole run: the orchestrator
// never attempts ingestion of a partially fetched batch.
type FetchError struct {
	Offset  int
	LastErr error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch page at offset %d: %v", e.Offset, e.LastErr)
}

func (e *FetchError) Unwrap() error { return e.LastErr }
