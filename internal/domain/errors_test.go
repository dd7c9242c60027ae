package domain

import (
	"errors"
	"testing"
)

func TestValidationError_Unwrap(t *testing.T) {
	t.Parallel()

	err := NewValidationError("state", "is required")

	if !errors.Is(err, ErrValidation) {
		t.Errorf("errors.Is(err, ErrValidation) = false, want true")
	}
	if errors.Is(err, ErrNotFound) {
		t.Errorf("errors.Is(err, ErrNotFound) = true, want false")
	}
}

func TestValidationError_Message(t *testing.T) {
	t.Parallel()

	single := NewValidationError("market", "is required")
	if got := single.Error(); got != "validation: market is required" {
		t.Errorf("Error() = %q", got)
	}

	multi := &ValidationError{Errors: []FieldError{
		{Field: "state", Message: "is required"},
		{Field: "min_price", Message: "is not numeric"},
	}}
	if got := multi.Error(); got != "validation: 2 errors" {
		t.Errorf("Error() = %q", got)
	}
}

func TestFetchError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := &FetchError{Offset: 10000, LastErr: cause}

	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(err, cause) = false, want true")
	}
	want := "fetch page at offset 10000: connection refused"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
