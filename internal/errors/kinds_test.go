package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFound(t *testing.T) {
	err := NotFound("habit", "abc")
	if !IsNotFound(err) {
		t.Fatalf("IsNotFound(%v) = false, want true", err)
	}
	if got, want := err.Error(), `habit "abc": not found`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	wrapped := fmt.Errorf("load stats: %w", err)
	if !IsNotFound(wrapped) {
		t.Error("wrapped NotFound should still match ErrNotFound")
	}
	if IsValidation(wrapped) {
		t.Error("NotFound should not match ErrValidation")
	}
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "required", err: Required("habitId"), want: "habitId: is required"},
		{name: "invalid", err: Invalid("date", "expected YYYY-MM-DD, got %q", "03/04"), want: `date: expected YYYY-MM-DD, got "03/04"`},
		{name: "no field", err: &ValidationError{Message: "bad input"}, want: "bad input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.want {
				t.Errorf("Error() = %q, want %q", tt.err.Error(), tt.want)
			}
			if !IsValidation(fmt.Errorf("create: %w", tt.err)) {
				t.Error("expected wrapped error to match ErrValidation")
			}
			var ve *ValidationError
			if !errors.As(tt.err, &ve) {
				t.Error("errors.As should find *ValidationError")
			}
		})
	}
}

func TestTransient(t *testing.T) {
	if Transient(nil) != nil {
		t.Error("Transient(nil) should be nil")
	}

	err := Transient(fmt.Errorf("retry: %w", ErrConflictLost))
	if !IsConflict(err) {
		t.Error("transient conflict should still match ErrConflictLost")
	}
	var te *TransientError
	if !errors.As(err, &te) {
		t.Error("errors.As should find *TransientError")
	}
}
