package types

import (
	"errors"
	"fmt"
)

// Domain errors for type validation
var (
	// ErrValidation is wrapped by every ValidationError
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCategory is returned for categories outside the known set
	ErrInvalidCategory = errors.New("invalid category")
)

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
