// Package service provides business logic for the script platform.
package service

import (
	"errors"
	"fmt"
)

// ErrForbidden is returned when the caller does not own the target
// resource. Detected before any side effect.
var ErrForbidden = errors.New("forbidden")

// ErrNotFound is returned when a resource identifier does not resolve.
var ErrNotFound = errors.New("not found")

// ValidationError marks malformed input. Detected before any side
// effect.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return e.Detail
}

// Validationf builds a ValidationError.
func Validationf(format string, args ...any) error {
	return &ValidationError{Detail: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
