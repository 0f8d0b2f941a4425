// Package apperr defines the error taxonomy shared by services and handlers.
// Services wrap these sentinels with context; handlers map them to HTTP codes.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound — a referenced entity id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict — a legal-shaped request violates a lifecycle invariant
	// (asset not AVAILABLE, entity still referenced, duplicate key).
	ErrConflict = errors.New("conflict")
	// ErrValidation — malformed or missing input, rejected before any
	// transaction opens.
	ErrValidation = errors.New("validation failed")
	// ErrUnavailable — the external enrichment source is unreachable or
	// returned malformed data. Recoverable: manual entry remains possible.
	ErrUnavailable = errors.New("external source unavailable")
)

// NotFoundf wraps ErrNotFound with a formatted message.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Conflictf wraps ErrConflict with a formatted message. The message should
// carry enough context (current status, holder) to explain the failure.
func Conflictf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// Validationf wraps ErrValidation with a formatted message.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Unavailablef wraps ErrUnavailable with a formatted message.
func Unavailablef(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrUnavailable, fmt.Sprintf(format, args...))
}
