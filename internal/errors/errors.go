// Package errors provides domain-specific error types and sentinel errors
// for the harvester.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrNotFound indicates a requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates an input file or value is malformed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTimeout indicates an operation timed out.
	ErrTimeout = errors.New("operation timed out")

	// ErrLayoutChanged indicates the catalog site no longer offers an
	// affordance the session depends on (term filter, search control).
	ErrLayoutChanged = errors.New("catalog layout changed")

	// ErrResultsTableMissing indicates the results table did not render.
	ErrResultsTableMissing = errors.New("results table missing")
)

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput reports whether err is or wraps ErrInvalidInput.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsLayoutChanged reports whether err is or wraps ErrLayoutChanged or ErrResultsTableMissing.
func IsLayoutChanged(err error) bool {
	return errors.Is(err, ErrLayoutChanged) || errors.Is(err, ErrResultsTableMissing)
}

// ValidationError represents input validation failures.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// SessionError is a fatal browsing-session failure at a named step.
type SessionError struct {
	Step string
	URL  string
	Err  error
}

func (e *SessionError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("session error (step=%s, url=%s): %v", e.Step, e.URL, e.Err)
	}
	return fmt.Sprintf("session error (step=%s): %v", e.Step, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// NewSessionError creates a new session error.
func NewSessionError(step, url string, err error) *SessionError {
	return &SessionError{
		Step: step,
		URL:  url,
		Err:  err,
	}
}
