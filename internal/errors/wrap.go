package errors

import (
	"errors"
	"fmt"
)

// ErrorWrapper attaches component and operation context to errors.
type ErrorWrapper struct {
	component string
	operation string
}

// NewWrapper creates a new error wrapper for a component operation.
func NewWrapper(component, operation string) *ErrorWrapper {
	return &ErrorWrapper{
		component: component,
		operation: operation,
	}
}

// Wrap wraps an error with operation context.
// Returns nil if err is nil.
func (w *ErrorWrapper) Wrap(err error, detail string) error {
	if err == nil {
		return nil
	}
	return &WrappedError{
		Component: w.component,
		Operation: w.operation,
		Detail:    detail,
		Cause:     err,
	}
}

// Wrapf wraps an error with a formatted detail.
func (w *ErrorWrapper) Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return w.Wrap(err, fmt.Sprintf(format, args...))
}

// WrappedError carries the failing component and operation alongside the cause.
type WrappedError struct {
	Component string // e.g. "timetable", "ledger", "publish"
	Operation string // e.g. "load_week", "record_slot"
	Detail    string // what was being worked on, e.g. a file path
	Cause     error
}

func (e *WrappedError) Error() string {
	return fmt.Sprintf("[%s:%s] %s: %v", e.Component, e.Operation, e.Detail, e.Cause)
}

func (e *WrappedError) Unwrap() error {
	return e.Cause
}

// Operation returns "component:operation" of the outermost WrappedError in
// err's chain, or "" if there is none. Used as a metric and report label.
func Operation(err error) string {
	var w *WrappedError
	if errors.As(err, &w) {
		return w.Component + ":" + w.Operation
	}
	return ""
}
