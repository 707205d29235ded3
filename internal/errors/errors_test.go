package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		checkFn  func(error) bool
		expected bool
	}{
		{
			name:     "ErrNotFound is recognized",
			err:      ErrNotFound,
			checkFn:  IsNotFound,
			expected: true,
		},
		{
			name:     "Joined ErrNotFound is recognized",
			err:      errors.Join(ErrNotFound, errors.New("additional context")),
			checkFn:  IsNotFound,
			expected: true,
		},
		{
			name:     "Different error is not ErrNotFound",
			err:      ErrTimeout,
			checkFn:  IsNotFound,
			expected: false,
		},
		{
			name:     "ValidationError is invalid input",
			err:      NewValidationError("period", "missing column"),
			checkFn:  IsInvalidInput,
			expected: true,
		},
		{
			name:     "Wrapped layout change is recognized",
			err:      fmt.Errorf("start: %w", ErrLayoutChanged),
			checkFn:  IsLayoutChanged,
			expected: true,
		},
		{
			name:     "Missing results table counts as layout change",
			err:      NewSessionError("wait_results", "", ErrResultsTableMissing),
			checkFn:  IsLayoutChanged,
			expected: true,
		},
		{
			name:     "Timeout is not a layout change",
			err:      ErrTimeout,
			checkFn:  IsLayoutChanged,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.checkFn(tt.err); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	t.Parallel()
	err := NewValidationError("period", "column is required")

	if err.Field != "period" {
		t.Errorf("expected field 'period', got '%s'", err.Field)
	}
	expected := "validation failed on period: column is required"
	if err.Error() != expected {
		t.Errorf("expected error '%s', got '%s'", expected, err.Error())
	}
}

func TestSessionError(t *testing.T) {
	t.Parallel()
	base := errors.New("selector not found")
	err := NewSessionError("select_term", "https://example.edu/search", base)

	if !errors.Is(err, base) {
		t.Error("expected SessionError to unwrap to base error")
	}
	expected := "session error (step=select_term, url=https://example.edu/search): selector not found"
	if err.Error() != expected {
		t.Errorf("expected '%s', got '%s'", expected, err.Error())
	}

	noURL := NewSessionError("submit_search", "", base)
	if noURL.Error() != "session error (step=submit_search): selector not found" {
		t.Errorf("unexpected message: %s", noURL.Error())
	}
}
