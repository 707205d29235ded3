package storage

import (
	"errors"
	"time"
)

// Common errors
var (
	// ErrNotFound is returned when a resource is not found in the database
	ErrNotFound = errors.New("resource not found")
)

// RunStatus is the lifecycle state of a harvest run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// RunStats are the counters stored when a run finishes.
type RunStats struct {
	StopReason string
	Pages      int
	Rows       int
	Scanned    int
	Filled     int
	Changed    int
	// Err marks the run failed when non-nil.
	Err error
}

// Run is one recorded harvest run.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time // zero while running
	Status     RunStatus
	StopReason string
	Pages      int
	Rows       int
	Scanned    int
	Filled     int
	Changed    int
	Error      string
}
