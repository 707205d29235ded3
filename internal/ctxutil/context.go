// Package ctxutil provides type-safe context value management.
// Uses private key types to prevent collisions.
package ctxutil

import (
	"context"
)

type contextKey string

const (
	runIDKey contextKey = "ctxutil.runID"
	pageKey  contextKey = "ctxutil.page"
	stepKey  contextKey = "ctxutil.step"
)

// WithRunID adds a harvest run ID to the context.
// Every log line and ledger row of one run carries the same ID.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// GetRunID retrieves the run ID from the context.
// Returns the run ID if found, empty string otherwise.
func GetRunID(ctx context.Context) string {
	if v := ctx.Value(runIDKey); v != nil {
		if runID, ok := v.(string); ok && runID != "" {
			return runID
		}
	}
	return ""
}

// MustGetRunID retrieves the run ID from the context.
// Panics if the run ID is not found.
func MustGetRunID(ctx context.Context) string {
	runID, ok := ctx.Value(runIDKey).(string)
	if !ok || runID == "" {
		panic("ctxutil: runID not found")
	}
	return runID
}

// WithPage adds the 1-based results page number to the context.
func WithPage(ctx context.Context, page int) context.Context {
	return context.WithValue(ctx, pageKey, page)
}

// GetPage retrieves the results page number from the context.
// Returns the page and true if found, 0 and false otherwise.
func GetPage(ctx context.Context) (int, bool) {
	page, ok := ctx.Value(pageKey).(int)
	if !ok || page <= 0 {
		return 0, false
	}
	return page, true
}

// WithStep adds the current session step (search, advance, ...) to the context.
func WithStep(ctx context.Context, step string) context.Context {
	return context.WithValue(ctx, stepKey, step)
}

// GetStep retrieves the session step from the context.
func GetStep(ctx context.Context) string {
	if step, ok := ctx.Value(stepKey).(string); ok {
		return step
	}
	return ""
}

// PreserveTracing creates a detached context that keeps the run ID.
// The new context is independent of the parent's cancellation and deadlines.
//
// Use for cleanup that must finish after the run context was canceled,
// such as recording a failed run in the ledger.
func PreserveTracing(ctx context.Context) context.Context {
	newCtx := context.Background()

	if runID := GetRunID(ctx); runID != "" {
		newCtx = WithRunID(newCtx, runID)
	}

	return newCtx
}
