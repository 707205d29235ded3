// Package sentry provides Sentry SDK initialization for Better Stack error tracking integration.
// It wraps the Sentry Go SDK and reports failed harvest runs with their
// run, page and step.
package sentry

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/garyellow/roomharvest/internal/ctxutil"
	domerrors "github.com/garyellow/roomharvest/internal/errors"
)

// Config holds Sentry configuration for Better Stack integration.
type Config struct {
	// Token is the Better Stack Errors application token.
	Token string

	// Host is the Better Stack Errors ingesting host (e.g., "errors.betterstack.com").
	Host string

	// Environment identifies the deployment environment (e.g., "production", "staging").
	Environment string

	// Release identifies the application release version.
	Release string

	// SampleRate controls error sampling (0.0-1.0, default 1.0 = 100%).
	SampleRate float64

	// Debug enables Sentry SDK debug logging.
	Debug bool
}

// Initialize sets up the Sentry SDK with Better Stack configuration.
// If Token is empty, Sentry is disabled and nil is returned.
// The DSN is constructed as: https://$TOKEN@$HOST/1
func Initialize(cfg Config) error {
	if cfg.Token == "" {
		return nil // Sentry disabled
	}

	if cfg.Host == "" {
		return fmt.Errorf("sentry host is required when token is provided")
	}

	// Build DSN for Better Stack: https://$TOKEN@$HOST/1
	// The project ID (/1) is required by Sentry SDK but ignored by Better Stack.
	dsn := fmt.Sprintf("https://%s@%s/1", cfg.Token, cfg.Host)

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 1.0 // Default to 100% sampling
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       sampleRate,
		Debug:            cfg.Debug,
		AttachStacktrace: true,
	})
}

// Flush waits for buffered events to be sent to the server.
// Returns true if all events were sent within the timeout.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// IsEnabled returns true if Sentry is initialized and active.
func IsEnabled() bool {
	return sentry.CurrentHub().Client() != nil
}

// CaptureException captures an error and sends it to Sentry.
func CaptureException(err error) {
	sentry.CaptureException(err)
}

// CaptureExceptionWithContext captures an error with context information.
func CaptureExceptionWithContext(ctx context.Context, err error) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.CaptureException(err)
}

// CaptureMessage captures a message and sends it to Sentry.
func CaptureMessage(message string) {
	sentry.CaptureMessage(message)
}

// CaptureRunError reports a failed harvest run. The event is tagged with
// the run, page and step carried by ctx and with the failure kind, and is
// fingerprinted by kind and step so repeated failures of one kind group
// together. It is a no-op when Sentry is disabled.
func CaptureRunError(ctx context.Context, err error) {
	if err == nil || !IsEnabled() {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub = hub.Clone()

	tags := RunTags(ctx, err)
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		scope.SetFingerprint([]string{"harvest", tags["kind"], tags["step"]})
		if op := domerrors.Operation(err); op != "" {
			scope.SetTag("operation", op)
		}
	})
	hub.CaptureException(err)
}

// RunTags derives the event tags for a run failure.
func RunTags(ctx context.Context, err error) map[string]string {
	tags := map[string]string{"kind": Kind(err)}
	if id := ctxutil.GetRunID(ctx); id != "" {
		tags["run_id"] = id
	}
	if page, ok := ctxutil.GetPage(ctx); ok {
		tags["page"] = strconv.Itoa(page)
	}

	step := ctxutil.GetStep(ctx)
	var se *domerrors.SessionError
	if errors.As(err, &se) {
		step = se.Step
	}
	if step != "" {
		tags["step"] = step
	}
	return tags
}

// Kind classifies a run failure.
func Kind(err error) string {
	var se *domerrors.SessionError
	var ve *domerrors.ValidationError
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case domerrors.IsLayoutChanged(err):
		return "layout_changed"
	case errors.As(err, &se):
		return "session"
	case errors.As(err, &ve):
		return "validation"
	default:
		return "other"
	}
}
