// Package config provides centralized timeout constants for the application.
//
// The catalog is a shared university service. Pacing values keep one
// session well below interactive browsing speed, and every wait is bounded
// so a layout change fails the run instead of hanging it.
package config

import "time"

// Browser timeouts
const (
	// BrowserOperation bounds a single browser call (navigation, click,
	// script evaluation) that has no timeout of its own.
	BrowserOperation = 30 * time.Second

	// ResultsWait is how long the first results table may take to render
	// after the search is submitted.
	ResultsWait = 15 * time.Second

	// PageChangeWait is how long a navigation attempt may take before the
	// range indicator must have moved.
	PageChangeWait = 30 * time.Second

	// PageSizeWait bounds the optional switch to a larger page size.
	PageSizeWait = 15 * time.Second

	// IndicatorPoll is the interval between range indicator reads.
	IndicatorPoll = 250 * time.Millisecond
)

// Pacing delays
const (
	// PageThrottle is the pause after each harvested page.
	PageThrottle = 200 * time.Millisecond

	// SettleDelay is the pause after a confirmed page change, letting
	// late scripts finish rewriting the table.
	SettleDelay = 2 * time.Second

	// NavigateRetryInitial is the first backoff delay when the search page
	// fails to load.
	NavigateRetryInitial = time.Second
)

// Shutdown timeouts
const (
	// LoggerShutdown bounds draining the remote log handler.
	LoggerShutdown = 5 * time.Second

	// SentryFlush bounds delivery of buffered error events.
	SentryFlush = 2 * time.Second

	// PublishUpload bounds uploading the tables to object storage.
	PublishUpload = 2 * time.Minute
)
