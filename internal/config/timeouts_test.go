package config

import (
	"testing"
	"time"
)

// TestBrowserTimeouts verifies browser-related timeout constants
func TestBrowserTimeouts(t *testing.T) {
	tests := []struct {
		name     string
		got      time.Duration
		expected time.Duration
	}{
		{"BrowserOperation", BrowserOperation, 30 * time.Second},
		{"ResultsWait", ResultsWait, 15 * time.Second},
		{"PageChangeWait", PageChangeWait, 30 * time.Second},
		{"PageSizeWait", PageSizeWait, 15 * time.Second},
		{"IndicatorPoll", IndicatorPoll, 250 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}
}

// TestPacingDelays verifies the pauses between pages
func TestPacingDelays(t *testing.T) {
	tests := []struct {
		name     string
		got      time.Duration
		expected time.Duration
	}{
		{"PageThrottle", PageThrottle, 200 * time.Millisecond},
		{"SettleDelay", SettleDelay, 2 * time.Second},
		{"NavigateRetryInitial", NavigateRetryInitial, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}
}

// TestTimeoutRelationships verifies logical relationships between timeouts
func TestTimeoutRelationships(t *testing.T) {
	// The indicator must be read several times before a change times out
	if IndicatorPoll*10 > PageChangeWait {
		t.Errorf("IndicatorPoll (%v) is too coarse for PageChangeWait (%v)", IndicatorPoll, PageChangeWait)
	}

	// Settling after a change should not take longer than the change itself
	if SettleDelay >= PageChangeWait {
		t.Errorf("SettleDelay (%v) should be < PageChangeWait (%v)", SettleDelay, PageChangeWait)
	}

	// A single browser call must be able to outlast the results wait
	if BrowserOperation < ResultsWait {
		t.Errorf("BrowserOperation (%v) should be >= ResultsWait (%v)", BrowserOperation, ResultsWait)
	}

	if SentryFlush > LoggerShutdown {
		t.Errorf("SentryFlush (%v) should be <= LoggerShutdown (%v)", SentryFlush, LoggerShutdown)
	}
}
