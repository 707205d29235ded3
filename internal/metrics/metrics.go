package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/garyellow/roomharvest/internal/pager"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// Harvest metrics
	PagesTotal       prometheus.Counter
	RowsScannedTotal prometheus.Counter
	RowsSkippedTotal *prometheus.CounterVec
	CellsFilledTotal *prometheus.CounterVec

	// Navigation metrics
	NavigationAttemptsTotal   *prometheus.CounterVec
	NavigationDurationSeconds *prometheus.HistogramVec

	// Run metrics
	RunsTotal          *prometheus.CounterVec
	RunDurationSeconds prometheus.Histogram
	LastRunTimestamp   prometheus.Gauge
}

var _ pager.Recorder = (*Metrics)(nil)

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,

		// Harvest metrics
		PagesTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "roomharvest_pages_total",
				Help: "Total number of result pages harvested",
			},
		),

		RowsScannedTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "roomharvest_rows_scanned_total",
				Help: "Total number of course rows read from result pages",
			},
		),

		RowsSkippedTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "roomharvest_rows_skipped_total",
				Help: "Total number of rows or meetings skipped by reason",
			},
			[]string{"reason"}, // reason: short_row, no_term, unparsed_day, unknown_room, etc.
		),

		CellsFilledTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "roomharvest_cells_filled_total",
				Help: "Total number of cell fill attempts by semester and result",
			},
			[]string{"semester", "result"}, // result: added, present
		),

		// Navigation metrics
		NavigationAttemptsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "roomharvest_navigation_attempts_total",
				Help: "Total number of pagination attempts by strategy and outcome",
			},
			[]string{"strategy", "outcome"}, // outcome: success, unchanged, failed
		),

		NavigationDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "roomharvest_navigation_duration_seconds",
				Help:    "Pagination attempt duration in seconds by strategy",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30, 60}, // Matches 30s change timeout + settle
			},
			[]string{"strategy"},
		),

		// Run metrics
		RunsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "roomharvest_runs_total",
				Help: "Total number of harvest runs by status",
			},
			[]string{"status"}, // status: completed, failed
		),

		RunDurationSeconds: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "roomharvest_run_duration_seconds",
				Help:    "Total duration of a harvest run",
				Buckets: []float64{60, 300, 600, 1800, 3600, 7200, 14400, 28800}, // 1min to 8h
			},
		),

		LastRunTimestamp: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "roomharvest_last_run_timestamp_seconds",
				Help: "Unix time the last harvest run finished",
			},
		),
	}

	return m
}

// RecordPage records one harvested result page
func (m *Metrics) RecordPage() {
	m.PagesTotal.Inc()
}

// RecordRows records rows read from a result page
func (m *Metrics) RecordRows(n int) {
	m.RowsScannedTotal.Add(float64(n))
}

// RecordSkip records a skipped row or meeting
func (m *Metrics) RecordSkip(reason string) {
	m.RowsSkippedTotal.WithLabelValues(reason).Inc()
}

// RecordFill records a cell fill attempt
func (m *Metrics) RecordFill(semester string, changed bool) {
	result := "present"
	if changed {
		result = "added"
	}
	m.CellsFilledTotal.WithLabelValues(semester, result).Inc()
}

// RecordNavigation records one pagination attempt
func (m *Metrics) RecordNavigation(strategy string, outcome pager.Outcome, d time.Duration) {
	m.NavigationAttemptsTotal.WithLabelValues(strategy, outcome.String()).Inc()
	m.NavigationDurationSeconds.WithLabelValues(strategy).Observe(d.Seconds())
}

// RecordRun records a finished harvest run
func (m *Metrics) RecordRun(status string, d time.Duration) {
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDurationSeconds.Observe(d.Seconds())
	m.LastRunTimestamp.SetToCurrentTime()
}

// WriteToTextfile writes the registry in the text exposition format for
// the node exporter textfile collector.
func (m *Metrics) WriteToTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
