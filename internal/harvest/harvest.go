// Package harvest drives one search session over the course catalog and
// fills the semester timetables with the rooms each course occupies.
package harvest

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/garyellow/roomharvest/internal/cellsplit"
	"github.com/garyellow/roomharvest/internal/ctxutil"
	"github.com/garyellow/roomharvest/internal/dayperiod"
	domerrors "github.com/garyellow/roomharvest/internal/errors"
	"github.com/garyellow/roomharvest/internal/logger"
	"github.com/garyellow/roomharvest/internal/pager"
	"github.com/garyellow/roomharvest/internal/room"
	"github.com/garyellow/roomharvest/internal/storage"
	"github.com/garyellow/roomharvest/internal/syllabus"
	"github.com/garyellow/roomharvest/internal/term"
	"github.com/garyellow/roomharvest/internal/timetable"
)

// Periods a timetable has rows for.
const (
	MinPeriod = 1
	MaxPeriod = 6
)

// Skip reasons, also used as metric labels.
const (
	SkipShortRow       = "short_row"
	SkipOtherYear      = "other_year"
	SkipNoTerm         = "no_term"
	SkipUnparsedDay    = "unparsed_day"
	SkipWeekend        = "weekend"
	SkipUnresolvedRoom = "unresolved_room"
	SkipUnknownRoom    = "unknown_room"
	SkipPeriodRange    = "period_range"
)

// Session is a search session that yields result pages.
type Session interface {
	Start(ctx context.Context) error
	Walk(ctx context.Context, visit pager.VisitFunc) (pager.WalkSummary, error)
}

// Ledger records runs and the assignments they make.
type Ledger interface {
	BeginRun(ctx context.Context, runID string) error
	RecordAssignments(ctx context.Context, runID string, page int, assignments []timetable.Assignment) error
	FinishRun(ctx context.Context, runID string, stats storage.RunStats) error
}

// Metrics receives harvest measurements.
type Metrics interface {
	RecordPage()
	RecordRows(n int)
	RecordSkip(reason string)
	RecordFill(semester string, changed bool)
}

type nopMetrics struct{}

func (nopMetrics) RecordPage()             {}
func (nopMetrics) RecordRows(int)          {}
func (nopMetrics) RecordSkip(string)       {}
func (nopMetrics) RecordFill(string, bool) {}

// Config configures a Harvester. Ledger and Metrics are optional.
type Config struct {
	Layout timetable.Layout
	// Year keeps only rows of that academic year when the row shows one.
	// Zero keeps every row.
	Year    int
	Ledger  Ledger
	Metrics Metrics
	Logger  *logger.Logger
}

// Summary describes a finished run.
type Summary struct {
	RunID      string
	Pages      int
	StopReason pager.StopReason
	// Rows counts rows whose term maps to at least one semester.
	Rows int
	// ScannedRows counts every data row read, short ones included.
	ScannedRows int
	Meetings    int
	// Filled counts cell writes, including values already present.
	Filled int
	// Changed counts writes that added a new value.
	Changed  int
	Skipped  map[string]int
	Duration time.Duration
}

// Harvester fills the timetables from one session. It is single use.
type Harvester struct {
	session Session
	cfg     Config
	log     *logger.Logger
	metrics Metrics
}

// New creates a Harvester reading pages from session.
func New(session Session, cfg Config) *Harvester {
	log := cfg.Logger
	if log == nil {
		log = logger.New("info")
	}
	m := cfg.Metrics
	if m == nil {
		m = nopMetrics{}
	}
	return &Harvester{
		session: session,
		cfg:     cfg,
		log:     log.WithModule("harvest"),
		metrics: m,
	}
}

// run is the mutable state of one Run.
type run struct {
	id     string
	roster *timetable.Roster
	tables timetable.Tables
	ledger Ledger
	sum    Summary
}

// Run loads the tables, walks every result page and writes the tables
// back. Tables are saved only when the walk ends normally.
func (h *Harvester) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	r := &run{
		id:     uuid.NewString(),
		ledger: h.cfg.Ledger,
	}
	r.sum = Summary{RunID: r.id, Skipped: make(map[string]int)}
	ctx = ctxutil.WithRunID(ctx, r.id)

	err := h.run(ctx, r)
	r.sum.Duration = time.Since(start)
	h.finishLedger(ctx, r, err)
	if err != nil {
		return r.sum, err
	}

	h.log.InfoContext(ctx, "Harvest completed",
		"pages", r.sum.Pages,
		"reason", string(r.sum.StopReason),
		"rows", r.sum.Rows,
		"scanned_rows", r.sum.ScannedRows,
		"filled", r.sum.Filled,
		"changed", r.sum.Changed,
		"skipped", r.sum.Skipped,
		"duration", r.sum.Duration.String(),
	)
	return r.sum, nil
}

func (h *Harvester) run(ctx context.Context, r *run) error {
	layout := h.cfg.Layout

	roster, err := timetable.LoadRoster(layout.RosterPath())
	if err != nil {
		return err
	}
	if roster.Len() == 0 {
		return domerrors.NewValidationError(timetable.RosterFile, "no rooms")
	}
	r.roster = roster

	tables, err := layout.LoadTables(ctx)
	if err != nil {
		return err
	}
	r.tables = tables
	h.log.InfoContext(ctx, "Loaded timetables", "rooms", roster.Len(), "root", layout.Root)

	if r.ledger != nil {
		if err := r.ledger.BeginRun(ctx, r.id); err != nil {
			h.log.WarnContext(ctx, "Ledger unavailable, continuing without it", "error", err)
			r.ledger = nil
		}
	}

	if err := h.session.Start(ctx); err != nil {
		return err
	}

	walk, err := h.session.Walk(ctx, func(ctx context.Context, pageNo int, html string) error {
		return h.visit(ctx, r, pageNo, html)
	})
	r.sum.Pages = walk.Pages
	r.sum.StopReason = walk.Reason
	if err != nil {
		return err
	}

	return layout.SaveTables(ctx, r.tables)
}

func (h *Harvester) finishLedger(ctx context.Context, r *run, runErr error) {
	if r.ledger == nil || r.tables == nil {
		return
	}
	stats := storage.RunStats{
		StopReason: string(r.sum.StopReason),
		Pages:      r.sum.Pages,
		Rows:       r.sum.Rows,
		Scanned:    r.sum.ScannedRows,
		Filled:     r.sum.Filled,
		Changed:    r.sum.Changed,
		Err:        runErr,
	}
	if err := r.ledger.FinishRun(context.WithoutCancel(ctx), r.id, stats); err != nil {
		h.log.WarnContext(ctx, "Failed to finish ledger run", "error", err)
	}
}

// visit harvests one result page. Problems with single rows are counted,
// never returned.
func (h *Harvester) visit(ctx context.Context, r *run, pageNo int, html string) error {
	page, err := syllabus.ParsePage(html)
	if err != nil {
		return err
	}
	h.metrics.RecordPage()

	scanned := len(page.Rows) + page.Short
	r.sum.ScannedRows += scanned
	h.metrics.RecordRows(scanned)
	for range page.Short {
		h.skip(r, SkipShortRow)
	}
	if defaulted := page.Schema.Defaulted(); len(defaulted) > 0 && pageNo == 1 {
		h.log.WarnContext(ctx, "Header not recognized, using default columns", "fields", defaulted)
	}

	var batch []timetable.Assignment
	filledBefore := r.sum.Filled
	for _, row := range page.Rows {
		batch = h.harvestRow(r, row, batch)
	}

	if r.ledger != nil && len(batch) > 0 {
		if err := r.ledger.RecordAssignments(ctx, r.id, pageNo, batch); err != nil {
			h.log.WarnContext(ctx, "Failed to record assignments", "error", err, "count", len(batch))
		}
	}

	h.log.DebugContext(ctx, "Harvested page",
		"range", page.Range,
		"rows", len(page.Rows),
		"short", page.Short,
		"filled", r.sum.Filled-filledBefore,
	)
	return nil
}

func (h *Harvester) harvestRow(r *run, row syllabus.Row, batch []timetable.Assignment) []timetable.Assignment {
	if h.cfg.Year != 0 && row.Year != "" && row.Year != strconv.Itoa(h.cfg.Year) {
		h.skip(r, SkipOtherYear)
		return batch
	}
	targets := term.Targets(row.Term)
	if len(targets) == 0 {
		h.skip(r, SkipNoTerm)
		return batch
	}
	r.sum.Rows++
	value := row.Value()

	for _, m := range cellsplit.Pair(row.DayLines, row.RoomLines) {
		r.sum.Meetings++

		slot, ok := dayperiod.Parse(m.DayPeriod)
		if !ok {
			h.skip(r, SkipUnparsedDay)
			continue
		}
		if !dayperiod.IsWeekday(slot.Day) {
			h.skip(r, SkipWeekend)
			continue
		}
		code := room.Canonicalize(m.Room)
		if code == room.Unresolved {
			h.skip(r, SkipUnresolvedRoom)
			continue
		}
		if !r.roster.Has(code) {
			h.skip(r, SkipUnknownRoom)
			continue
		}

		for _, period := range slot.Periods {
			if period < MinPeriod || period > MaxPeriod {
				h.skip(r, SkipPeriodRange)
				continue
			}
			for _, s := range targets {
				a := timetable.Assignment{Semester: s, Day: slot.Day, Period: period, Room: code, Value: value}
				changed := r.tables.Apply(a)
				r.sum.Filled++
				if changed {
					r.sum.Changed++
				}
				h.metrics.RecordFill(string(s), changed)
				batch = append(batch, a)
			}
		}
	}
	return batch
}

func (h *Harvester) skip(r *run, reason string) {
	r.sum.Skipped[reason]++
	h.metrics.RecordSkip(reason)
}

// IsFatal reports whether err ended the session because the catalog no
// longer looks the way the harvester expects.
func IsFatal(err error) bool {
	var se *domerrors.SessionError
	return errors.As(err, &se) || domerrors.IsLayoutChanged(err)
}
