package harvest_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domerrors "github.com/garyellow/roomharvest/internal/errors"
	"github.com/garyellow/roomharvest/internal/harvest"
	"github.com/garyellow/roomharvest/internal/logger"
	"github.com/garyellow/roomharvest/internal/metrics"
	"github.com/garyellow/roomharvest/internal/pager"
	"github.com/garyellow/roomharvest/internal/pager/pagertest"
	"github.com/garyellow/roomharvest/internal/storage"
	"github.com/garyellow/roomharvest/internal/term"
	"github.com/garyellow/roomharvest/internal/timetable"
)

const (
	roster    = "classroom,capacity\n53-101,100\n63PC-G,40\n"
	emptyGrid = "\ufeffperiod,53-101,63PC-G\n1,,\n2,,\n3,,\n4,,\n5,,\n6,,\n"
	header    = `<tr><th>Year</th><th>Course Code</th><th>Course Title</th><th>Instructor</th><th>Credits</th><th>Term</th><th>Day/Period</th><th>Classroom</th></tr>`
)

func courseRow(year, code, title, termLabel, day, room string) string {
	return fmt.Sprintf(`<tr><td>%s</td><td>%s</td><td>%s</td><td>T</td><td>2</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
		year, code, title, termLabel, day, room)
}

func resultsPage(indicator string, rows ...string) string {
	return `<html><body><div class="c-selectall"><font>` + indicator + `</font></div><table class="ct-vh">` +
		header + strings.Join(rows, "") + `</table></body></html>`
}

// twoPageCatalog holds one fillable course per page and one course per
// skip reason.
func twoPageCatalog() *pagertest.Catalog {
	ind1, ind2 := "1～5／9", "6～9／9"
	return &pagertest.Catalog{
		Site: pager.DefaultSite(),
		Pages: []string{
			resultsPage(ind1,
				courseRow("2025", "A1", "Algebra", "fall quarter", "Mon.5", "53-101"),
				courseRow("2025", "B2", "Botany", "spring semester", "Tue.1", "53-101"),
				courseRow("2025", "C3", "Drama", "fall semester", "Sat.2", "53-101"),
				courseRow("2025", "D4", "Economics", "fall quarter", "Wed.3", "Online"),
				courseRow("2025", "E5", "Film", "fall quarter", "Thu.7", "53-101"),
				`<tr><td colspan="8">-</td></tr>`,
			),
			resultsPage(ind2,
				courseRow("2025", "F6", "Geology", "冬クォーター", "火2時限", "63-3F-G"),
				courseRow("2025", "G7", "History", "fall semester", "On demand", "53-101"),
				courseRow("2025", "H8", "Italian", "fall semester", "Fri.1", "未定"),
				courseRow("2024", "I9", "Japanese", "fall semester", "Mon.1", "53-101"),
			),
		},
		Indicators: []string{ind1, ind2},
	}
}

func writeData(t *testing.T) timetable.Layout {
	t.Helper()
	layout := timetable.Layout{Root: t.TempDir()}
	require.NoError(t, os.WriteFile(layout.RosterPath(), []byte(roster), 0o644))
	for _, s := range term.Semesters {
		dir := layout.SemesterDir(s)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		for _, day := range []string{"mon", "tue", "wed", "thu", "fri"} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, day+".csv"), []byte(emptyGrid), 0o644))
		}
	}
	return layout
}

func quietLogger() *logger.Logger {
	return logger.NewWithWriter("error", &bytes.Buffer{})
}

func fastOptions() pager.Options {
	return pager.Options{
		ChangeTimeout:   20 * time.Millisecond,
		PageSizeTimeout: 20 * time.Millisecond,
		ResultsTimeout:  20 * time.Millisecond,
		PollInterval:    time.Millisecond,
		SampleLinks:     5,
	}
}

func newSession(cat *pagertest.Catalog) *pager.Controller {
	return pager.New(cat, cat.Site, fastOptions(), quietLogger(), nil)
}

func cell(t *testing.T, layout timetable.Layout, s term.Semester, day string, period int, room string) string {
	t.Helper()
	tables, err := layout.LoadTables(context.Background())
	require.NoError(t, err)
	v, ok := tables[s][day].Cell(period, room)
	require.True(t, ok)
	return v
}

func TestRun_TwoPages(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	layout := writeData(t)
	cat := twoPageCatalog()

	db, err := storage.NewTestDB(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	m := metrics.New(prometheus.NewRegistry())

	h := harvest.New(newSession(cat), harvest.Config{
		Layout:  layout,
		Year:    2025,
		Ledger:  db,
		Metrics: m,
		Logger:  quietLogger(),
	})
	sum, err := h.Run(ctx)
	require.NoError(t, err)

	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, 2, sum.Pages)
	assert.Equal(t, pager.LastPage, sum.StopReason)
	assert.Equal(t, 1, cat.Advances())
	assert.Equal(t, 10, sum.ScannedRows)
	assert.Equal(t, 7, sum.Rows)
	assert.Equal(t, 7, sum.Meetings)
	assert.Equal(t, 2, sum.Filled)
	assert.Equal(t, 2, sum.Changed)
	assert.Equal(t, map[string]int{
		harvest.SkipShortRow:       1,
		harvest.SkipNoTerm:         1,
		harvest.SkipWeekend:        1,
		harvest.SkipUnknownRoom:    1,
		harvest.SkipPeriodRange:    1,
		harvest.SkipUnparsedDay:    1,
		harvest.SkipUnresolvedRoom: 1,
		harvest.SkipOtherYear:      1,
	}, sum.Skipped)

	assert.Equal(t, "A1:Algebra", cell(t, layout, term.Fall, "mon", 5, "53-101"))
	assert.Equal(t, "", cell(t, layout, term.Winter, "mon", 5, "53-101"))
	assert.Equal(t, "F6:Geology", cell(t, layout, term.Winter, "tue", 2, "63PC-G"))
	assert.Equal(t, "", cell(t, layout, term.Fall, "tue", 2, "63PC-G"))

	run, err := db.GetRun(ctx, sum.RunID)
	require.NoError(t, err)
	assert.Equal(t, storage.RunCompleted, run.Status)
	assert.Equal(t, "last_page", run.StopReason)
	assert.Equal(t, 2, run.Filled)

	recorded, err := db.Assignments(ctx, sum.RunID)
	require.NoError(t, err)
	assert.Equal(t, []timetable.Assignment{
		{Semester: term.Fall, Day: "mon", Period: 5, Room: "53-101", Value: "A1:Algebra"},
		{Semester: term.Winter, Day: "tue", Period: 2, Room: "63PC-G", Value: "F6:Geology"},
	}, recorded)

	assert.InDelta(t, 2, testutil.ToFloat64(m.PagesTotal), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RowsSkippedTotal.WithLabelValues(harvest.SkipWeekend)), 0)
}

// snapshot flattens every cell of every table into "semester/day/period/room".
func snapshot(t *testing.T, layout timetable.Layout) map[string]string {
	t.Helper()
	tables, err := layout.LoadTables(context.Background())
	require.NoError(t, err)
	out := map[string]string{}
	for s, week := range tables {
		for day, g := range week {
			for _, p := range g.Periods() {
				for _, room := range g.Rooms() {
					v, _ := g.Cell(p, room)
					out[fmt.Sprintf("%s/%s/%d/%s", s, day, p, room)] = v
				}
			}
		}
	}
	return out
}

func TestRun_FallSemesterAndWinterQuarter(t *testing.T) {
	t.Parallel()
	layout := writeData(t)
	ind1, ind2 := "1～1／2", "2～2／2"
	cat := &pagertest.Catalog{
		Site: pager.DefaultSite(),
		Pages: []string{
			resultsPage(ind1, courseRow("2025", "M1", "Microeconomics", "fall semester", "月5時限", "53-101")),
			resultsPage(ind2, courseRow("2025", "N2", "Numerics", "winter quarter", "Tue.2", "63-3F-G")),
		},
		Indicators: []string{ind1, ind2},
	}
	before := snapshot(t, layout)

	sum, err := harvest.New(newSession(cat), harvest.Config{Layout: layout, Logger: quietLogger()}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Pages)
	assert.Equal(t, 1, cat.Advances())

	after := snapshot(t, layout)
	require.Len(t, after, len(before))

	// A fall semester spans the winter quarter too.
	want := map[string]string{
		"fall/mon/5/53-101":   "M1:Microeconomics",
		"winter/mon/5/53-101": "M1:Microeconomics",
		"winter/tue/2/63PC-G": "N2:Numerics",
	}
	changed := map[string]string{}
	for k, v := range after {
		if v != before[k] {
			changed[k] = v
		}
	}
	assert.Equal(t, want, changed)
}

func TestRun_Idempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	layout := writeData(t)

	first, err := harvest.New(newSession(twoPageCatalog()), harvest.Config{Layout: layout, Logger: quietLogger()}).Run(ctx)
	require.NoError(t, err)
	second, err := harvest.New(newSession(twoPageCatalog()), harvest.Config{Layout: layout, Logger: quietLogger()}).Run(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.Filled, second.Filled)
	assert.Equal(t, 0, second.Changed)
	assert.Equal(t, "A1:Algebra", cell(t, layout, term.Fall, "mon", 5, "53-101"))
}

func TestRun_NoYearFilter(t *testing.T) {
	t.Parallel()
	layout := writeData(t)

	sum, err := harvest.New(newSession(twoPageCatalog()), harvest.Config{Layout: layout, Logger: quietLogger()}).Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, sum.Skipped[harvest.SkipOtherYear])
	// A fall semester course fills both semesters.
	assert.Equal(t, 4, sum.Filled)
	assert.Equal(t, "I9:Japanese", cell(t, layout, term.Fall, "mon", 1, "53-101"))
	assert.Equal(t, "I9:Japanese", cell(t, layout, term.Winter, "mon", 1, "53-101"))
}

func TestRun_PairsKeyedLines(t *testing.T) {
	t.Parallel()
	layout := writeData(t)
	cat := &pagertest.Catalog{
		Site: pager.DefaultSite(),
		Pages: []string{resultsPage("1～1／1",
			courseRow("2025", "K1", "Korean", "秋クォーター", "01:月5時限<br>02:水3時限", "02:63-3F-G<br>01:53-101"),
		)},
		Indicators: []string{"1～1／1"},
	}

	sum, err := harvest.New(newSession(cat), harvest.Config{Layout: layout, Logger: quietLogger()}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, cat.Advances())
	assert.Equal(t, 2, sum.Filled)
	assert.Equal(t, "K1:Korean", cell(t, layout, term.Fall, "mon", 5, "53-101"))
	assert.Equal(t, "K1:Korean", cell(t, layout, term.Fall, "wed", 3, "63PC-G"))
	assert.Equal(t, "", cell(t, layout, term.Fall, "mon", 5, "63PC-G"))
}

func TestRun_LayoutChangedKeepsTables(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	layout := writeData(t)
	cat := twoPageCatalog()
	cat.NoTermControl = true

	db, err := storage.NewTestDB(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sum, err := harvest.New(newSession(cat), harvest.Config{Layout: layout, Ledger: db, Logger: quietLogger()}).Run(ctx)
	require.Error(t, err)
	assert.True(t, domerrors.IsLayoutChanged(err))
	assert.True(t, harvest.IsFatal(err))
	assert.Zero(t, sum.Filled)

	run, err := db.GetRun(ctx, sum.RunID)
	require.NoError(t, err)
	assert.Equal(t, storage.RunFailed, run.Status)
	assert.NotEmpty(t, run.Error)
}

type failingSession struct {
	walkErr error
	pages   []string
}

func (s *failingSession) Start(context.Context) error { return nil }

func (s *failingSession) Walk(ctx context.Context, visit pager.VisitFunc) (pager.WalkSummary, error) {
	var sum pager.WalkSummary
	for i, html := range s.pages {
		if err := visit(ctx, i+1, html); err != nil {
			return sum, err
		}
		sum.Pages++
	}
	return sum, s.walkErr
}

func TestRun_WalkErrorDoesNotSave(t *testing.T) {
	t.Parallel()
	layout := writeData(t)
	walkErr := errors.New("browser crashed")
	session := &failingSession{
		walkErr: walkErr,
		pages:   []string{twoPageCatalog().Pages[0]},
	}

	sum, err := harvest.New(session, harvest.Config{Layout: layout, Logger: quietLogger()}).Run(context.Background())
	require.ErrorIs(t, err, walkErr)
	assert.False(t, harvest.IsFatal(err))
	assert.Equal(t, 1, sum.Pages)
	assert.Equal(t, 1, sum.Filled)
	assert.Equal(t, "", cell(t, layout, term.Fall, "mon", 5, "53-101"))
}

func TestRun_MissingRoster(t *testing.T) {
	t.Parallel()
	layout := writeData(t)
	require.NoError(t, os.Remove(layout.RosterPath()))

	_, err := harvest.New(&failingSession{}, harvest.Config{Layout: layout, Logger: quietLogger()}).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRun_EmptyRoster(t *testing.T) {
	t.Parallel()
	layout := writeData(t)
	require.NoError(t, os.WriteFile(layout.RosterPath(), []byte("classroom,capacity\n"), 0o644))

	_, err := harvest.New(&failingSession{}, harvest.Config{Layout: layout, Logger: quietLogger()}).Run(context.Background())
	assert.True(t, domerrors.IsInvalidInput(err))
}

func TestRun_Cancelled(t *testing.T) {
	t.Parallel()
	layout := writeData(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := harvest.New(newSession(twoPageCatalog()), harvest.Config{Layout: layout, Logger: quietLogger()}).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
