package commands

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/roomharvest/internal/config"
	"github.com/garyellow/roomharvest/internal/harvest"
	"github.com/garyellow/roomharvest/internal/pager"
	"github.com/garyellow/roomharvest/internal/timetable"
)

func TestRenderSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	root := t.TempDir()
	renderSummary(&buf, harvest.Summary{
		RunID:       "run-1",
		Pages:       3,
		StopReason:  pager.LastPage,
		Rows:        250,
		ScannedRows: 260,
		Meetings:    240,
		Filled:      198,
		Changed:     12,
		Skipped:     map[string]int{harvest.SkipUnknownRoom: 4, harvest.SkipWeekend: 2},
		Duration:    1500 * time.Millisecond,
	}, timetable.Layout{Root: root})

	out := buf.String()
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "Skipped: unknown_room")
	assert.Contains(t, out, "[done] scanned_rows=260, filled_cells=198\n")
	assert.Contains(t, out, filepath.Join(root, "period_room_fall"))
	assert.Contains(t, out, filepath.Join(root, "period_room_winter"))
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("unknown_room")), bytes.Index(buf.Bytes(), []byte("weekend")), "skip reasons are sorted")
}

func TestSiteFor(t *testing.T) {
	t.Parallel()

	site, err := siteFor(&config.Config{})
	require.NoError(t, err)
	assert.Equal(t, pager.DefaultSite().SearchURL, site.SearchURL)

	site, err = siteFor(&config.Config{SearchURL: "http://localhost:8080/search", TermPattern: `(?i)autumn`})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/search", site.SearchURL)
	assert.True(t, site.TermLabel.MatchString("Autumn"))

	_, err = siteFor(&config.Config{TermPattern: "("})
	require.Error(t, err)
}

func TestPagerOptions(t *testing.T) {
	t.Parallel()

	opts := pagerOptions(&config.Config{
		Throttle:       time.Second,
		SettleDelay:    3 * time.Second,
		ResultsTimeout: 20 * time.Second,
		ChangeTimeout:  40 * time.Second,
		PollInterval:   100 * time.Millisecond,
		MaxPages:       5,
	})
	assert.Equal(t, time.Second, opts.Throttle)
	assert.Equal(t, 3*time.Second, opts.Settle)
	assert.Equal(t, 40*time.Second, opts.ChangeTimeout)
	assert.Equal(t, 5, opts.MaxPages)
	assert.Equal(t, pager.DefaultOptions().NavigateRetries, opts.NavigateRetries)
}

func TestCanonCommand(t *testing.T) {
	var buf bytes.Buffer
	canonCmd.SetOut(&buf)
	require.NoError(t, canonCmd.RunE(canonCmd, []string{"52-101", "月2-3"}))

	out := buf.String()
	assert.Contains(t, out, "52-101")
	assert.Contains(t, out, "mon")
}

func TestVersion(t *testing.T) {
	t.Parallel()
	assert.NotEmpty(t, version())
}
