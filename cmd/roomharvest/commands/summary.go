package commands

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/garyellow/roomharvest/internal/harvest"
	"github.com/garyellow/roomharvest/internal/term"
	"github.com/garyellow/roomharvest/internal/timetable"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// renderSummary prints the run table followed by the one-line result and
// the semester directories that were rewritten.
func renderSummary(w io.Writer, sum harvest.Summary, l timetable.Layout) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Harvest", ""})
	t.AppendRows([]table.Row{
		{"Run", sum.RunID},
		{"Pages", sum.Pages},
		{"Stop reason", string(sum.StopReason)},
		{"Rows scanned", sum.ScannedRows},
		{"Course rows", sum.Rows},
		{"Meetings", sum.Meetings},
		{"Cells filled", sum.Filled},
		{"Cells changed", sum.Changed},
	})

	reasons := make([]string, 0, len(sum.Skipped))
	for reason := range sum.Skipped {
		reasons = append(reasons, reason)
	}
	slices.Sort(reasons)
	if len(reasons) > 0 {
		t.AppendSeparator()
		for _, reason := range reasons {
			t.AppendRow(table.Row{"Skipped: " + reason, sum.Skipped[reason]})
		}
	}
	t.AppendFooter(table.Row{"Duration", sum.Duration.Round(time.Millisecond).String()})
	t.Render()

	dirs := make([]string, 0, len(term.Semesters))
	for _, s := range term.Semesters {
		dirs = append(dirs, l.SemesterDir(s))
	}
	fmt.Fprintf(w, "[done] scanned_rows=%d, filled_cells=%d\n", sum.ScannedRows, sum.Filled)
	fmt.Fprintf(w, "updated: %s\n", strings.Join(dirs, ", "))
}
