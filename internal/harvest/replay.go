package harvest

import (
	"context"
	"fmt"

	"github.com/garyellow/roomharvest/internal/storage"
	"github.com/garyellow/roomharvest/internal/timetable"
)

// Source yields the assignments a recorded run made.
type Source interface {
	LatestRun(ctx context.Context) (*storage.Run, error)
	Assignments(ctx context.Context, runID string) ([]timetable.Assignment, error)
}

// ReplaySummary describes a finished replay.
type ReplaySummary struct {
	RunID       string
	Assignments int
	Changed     int
	// Dropped counts assignments whose cell no longer exists in the tables.
	Dropped int
}

// Replay applies the assignments of a recorded run to the tables under
// layout and saves them. An empty runID selects the latest completed run.
// Replaying onto tables that already hold the values changes nothing.
func Replay(ctx context.Context, layout timetable.Layout, src Source, runID string) (ReplaySummary, error) {
	if runID == "" {
		latest, err := src.LatestRun(ctx)
		if err != nil {
			return ReplaySummary{}, fmt.Errorf("replay: %w", err)
		}
		runID = latest.ID
	}
	sum := ReplaySummary{RunID: runID}

	assignments, err := src.Assignments(ctx, runID)
	if err != nil {
		return sum, fmt.Errorf("replay %s: %w", runID, err)
	}

	tables, err := layout.LoadTables(ctx)
	if err != nil {
		return sum, err
	}

	for _, a := range assignments {
		sum.Assignments++
		if tables.Apply(a) {
			sum.Changed++
			continue
		}
		if !tables.Has(a) {
			sum.Dropped++
		}
	}

	if err := layout.SaveTables(ctx, tables); err != nil {
		return sum, err
	}
	return sum, nil
}
