package timetable

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/garyellow/roomharvest/internal/dayperiod"
	domerrors "github.com/garyellow/roomharvest/internal/errors"
)

// Week holds the weekday grids of one semester, keyed by day code.
type Week map[string]*Grid

// DayPath returns the CSV path of one day's grid inside a semester directory.
func DayPath(dir, day string) string {
	return filepath.Join(dir, day+".csv")
}

// LoadWeek reads mon.csv through fri.csv from dir. Every file must exist.
func LoadWeek(ctx context.Context, dir string) (Week, error) {
	wrap := domerrors.NewWrapper("timetable", "load_week")

	var mu sync.Mutex
	week := make(Week, len(dayperiod.Weekdays))

	g, ctx := errgroup.WithContext(ctx)
	for _, day := range dayperiod.Weekdays {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := DayPath(dir, day)
			f, err := os.Open(path)
			if err != nil {
				return wrap.Wrap(err, path)
			}
			defer f.Close()

			grid, err := ReadGrid(f)
			if err != nil {
				return wrap.Wrap(err, path)
			}
			mu.Lock()
			week[day] = grid
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return week, nil
}

// SaveWeek writes every grid of week back to dir, replacing each file
// atomically through a temporary file.
func SaveWeek(ctx context.Context, dir string, week Week) error {
	wrap := domerrors.NewWrapper("timetable", "save_week")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return wrap.Wrap(err, dir)
	}

	g, ctx := errgroup.WithContext(ctx)
	for day, grid := range week {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := DayPath(dir, day)
			return wrap.Wrap(writeFile(path, grid), path)
		})
	}
	return g.Wait()
}

func writeFile(path string, grid *Grid) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if _, err := grid.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Filled counts non-empty room cells across the week.
func (w Week) Filled() int {
	n := 0
	for _, g := range w {
		n += g.Filled()
	}
	return n
}
