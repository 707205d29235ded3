package timetable

import (
	"context"
	"path/filepath"

	"github.com/garyellow/roomharvest/internal/dayperiod"
	"github.com/garyellow/roomharvest/internal/term"
)

// RosterFile is the capacity roster's file name inside the data directory.
const RosterFile = "room_capacity.csv"

// Layout locates the roster and semester grids under one data directory:
//
//	<root>/room_capacity.csv
//	<root>/period_room_fall/{mon..fri}.csv
//	<root>/period_room_winter/{mon..fri}.csv
type Layout struct {
	Root string
}

// RosterPath returns the path of the capacity roster.
func (l Layout) RosterPath() string {
	return filepath.Join(l.Root, RosterFile)
}

// SemesterDir returns the directory holding a semester's day grids.
func (l Layout) SemesterDir(s term.Semester) string {
	return filepath.Join(l.Root, s.Dir())
}

// Tables holds the week of grids for each semester.
type Tables map[term.Semester]Week

// LoadTables loads every semester's week.
func (l Layout) LoadTables(ctx context.Context) (Tables, error) {
	tables := make(Tables, len(term.Semesters))
	for _, s := range term.Semesters {
		week, err := LoadWeek(ctx, l.SemesterDir(s))
		if err != nil {
			return nil, err
		}
		tables[s] = week
	}
	return tables, nil
}

// SaveTables writes every semester's week back to disk.
func (l Layout) SaveTables(ctx context.Context, tables Tables) error {
	for _, s := range term.Semesters {
		week, ok := tables[s]
		if !ok {
			continue
		}
		if err := SaveWeek(ctx, l.SemesterDir(s), week); err != nil {
			return err
		}
	}
	return nil
}

// Files lists every grid file path, semester by semester, day by day.
func (l Layout) Files() []string {
	var out []string
	for _, s := range term.Semesters {
		for _, day := range dayperiod.Weekdays {
			out = append(out, DayPath(l.SemesterDir(s), day))
		}
	}
	return out
}

// Put adds value to the (day, period, room) cell of semester s and reports
// whether the cell changed.
func (t Tables) Put(s term.Semester, day string, period int, room, value string) bool {
	week, ok := t[s]
	if !ok {
		return false
	}
	grid, ok := week[day]
	if !ok {
		return false
	}
	return grid.Put(period, room, value)
}

// Assignment is one course entry placed in one cell.
type Assignment struct {
	Semester term.Semester
	Day      string
	Period   int
	Room     string
	Value    string
}

// Apply puts a into its cell and reports whether the cell changed.
func (t Tables) Apply(a Assignment) bool {
	return t.Put(a.Semester, a.Day, a.Period, a.Room, a.Value)
}

// Has reports whether the tables hold a's value in a's cell.
func (t Tables) Has(a Assignment) bool {
	grid, ok := t[a.Semester][a.Day]
	if !ok {
		return false
	}
	for _, v := range grid.Entries(a.Period, a.Room) {
		if v == a.Value {
			return true
		}
	}
	return false
}
