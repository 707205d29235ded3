package timetable

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	domerrors "github.com/garyellow/roomharvest/internal/errors"
	"github.com/garyellow/roomharvest/internal/room"
)

// Roster column headers in room_capacity.csv.
const (
	RosterRoomColumn     = "classroom"
	RosterCapacityColumn = "capacity"
)

// Roster maps canonical room codes to seat capacity. It is the fixed set of
// rooms a harvest may write to.
type Roster struct {
	capacity map[string]int
}

// NewRoster builds a roster from raw room names, canonicalizing each.
func NewRoster(capacity map[string]int) *Roster {
	r := &Roster{capacity: make(map[string]int, len(capacity))}
	for raw, c := range capacity {
		if code := room.Canonicalize(raw); code != room.Unresolved {
			r.capacity[code] = c
		}
	}
	return r
}

// LoadRoster reads the capacity roster from path.
func LoadRoster(path string) (*Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domerrors.NewWrapper("timetable", "load_roster").Wrap(err, path)
	}
	defer f.Close()

	r, err := ReadRoster(f)
	if err != nil {
		return nil, domerrors.NewWrapper("timetable", "load_roster").Wrap(err, path)
	}
	return r, nil
}

// ReadRoster parses the capacity roster CSV. Room names are canonicalized;
// rows whose room does not resolve are skipped. An empty capacity reads as 0.
func ReadRoster(r io.Reader) (*Roster, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	if len(records) == 0 {
		return nil, domerrors.NewValidationError(RosterRoomColumn, "empty file, header is required")
	}

	roomCol, capCol := -1, -1
	for i, h := range records[0] {
		switch strings.TrimSpace(h) {
		case RosterRoomColumn:
			roomCol = i
		case RosterCapacityColumn:
			capCol = i
		}
	}
	if roomCol < 0 {
		return nil, domerrors.NewValidationError(RosterRoomColumn, "column is required")
	}

	raw := make(map[string]int, len(records)-1)
	for i, rec := range records[1:] {
		if roomCol >= len(rec) {
			continue
		}
		c := 0
		if capCol >= 0 && capCol < len(rec) {
			if v := strings.TrimSpace(rec[capCol]); v != "" {
				c, err = strconv.Atoi(v)
				if err != nil {
					return nil, domerrors.NewValidationError(RosterCapacityColumn, fmt.Sprintf("row %d: %q is not an integer", i+2, v))
				}
			}
		}
		raw[rec[roomCol]] = c
	}
	return NewRoster(raw), nil
}

// Has reports whether code is a known room.
func (r *Roster) Has(code string) bool {
	_, ok := r.capacity[code]
	return ok
}

// Capacity returns the seat count of a known room.
func (r *Roster) Capacity(code string) (int, bool) {
	c, ok := r.capacity[code]
	return c, ok
}

// Len returns the number of known rooms.
func (r *Roster) Len() int {
	return len(r.capacity)
}

// Rooms returns the known room codes sorted.
func (r *Roster) Rooms() []string {
	out := make([]string, 0, len(r.capacity))
	for code := range r.capacity {
		out = append(out, code)
	}
	slices.Sort(out)
	return out
}
