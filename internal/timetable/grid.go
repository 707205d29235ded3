// Package timetable holds the period × room occupancy grids and their CSV
// form.
//
// A grid is one weekday of one semester. Its first column is "period"
// (1..N) and every other column is a canonical room code. A cell lists the
// courses occupying that slot as "<code>:<name>" entries joined by ";".
package timetable

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	domerrors "github.com/garyellow/roomharvest/internal/errors"
)

// PeriodColumn is the header of the required period column.
const PeriodColumn = "period"

// Separator joins entries inside one cell.
const Separator = ";"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Grid is one day's occupancy table. Columns and row order are preserved
// exactly as loaded so that a save rewrites the file with the same shape.
type Grid struct {
	header    []string
	rows      [][]string
	periodCol int
	roomCol   map[string]int
	periodRow map[int]int
}

// ReadGrid parses a CSV grid. A leading UTF-8 byte order mark is ignored.
// The header must contain a period column whose values are integers.
func ReadGrid(r io.Reader) (*Grid, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read grid: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse grid: %w", err)
	}
	if len(records) == 0 {
		return nil, domerrors.NewValidationError(PeriodColumn, "empty file, header is required")
	}

	g := &Grid{
		header:    records[0],
		periodCol: -1,
		roomCol:   make(map[string]int, len(records[0])),
		periodRow: make(map[int]int, len(records)-1),
	}
	for i, h := range g.header {
		h = strings.TrimSpace(h)
		g.header[i] = h
		if h == PeriodColumn {
			g.periodCol = i
			continue
		}
		g.roomCol[h] = i
	}
	if g.periodCol < 0 {
		return nil, domerrors.NewValidationError(PeriodColumn, "column is required")
	}

	for i, rec := range records[1:] {
		if extra := rec[min(len(rec), len(g.header)):]; strings.TrimSpace(strings.Join(extra, "")) != "" {
			return nil, domerrors.NewValidationError(PeriodColumn,
				fmt.Sprintf("row %d: %d fields beyond the %d-column header", i+2, len(extra), len(g.header)))
		}
		row := make([]string, len(g.header))
		copy(row, rec)
		raw := strings.TrimSpace(row[g.periodCol])
		p, err := strconv.Atoi(raw)
		if err != nil {
			return nil, domerrors.NewValidationError(PeriodColumn, fmt.Sprintf("row %d: %q is not an integer", i+2, raw))
		}
		if _, dup := g.periodRow[p]; !dup {
			g.periodRow[p] = len(g.rows)
		}
		g.rows = append(g.rows, row)
	}
	return g, nil
}

// NewGrid builds an empty grid with the given periods and room columns.
func NewGrid(periods []int, rooms []string) *Grid {
	g := &Grid{
		header:    append([]string{PeriodColumn}, rooms...),
		roomCol:   make(map[string]int, len(rooms)),
		periodRow: make(map[int]int, len(periods)),
	}
	for i, r := range rooms {
		g.roomCol[r] = i + 1
	}
	for _, p := range periods {
		row := make([]string, len(g.header))
		row[0] = strconv.Itoa(p)
		g.periodRow[p] = len(g.rows)
		g.rows = append(g.rows, row)
	}
	return g
}

// WriteTo writes the grid as CSV prefixed with a UTF-8 byte order mark.
func (g *Grid) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)
	cw := csv.NewWriter(&buf)
	if err := cw.Write(g.header); err != nil {
		return 0, err
	}
	if err := cw.WriteAll(g.rows); err != nil {
		return 0, err
	}
	return buf.WriteTo(w)
}

// Put adds value to the cell at (period, room). Unknown periods or rooms are
// ignored, and a value already present in the cell is not added again.
// It reports whether the cell changed.
func (g *Grid) Put(period int, room, value string) bool {
	col, ok := g.roomCol[room]
	if !ok {
		return false
	}
	ri, ok := g.periodRow[period]
	if !ok {
		return false
	}

	cur := strings.TrimSpace(g.rows[ri][col])
	if cur == "" {
		g.rows[ri][col] = value
		return true
	}
	for _, v := range strings.Split(cur, Separator) {
		if strings.TrimSpace(v) == value {
			return false
		}
	}
	g.rows[ri][col] = cur + Separator + value
	return true
}

// Cell returns the raw cell text and whether the slot exists.
func (g *Grid) Cell(period int, room string) (string, bool) {
	col, ok := g.roomCol[room]
	if !ok {
		return "", false
	}
	ri, ok := g.periodRow[period]
	if !ok {
		return "", false
	}
	return g.rows[ri][col], true
}

// Entries returns the individual entries of a cell.
func (g *Grid) Entries(period int, room string) []string {
	cell, _ := g.Cell(period, room)
	var out []string
	for _, v := range strings.Split(cell, Separator) {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// HasRoom reports whether room is a column of the grid.
func (g *Grid) HasRoom(room string) bool {
	_, ok := g.roomCol[room]
	return ok
}

// Rooms returns the room columns in file order.
func (g *Grid) Rooms() []string {
	out := make([]string, 0, len(g.roomCol))
	for i, h := range g.header {
		if i != g.periodCol {
			out = append(out, h)
		}
	}
	return out
}

// Periods returns the periods in file order.
func (g *Grid) Periods() []int {
	out := make([]int, 0, len(g.rows))
	for _, row := range g.rows {
		p, _ := strconv.Atoi(strings.TrimSpace(row[g.periodCol]))
		out = append(out, p)
	}
	return out
}

// Filled counts non-empty room cells.
func (g *Grid) Filled() int {
	n := 0
	for _, row := range g.rows {
		for i, v := range row {
			if i != g.periodCol && strings.TrimSpace(v) != "" {
				n++
			}
		}
	}
	return n
}
