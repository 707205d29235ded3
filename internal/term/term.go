// Package term decides which semester timetables a course's term label
// contributes to.
package term

import (
	"strings"

	"github.com/garyellow/roomharvest/internal/textnorm"
)

// Semester identifies one set of weekday timetables.
type Semester string

const (
	Fall   Semester = "fall"
	Winter Semester = "winter"
)

// Semesters lists every semester in output order.
var Semesters = []Semester{Fall, Winter}

// Dir is the data subdirectory holding the semester's day tables.
func (s Semester) Dir() string {
	return "period_room_" + string(s)
}

// Japanese labels pass through the same normalization as the cell text,
// which turns the long-vowel mark of クォーター into "-".
var (
	fallSemesterJA  = textnorm.Normalize("秋学期")
	fallQuarterJA   = textnorm.Normalize("秋クォーター")
	winterQuarterJA = textnorm.Normalize("冬クォーター")
)

// Targets maps a term label to the semesters it occupies. A full fall
// semester spans both the fall and the winter quarter. Labels for any other
// term yield nil.
func Targets(label string) []Semester {
	s := textnorm.Normalize(label)
	switch {
	case strings.Contains(s, fallSemesterJA):
		return []Semester{Fall, Winter}
	case strings.Contains(s, fallQuarterJA):
		return []Semester{Fall}
	case strings.Contains(s, winterQuarterJA):
		return []Semester{Winter}
	}

	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "fall semester"),
		strings.Contains(lower, "fall") && strings.Contains(lower, "semester"):
		return []Semester{Fall, Winter}
	case strings.Contains(lower, "fall quarter"):
		return []Semester{Fall}
	case strings.Contains(lower, "winter quarter"):
		return []Semester{Winter}
	}
	return nil
}
