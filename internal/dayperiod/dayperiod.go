// Package dayperiod parses the day-and-period column of the course catalog,
// e.g. "月5時限", "Mon.4-5" or "01:Tue. 2 to 3".
package dayperiod

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/garyellow/roomharvest/internal/sliceutil"
	"github.com/garyellow/roomharvest/internal/textnorm"
)

// Day codes as they appear in timetable file names.
const (
	Mon = "mon"
	Tue = "tue"
	Wed = "wed"
	Thu = "thu"
	Fri = "fri"
	Sat = "sat"
	Sun = "sun"
)

// Weekdays are the days that have a timetable.
var Weekdays = []string{Mon, Tue, Wed, Thu, Fri}

var daysJA = map[string]string{
	"月": Mon, "火": Tue, "水": Wed, "木": Thu, "金": Fri, "土": Sat, "日": Sun,
}

var daysEN = map[string]string{
	"mon": Mon, "tue": Tue, "tues": Tue, "wed": Wed,
	"thu": Thu, "thur": Thu, "fri": Fri, "sat": Sat, "sun": Sun,
}

var (
	reDayJA    = regexp.MustCompile(`[月火水木金土日]`)
	reDayEN    = regexp.MustCompile(`\b(Mon|Tues|Tue|Wed|Thur|Thu|Fri|Sat|Sun)\b\.?`)
	reTo       = regexp.MustCompile(`(?i)\bto\b`)
	reRange    = regexp.MustCompile(`([1-7])\s*[-~〜－–]\s*([1-7])`)
	reDiscrete = regexp.MustCompile(`\b[1-7]\b`)
)

// Slot is a parsed day with the periods it covers, in first-seen order.
type Slot struct {
	Day     string
	Periods []int
}

// IsWeekday reports whether day has a timetable.
func IsWeekday(day string) bool {
	for _, d := range Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

// Parse reads one day/period line. It reports false for on-demand and
// "no class" markers, for lines with no recognizable day, and for lines with
// no period digit. Periods are limited to 1-7 here; narrowing to the
// timetable's range is the caller's job.
func Parse(raw string) (Slot, bool) {
	s := textnorm.StripKeyPrefix(textnorm.Normalize(raw))
	if strings.HasPrefix(s, "無") || strings.Contains(s, "On demand") || strings.Contains(s, "OD") {
		return Slot{}, false
	}

	day, rest, ok := findDay(s)
	if !ok {
		return Slot{}, false
	}

	rest = strings.ReplaceAll(rest, "時限", " ")
	rest = reTo.ReplaceAllString(rest, "-")

	if m := reRange.FindStringSubmatch(rest); m != nil {
		lo, hi := atoi(m[1]), atoi(m[2])
		if lo > hi {
			lo, hi = hi, lo
		}
		periods := make([]int, 0, hi-lo+1)
		for p := lo; p <= hi; p++ {
			periods = append(periods, p)
		}
		return Slot{Day: day, Periods: periods}, true
	}

	tokens := reDiscrete.FindAllString(rest, -1)
	if len(tokens) == 0 {
		return Slot{}, false
	}
	periods := make([]int, 0, len(tokens))
	for _, tok := range tokens {
		periods = append(periods, atoi(tok))
	}
	periods = sliceutil.Deduplicate(periods, func(p int) int { return p })
	return Slot{Day: day, Periods: periods}, true
}

// findDay prefers a Japanese day character and falls back to an English
// abbreviation. rest is the text after the day token.
func findDay(s string) (day, rest string, ok bool) {
	if loc := reDayJA.FindStringIndex(s); loc != nil {
		return daysJA[s[loc[0]:loc[1]]], s[loc[1]:], true
	}
	if m := reDayEN.FindStringSubmatchIndex(s); m != nil {
		token := strings.ToLower(s[m[2]:m[3]])
		return daysEN[token], s[m[1]:], true
	}
	return "", "", false
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
