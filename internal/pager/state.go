package pager

import (
	"regexp"
	"strconv"

	"github.com/garyellow/roomharvest/internal/textnorm"
)

// State is the controller's position in the session.
type State int

const (
	Idle State = iota
	SearchSubmitted
	ResultsLoaded
	Harvesting
	Advancing
	Exhausted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case SearchSubmitted:
		return "search_submitted"
	case ResultsLoaded:
		return "results_loaded"
	case Harvesting:
		return "harvesting"
	case Advancing:
		return "advancing"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Outcome is the result of one navigation attempt.
type Outcome int

const (
	// Success means the range indicator changed.
	Success Outcome = iota
	// Unchanged means the trigger fired but the indicator stayed the same.
	Unchanged
	// Failed means the trigger could not fire.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Unchanged:
		return "unchanged"
	default:
		return "failed"
	}
}

// StopReason says why a walk ended.
type StopReason string

const (
	LastPage  StopReason = "last_page"
	Stalled   StopReason = "stalled"
	TableGone StopReason = "table_gone"
	PageLimit StopReason = "page_limit"
)

// Range is the parsed "<start>~<end>/<total>" indicator.
type Range struct {
	Start int
	End   int
	Total int
}

var rangePattern = regexp.MustCompile(`(\d+)\s*[~～\-]\s*(\d+)\s*[／/]\s*(\d+)`)

// ParseRange reads an indicator such as "8201～8300／16687".
func ParseRange(text string) (Range, bool) {
	m := rangePattern.FindStringSubmatch(textnorm.Normalize(text))
	if m == nil {
		return Range{}, false
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	total, _ := strconv.Atoi(m[3])
	if end < start {
		return Range{}, false
	}
	return Range{Start: start, End: end, Total: total}, true
}

// PageSize is the number of rows the indicator says one page holds.
func (r Range) PageSize() int {
	return max(1, r.End-r.Start+1)
}

// Pages is the total page count implied by the indicator.
func (r Range) Pages() int {
	size := r.PageSize()
	return (r.Total + size - 1) / size
}

// Last reports whether the indicator already covers the final row. A short
// last page understates PageSize, so Pages alone can overcount.
func (r Range) Last() bool {
	return r.Total > 0 && r.End >= r.Total
}
