// Package room canonicalizes free-form classroom strings from the course
// catalog into the room codes used by the capacity roster and the timetable
// columns.
package room

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/garyellow/roomharvest/internal/textnorm"
)

// Unresolved is returned when a room string names no physical room
// (undetermined, TBD, or empty).
const Unresolved = ""

// longFormBuildings number rooms as <floor><room> in three digits and are
// stored in building-floor-room form.
var longFormBuildings = map[string]bool{
	"52": true,
	"63": true,
}

// aliases maps legacy codes to the variant the roster uses.
var aliases = map[string]string{
	"61-102": "61-102B",
}

var (
	reParenthetical = regexp.MustCompile(`（.*?）|\(.*?\)`)
	reEndRoomJA     = regexp.MustCompile(`^(\d+)号館\d*階?末端室?([A-Za-z])`)
	reFloorLetter   = regexp.MustCompile(`^(\d+)-\d+F-([A-Za-z])$`)
	reLongForm      = regexp.MustCompile(`^\d+[A-Za-z]*-\d{2}-\d{2}$`)
	rePCRoom        = regexp.MustCompile(`^\d+PC-[A-Za-z]$`)
	reBasement      = regexp.MustCompile(`^\d+-B\d{2}$`)
	reThreePart     = regexp.MustCompile(`^(\d+[A-Za-z]*)-(\d+)-(\d+)$`)
	reTrailingNum   = regexp.MustCompile(`^(\d+[A-Za-z]*-\d{2}-\d{2})-\d+$`)
	reShortThree    = regexp.MustCompile(`^(\d+)-(\d{3})[A-Za-z]?$`)
	reShortTwo      = regexp.MustCompile(`^(\d+)-(\d{1,2})$`)
	roomTokens      = strings.NewReplacer("教室", "", "室", "", "ルーム", "", "ル-ム", "", " ", "")
)

// step is one stage of the cascade. A step either finishes with a code
// (done is true) or hands a possibly rewritten string to the next step.
type step struct {
	name  string
	apply func(s string) (out string, done bool)
}

// cascade is evaluated top to bottom; the first step reporting done wins.
var cascade = []step{
	{"prefix", func(s string) (string, bool) {
		s = textnorm.StripKeyPrefix(textnorm.Normalize(s))
		return reParenthetical.ReplaceAllString(s, ""), false
	}},
	{"undetermined", func(s string) (string, bool) {
		if strings.TrimSpace(s) == "" || strings.Contains(s, "未定") || strings.Contains(strings.ToUpper(s), "TBD") {
			return Unresolved, true
		}
		return s, false
	}},
	{"end-room", func(s string) (string, bool) {
		if m := reEndRoomJA.FindStringSubmatch(s); m != nil {
			return pcRoom(m[1], m[2]), true
		}
		return s, false
	}},
	{"room-tokens", func(s string) (string, bool) {
		s = roomTokens.Replace(s)
		return s, s == ""
	}},
	{"alias", func(s string) (string, bool) {
		if a, ok := aliases[s]; ok {
			return a, true
		}
		return s, false
	}},
	{"floor-letter", func(s string) (string, bool) {
		if m := reFloorLetter.FindStringSubmatch(s); m != nil {
			return pcRoom(m[1], m[2]), true
		}
		return s, false
	}},
	{"canonical", func(s string) (string, bool) {
		return s, reLongForm.MatchString(s) || rePCRoom.MatchString(s) || reBasement.MatchString(s) || isAliasTarget(s)
	}},
	{"three-part", func(s string) (string, bool) {
		if m := reThreePart.FindStringSubmatch(s); m != nil {
			return fmt.Sprintf("%s-%s-%s", m[1], pad2(m[2]), pad2(m[3])), true
		}
		return s, false
	}},
	{"trailing-number", func(s string) (string, bool) {
		if m := reTrailingNum.FindStringSubmatch(s); m != nil {
			return m[1], true
		}
		return s, false
	}},
	{"short-three", func(s string) (string, bool) {
		m := reShortThree.FindStringSubmatch(s)
		if m == nil {
			return s, false
		}
		building, digits := m[1], m[2]
		if longFormBuildings[building] {
			return fmt.Sprintf("%s-%s-%s", building, pad2(digits[:1]), digits[1:]), true
		}
		return resolveAlias(building + "-" + digits), true
	}},
	{"short-two", func(s string) (string, bool) {
		if m := reShortTwo.FindStringSubmatch(s); m != nil {
			return m[1] + "-" + pad2(m[2]), true
		}
		return s, false
	}},
}

// Canonicalize maps a raw room string to its canonical code, or Unresolved.
// Strings matching no known shape are returned normalized but otherwise
// unchanged; the caller decides whether they name a known room.
func Canonicalize(raw string) string {
	code, _ := Trace(raw)
	return code
}

// Trace is Canonicalize that also reports which step produced the code.
func Trace(raw string) (code, rule string) {
	s := raw
	for _, st := range cascade {
		var done bool
		if s, done = st.apply(s); done {
			return s, st.name
		}
	}
	return s, "fallback"
}

func pcRoom(building, letter string) string {
	return building + "PC-" + strings.ToUpper(letter)
}

// resolveAlias returns the roster variant of code, or code itself.
func resolveAlias(code string) string {
	if a, ok := aliases[code]; ok {
		return a
	}
	return code
}

func isAliasTarget(s string) bool {
	for _, v := range aliases {
		if v == s {
			return true
		}
	}
	return false
}

func pad2(s string) string {
	if len(s) >= 2 {
		return s
	}
	return strings.Repeat("0", 2-len(s)) + s
}
