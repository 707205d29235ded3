// Package cellsplit turns multi-line result-table cells into logical lines
// and pairs the day/period lines of a course with its room lines.
//
// A course that meets several times lists one line per meeting in both the
// day/period cell and the room cell, separated by <br>. Lines may carry an
// "NN:" key that links a meeting to its room independent of order.
package cellsplit

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/garyellow/roomharvest/internal/textnorm"
)

var (
	reBRTag    = regexp.MustCompile(`(?i)<\s*br\s*/?\s*>`)
	reNewlines = regexp.MustCompile(`[\r\n]+`)
	reKeyed    = regexp.MustCompile(`^(\d{1,2})\s*:\s*(.*)$`)
)

// KeyedLine is a normalized cell line. Key is the zero-padded two-digit
// prefix, or "" when the line has none.
type KeyedLine struct {
	Key   string
	Value string
}

// Meeting is a day/period string and the room string it takes place in.
type Meeting struct {
	DayPeriod string
	Room      string
}

// SplitLines splits cell markup on <br> tags, extracts the text of each
// fragment and splits again on raw newlines. Empty lines are dropped.
func SplitLines(markup string) []string {
	var out []string
	for _, chunk := range reBRTag.Split(markup, -1) {
		text := Text(chunk)
		if text == "" {
			continue
		}
		for _, line := range reNewlines.Split(text, -1) {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, line)
			}
		}
	}
	return out
}

// Text returns the text content of an HTML fragment: every text node
// trimmed, empty ones dropped, the rest joined by a single space.
func Text(markup string) string {
	if strings.TrimSpace(markup) == "" {
		return ""
	}
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return strings.TrimSpace(markup)
	}

	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		case html.ElementNode:
			if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}

// Keyed normalizes lines and splits off their "NN:" keys.
func Keyed(lines []string) []KeyedLine {
	out := make([]KeyedLine, 0, len(lines))
	for _, line := range lines {
		s := textnorm.Normalize(line)
		if s == "" {
			continue
		}
		if m := reKeyed.FindStringSubmatch(s); m != nil {
			key := m[1]
			if len(key) == 1 {
				key = "0" + key
			}
			out = append(out, KeyedLine{Key: key, Value: strings.TrimSpace(m[2])})
			continue
		}
		out = append(out, KeyedLine{Value: s})
	}
	return out
}

// Pair matches day/period lines to room lines. Keyed day lines take the
// earliest unused room line with the same key; everything left over is then
// paired by position, up to the shorter of the two remainders.
func Pair(dayLines, roomLines []string) []Meeting {
	days := Keyed(dayLines)
	rooms := Keyed(roomLines)

	queues := make(map[string][]int)
	for i, r := range rooms {
		if r.Key != "" {
			queues[r.Key] = append(queues[r.Key], i)
		}
	}

	usedDay := make([]bool, len(days))
	usedRoom := make([]bool, len(rooms))
	pairs := make([]Meeting, 0, max(len(days), len(rooms)))

	for i, d := range days {
		if d.Key == "" {
			continue
		}
		q := queues[d.Key]
		if len(q) == 0 {
			continue
		}
		ri := q[0]
		queues[d.Key] = q[1:]
		usedDay[i], usedRoom[ri] = true, true
		pairs = append(pairs, Meeting{DayPeriod: d.Value, Room: rooms[ri].Value})
	}

	var restDays, restRooms []string
	for i, d := range days {
		if !usedDay[i] {
			restDays = append(restDays, d.Value)
		}
	}
	for i, r := range rooms {
		if !usedRoom[i] {
			restRooms = append(restRooms, r.Value)
		}
	}
	for i := range min(len(restDays), len(restRooms)) {
		pairs = append(pairs, Meeting{DayPeriod: restDays[i], Room: restRooms[i]})
	}
	return pairs
}
