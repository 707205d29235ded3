package dayperiod

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		input  string
		want   Slot
		wantOK bool
	}{
		{name: "japanese single", input: "月5時限", want: Slot{Mon, []int{5}}, wantOK: true},
		{name: "japanese full width", input: "火３時限", want: Slot{Tue, []int{3}}, wantOK: true},
		{name: "keyed japanese", input: "01:土３時限", want: Slot{Sat, []int{3}}, wantOK: true},
		{name: "japanese range", input: "月4-5時限", want: Slot{Mon, []int{4, 5}}, wantOK: true},
		{name: "english with dot", input: "Mon. 5", want: Slot{Mon, []int{5}}, wantOK: true},
		{name: "english no space", input: "Mon.2", want: Slot{Mon, []int{2}}, wantOK: true},
		{name: "english range", input: "Mon.4-5", want: Slot{Mon, []int{4, 5}}, wantOK: true},
		{name: "reversed range", input: "Wed.5-3", want: Slot{Wed, []int{3, 4, 5}}, wantOK: true},
		{name: "to keyword", input: "Thur. 2 to 3", want: Slot{Thu, []int{2, 3}}, wantOK: true},
		{name: "tilde range", input: "Fri.1〜2", want: Slot{Fri, []int{1, 2}}, wantOK: true},
		{name: "discrete first-seen order", input: "Tues. 5 2 5", want: Slot{Tue, []int{5, 2}}, wantOK: true},
		{name: "no class marker", input: "無その他", wantOK: false},
		{name: "full on demand", input: "無フルOD", wantOK: false},
		{name: "on demand english", input: "On demand", wantOK: false},
		{name: "no day", input: "5時限", wantOK: false},
		{name: "no period", input: "Mon.", wantOK: false},
		{name: "period out of range", input: "Mon. 8", wantOK: false},
		{name: "empty", input: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := Parse(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParse_NoDuplicatePeriods(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"Mon. 1 1 2 2", "月1時限 1", "Fri.3,3,4"} {
		got, ok := Parse(in)
		if !assert.True(t, ok, in) {
			continue
		}
		seen := map[int]bool{}
		for _, p := range got.Periods {
			assert.False(t, seen[p], "duplicate period %d in %q", p, in)
			seen[p] = true
		}
	}
}

func TestIsWeekday(t *testing.T) {
	t.Parallel()
	assert.True(t, IsWeekday(Mon))
	assert.True(t, IsWeekday(Fri))
	assert.False(t, IsWeekday(Sat))
	assert.False(t, IsWeekday("holiday"))
}
