package sliceutil

import (
	"slices"
	"testing"
)

func identity(p int) int { return p }

func TestDeduplicate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		periods []int
		want    []int
	}{
		{name: "single period", periods: []int{5}, want: []int{5}},
		{name: "range keeps order", periods: []int{3, 4, 5}, want: []int{3, 4, 5}},
		{name: "overlapping ranges", periods: []int{2, 3, 3, 4, 2}, want: []int{2, 3, 4}},
		{name: "first occurrence wins order", periods: []int{6, 1, 6, 1}, want: []int{6, 1}},
		{name: "empty", periods: []int{}, want: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Deduplicate(tt.periods, identity)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Deduplicate(%v) = %v, want %v", tt.periods, got, tt.want)
			}
		})
	}
}

func TestDeduplicate_Nil(t *testing.T) {
	t.Parallel()
	if got := Deduplicate(nil, identity); got != nil {
		t.Errorf("Deduplicate(nil) = %v, want nil", got)
	}
}

func TestDeduplicate_DoesNotMutateInput(t *testing.T) {
	t.Parallel()
	periods := []int{1, 1, 2}
	_ = Deduplicate(periods, identity)
	if !slices.Equal(periods, []int{1, 1, 2}) {
		t.Errorf("input changed to %v", periods)
	}
}
