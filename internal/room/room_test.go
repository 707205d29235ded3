package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: Unresolved},
		{name: "undetermined", input: "未定", want: Unresolved},
		{name: "tbd lower case", input: "tbd", want: Unresolved},
		{name: "english pc room", input: "63-3F-G", want: "63PC-G"},
		{name: "japanese end room", input: "63号館3階末端室Fルーム", want: "63PC-F"},
		{name: "japanese end room full width", input: "６３号館３階末端室ｆルーム", want: "63PC-F"},
		{name: "basement", input: "53-B04", want: "53-B04"},
		{name: "building 63 short form", input: "63-201", want: "63-02-01"},
		{name: "building 52 short form", input: "52-201", want: "52-02-01"},
		{name: "short form kept", input: "53-101", want: "53-101"},
		{name: "short form drops letter", input: "53-101a", want: "53-101"},
		{name: "alias", input: "61-102", want: "61-102B"},
		{name: "alias target stable", input: "61-102B", want: "61-102B"},
		{name: "lettered alias variant", input: "61-102a", want: "61-102B"},
		{name: "other lettered alias variant", input: "61-102C", want: "61-102B"},
		{name: "key prefix and annotation", input: "01:53-101(Lecture)", want: "53-101"},
		{name: "full-width with room suffix", input: "５３-１０３教室", want: "53-103"},
		{name: "three part padded", input: "55S-3-9", want: "55S-03-09"},
		{name: "long form kept", input: "55S-03-09", want: "55S-03-09"},
		{name: "trailing artifact dropped", input: "55S-02-01-1", want: "55S-02-01"},
		{name: "two part padded", input: "55-2", want: "55-02"},
		{name: "room token only", input: "教室", want: Unresolved},
		{name: "unknown shape passes through", input: "Online", want: "Online"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Canonicalize(tt.input))
		})
	}
}

func TestCanonicalize_Idempotent(t *testing.T) {
	t.Parallel()
	inputs := []string{
		"63-3F-G", "53-B04", "52-201", "63-201", "61-102", "55S-3-9",
		"55S-02-01-1", "55-2", "５３-１０３教室", "63号館3階末端室Fルーム", "Online",
		"61-102a", "61-102C", "53-101a",
	}
	for _, in := range inputs {
		once := Canonicalize(in)
		assert.Equal(t, once, Canonicalize(once), "input %q", in)
	}
}

func TestTrace(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input    string
		wantCode string
		wantRule string
	}{
		{"63-3F-G", "63PC-G", "floor-letter"},
		{"未定", Unresolved, "undetermined"},
		{"53-B04", "53-B04", "canonical"},
		{"Online", "Online", "fallback"},
	}
	for _, tt := range tests {
		code, rule := Trace(tt.input)
		assert.Equal(t, tt.wantCode, code, tt.input)
		assert.Equal(t, tt.wantRule, rule, tt.input)
	}
}
