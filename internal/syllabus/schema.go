// Package syllabus reads the course catalog's search-results table.
//
// The catalog occasionally adds, drops or reorders columns, so column
// positions are inferred from the header row on every page and only fall
// back to the historical layout for fields the header does not name.
package syllabus

import (
	"regexp"
	"strings"

	"github.com/garyellow/roomharvest/internal/textnorm"
)

// Field names a column the harvester reads.
type Field string

const (
	FieldYear      Field = "year"
	FieldCode      Field = "code"
	FieldTitle     Field = "title"
	FieldTerm      Field = "term"
	FieldDayPeriod Field = "day_period"
	FieldRoom      Field = "room"
)

type fieldSpec struct {
	field    Field
	patterns []*regexp.Regexp
	fallback int
}

// fieldSpecs lists the bilingual header patterns per field, most specific
// first, and the column each field occupied in the historical layout.
var fieldSpecs = []fieldSpec{
	{FieldYear, compile(`\byear\b`, `年度`), 0},
	{FieldCode, compile(`course\s*code`, `\bcode\b`, `科目\s*コード`), 1},
	{FieldTitle, compile(`course\s*(title|name)`, `\btitle\b`, `科目\s*名`), 2},
	{FieldTerm, compile(`\bterm\b`, `semester`, `学期`, `クォーター`), 5},
	{FieldDayPeriod, compile(`day\s*/\s*period`, `day\s*and\s*period`, `\bday\b`, `曜日`), 6},
	{FieldRoom, compile(`class\s*room`, `\bclassroom\b`, `\broom\b`, `教室`), 7},
}

// rowFields are the fields a data row must reach to be usable.
var rowFields = []Field{FieldCode, FieldTitle, FieldTerm, FieldDayPeriod, FieldRoom}

// compile normalizes patterns like header text, so コード matches
// after the long-vowel mark became "-".
func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(textnorm.Normalize(p))
	}
	return out
}

// Schema maps fields to column indexes for one results page.
type Schema struct {
	index    map[Field]int
	inferred map[Field]bool
}

// InferSchema resolves each field to the first header cell matching any of
// its patterns. Header texts are normalized and lower-cased before matching.
// Fields with no matching header use the historical column.
func InferSchema(headers []string) Schema {
	norm := make([]string, len(headers))
	for i, h := range headers {
		norm[i] = strings.ToLower(textnorm.Normalize(h))
	}

	s := Schema{
		index:    make(map[Field]int, len(fieldSpecs)),
		inferred: make(map[Field]bool, len(fieldSpecs)),
	}
	for _, spec := range fieldSpecs {
		if i, ok := findHeader(norm, spec.patterns); ok {
			s.index[spec.field] = i
			s.inferred[spec.field] = true
			continue
		}
		s.index[spec.field] = spec.fallback
	}
	return s
}

func findHeader(headers []string, patterns []*regexp.Regexp) (int, bool) {
	for i, h := range headers {
		for _, p := range patterns {
			if p.MatchString(h) {
				return i, true
			}
		}
	}
	return 0, false
}

// Index returns the column of f.
func (s Schema) Index(f Field) int {
	return s.index[f]
}

// Inferred reports whether f was found in the header rather than defaulted.
func (s Schema) Inferred(f Field) bool {
	return s.inferred[f]
}

// MinCells is the number of cells a data row needs for every read field.
func (s Schema) MinCells() int {
	n := 0
	for _, f := range rowFields {
		n = max(n, s.index[f]+1)
	}
	return n
}

// Defaulted lists the read fields that fell back to the historical column.
func (s Schema) Defaulted() []Field {
	var out []Field
	for _, f := range rowFields {
		if !s.inferred[f] {
			out = append(out, f)
		}
	}
	return out
}
