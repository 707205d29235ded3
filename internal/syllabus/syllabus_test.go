package syllabus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domerrors "github.com/garyellow/roomharvest/internal/errors"
)

func TestInferSchema(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		headers   []string
		want      map[Field]int
		defaulted []Field
	}{
		{
			name:    "english layout",
			headers: []string{"Year", "Course Code", "Course Title", "Instructor", "Credits", "Term", "Day/Period", "Classroom"},
			want: map[Field]int{
				FieldYear: 0, FieldCode: 1, FieldTitle: 2, FieldTerm: 5, FieldDayPeriod: 6, FieldRoom: 7,
			},
		},
		{
			name:    "reordered with extra column",
			headers: []string{"年度", "科目コード", "科目名", "概要", "担当教員", "学期", "教室", "曜日時限"},
			want: map[Field]int{
				FieldYear: 0, FieldCode: 1, FieldTitle: 2, FieldTerm: 5, FieldDayPeriod: 7, FieldRoom: 6,
			},
		},
		{
			name:      "unknown headers fall back",
			headers:   []string{"a", "b", "c"},
			want:      map[Field]int{FieldCode: 1, FieldTitle: 2, FieldTerm: 5, FieldDayPeriod: 6, FieldRoom: 7},
			defaulted: []Field{FieldCode, FieldTitle, FieldTerm, FieldDayPeriod, FieldRoom},
		},
		{
			name:    "full-width and mixed case",
			headers: []string{"ＹＥＡＲ", "CODE", "TITLE", "x", "x", "SEMESTER", "DAY AND PERIOD", "CLASS ROOM"},
			want: map[Field]int{
				FieldYear: 0, FieldCode: 1, FieldTitle: 2, FieldTerm: 5, FieldDayPeriod: 6, FieldRoom: 7,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := InferSchema(tt.headers)
			for f, idx := range tt.want {
				assert.Equal(t, idx, s.Index(f), "field %s", f)
			}
			assert.Equal(t, tt.defaulted, s.Defaulted())
		})
	}
}

func TestSchemaMinCells(t *testing.T) {
	t.Parallel()
	s := InferSchema([]string{"Course Code", "Course Title", "Term", "Day/Period", "Classroom"})
	assert.Equal(t, 5, s.MinCells())
}

const resultsPage = `<html><body>
<div class="c-selectall"><font>１～１００／２３０</font></div>
<table class="ct-vh">
<tr><th>Year</th><th>Course Code</th><th>Course Title</th><th>Instructor</th><th>Credits</th><th>Term</th><th>Day/Period</th><th>Classroom</th></tr>
<tr><td>2025</td><td>ABC123</td><td><a href="#">Linear Algebra</a></td><td>Kato</td><td>2</td><td>fall semester</td><td>01:Mon.5<br>02:Wed.3</td><td>02:53-102<br>01:53-101</td></tr>
<tr><td>2025</td><td>ＤＥＦ４５６</td><td>Networks</td><td>Sato</td><td>2</td><td>winter quarter</td><td>Tue.2</td><td>63-3F-G</td></tr>
<tr><td colspan="8">no results in this block</td></tr>
</table>
</body></html>`

func TestParsePage(t *testing.T) {
	t.Parallel()
	page, err := ParsePage(resultsPage)
	require.NoError(t, err)

	assert.Equal(t, "1~100/230", page.Range)
	assert.Equal(t, 1, page.Short)
	require.Len(t, page.Rows, 2)

	first := page.Rows[0]
	assert.Equal(t, "ABC123", first.Code)
	assert.Equal(t, "Linear Algebra", first.Title)
	assert.Equal(t, "fall semester", first.Term)
	assert.Equal(t, []string{"01:Mon.5", "02:Wed.3"}, first.DayLines)
	assert.Equal(t, []string{"02:53-102", "01:53-101"}, first.RoomLines)
	assert.Equal(t, "ABC123:Linear Algebra", first.Value())

	assert.Equal(t, "DEF456", page.Rows[1].Code)
}

func TestParsePage_MissingTable(t *testing.T) {
	t.Parallel()
	_, err := ParsePage(`<html><body><p>maintenance</p></body></html>`)
	assert.ErrorIs(t, err, domerrors.ErrResultsTableMissing)
}
