package syllabus

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/garyellow/roomharvest/internal/cellsplit"
	domerrors "github.com/garyellow/roomharvest/internal/errors"
	"github.com/garyellow/roomharvest/internal/textnorm"
)

// Selectors of the catalog's result page.
const (
	ResultTableSelector    = "table.ct-vh"
	RangeIndicatorSelector = "div.c-selectall font"
)

// Row is one course row of the results table.
type Row struct {
	// Year is "" when the row has no cell at the year column.
	Year      string
	Code      string
	Title     string
	Term      string
	DayLines  []string
	RoomLines []string
}

// Value is the timetable cell entry for the course, "<code>:<title>".
func (r Row) Value() string {
	return r.Code + ":" + r.Title
}

// Page is one parsed results page.
type Page struct {
	// Range is the normalized range indicator text, "" if absent.
	Range  string
	Schema Schema
	Rows   []Row
	// Short counts data rows with too few cells to read.
	Short int
}

// ParsePage extracts the results table from a full page. It returns
// ErrResultsTableMissing when the page has no results table.
func ParsePage(markup string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}

	table := doc.Find(ResultTableSelector).First()
	if table.Length() == 0 {
		return nil, domerrors.ErrResultsTableMissing
	}

	page := &Page{
		Range: textnorm.Normalize(cellsplit.Text(outerHTML(doc.Find(RangeIndicatorSelector).First()))),
	}

	trs := table.Find("tr")
	var headers []string
	trs.First().ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
		headers = append(headers, cellText(cell))
	})
	page.Schema = InferSchema(headers)
	need := page.Schema.MinCells()

	trs.Slice(1, goquery.ToEnd).Each(func(_ int, tr *goquery.Selection) {
		tds := tr.ChildrenFiltered("td")
		if tds.Length() < need {
			page.Short++
			return
		}
		at := func(f Field) *goquery.Selection {
			return tds.Eq(page.Schema.Index(f))
		}
		var year string
		if i := page.Schema.Index(FieldYear); i < tds.Length() {
			year = textnorm.Normalize(cellText(tds.Eq(i)))
		}
		page.Rows = append(page.Rows, Row{
			Year:      year,
			Code:      textnorm.Normalize(cellText(at(FieldCode))),
			Title:     textnorm.Normalize(cellText(at(FieldTitle))),
			Term:      textnorm.Normalize(cellText(at(FieldTerm))),
			DayLines:  cellLines(at(FieldDayPeriod)),
			RoomLines: cellLines(at(FieldRoom)),
		})
	})
	return page, nil
}

func cellText(sel *goquery.Selection) string {
	inner, err := sel.Html()
	if err != nil {
		return strings.TrimSpace(sel.Text())
	}
	return cellsplit.Text(inner)
}

func cellLines(sel *goquery.Selection) []string {
	inner, err := sel.Html()
	if err != nil {
		return nil
	}
	return cellsplit.SplitLines(inner)
}

func outerHTML(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	h, err := goquery.OuterHtml(sel)
	if err != nil {
		return ""
	}
	return h
}
