// Package pager drives a catalog search session through its paginated
// results: it submits the search, hands each results page to a visitor and
// advances with a chain of navigation strategies until the result set is
// exhausted.
package pager

import (
	"context"
	"regexp"
	"time"

	"github.com/garyellow/roomharvest/internal/config"
)

// Page is the browser capability the controller needs. Methods that look
// for an element report false with a nil error when nothing matched.
type Page interface {
	// Navigate loads url and waits for the DOM to be ready.
	Navigate(ctx context.Context, url string) error
	// Click clicks the first element matching selector whose text matches
	// text (any text when text is nil).
	Click(ctx context.Context, selector string, text *regexp.Regexp) (bool, error)
	// SelectOption picks the first option whose label matches label in any
	// element matching selector.
	SelectOption(ctx context.Context, selector string, label *regexp.Regexp) (bool, error)
	// Invoke calls the page's global function fn with string arguments.
	Invoke(ctx context.Context, fn string, args ...string) (bool, error)
	// SubmitForm assigns set fields, creates ensure fields that are absent,
	// and submits the first form matching selector.
	SubmitForm(ctx context.Context, selector string, set, ensure map[string]string) (bool, error)
	// WaitFor waits until selector is attached or the timeout elapses.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error
	// Text returns the text content of the first match, "" if none.
	Text(ctx context.Context, selector string) (string, error)
	// Texts returns the text content of every match.
	Texts(ctx context.Context, selector string) ([]string, error)
	// Content returns the current document markup.
	Content(ctx context.Context) (string, error)
}

// Site describes the catalog's affordances.
type Site struct {
	SearchURL string

	// LanguageGate matches controls that switch the UI to English.
	LanguageGate     []*regexp.Regexp
	LanguageControls string
	LanguageAttempts int

	// TermLabel matches the Fall/Winter term control.
	TermLabel *regexp.Regexp
	// TermTextControls are clicked by visible text when no label matches.
	TermTextControls string

	SearchButton         string
	SearchButtonFallback string
	SearchText           *regexp.Regexp

	ResultsTable   string
	RangeIndicator string

	// PageSizeLinks are tried in order after the first results page renders.
	PageSizeLinks []*regexp.Regexp

	PagerFunc     string
	PagerTarget   string
	PagerForm     string
	PageField     string
	PageSizeField string
	PageSizeValue string
	NextControl   string
	NextText      *regexp.Regexp
}

// DefaultSite returns the profile of the syllabus search of the catalog.
func DefaultSite() Site {
	return Site{
		SearchURL: "https://www.wsl.waseda.jp/syllabus/JAA101.php?pLng=en",

		LanguageGate: []*regexp.Regexp{
			regexp.MustCompile(`(?i)English`),
			regexp.MustCompile(`英語`),
		},
		LanguageControls: `button, a, input[type="button"], input[type="submit"]`,
		LanguageAttempts: 3,

		TermLabel:        regexp.MustCompile(`(?i)fall\s*(?:/|＆|and)?\s*winter`),
		TermTextControls: "span, a, li, td",

		SearchButton:         `input[name="btnSubmit"]`,
		SearchButtonFallback: `button, input[type="submit"], input[type="button"]`,
		SearchText:           regexp.MustCompile(`(?i)^\s*search\s*$`),

		ResultsTable:   "table.ct-vh",
		RangeIndicator: "div.c-selectall font",

		PageSizeLinks: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b100\s*items\b`),
			regexp.MustCompile(`(?i)\b50\s*items\b`),
		},

		PagerFunc:     "page_turning",
		PagerTarget:   "JAA103SubCon",
		PagerForm:     "form#cForm, form[name=cForm]",
		PageField:     "p_page",
		PageSizeField: "p_number",
		PageSizeValue: "100",
		NextControl:   "div.l-btn-c a[onclick*='page_turning'], a[onclick*='page_turning']",
		NextText:      regexp.MustCompile(`(?i)Next|次へ`),
	}
}

// Options holds the controller's timing and limits.
type Options struct {
	// Throttle is the pause after each harvested page.
	Throttle time.Duration
	// Settle is the pause after a confirmed page change.
	Settle time.Duration
	// ResultsTimeout bounds the wait for the first results table.
	ResultsTimeout time.Duration
	// ChangeTimeout bounds the wait for the range indicator to change.
	ChangeTimeout time.Duration
	// PageSizeTimeout bounds the wait after switching the page size.
	PageSizeTimeout time.Duration
	PollInterval    time.Duration
	// NavigateRetries is the number of retries of the initial navigation.
	NavigateRetries int
	// SampleLinks caps the link texts logged when navigation stalls.
	SampleLinks int
	// MaxPages stops the walk after that many pages; 0 means no limit.
	MaxPages int
}

// DefaultOptions returns the timings used against the live catalog.
func DefaultOptions() Options {
	return Options{
		Throttle:        config.PageThrottle,
		Settle:          config.SettleDelay,
		ResultsTimeout:  config.ResultsWait,
		ChangeTimeout:   config.PageChangeWait,
		PageSizeTimeout: config.PageSizeWait,
		PollInterval:    config.IndicatorPoll,
		NavigateRetries: 2,
		SampleLinks:     30,
	}
}
