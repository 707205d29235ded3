// Package pagertest provides an in-memory catalog that implements
// pager.Page for tests.
package pagertest

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/garyellow/roomharvest/internal/pager"
)

// ErrTimeout is returned by WaitFor when the selector never appears.
var ErrTimeout = errors.New("pagertest: wait timed out")

// Catalog simulates the search page and its paginated results. The zero
// value of every knob describes a cooperative site.
type Catalog struct {
	Site pager.Site

	// Pages holds the full markup of each results page.
	Pages []string
	// Indicators holds the range indicator text shown with each page.
	Indicators []string

	// GateClicks is how many language gate clicks the site asks for.
	GateClicks int
	// TermInSelect offers the term as a select option instead of a label.
	TermInSelect bool
	// TermAsText offers the term only as plain visible text.
	TermAsText     bool
	NoTermControl  bool
	NoSearchButton bool
	// SearchByText hides the named button and offers a "Search" button.
	SearchByText bool
	NoResults    bool
	// PageSizeLink offers a "100 items" link that reloads page 1 with
	// BigIndicator as its indicator.
	PageSizeLink bool
	BigIndicator string
	// Broken disables strategies by name.
	Broken map[string]bool
	// Stale makes navigation fire without changing the page.
	Stale bool
	// Loading is how many indicator reads after each page change find the
	// indicator absent. The document stays blank until then.
	Loading int
	Links   []string

	mu       sync.Mutex
	current  int
	gate     int
	term     bool
	advances int
	loading  int
	calls    []string
}

var _ pager.Page = (*Catalog)(nil)

// Advances returns how many times the shown page changed after the search.
func (c *Catalog) Advances() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.advances
}

// Current returns the 1-based shown page, 0 before the search.
func (c *Catalog) Current() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Calls returns the recorded method calls.
func (c *Catalog) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.calls)
}

func (c *Catalog) record(format string, args ...any) {
	c.calls = append(c.calls, fmt.Sprintf(format, args...))
}

func matches(re *regexp.Regexp, text string) bool {
	return re == nil || re.MatchString(text)
}

func (c *Catalog) Navigate(_ context.Context, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("navigate %s", url)
	c.current = 0
	return nil
}

func (c *Catalog) Click(_ context.Context, selector string, text *regexp.Regexp) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("click %s", selector)

	switch selector {
	case c.Site.LanguageControls:
		if c.gate < c.GateClicks && matches(text, "English") {
			c.gate++
			return true, nil
		}
	case "label":
		if !c.NoTermControl && !c.TermInSelect && !c.TermAsText && matches(text, "Fall/Winter") {
			c.term = true
			return true, nil
		}
	case c.Site.TermTextControls:
		if !c.NoTermControl && c.TermAsText && matches(text, "Fall/Winter") {
			c.term = true
			return true, nil
		}
	case c.Site.SearchButton:
		if !c.NoSearchButton && !c.SearchByText {
			c.search()
			return true, nil
		}
	case c.Site.SearchButtonFallback:
		if c.SearchByText && matches(text, "Search") {
			c.search()
			return true, nil
		}
	case "a":
		if c.PageSizeLink && c.current > 0 && matches(text, "100 items") {
			c.Indicators = slices.Clone(c.Indicators)
			c.Indicators[0] = c.BigIndicator
			return true, nil
		}
	case c.Site.NextControl:
		if c.Broken[pager.StrategyClick] || !matches(text, "Next") {
			return false, nil
		}
		if c.current >= len(c.Pages) {
			return false, nil
		}
		c.goTo(c.current + 1)
		return true, nil
	}
	return false, nil
}

func (c *Catalog) search() {
	if c.term && !c.NoResults && len(c.Pages) > 0 {
		c.current = 1
	}
}

func (c *Catalog) goTo(target int) {
	if c.Stale || target < 1 || target > len(c.Pages) {
		return
	}
	c.current = target
	c.advances++
	c.loading = c.Loading
}

func (c *Catalog) SelectOption(_ context.Context, selector string, label *regexp.Regexp) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("select %s", selector)
	if c.TermInSelect && !c.NoTermControl && matches(label, "Fall/Winter") {
		c.term = true
		return true, nil
	}
	return false, nil
}

func (c *Catalog) Invoke(_ context.Context, fn string, args ...string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("invoke %s %v", fn, args)
	if c.Broken[pager.StrategyInvoke] || fn != c.Site.PagerFunc || len(args) != 2 {
		return false, nil
	}
	target, err := strconv.Atoi(args[1])
	if err != nil {
		return false, err
	}
	c.goTo(target)
	return true, nil
}

func (c *Catalog) SubmitForm(_ context.Context, selector string, set, ensure map[string]string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("submit %s", selector)
	if c.Broken[pager.StrategyForm] || selector != c.Site.PagerForm {
		return false, nil
	}
	if ensure[c.Site.PageSizeField] == "" {
		return false, fmt.Errorf("pagertest: %s not ensured", c.Site.PageSizeField)
	}
	target, err := strconv.Atoi(set[c.Site.PageField])
	if err != nil {
		return false, err
	}
	c.goTo(target)
	return true, nil
}

func (c *Catalog) WaitFor(_ context.Context, selector string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if selector == c.Site.ResultsTable && c.current == 0 {
		return ErrTimeout
	}
	return nil
}

func (c *Catalog) Text(_ context.Context, selector string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if selector != c.Site.RangeIndicator || c.current == 0 || c.current > len(c.Indicators) {
		return "", nil
	}
	if c.loading > 0 {
		c.loading--
		return "", nil
	}
	return c.Indicators[c.current-1], nil
}

func (c *Catalog) Texts(_ context.Context, selector string) ([]string, error) {
	if selector != "a" {
		return nil, nil
	}
	return slices.Clone(c.Links), nil
}

func (c *Catalog) Content(_ context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == 0 || c.loading > 0 {
		return "<html><body></body></html>", nil
	}
	return c.Pages[c.current-1], nil
}
