package pager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/garyellow/roomharvest/internal/config"
	"github.com/garyellow/roomharvest/internal/ctxutil"
	domerrors "github.com/garyellow/roomharvest/internal/errors"
	"github.com/garyellow/roomharvest/internal/logger"
	"github.com/garyellow/roomharvest/internal/scraper"
	"github.com/garyellow/roomharvest/internal/textnorm"
)

// Recorder receives navigation measurements.
type Recorder interface {
	RecordNavigation(strategy string, outcome Outcome, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordNavigation(string, Outcome, time.Duration) {}

// VisitFunc handles the markup of one results page. Returning an error
// wrapping ErrResultsTableMissing ends the walk normally.
type VisitFunc func(ctx context.Context, pageNo int, html string) error

// WalkSummary describes a finished walk.
type WalkSummary struct {
	Pages  int
	Reason StopReason
	// LastRange is the indicator text of the last visited page.
	LastRange string
}

// Controller walks one search session. It is not safe for concurrent use.
type Controller struct {
	page       Page
	site       Site
	opts       Options
	strategies []Strategy
	log        *logger.Logger
	rec        Recorder

	state  State
	pageNo int
}

// New creates a controller over page. A nil recorder discards measurements.
func New(page Page, site Site, opts Options, log *logger.Logger, rec Recorder) *Controller {
	if rec == nil {
		rec = nopRecorder{}
	}
	if log == nil {
		log = logger.New("info")
	}
	return &Controller{
		page:       page,
		site:       site,
		opts:       opts,
		strategies: DefaultStrategies(),
		log:        log.WithModule("pager"),
		rec:        rec,
		state:      Idle,
	}
}

// State returns the controller's current state.
func (c *Controller) State() State {
	return c.state
}

// PageNo returns the 1-based number of the page currently shown.
func (c *Controller) PageNo() int {
	return c.pageNo
}

// Start opens the search page, selects the Fall/Winter term, submits the
// search and waits for the first results page. Missing controls are fatal
// and not retried.
func (c *Controller) Start(ctx context.Context) error {
	if c.state != Idle {
		return fmt.Errorf("pager: start in state %s", c.state)
	}
	url := c.site.SearchURL

	err := scraper.RetryWithBackoff(ctx, c.opts.NavigateRetries, config.NavigateRetryInitial, func() error {
		return c.page.Navigate(ctxutil.WithStep(ctx, "navigate"), url)
	})
	if err != nil {
		return c.fatal(ctx, "navigate", err)
	}

	c.passLanguageGate(ctxutil.WithStep(ctx, "language"))

	if err := c.selectTerm(ctxutil.WithStep(ctx, "select_term")); err != nil {
		return c.fatal(ctx, "select_term", err)
	}

	if err := c.submitSearch(ctxutil.WithStep(ctx, "submit_search")); err != nil {
		return c.fatal(ctx, "submit_search", err)
	}
	c.state = SearchSubmitted

	if err := c.page.WaitFor(ctx, c.site.ResultsTable, c.opts.ResultsTimeout); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return c.fatal(ctx, "wait_results", fmt.Errorf("%w: %v", domerrors.ErrResultsTableMissing, err))
	}
	c.state = ResultsLoaded
	c.pageNo = 1

	c.switchPageSize(ctxutil.WithStep(ctx, "page_size"))
	return nil
}

func (c *Controller) fatal(ctx context.Context, step string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return domerrors.NewSessionError(step, c.site.SearchURL, err)
}

// passLanguageGate clicks through language selection until no gate
// control is left or the attempts run out.
func (c *Controller) passLanguageGate(ctx context.Context) {
	for attempt := 0; attempt < c.site.LanguageAttempts; attempt++ {
		clicked := false
		for _, pat := range c.site.LanguageGate {
			ok, err := c.page.Click(ctx, c.site.LanguageControls, pat)
			if err != nil {
				c.log.DebugContext(ctx, "Language control click failed", "pattern", pat.String(), "error", err)
				continue
			}
			if ok {
				c.log.DebugContext(ctx, "Clicked language control", "pattern", pat.String(), "attempt", attempt+1)
				clicked = true
				break
			}
		}
		if !clicked {
			return
		}
	}
}

func (c *Controller) selectTerm(ctx context.Context) error {
	var lastErr error
	for _, sel := range []string{"label", c.site.TermTextControls} {
		ok, err := c.page.Click(ctx, sel, c.site.TermLabel)
		if err == nil && ok {
			c.log.DebugContext(ctx, "Selected term", "control", sel)
			return nil
		}
		if err != nil {
			lastErr = err
		}
	}

	ok, err := c.page.SelectOption(ctx, "select", c.site.TermLabel)
	if err == nil && ok {
		return nil
	}
	if err != nil {
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("%w: term control %q: %v", domerrors.ErrLayoutChanged, c.site.TermLabel, lastErr)
	}
	return fmt.Errorf("%w: no term control matches %q", domerrors.ErrLayoutChanged, c.site.TermLabel)
}

func (c *Controller) submitSearch(ctx context.Context) error {
	ok, err := c.page.Click(ctx, c.site.SearchButton, nil)
	if err == nil && ok {
		return nil
	}
	ok, err2 := c.page.Click(ctx, c.site.SearchButtonFallback, c.site.SearchText)
	if err2 == nil && ok {
		return nil
	}
	return fmt.Errorf("%w: search button not found: %v", domerrors.ErrLayoutChanged, errors.Join(err, err2))
}

// switchPageSize asks for the largest page size offered. Failure keeps
// the default size.
func (c *Controller) switchPageSize(ctx context.Context) {
	before := c.rangeText(ctx)
	for _, pat := range c.site.PageSizeLinks {
		ok, err := c.page.Click(ctx, "a", pat)
		if err != nil || !ok {
			continue
		}
		if c.awaitChange(ctx, before, c.opts.PageSizeTimeout) {
			c.log.InfoContext(ctx, "Switched page size", "link", pat.String(), "range", c.rangeText(ctx))
		} else {
			c.log.WarnContext(ctx, "Page size link did not change the results", "link", pat.String())
		}
		return
	}
	c.log.DebugContext(ctx, "No page size link offered")
}

// Walk visits the current page, then advances until the results are
// exhausted. Visitor errors other than a missing table abort the walk.
func (c *Controller) Walk(ctx context.Context, visit VisitFunc) (WalkSummary, error) {
	var summary WalkSummary
	if c.state != ResultsLoaded {
		return summary, fmt.Errorf("pager: walk in state %s", c.state)
	}

	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		c.state = Harvesting
		pctx := ctxutil.WithPage(ctx, c.pageNo)

		html, err := c.page.Content(pctx)
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			return summary, domerrors.NewSessionError("content", c.site.SearchURL, err)
		}
		summary.LastRange = c.rangeText(pctx)

		if err := visit(pctx, c.pageNo, html); err != nil {
			if errors.Is(err, domerrors.ErrResultsTableMissing) {
				c.log.WarnContext(pctx, "Results table gone, stopping")
				summary.Reason = TableGone
				break
			}
			return summary, err
		}
		summary.Pages++

		if err := scraper.Sleep(ctx, c.opts.Throttle); err != nil {
			return summary, err
		}

		if c.opts.MaxPages > 0 && summary.Pages >= c.opts.MaxPages {
			summary.Reason = PageLimit
			break
		}

		c.state = Advancing
		advanced, reason, err := c.Advance(ctxutil.WithStep(pctx, "advance"))
		if err != nil {
			return summary, err
		}
		if !advanced {
			summary.Reason = reason
			break
		}
	}

	c.state = Exhausted
	c.log.InfoContext(ctx, "Reached last page",
		"pages", summary.Pages,
		"page_no", c.pageNo,
		"reason", string(summary.Reason),
		"range", summary.LastRange,
	)
	return summary, nil
}

// Advance moves to the next page. It reports false with LastPage when the
// indicator shows the current page is the last, and false with Stalled
// when every strategy failed. Only cancellation is returned as an error.
func (c *Controller) Advance(ctx context.Context) (bool, StopReason, error) {
	before := c.rangeText(ctx)
	if r, ok := ParseRange(before); ok && (c.pageNo >= r.Pages() || r.Last()) {
		return false, LastPage, nil
	}

	target := c.pageNo + 1
	outcomes := make(map[string]string, len(c.strategies))
	for _, s := range c.strategies {
		outcome := c.Attempt(ctx, s, target, before)
		if err := ctx.Err(); err != nil {
			return false, "", err
		}
		outcomes[s.Name] = outcome.String()
		if outcome == Success {
			c.pageNo = target
			c.log.DebugContext(ctx, "Advanced", "strategy", s.Name, "page_no", target)
			return true, "", nil
		}
	}

	c.log.WarnContext(ctx, "No navigation strategy advanced the results",
		"range", before,
		"target", target,
		"outcomes", outcomes,
		"sample_links", c.sampleLinks(ctx),
	)
	return false, Stalled, nil
}

// Attempt fires one strategy towards target and confirms it by watching
// the range indicator move away from before.
func (c *Controller) Attempt(ctx context.Context, s Strategy, target int, before string) Outcome {
	start := time.Now()
	outcome := c.attempt(ctx, s, target, before)
	c.rec.RecordNavigation(s.Name, outcome, time.Since(start))
	return outcome
}

func (c *Controller) attempt(ctx context.Context, s Strategy, target int, before string) Outcome {
	fired, err := s.Trigger(ctx, c.page, c.site, target)
	if err != nil {
		c.log.DebugContext(ctx, "Strategy trigger failed", "strategy", s.Name, "error", err)
		return Failed
	}
	if !fired {
		return Failed
	}

	if !c.awaitChange(ctx, before, c.opts.ChangeTimeout) {
		if !s.AwaitTable || ctx.Err() != nil {
			return Unchanged
		}
		if err := c.page.WaitFor(ctx, c.site.ResultsTable, c.opts.ChangeTimeout); err != nil {
			return Unchanged
		}
		if !changed(c.rangeText(ctx), before) {
			return Unchanged
		}
	}

	if err := scraper.Sleep(ctx, c.opts.Settle); err != nil {
		return Unchanged
	}
	return Success
}

// awaitChange polls the range indicator until it shows a new range.
func (c *Controller) awaitChange(ctx context.Context, before string, timeout time.Duration) bool {
	err := scraper.Poll(ctx, c.opts.PollInterval, timeout, func(ctx context.Context) (bool, error) {
		return changed(c.rangeText(ctx), before), nil
	})
	return err == nil
}

// changed reports whether now is a readable range other than before. The
// indicator is absent while a navigation is loading, which is not a change.
func changed(now, before string) bool {
	if now == before {
		return false
	}
	_, ok := ParseRange(now)
	return ok
}

func (c *Controller) rangeText(ctx context.Context) string {
	text, err := c.page.Text(ctx, c.site.RangeIndicator)
	if err != nil {
		return ""
	}
	return textnorm.Normalize(text)
}

func (c *Controller) sampleLinks(ctx context.Context) []string {
	texts, err := c.page.Texts(ctx, "a")
	if err != nil {
		return nil
	}
	out := make([]string, 0, c.opts.SampleLinks)
	for _, t := range texts {
		if len(out) >= c.opts.SampleLinks {
			break
		}
		if t = textnorm.Normalize(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
