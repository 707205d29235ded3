// Package browser drives a Chromium page through playwright-go and exposes
// it as a pager.Page.
package browser

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/garyellow/roomharvest/internal/config"
	domerrors "github.com/garyellow/roomharvest/internal/errors"
	"github.com/garyellow/roomharvest/internal/logger"
	"github.com/garyellow/roomharvest/internal/pager"
	"github.com/garyellow/roomharvest/internal/scraper"
	"github.com/garyellow/roomharvest/internal/textnorm"
)

// Options configures the browser session.
type Options struct {
	Headless bool
	// Timeout bounds single browser operations without a timeout of their own.
	Timeout        time.Duration
	UserAgent      string
	Locale         string
	AcceptLanguage string
	ViewportWidth  int
	ViewportHeight int
}

// DefaultOptions returns options for a headless English session.
func DefaultOptions() Options {
	return Options{
		Headless:       true,
		Timeout:        config.BrowserOperation,
		Locale:         "en-US",
		AcceptLanguage: "en-US,en;q=0.9,ja;q=0.4",
		ViewportWidth:  1920,
		ViewportHeight: 1080,
	}
}

// Browser is one browser context with the page the session works on.
// It is not safe for concurrent use.
type Browser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	opts    Options
	log     *logger.Logger
}

var _ pager.Page = (*Browser)(nil)

// Install downloads the Chromium build the driver expects.
func Install() error {
	if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}
	return nil
}

// Launch starts Chromium and opens the session page.
func Launch(opts Options, log *logger.Logger) (*Browser, error) {
	if log == nil {
		log = logger.New("info")
	}
	ua := scraper.UserAgent(opts.UserAgent)

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args: []string{
			"--lang=" + opts.Locale,
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
		},
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(ua),
		Locale:    playwright.String(opts.Locale),
		Viewport: &playwright.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		},
		ExtraHttpHeaders: map[string]string{
			"Accept-Language": opts.AcceptLanguage,
		},
	})
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(float64(opts.Timeout.Milliseconds()))

	log = log.WithModule("browser")
	log.Info("Browser launched", "headless", opts.Headless, "user_agent", ua, "locale", opts.Locale)

	return &Browser{
		pw:      pw,
		browser: browser,
		context: bctx,
		page:    page,
		opts:    opts,
		log:     log,
	}, nil
}

// Close releases the context, the browser and the driver.
func (b *Browser) Close() error {
	var errs []error
	if b.context != nil {
		if err := b.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close context: %w", err))
		}
	}
	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
	}
	if b.pw != nil {
		if err := b.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (b *Browser) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := b.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   timeoutMS(ctx, b.opts.Timeout),
	})
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (b *Browser) Click(ctx context.Context, selector string, text *regexp.Regexp) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	candidates, err := b.page.Locator(selector).All()
	if err != nil {
		return false, fmt.Errorf("locate %s: %w", selector, err)
	}

	for _, loc := range candidates {
		if visible, err := loc.IsVisible(); err != nil || !visible {
			continue
		}
		if !matchesAny(text, controlTexts(loc)...) {
			continue
		}

		before := len(b.context.Pages())
		if err := loc.Click(playwright.LocatorClickOptions{Timeout: timeoutMS(ctx, b.opts.Timeout)}); err != nil {
			b.log.DebugContext(ctx, "Click failed", "selector", selector, "error", err)
			continue
		}
		b.followNewPage(ctx, before)
		return true, nil
	}
	return false, nil
}

// controlTexts returns what a user reads on a control: its text and, for
// inputs, its value.
func controlTexts(loc playwright.Locator) []string {
	var out []string
	if text, err := loc.TextContent(); err == nil {
		out = append(out, text)
	}
	if value, err := loc.GetAttribute("value"); err == nil && value != "" {
		out = append(out, value)
	}
	return out
}

// followNewPage switches to the newest page when a click opened one.
func (b *Browser) followNewPage(ctx context.Context, before int) {
	pages := b.context.Pages()
	if len(pages) <= before {
		return
	}
	b.page = pages[len(pages)-1]
	b.page.SetDefaultTimeout(float64(b.opts.Timeout.Milliseconds()))
	if err := b.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateDomcontentloaded,
		Timeout: timeoutMS(ctx, b.opts.Timeout),
	}); err != nil {
		b.log.DebugContext(ctx, "New page did not finish loading", "error", err)
	}
	b.log.DebugContext(ctx, "Switched to new page", "url", b.page.URL())
}

const listOptionsJS = `(sel) => {
	const out = [];
	document.querySelectorAll(sel).forEach((s, si) => {
		Array.from(s.options || []).forEach((o, oi) => {
			out.push({select: si, option: oi, label: (o.textContent || '').trim()});
		});
	});
	return out;
}`

const chooseOptionJS = `([sel, si, oi]) => {
	const s = document.querySelectorAll(sel)[si];
	if (!s || !s.options[oi]) return false;
	s.selectedIndex = oi;
	s.dispatchEvent(new Event('input', {bubbles: true}));
	s.dispatchEvent(new Event('change', {bubbles: true}));
	return true;
}`

func (b *Browser) SelectOption(ctx context.Context, selector string, label *regexp.Regexp) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	raw, err := b.page.Evaluate(listOptionsJS, selector)
	if err != nil {
		return false, fmt.Errorf("list options of %s: %w", selector, err)
	}
	for _, opt := range parseOptions(raw) {
		if !matchesAny(label, opt.Label) {
			continue
		}
		ok, err := b.page.Evaluate(chooseOptionJS, []any{selector, opt.Select, opt.Option})
		if err != nil {
			return false, fmt.Errorf("choose option %q: %w", opt.Label, err)
		}
		return truthy(ok), nil
	}
	return false, nil
}

const invokeJS = `([fn, args]) => {
	const f = window[fn];
	if (typeof f !== 'function') return false;
	f(...args);
	return true;
}`

func (b *Browser) Invoke(ctx context.Context, fn string, args ...string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ok, err := b.page.Evaluate(invokeJS, []any{fn, toAny(args)})
	if err != nil {
		if isNavigationError(err) {
			return true, nil
		}
		return false, fmt.Errorf("invoke %s: %w", fn, err)
	}
	return truthy(ok), nil
}

const submitFormJS = `([sel, set, ensure]) => {
	const form = document.querySelector(sel);
	if (!form) return false;
	const field = (name) => {
		let el = form.querySelector('[name="' + name + '"]');
		if (!el) {
			el = document.createElement('input');
			el.type = 'hidden';
			el.name = name;
			form.appendChild(el);
			return [el, true];
		}
		return [el, false];
	};
	for (const [name, value] of Object.entries(ensure)) {
		const [el, created] = field(name);
		if (created) el.value = value;
	}
	for (const [name, value] of Object.entries(set)) {
		field(name)[0].value = value;
	}
	form.submit();
	return true;
}`

func (b *Browser) SubmitForm(ctx context.Context, selector string, set, ensure map[string]string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ok, err := b.page.Evaluate(submitFormJS, []any{selector, set, ensure})
	if err != nil {
		if isNavigationError(err) {
			return true, nil
		}
		return false, fmt.Errorf("submit %s: %w", selector, err)
	}
	return truthy(ok), nil
}

func (b *Browser) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := b.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: timeoutMS(ctx, timeout),
	})
	if err != nil {
		return fmt.Errorf("%w: waiting for %s: %v", domerrors.ErrTimeout, selector, err)
	}
	return nil
}

func (b *Browser) Text(ctx context.Context, selector string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	loc := b.page.Locator(selector)
	n, err := loc.Count()
	if err != nil {
		return "", fmt.Errorf("count %s: %w", selector, err)
	}
	if n == 0 {
		return "", nil
	}
	text, err := loc.First().TextContent(playwright.LocatorTextContentOptions{Timeout: timeoutMS(ctx, b.opts.Timeout)})
	if err != nil {
		return "", fmt.Errorf("text of %s: %w", selector, err)
	}
	return text, nil
}

func (b *Browser) Texts(ctx context.Context, selector string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	texts, err := b.page.Locator(selector).AllTextContents()
	if err != nil {
		return nil, fmt.Errorf("texts of %s: %w", selector, err)
	}
	return texts, nil
}

func (b *Browser) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	html, err := b.page.Content()
	if err != nil {
		return "", fmt.Errorf("page content: %w", err)
	}
	return html, nil
}

// timeoutMS returns d in milliseconds, shortened to the context deadline.
// It never returns less than one millisecond: zero disables the timeout.
func timeoutMS(ctx context.Context, d time.Duration) *float64 {
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < d {
			d = left
		}
	}
	return playwright.Float(float64(max(d, time.Millisecond).Milliseconds()))
}

// isNavigationError reports whether a script failed because the page it ran
// in navigated away, which is what a pager call is expected to do.
func isNavigationError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Execution context was destroyed") ||
		strings.Contains(msg, "navigation")
}

func matchesAny(re *regexp.Regexp, texts ...string) bool {
	if re == nil {
		return true
	}
	for _, t := range texts {
		if re.MatchString(textnorm.Normalize(t)) {
			return true
		}
	}
	return false
}

type optionRef struct {
	Select int
	Option int
	Label  string
}

// parseOptions reads the result of listOptionsJS.
func parseOptions(raw any) []optionRef {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]optionRef, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		label, _ := m["label"].(string)
		out = append(out, optionRef{
			Select: toInt(m["select"]),
			Option: toInt(m["option"]),
			Label:  label,
		})
	}
	return out
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func truthy(v any) bool {
	b, _ := v.(bool)
	return b
}

func toAny(args []string) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = a
	}
	return out
}
