// Package browser drives a headless Chromium through playwright with a
// reduced automation fingerprint.
package browser

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/playwright-community/playwright-go"

	"github.com/riskibarqy/fbref-report/internal/platform/logging"
)

var ErrNotOpen = crerr.New("browser session is not open")

// PlaywrightSession owns one playwright driver, browser and page. It is not
// shared between jobs.
type PlaywrightSession struct {
	opts   Options
	logger *logging.Logger

	mu         sync.Mutex
	pw         *playwright.Playwright
	browser    playwright.Browser
	browserCtx playwright.BrowserContext
	page       playwright.Page
	userAgent  string
}

func NewPlaywrightSession(opts Options, logger *logging.Logger) *PlaywrightSession {
	if logger == nil {
		logger = logging.Default()
	}
	return &PlaywrightSession{
		opts:   NormalizeOptions(opts),
		logger: logger,
	}
}

// Open launches the browser. Calling Open on an open session is a no-op.
func (s *PlaywrightSession) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.page != nil {
		return nil
	}

	pw, err := playwright.Run()
	if err != nil {
		return crerr.Wrap(err, "start playwright driver")
	}

	launch := playwright.BrowserTypeLaunchOptions{
		Headless:          playwright.Bool(s.opts.Headless),
		Args:              launchArgs(),
		IgnoreDefaultArgs: []string{"--enable-automation"},
	}
	if s.opts.ExecutablePath != "" {
		launch.ExecutablePath = playwright.String(s.opts.ExecutablePath)
	}

	browser, err := pw.Chromium.Launch(launch)
	if err != nil {
		_ = pw.Stop()
		return crerr.Wrap(err, "launch chromium")
	}

	userAgent := s.opts.UserAgents[rand.IntN(len(s.opts.UserAgents))]
	browserCtx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(userAgent),
		Viewport: &playwright.Size{
			Width:  s.opts.WindowWidth,
			Height: s.opts.WindowHeight,
		},
	})
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return crerr.Wrap(err, "create browser context")
	}

	if err := browserCtx.AddInitScript(playwright.Script{Content: playwright.String(hideWebdriverScript)}); err != nil {
		_ = browserCtx.Close()
		_ = browser.Close()
		_ = pw.Stop()
		return crerr.Wrap(err, "install webdriver mask")
	}

	page, err := browserCtx.NewPage()
	if err != nil {
		_ = browserCtx.Close()
		_ = browser.Close()
		_ = pw.Stop()
		return crerr.Wrap(err, "open page")
	}
	page.SetDefaultTimeout(millis(s.opts.ImplicitWait))
	page.SetDefaultNavigationTimeout(millis(s.opts.PageLoadTimeout))

	s.pw = pw
	s.browser = browser
	s.browserCtx = browserCtx
	s.page = page
	s.userAgent = userAgent

	s.logger.DebugContext(ctx, "browser session opened",
		"headless", s.opts.Headless,
		"user_agent", userAgent,
		"viewport", [2]int{s.opts.WindowWidth, s.opts.WindowHeight},
	)
	return nil
}

// Load navigates to url. Failures are logged and reported as false.
func (s *PlaywrightSession) Load(ctx context.Context, url string) bool {
	page, err := s.currentPage()
	if err != nil {
		s.logger.WarnContext(ctx, "page load skipped", "url", url, "error", err)
		return false
	}

	resp, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(millis(s.opts.PageLoadTimeout)),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "page load failed", "url", url, "error", err)
		return false
	}
	if resp != nil && resp.Status() >= 400 {
		s.logger.WarnContext(ctx, "page load rejected", "url", url, "status", resp.Status())
		return false
	}
	return true
}

// WaitFor waits up to timeout for selector to be attached and returns the
// element's inner HTML. A timeout is an absence signal, not an error.
func (s *PlaywrightSession) WaitFor(ctx context.Context, selector string, timeout time.Duration) (string, bool) {
	page, err := s.currentPage()
	if err != nil {
		return "", false
	}
	if timeout <= 0 {
		timeout = s.opts.ImplicitWait
	}

	handle, err := page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(millis(timeout)),
		State:   playwright.WaitForSelectorStateAttached,
	})
	if err != nil || handle == nil {
		s.logger.DebugContext(ctx, "selector not found", "selector", selector, "timeout", timeout, "error", err)
		return "", false
	}
	html, err := handle.InnerHTML()
	if err != nil {
		return "", true
	}
	return html, true
}

// Scroll moves the viewport to fraction of the document height.
func (s *PlaywrightSession) Scroll(ctx context.Context, fraction float64) {
	page, err := s.currentPage()
	if err != nil {
		return
	}
	if _, err := page.Evaluate(scrollScript, fraction); err != nil {
		s.logger.DebugContext(ctx, "scroll failed", "fraction", fraction, "error", err)
	}
}

func (s *PlaywrightSession) Content(_ context.Context) (string, error) {
	page, err := s.currentPage()
	if err != nil {
		return "", err
	}
	html, err := page.Content()
	if err != nil {
		return "", crerr.Wrap(err, "read page content")
	}
	return html, nil
}

// Close releases every browser resource. It is safe to call more than once
// and on a session that was never opened.
func (s *PlaywrightSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.browserCtx != nil {
		if err := s.browserCtx.Close(); err != nil {
			errs = append(errs, crerr.Wrap(err, "close browser context"))
		}
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, crerr.Wrap(err, "close browser"))
		}
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			errs = append(errs, crerr.Wrap(err, "stop playwright driver"))
		}
	}
	s.page = nil
	s.browserCtx = nil
	s.browser = nil
	s.pw = nil

	if len(errs) == 0 {
		return nil
	}
	return crerr.Join(errs...)
}

// UserAgent returns the user agent picked when the session was opened.
func (s *PlaywrightSession) UserAgent() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userAgent
}

func (s *PlaywrightSession) currentPage() (playwright.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page == nil {
		return nil, ErrNotOpen
	}
	return s.page, nil
}

func millis(d time.Duration) float64 {
	return float64(d / time.Millisecond)
}
