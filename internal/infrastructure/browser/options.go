package browser

import "time"

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
}

// Options configures one browser session.
type Options struct {
	Headless        bool
	ExecutablePath  string
	WindowWidth     int
	WindowHeight    int
	UserAgents      []string
	ImplicitWait    time.Duration
	PageLoadTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		Headless:        true,
		WindowWidth:     1920,
		WindowHeight:    1080,
		UserAgents:      append([]string(nil), defaultUserAgents...),
		ImplicitWait:    10 * time.Second,
		PageLoadTimeout: 30 * time.Second,
	}
}

func NormalizeOptions(opts Options) Options {
	defaults := DefaultOptions()
	if opts.WindowWidth <= 0 || opts.WindowHeight <= 0 {
		opts.WindowWidth = defaults.WindowWidth
		opts.WindowHeight = defaults.WindowHeight
	}
	if len(opts.UserAgents) == 0 {
		opts.UserAgents = defaults.UserAgents
	}
	if opts.ImplicitWait <= 0 {
		opts.ImplicitWait = defaults.ImplicitWait
	}
	if opts.PageLoadTimeout <= 0 {
		opts.PageLoadTimeout = defaults.PageLoadTimeout
	}
	return opts
}

// launchArgs are the Chromium switches that hide the automation fingerprint.
func launchArgs() []string {
	return []string{
		"--no-sandbox",
		"--disable-dev-shm-usage",
		"--disable-blink-features=AutomationControlled",
	}
}

const hideWebdriverScript = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined});`

const scrollScript = `(fraction) => { window.scrollTo(0, document.body.scrollHeight * fraction); return document.body.scrollHeight; }`
