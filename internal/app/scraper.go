package app

import (
	"context"

	"github.com/riskibarqy/fbref-report/internal/config"
	"github.com/riskibarqy/fbref-report/internal/infrastructure/browser"
	"github.com/riskibarqy/fbref-report/internal/infrastructure/fbref"
	"github.com/riskibarqy/fbref-report/internal/observability"
	"github.com/riskibarqy/fbref-report/internal/platform/logging"
	"github.com/riskibarqy/fbref-report/internal/platform/resilience"
	"github.com/riskibarqy/fbref-report/internal/platform/throttle"
	"github.com/riskibarqy/fbref-report/internal/usecase"
)

func throttleConfig(cfg config.Config) throttle.Config {
	return throttle.NormalizeConfig(throttle.Config{
		DelayMin:      cfg.ScraperDelayMin,
		DelayMax:      cfg.ScraperDelayMax,
		BackoffFactor: cfg.ScraperBackoffFactor,
		MaxRetries:    cfg.ScraperMaxRetries,
	})
}

func browserOptions(cfg config.Config) browser.Options {
	return browser.NormalizeOptions(browser.Options{
		Headless:        cfg.ScraperHeadless,
		ExecutablePath:  cfg.ScraperBrowserPath,
		WindowWidth:     cfg.ScraperWindowWidth,
		WindowHeight:    cfg.ScraperWindowHeight,
		UserAgents:      cfg.ScraperUserAgents,
		ImplicitWait:    cfg.ScraperImplicitWait,
		PageLoadTimeout: cfg.ScraperPageLoadTimeout,
	})
}

// NewScraper builds the fbref scraper with one navigation breaker shared by
// every crawler it opens. metrics may be nil.
func NewScraper(cfg config.Config, logger *logging.Logger, metrics *observability.Metrics) *fbref.Scraper {
	if logger == nil {
		logger = logging.Default()
	}

	factory := browser.NewFactory(browserOptions(cfg), logger.Named("browser"))
	pacing := throttleConfig(cfg)

	opts := []fbref.Option{fbref.WithElementWait(cfg.ScraperImplicitWait)}
	if cfg.ScraperCircuitEnabled {
		breaker := resilience.NewCircuitBreakerFromConfig(resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: cfg.ScraperCircuitFailureCount,
			OpenTimeout:      cfg.ScraperCircuitOpenTimeout,
			HalfOpenMaxReq:   1,
		})
		if metrics != nil {
			breaker.SetStateListener(metrics.ObserveBreaker)
		}
		opts = append(opts, fbref.WithBreaker(breaker))
	}
	if metrics != nil {
		opts = append(opts, fbref.WithLoadObserver(metrics))
	}

	return fbref.NewScraper(
		cfg.ScraperBaseURL,
		func() fbref.Session { return factory.New() },
		func() throttle.Policy { return throttle.NewRandom(pacing) },
		logger.Named("fbref"),
		opts...,
	)
}

// crawlerOpener returns a nil interface, not a nil *fbref.Crawler, on error.
func crawlerOpener(scraper *fbref.Scraper) usecase.CrawlerOpener {
	return func(ctx context.Context) (usecase.ReportCrawler, error) {
		crawler, err := scraper.Open(ctx)
		if err != nil {
			return nil, err
		}
		return crawler, nil
	}
}
