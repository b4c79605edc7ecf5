// Package fbref scrapes fixture listings, match pages and player pages from
// fbref.com through a browser session.
package fbref

import (
	"context"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/fbref-report/internal/domain/fixture"
	"github.com/riskibarqy/fbref-report/internal/platform/logging"
	"github.com/riskibarqy/fbref-report/internal/platform/resilience"
	"github.com/riskibarqy/fbref-report/internal/platform/throttle"
)

const DefaultBaseURL = "https://fbref.com"

// Session is the browser capability the crawlers need.
type Session interface {
	Open(ctx context.Context) error
	Load(ctx context.Context, url string) bool
	WaitFor(ctx context.Context, selector string, timeout time.Duration) (string, bool)
	Scroll(ctx context.Context, fraction float64)
	Content(ctx context.Context) (string, error)
	Close() error
}

type (
	SessionFunc func() Session
	PolicyFunc  func() throttle.Policy
)

// LoadObserver receives the outcome of every navigation attempt.
type LoadObserver interface {
	ObservePageLoad(outcome string)
}

const (
	LoadOutcomeOK       = "ok"
	LoadOutcomeFailed   = "failed"
	LoadOutcomeRejected = "rejected"
)

type Option func(*Scraper)

// WithBreaker shares a navigation circuit breaker across all crawlers.
func WithBreaker(breaker *resilience.CircuitBreaker) Option {
	return func(s *Scraper) { s.breaker = breaker }
}

func WithLoadObserver(observer LoadObserver) Option {
	return func(s *Scraper) { s.observer = observer }
}

func WithElementWait(wait time.Duration) Option {
	return func(s *Scraper) {
		if wait > 0 {
			s.elementWait = wait
		}
	}
}

// Scraper opens crawlers. It is safe for concurrent use; each crawler it
// returns owns a private session and pacing policy.
type Scraper struct {
	baseURL     string
	newSession  SessionFunc
	newPolicy   PolicyFunc
	breaker     *resilience.CircuitBreaker
	observer    LoadObserver
	elementWait time.Duration
	logger      *logging.Logger
}

var _ fixture.Source = (*Scraper)(nil)

func NewScraper(baseURL string, newSession SessionFunc, newPolicy PolicyFunc, logger *logging.Logger, opts ...Option) *Scraper {
	if logger == nil {
		logger = logging.Default()
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if newPolicy == nil {
		newPolicy = func() throttle.Policy { return throttle.NewRandom(throttle.DefaultConfig()) }
	}

	s := &Scraper{
		baseURL:     baseURL,
		newSession:  newSession,
		newPolicy:   newPolicy,
		elementWait: 10 * time.Second,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open starts a fresh browser session. The caller must Close the crawler.
func (s *Scraper) Open(ctx context.Context) (*Crawler, error) {
	if s.newSession == nil {
		return nil, crerr.New("browser session factory is not configured")
	}
	session := s.newSession()
	if err := session.Open(ctx); err != nil {
		_ = session.Close()
		return nil, crerr.Wrap(err, "open browser session")
	}

	return &Crawler{
		scraper: s,
		session: session,
		policy:  s.newPolicy(),
		logger:  s.logger,
	}, nil
}

// ListByDate opens a session, scrapes one listing page and closes it again.
func (s *Scraper) ListByDate(ctx context.Context, date, leagueCode string) ([]fixture.Fixture, error) {
	crawler, err := s.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer crawler.Close()

	return crawler.ScrapeFixtures(ctx, date, leagueCode), nil
}

// Crawler drives one browser session. It is not safe for concurrent use.
type Crawler struct {
	scraper *Scraper
	session Session
	policy  throttle.Policy
	logger  *logging.Logger
}

func (c *Crawler) Close() error {
	if err := c.session.Close(); err != nil {
		c.logger.Warn("close browser session failed", "error", err)
		return err
	}
	return nil
}

// load navigates with a random pause before every attempt and exponential
// backoff between attempts, until the retry budget is spent.
func (c *Crawler) load(ctx context.Context, target string) bool {
	c.policy.Reset()
	breaker := c.scraper.breaker
	for attempt := 0; ; attempt++ {
		if breaker != nil {
			if err := breaker.Allow(); err != nil {
				c.logger.WarnContext(ctx, "navigation circuit open", "url", target, "state", breaker.State())
				c.observe(LoadOutcomeRejected)
				return false
			}
		}

		c.policy.Pause(ctx)
		if c.session.Load(ctx, target) {
			if breaker != nil {
				breaker.RecordSuccess()
			}
			c.observe(LoadOutcomeOK)
			return true
		}
		if breaker != nil {
			breaker.RecordFailure()
		}
		c.observe(LoadOutcomeFailed)

		if ctx.Err() != nil || !c.policy.ShouldRetry() {
			c.logger.WarnContext(ctx, "page load gave up", "url", target, "attempts", attempt+1)
			return false
		}
		c.logger.InfoContext(ctx, "retrying page load", "url", target, "attempt", attempt+1)
		c.policy.Backoff(ctx, attempt)
	}
}

func (c *Crawler) observe(outcome string) {
	if c.scraper.observer != nil {
		c.scraper.observer.ObservePageLoad(outcome)
	}
}

// absolute resolves site-relative links against the base URL.
func (c *Crawler) absolute(link string) string {
	link = strings.TrimSpace(link)
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	return c.scraper.baseURL + "/" + strings.TrimLeft(link, "/")
}
