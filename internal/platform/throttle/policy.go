// Package throttle paces outbound page loads with randomized pauses,
// bounded exponential backoff and a per-operation retry budget.
package throttle

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// Policy is the pacing strategy used by the crawlers. Implementations never
// return errors; a cancelled context only cuts a pause short.
type Policy interface {
	// Delay blocks for a uniformly random duration in [min, max].
	Delay(ctx context.Context, min, max time.Duration)
	// Pause is Delay with the configured default bounds.
	Pause(ctx context.Context)
	// Backoff blocks for the exponential wait of the given attempt.
	Backoff(ctx context.Context, attempt int)
	// ShouldRetry consumes one unit of the retry budget.
	ShouldRetry() bool
	// Reset restores the full retry budget.
	Reset()
}

// Random is the production policy. One instance belongs to one job.
type Random struct {
	cfg Config

	mu      sync.Mutex
	retries int

	jitter func(n int64) int64
	sleep  func(ctx context.Context, d time.Duration)
}

var _ Policy = (*Random)(nil)

func NewRandom(cfg Config) *Random {
	return &Random{
		cfg:    NormalizeConfig(cfg),
		jitter: rand.Int64N,
		sleep:  sleepContext,
	}
}

func (p *Random) Config() Config {
	return p.cfg
}

func (p *Random) Delay(ctx context.Context, min, max time.Duration) {
	p.sleep(ctx, p.pick(min, max))
}

func (p *Random) Pause(ctx context.Context) {
	p.Delay(ctx, p.cfg.DelayMin, p.cfg.DelayMax)
}

func (p *Random) Backoff(ctx context.Context, attempt int) {
	p.sleep(ctx, BackoffDuration(p.cfg, attempt))
}

func (p *Random) ShouldRetry() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.retries++
	return p.retries <= p.cfg.MaxRetries
}

func (p *Random) Reset() {
	p.mu.Lock()
	p.retries = 0
	p.mu.Unlock()
}

func (p *Random) pick(min, max time.Duration) time.Duration {
	if min < 0 {
		min = 0
	}
	if max < min {
		min, max = max, min
	}
	if max <= 0 {
		return 0
	}
	span := int64(max - min)
	if span == 0 {
		return min
	}
	return min + time.Duration(p.jitter(span+1))
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Nop never sleeps but keeps the retry accounting of Random.
type Nop struct {
	MaxRetries int

	mu      sync.Mutex
	retries int
}

var _ Policy = (*Nop)(nil)

func NewNop(maxRetries int) *Nop {
	return &Nop{MaxRetries: maxRetries}
}

func (p *Nop) Delay(context.Context, time.Duration, time.Duration) {}

func (p *Nop) Pause(context.Context) {}

func (p *Nop) Backoff(context.Context, int) {}

func (p *Nop) ShouldRetry() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.retries++
	return p.retries <= p.MaxRetries
}

func (p *Nop) Reset() {
	p.mu.Lock()
	p.retries = 0
	p.mu.Unlock()
}
