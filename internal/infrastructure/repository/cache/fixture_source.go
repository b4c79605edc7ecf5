package cache

import (
	"context"
	"errors"
	"strings"

	"github.com/riskibarqy/fbref-report/internal/domain/fixture"
	basecache "github.com/riskibarqy/fbref-report/internal/platform/cache"
)

// errNoFixtures keeps empty listings out of the cache.
var errNoFixtures = errors.New("no fixtures listed")

// LookupObserver is told whether each listing was answered from cache.
type LookupObserver interface {
	ObserveFixtureLookup(hit bool)
}

type FixtureSource struct {
	next     fixture.Source
	cache    *basecache.Store
	observer LookupObserver
}

var _ fixture.Source = (*FixtureSource)(nil)

func NewFixtureSource(next fixture.Source, cache *basecache.Store) *FixtureSource {
	return &FixtureSource{next: next, cache: cache}
}

func (r *FixtureSource) WithObserver(observer LookupObserver) *FixtureSource {
	r.observer = observer
	return r
}

func (r *FixtureSource) ListByDate(ctx context.Context, date, leagueCode string) ([]fixture.Fixture, error) {
	key := "fixtures:" + date + ":" + strings.TrimSpace(leagueCode)
	loaded := false
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		loaded = true
		items, err := r.next.ListByDate(ctx, date, leagueCode)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return nil, errNoFixtures
		}
		return append([]fixture.Fixture(nil), items...), nil
	})
	if r.observer != nil {
		r.observer.ObserveFixtureLookup(!loaded)
	}
	if errors.Is(err, errNoFixtures) {
		return []fixture.Fixture{}, nil
	}
	if err != nil {
		return nil, err
	}

	items, _ := v.([]fixture.Fixture)
	return append([]fixture.Fixture(nil), items...), nil
}
