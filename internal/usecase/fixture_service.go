package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/fbref-report/internal/domain/fixture"
	"github.com/riskibarqy/fbref-report/internal/domain/league"
	"github.com/riskibarqy/fbref-report/internal/platform/logging"
)

type FixtureService struct {
	source fixture.Source
	logger *logging.Logger
}

func NewFixtureService(source fixture.Source, logger *logging.Logger) *FixtureService {
	if logger == nil {
		logger = logging.Default()
	}
	return &FixtureService{
		source: source,
		logger: logger,
	}
}

// ListByDate returns the fixtures listed for date, optionally restricted to
// one supported league code.
func (s *FixtureService) ListByDate(ctx context.Context, date, leagueCode string) ([]fixture.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureService.ListByDate")
	defer span.End()

	date, err := fixture.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	leagueCode = strings.TrimSpace(leagueCode)
	if leagueCode != "" {
		if _, ok := league.ByCode(leagueCode); !ok {
			return nil, fmt.Errorf("%w: unsupported league=%s", ErrInvalidInput, leagueCode)
		}
	}

	fixtures, err := s.source.ListByDate(ctx, date, leagueCode)
	if err != nil {
		s.logger.WarnContext(ctx, "fixture listing unavailable", "date", date, "league", leagueCode, "error", err)
		return nil, fmt.Errorf("%w: list fixtures: %v", ErrDependencyUnavailable, err)
	}

	return fixtures, nil
}
