package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/fbref-report/internal/domain/league"
)

type LeagueService struct{}

func NewLeagueService() *LeagueService {
	return &LeagueService{}
}

func (s *LeagueService) ListLeagues(ctx context.Context) ([]league.League, error) {
	_, span := startUsecaseSpan(ctx, "usecase.LeagueService.ListLeagues")
	defer span.End()

	return league.Supported(), nil
}

func (s *LeagueService) GetLeague(ctx context.Context, code string) (league.League, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return league.League{}, fmt.Errorf("%w: league code is required", ErrInvalidInput)
	}

	item, ok := league.ByCode(code)
	if !ok {
		return league.League{}, fmt.Errorf("%w: league=%s", ErrNotFound, code)
	}
	return item, nil
}
