package fixture

import "context"

// Source discovers fixtures for one listing date and league code.
type Source interface {
	ListByDate(ctx context.Context, date, leagueCode string) ([]Fixture, error)
}
