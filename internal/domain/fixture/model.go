package fixture

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the listing page date format.
const DateLayout = "2006-01-02"

// Fixture is one row of the date-indexed match listing.
type Fixture struct {
	LeagueCode  string
	LeagueName  string
	Date        string
	Gameweek    string
	Time        string
	HomeTeam    string
	AwayTeam    string
	Score       string
	Venue       string
	HomeTeamURL string
	AwayTeamURL string
	MatchURL    string
	MatchID     string
}

// IsPlayed reports whether the listing already shows a result.
func (f Fixture) IsPlayed() bool {
	return strings.TrimSpace(f.Score) != ""
}

// ParseDate validates a listing date and returns it in canonical form.
func ParseDate(value string) (string, error) {
	value = strings.TrimSpace(value)
	parsed, err := time.Parse(DateLayout, value)
	if err != nil {
		return "", fmt.Errorf("date must use %s: %w", DateLayout, err)
	}
	return parsed.Format(DateLayout), nil
}

// MatchIDFromURL returns the identifier of a match report link, the segment
// after "matches" in "/en/matches/<id>/<slug>". Any other link, such as a
// head-to-head page keyed by squad ids, yields "".
func MatchIDFromURL(matchURL string) string {
	matchURL = strings.TrimSpace(matchURL)
	if i := strings.IndexAny(matchURL, "?#"); i >= 0 {
		matchURL = matchURL[:i]
	}
	parts := strings.Split(matchURL, "/")
	for i := 0; i+1 < len(parts); i++ {
		if parts[i] != "matches" {
			continue
		}
		id := strings.TrimSpace(parts[i+1])
		if id == "" {
			return ""
		}
		if _, err := time.Parse(DateLayout, id); err == nil {
			return ""
		}
		return id
	}
	return ""
}

func SyntheticMatchID(home, away, date string) string {
	return strings.ReplaceAll(home+"_"+away+"_"+date, " ", "_")
}

// BuildMatchID prefers the identifier embedded in a match report link and
// otherwise synthesizes one from the teams and date.
func BuildMatchID(matchURL, home, away, date string) string {
	if id := MatchIDFromURL(matchURL); id != "" {
		return id
	}
	return SyntheticMatchID(home, away, date)
}
