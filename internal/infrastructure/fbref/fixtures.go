package fbref

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/riskibarqy/fbref-report/internal/domain/fixture"
	"github.com/riskibarqy/fbref-report/internal/domain/league"
)

const (
	fixtureReadySelector = "div.section_wrapper, table.stats_table"
	fixtureReadyTimeout  = 10 * time.Second
)

// ScrapeFixtures lists the fixtures of one date, optionally restricted to a
// league code. Load or parse failures yield an empty list.
func (c *Crawler) ScrapeFixtures(ctx context.Context, date, leagueCode string) (out []fixture.Fixture) {
	defer func() {
		if rec := recover(); rec != nil {
			c.logger.ErrorContext(ctx, "fixture page parse panicked", "date", date, "panic", rec)
			out = []fixture.Fixture{}
		}
	}()

	target := c.absolute("/en/matches/" + date)
	if !c.load(ctx, target) {
		c.logger.WarnContext(ctx, "fixture page unavailable", "url", target)
		return []fixture.Fixture{}
	}
	if _, found := c.session.WaitFor(ctx, fixtureReadySelector, fixtureReadyTimeout); !found {
		c.logger.InfoContext(ctx, "fixture sections not rendered in time", "url", target)
	}

	content, err := c.session.Content(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "read fixture page failed", "url", target, "error", err)
		return []fixture.Fixture{}
	}

	fixtures, err := ParseFixturesPage(content, date, leagueCode)
	if err != nil {
		c.logger.WarnContext(ctx, "parse fixture page failed", "url", target, "error", err)
		return []fixture.Fixture{}
	}
	if len(fixtures) == 0 {
		c.logger.InfoContext(ctx, "no fixtures found", "date", date, "league", leagueCode)
	}
	return fixtures
}

// ParseFixturesPage extracts fixtures from a rendered listing page. Schedule
// sections whose league cannot be resolved, or that do not match leagueCode
// when it is set, are skipped.
func ParseFixturesPage(content, date, leagueCode string) ([]fixture.Fixture, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, err
	}

	leagueCode = strings.TrimSpace(leagueCode)
	out := make([]fixture.Fixture, 0)
	doc.Find(`div[id^="all_sched_"]`).Each(func(_ int, container *goquery.Selection) {
		lg, ok := containerLeague(container)
		if !ok {
			return
		}
		if leagueCode != "" && lg.Code != leagueCode {
			return
		}
		table := container.Find("table.stats_table").First()
		if table.Length() == 0 {
			return
		}
		out = append(out, parseFixtureTable(table, lg, date)...)
	})
	return out, nil
}

// containerLeague resolves a schedule section by the league code token in its
// id ("all_sched_<season>_<code>_<n>") and falls back to the section heading.
func containerLeague(container *goquery.Selection) (league.League, bool) {
	if code := competitionToken(container.AttrOr("id", "")); code != "" {
		if lg, ok := league.ByCode(code); ok {
			return lg, true
		}
	}
	return league.ByHeading(container.Find("h2").First().Text())
}

// competitionToken returns the competition code of a schedule container id,
// "all_sched_<season>_<code>_<index>" or "all_sched_<code>_<index>". The
// trailing section index is never considered.
func competitionToken(id string) string {
	idx := strings.LastIndex(id, "sched_")
	if idx < 0 {
		return ""
	}
	tokens := strings.Split(id[idx+len("sched_"):], "_")
	if len(tokens) > 0 && isSeason(tokens[0]) {
		tokens = tokens[1:]
	}
	if len(tokens) == 0 {
		return ""
	}
	return tokens[0]
}

// isSeason matches "2025-2026" and "2025".
func isSeason(token string) bool {
	if token == "" {
		return false
	}
	for _, part := range strings.Split(token, "-") {
		if len(part) != 4 {
			return false
		}
		for _, r := range part {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

type fixtureCells struct {
	gameweek  *goquery.Selection
	startTime *goquery.Selection
	homeTeam  *goquery.Selection
	awayTeam  *goquery.Selection
	score     *goquery.Selection
	venue     *goquery.Selection
	report    *goquery.Selection
}

func parseFixtureTable(table *goquery.Selection, lg league.League, date string) []fixture.Fixture {
	byAttr := table.Find("tbody [data-stat]").Length() > 0
	columns := map[string]int(nil)
	if !byAttr {
		columns = headerColumns(table)
	}

	out := make([]fixture.Fixture, 0)
	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		var cells fixtureCells
		if byAttr {
			cells = attributeCells(row)
		} else {
			cells = positionalCells(row, columns)
		}
		if item, ok := buildFixture(cells, lg, date); ok {
			out = append(out, item)
		}
	})
	return out
}

func attributeCells(row *goquery.Selection) fixtureCells {
	stat := func(key string) *goquery.Selection {
		return row.Find(`[data-stat="` + key + `"]`).First()
	}
	return fixtureCells{
		gameweek:  stat("gameweek"),
		startTime: stat("start_time"),
		homeTeam:  stat("home_team"),
		awayTeam:  stat("away_team"),
		score:     stat("score"),
		venue:     stat("venue"),
		report:    stat("match_report"),
	}
}

// headerColumns maps the visible header labels of a table that carries no
// data-stat keys to cell positions.
func headerColumns(table *goquery.Selection) map[string]int {
	labels := map[string]string{
		"wk":           "gameweek",
		"time":         "start_time",
		"home":         "home_team",
		"away":         "away_team",
		"score":        "score",
		"venue":        "venue",
		"match report": "match_report",
	}
	out := make(map[string]int)
	table.Find("thead tr").Last().ChildrenFiltered("th, td").Each(func(i int, cell *goquery.Selection) {
		if key, ok := labels[strings.ToLower(cleanText(cell.Text()))]; ok {
			out[key] = i
		}
	})
	return out
}

func positionalCells(row *goquery.Selection, columns map[string]int) fixtureCells {
	cells := row.ChildrenFiltered("th, td")
	at := func(key string) *goquery.Selection {
		idx, ok := columns[key]
		if !ok {
			return cells.Slice(0, 0)
		}
		return cells.Eq(idx)
	}
	return fixtureCells{
		gameweek:  at("gameweek"),
		startTime: at("start_time"),
		homeTeam:  at("home_team"),
		awayTeam:  at("away_team"),
		score:     at("score"),
		venue:     at("venue"),
		report:    at("match_report"),
	}
}

func buildFixture(cells fixtureCells, lg league.League, date string) (fixture.Fixture, bool) {
	home, homeURL := teamCell(cells.homeTeam)
	away, awayURL := teamCell(cells.awayTeam)
	if home == "" || away == "" || home == "Home" || away == "Away" {
		return fixture.Fixture{}, false
	}

	matchURL := ""
	if href, ok := cells.report.Find("a").First().Attr("href"); ok {
		if strings.Contains(href, "/matches/") || strings.Contains(href, "/stathead/matchup") {
			matchURL = href
		}
	}

	return fixture.Fixture{
		LeagueCode:  lg.Code,
		LeagueName:  lg.Name,
		Date:        date,
		Gameweek:    cleanText(cells.gameweek.Text()),
		Time:        kickoffTime(cells.startTime),
		HomeTeam:    home,
		AwayTeam:    away,
		Score:       cleanText(cells.score.Text()),
		Venue:       cleanText(cells.venue.Text()),
		HomeTeamURL: homeURL,
		AwayTeamURL: awayURL,
		MatchURL:    matchURL,
		MatchID:     fixture.BuildMatchID(matchURL, home, away, date),
	}, true
}

// teamCell prefers the link text over the cell text.
func teamCell(cell *goquery.Selection) (string, string) {
	if cell.Length() == 0 {
		return "", ""
	}
	if link := cell.Find("a").First(); link.Length() > 0 {
		return cleanText(link.Text()), link.AttrOr("href", "")
	}
	return cleanText(cell.Text()), ""
}

// kickoffTime reads the visible time, falling back to the sort key
// ("15:00:00") that unplayed fixtures carry instead.
func kickoffTime(cell *goquery.Selection) string {
	if text := cleanText(cell.Text()); text != "" {
		return text
	}
	csk := strings.TrimSpace(cell.AttrOr("csk", ""))
	if len(csk) == len("15:00:00") && strings.Count(csk, ":") == 2 {
		return csk[:5]
	}
	return csk
}
