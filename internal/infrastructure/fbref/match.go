package fbref

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/riskibarqy/fbref-report/internal/domain/fixture"
	"github.com/riskibarqy/fbref-report/internal/domain/matchreport"
)

const (
	SideHome = "home"
	SideAway = "away"
)

var scrollSteps = []float64{0.25, 0.5, 1.0}

// ScrapeMatch reads one match page. Any failure degrades to an empty record.
func (c *Crawler) ScrapeMatch(ctx context.Context, matchURL string) (out matchreport.Record) {
	defer func() {
		if rec := recover(); rec != nil {
			c.logger.ErrorContext(ctx, "match page parse panicked", "match_url", matchURL, "panic", rec)
			out = matchreport.Record{}
		}
	}()

	target := c.absolute(matchURL)
	if !c.load(ctx, target) {
		c.logger.WarnContext(ctx, "match page unavailable", "url", target)
		return matchreport.Record{}
	}
	if _, found := c.session.WaitFor(ctx, "table", c.scraper.elementWait); !found {
		c.logger.InfoContext(ctx, "match page has no rendered table yet", "url", target)
	}
	c.humanScroll(ctx)

	content, err := c.session.Content(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "read match page failed", "url", target, "error", err)
		return matchreport.Record{}
	}

	record, err := ParseMatchPage(content, matchURL)
	if err != nil {
		c.logger.WarnContext(ctx, "parse match page failed", "url", target, "error", err)
		return matchreport.Record{}
	}
	c.logger.InfoContext(ctx, "match page scraped",
		"match_id", record.Info.MatchID,
		"home_tables", len(record.Home),
		"away_tables", len(record.Away),
		"players", len(record.Players),
	)
	return record
}

// ScrapePlayer reads the tables of one player page. Failures yield no sheets.
func (c *Crawler) ScrapePlayer(ctx context.Context, player matchreport.PlayerLink) (out matchreport.PlayerData) {
	out = matchreport.PlayerData{Player: player}
	defer func() {
		if rec := recover(); rec != nil {
			c.logger.ErrorContext(ctx, "player page parse panicked", "player_id", player.ID, "panic", rec)
			out = matchreport.PlayerData{Player: player}
		}
	}()

	target := c.absolute(player.URL)
	if !c.load(ctx, target) {
		c.logger.WarnContext(ctx, "player page unavailable", "url", target)
		return out
	}
	c.session.WaitFor(ctx, "table", c.scraper.elementWait)
	c.policy.Pause(ctx)

	content, err := c.session.Content(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "read player page failed", "url", target, "error", err)
		return out
	}

	for i, table := range ExtractTablesFromHTML(content) {
		out.Sheets = append(out.Sheets, matchreport.Sheet{
			Name:  "player_table_" + strconv.Itoa(i),
			Table: table,
		})
	}
	return out
}

func (c *Crawler) humanScroll(ctx context.Context) {
	for _, step := range scrollSteps {
		c.session.Scroll(ctx, step)
		c.policy.Delay(ctx, 500*time.Millisecond, 1500*time.Millisecond)
	}
}

// ParseMatchPage extracts metadata, per-side tables and player links from a
// rendered match page.
func ParseMatchPage(content, matchURL string) (matchreport.Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return matchreport.Record{}, err
	}

	return matchreport.Record{
		Info:    matchInfo(doc, matchURL),
		Home:    sideSheets(doc, SideHome),
		Away:    sideSheets(doc, SideAway),
		Players: playerLinks(doc),
	}, nil
}

func matchInfo(doc *goquery.Document, matchURL string) matchreport.MatchInfo {
	info := matchreport.MatchInfo{
		URL:     matchURL,
		MatchID: fixture.MatchIDFromURL(matchURL),
	}
	seen := make(map[string]struct{})
	doc.Find(`a[href*="/en/squads/"]`).Each(func(_ int, link *goquery.Selection) {
		name := cleanText(link.Text())
		if name == "" {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		info.Teams = append(info.Teams, matchreport.TeamLink{Name: name, URL: link.AttrOr("href", "")})
	})
	return info
}

// sideSheets extracts every table whose id carries "_<side>", visible or
// commented out, as sheets named <side>_<tableID>_<j>.
func sideSheets(doc *goquery.Document, side string) []matchreport.Sheet {
	marker := "_" + side
	candidates := []*goquery.Selection{doc.Find("table[id]")}
	for _, commented := range commentDocuments(doc.Selection) {
		candidates = append(candidates, commented.Find("table[id]"))
	}

	out := make([]matchreport.Sheet, 0)
	seen := make(map[string]struct{})
	for _, tables := range candidates {
		tables.Each(func(_ int, table *goquery.Selection) {
			tableID := table.AttrOr("id", "")
			if !strings.Contains(tableID, marker) {
				return
			}
			if _, dup := seen[tableID]; dup {
				return
			}
			seen[tableID] = struct{}{}
			for j, parsed := range ExtractTables(table) {
				out = append(out, matchreport.Sheet{
					Name:  side + "_" + tableID + "_" + strconv.Itoa(j),
					Table: parsed,
				})
			}
		})
	}
	return out
}

// playerLinks collects distinct player profile links, skipping match logs,
// up to matchreport.MaxPlayers.
func playerLinks(doc *goquery.Document) []matchreport.PlayerLink {
	out := make([]matchreport.PlayerLink, 0)
	seen := make(map[string]struct{})
	doc.Find(`a[href*="/en/players/"]`).EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href := link.AttrOr("href", "")
		if href == "" || strings.Contains(href, "matchlogs") {
			return true
		}
		id := pathID(href)
		name := cleanText(link.Text())
		if id == "" || len([]rune(name)) <= 1 {
			return true
		}
		if _, dup := seen[id]; dup {
			return true
		}
		seen[id] = struct{}{}
		out = append(out, matchreport.PlayerLink{ID: id, Name: name, URL: href})
		return len(out) < matchreport.MaxPlayers
	})
	return out
}

// pathID returns the identifier segment of "/en/<kind>/<id>/<slug>" links.
func pathID(link string) string {
	parts := strings.Split(strings.TrimSpace(link), "/")
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[len(parts)-2])
}
