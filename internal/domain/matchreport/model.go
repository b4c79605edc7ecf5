package matchreport

import "strconv"

// MaxPlayers caps the player links collected from one match page.
const MaxPlayers = 22

// Table is one extracted HTML table. Every row holds exactly len(Columns) cells.
type Table struct {
	Columns []string
	Rows    [][]string
}

func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// Row returns row i as a column name to cell text mapping.
func (t Table) Row(i int) map[string]string {
	if i < 0 || i >= len(t.Rows) {
		return nil
	}
	out := make(map[string]string, len(t.Columns))
	for j, col := range t.Columns {
		if j < len(t.Rows[i]) {
			out[col] = t.Rows[i][j]
		}
	}
	return out
}

func (t Table) Records() []map[string]string {
	out := make([]map[string]string, 0, len(t.Rows))
	for i := range t.Rows {
		out = append(out, t.Row(i))
	}
	return out
}

// Sheet is a named table. Names are unique within one side or player.
type Sheet struct {
	Name  string
	Table Table
}

func Lookup(sheets []Sheet, name string) (Table, bool) {
	for _, sheet := range sheets {
		if sheet.Name == name {
			return sheet.Table, true
		}
	}
	return Table{}, false
}

type TeamLink struct {
	Name string
	URL  string
}

// MatchInfo is the scalar metadata of a match page.
type MatchInfo struct {
	URL     string
	MatchID string
	Teams   []TeamLink
}

type Pair struct {
	Key   string
	Value string
}

// Pairs flattens the metadata in a stable order: url, match_id, team_1, team_1_url, ...
func (m MatchInfo) Pairs() []Pair {
	out := make([]Pair, 0, 2+2*len(m.Teams))
	out = append(out, Pair{Key: "url", Value: m.URL}, Pair{Key: "match_id", Value: m.MatchID})
	for i, team := range m.Teams {
		n := strconv.Itoa(i + 1)
		out = append(out,
			Pair{Key: "team_" + n, Value: team.Name},
			Pair{Key: "team_" + n + "_url", Value: team.URL},
		)
	}
	return out
}

func (m MatchInfo) HomeTeam() string {
	if len(m.Teams) > 0 {
		return m.Teams[0].Name
	}
	return ""
}

func (m MatchInfo) AwayTeam() string {
	if len(m.Teams) > 1 {
		return m.Teams[1].Name
	}
	return ""
}

type PlayerLink struct {
	ID   string
	Name string
	URL  string
}

// Record is everything extracted from one match page.
type Record struct {
	Info    MatchInfo
	Home    []Sheet
	Away    []Sheet
	Players []PlayerLink
}

// Empty reports whether no match content was scraped: no team links and no
// side tables. URL and MatchID are ignored since they come from the request.
func (r Record) Empty() bool {
	return len(r.Info.Teams) == 0 && len(r.Home) == 0 && len(r.Away) == 0
}

// PlayerData holds the tables of one player's page, named player_table_<i>.
type PlayerData struct {
	Player PlayerLink
	Sheets []Sheet
}
