package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/riskibarqy/fbref-report/internal/domain/fixture"
)

func TestLeaguesCommand(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"leagues"})

	if err := root.Execute(); err != nil {
		t.Fatalf("execute leagues: %v", err)
	}
	if !strings.Contains(out.String(), "Premier League") || !strings.Contains(out.String(), "Ligue 1") {
		t.Fatalf("unexpected leagues output:\n%s", out.String())
	}
}

func TestReportCommand_RequiresMatchURL(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"report"})

	if err := root.Execute(); err == nil {
		t.Fatalf("expected error without --match-url")
	}
}

func TestWriteFixtureTable(t *testing.T) {
	var out bytes.Buffer
	err := writeFixtureTable(&out, []fixture.Fixture{
		{LeagueName: "Premier League", Time: "12:30", HomeTeam: "Arsenal", AwayTeam: "Newcastle Utd", Score: "2–1", MatchID: "a1b2c3d4"},
		{LeagueName: "Premier League", Time: "15:00", HomeTeam: "Crystal Palace", AwayTeam: "Liverpool", MatchID: "Crystal_Palace_Liverpool_2025-09-27"},
	})
	if err != nil {
		t.Fatalf("write table: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d:\n%s", len(lines), out.String())
	}
	if !strings.Contains(lines[2], " - ") {
		t.Fatalf("unplayed fixture should show a dash score: %q", lines[2])
	}
}

func TestWriteJSON(t *testing.T) {
	var out bytes.Buffer
	if err := writeJSON(&out, []fixture.Fixture{{MatchID: "822bd0ba"}}); err != nil {
		t.Fatalf("write json: %v", err)
	}
	if !strings.Contains(out.String(), `"MatchID": "822bd0ba"`) {
		t.Fatalf("unexpected json output: %s", out.String())
	}
}
