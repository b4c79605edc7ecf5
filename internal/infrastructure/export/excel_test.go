package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/riskibarqy/fbref-report/internal/domain/matchreport"
	"github.com/riskibarqy/fbref-report/internal/platform/logging"
)

var generatedAt = time.Date(2025, 9, 27, 15, 30, 0, 0, time.UTC)

func newTestWriter(t *testing.T) *ExcelWriter {
	t.Helper()

	w := NewExcelWriter(t.TempDir(), logging.NewNop())
	w.now = func() time.Time { return generatedAt }
	return w
}

func sampleRecord() matchreport.Record {
	return matchreport.Record{
		Info: matchreport.MatchInfo{
			URL:     "/en/matches/822bd0ba/Crystal-Palace-Liverpool",
			MatchID: "822bd0ba",
			Teams: []matchreport.TeamLink{
				{Name: "Crystal Palace", URL: "/en/squads/47c64c55/Crystal-Palace-Stats"},
			},
		},
		Home: []matchreport.Sheet{{
			Name: "home_stats_home_summary_0",
			Table: matchreport.Table{
				Columns: []string{"Player", "Min"},
				Rows:    [][]string{{"Player", "Min"}, {"Ismaila Sarr", "90"}},
			},
		}},
		Away: []matchreport.Sheet{{
			Name: "away_keeper_stats_away_0",
			Table: matchreport.Table{
				Columns: []string{"Player", "Saves"},
				Rows:    [][]string{{"Alisson", "3"}},
			},
		}},
	}
}

func TestExcelWriter_WriteMatchReport(t *testing.T) {
	t.Parallel()

	w := newTestWriter(t)
	players := []matchreport.PlayerData{{
		Player: matchreport.PlayerLink{ID: "e342ad68", Name: "Mohamed Salah"},
		Sheets: []matchreport.Sheet{
			{Name: "player_table_0", Table: matchreport.Table{Columns: []string{"Season"}, Rows: [][]string{{"2024-2025"}}}},
			{Name: "player_table_1", Table: matchreport.Table{Columns: []string{"Sh"}, Rows: [][]string{{"130"}}}},
		},
	}}

	path, err := w.WriteMatchReport(context.Background(), "task-1", sampleRecord(), players)
	if err != nil {
		t.Fatalf("WriteMatchReport returned error: %v", err)
	}
	if want := filepath.Join(w.Dir(), "fbref_report_task-1_20250927_153000.xlsx"); path != want {
		t.Fatalf("unexpected path: got %q want %q", path, want)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	wantSheets := []string{
		"Metadata",
		"Home_home_stats_home_summary_0",
		"Away_away_keeper_stats_away_0",
		"Player_Mohamed Salah_player_tab",
		"Player_Mohamed Salah_player_t_2",
	}
	if diff := cmp.Diff(wantSheets, f.GetSheetList()); diff != "" {
		t.Fatalf("sheet list mismatch (-want +got):\n%s", diff)
	}

	metadata, err := f.GetRows("Metadata")
	if err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	wantMetadata := [][]string{
		{"Key", "Value"},
		{"Generated", "2025-09-27T15:30:00Z"},
		{"Task ID", "task-1"},
		{"Match URL", "/en/matches/822bd0ba/Crystal-Palace-Liverpool"},
		{"Match ID", "822bd0ba"},
		{"team_1", "Crystal Palace"},
		{"team_1_url", "/en/squads/47c64c55/Crystal-Palace-Stats"},
	}
	if diff := cmp.Diff(wantMetadata, metadata); diff != "" {
		t.Fatalf("metadata mismatch (-want +got):\n%s", diff)
	}

	home, err := f.GetRows("Home_home_stats_home_summary_0")
	if err != nil {
		t.Fatalf("read home sheet: %v", err)
	}
	wantHome := [][]string{{"Player", "Min"}, {"Player", "Min"}, {"Ismaila Sarr", "90"}}
	if diff := cmp.Diff(wantHome, home); diff != "" {
		t.Fatalf("home sheet mismatch (-want +got):\n%s", diff)
	}

	leftovers, _ := filepath.Glob(filepath.Join(w.Dir(), "*.tmp"))
	if len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
}

func TestExcelWriter_MetadataOnlyForEmptyRecord(t *testing.T) {
	t.Parallel()

	w := newTestWriter(t)
	path, err := w.WriteMatchReport(context.Background(), "task-2", matchreport.Record{}, nil)
	if err != nil {
		t.Fatalf("WriteMatchReport returned error: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	if diff := cmp.Diff([]string{"Metadata"}, f.GetSheetList()); diff != "" {
		t.Fatalf("sheet list mismatch (-want +got):\n%s", diff)
	}
}

func TestExcelWriter_CancelledContext(t *testing.T) {
	t.Parallel()

	w := newTestWriter(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := w.WriteMatchReport(ctx, "task-3", sampleRecord(), nil); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
	files, _ := filepath.Glob(filepath.Join(w.Dir(), "*"))
	if len(files) != 0 {
		t.Fatalf("expected no files, got %v", files)
	}
}

func TestExcelWriter_RemoveOlderThan(t *testing.T) {
	t.Parallel()

	w := newTestWriter(t)
	write := func(name string, modTime time.Time) string {
		path := filepath.Join(w.Dir(), name)
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		if err := os.Chtimes(path, modTime, modTime); err != nil {
			t.Fatalf("chtimes %s: %v", name, err)
		}
		return path
	}

	expired := write("fbref_report_old_20250925_100000.xlsx", generatedAt.Add(-48*time.Hour))
	fresh := write("fbref_report_new_20250927_150000.xlsx", generatedAt.Add(-time.Hour))
	unrelated := write("notes.xlsx", generatedAt.Add(-72*time.Hour))

	removed, err := w.RemoveOlderThan(context.Background(), 24*time.Hour)
	if err != nil {
		t.Fatalf("RemoveOlderThan returned error: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed file, got %d", removed)
	}
	if _, err := os.Stat(expired); !os.IsNotExist(err) {
		t.Fatalf("expected expired report to be removed")
	}
	for _, path := range []string{fresh, unrelated} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s to survive: %v", filepath.Base(path), err)
		}
	}
}
