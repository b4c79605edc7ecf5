package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/fbref-report/internal/domain/fixture"
	"github.com/riskibarqy/fbref-report/internal/domain/matchreport"
	"github.com/riskibarqy/fbref-report/internal/domain/task"
	"github.com/riskibarqy/fbref-report/internal/infrastructure/repository/memory"
	fixturemock "github.com/riskibarqy/fbref-report/internal/mocks/domain/fixture"
	"github.com/riskibarqy/fbref-report/internal/platform/logging"
	"github.com/riskibarqy/fbref-report/internal/usecase"
)

const testMatchURL = "/en/matches/822bd0ba/Crystal-Palace-Liverpool-September-27-2025-Premier-League"

type counterIDs struct{ n atomic.Int64 }

func (g *counterIDs) NewID() (string, error) {
	return "task-" + strconv.FormatInt(g.n.Add(1), 10), nil
}

type stubCrawler struct{}

func (stubCrawler) ScrapeMatch(_ context.Context, matchURL string) matchreport.Record {
	return matchreport.Record{
		Info: matchreport.MatchInfo{URL: matchURL, MatchID: "822bd0ba"},
		Home: []matchreport.Sheet{{
			Name:  "home_stats_home_summary_0",
			Table: matchreport.Table{Columns: []string{"Player"}, Rows: [][]string{{"Ismaila Sarr"}}},
		}},
	}
}

func (stubCrawler) ScrapePlayer(_ context.Context, player matchreport.PlayerLink) matchreport.PlayerData {
	return matchreport.PlayerData{Player: player}
}

func (stubCrawler) Close() error { return nil }

type fileWriter struct{ dir string }

func (w fileWriter) WriteMatchReport(_ context.Context, taskID string, _ matchreport.Record, _ []matchreport.PlayerData) (string, error) {
	path := filepath.Join(w.dir, "fbref_report_"+taskID+".xlsx")
	return path, os.WriteFile(path, []byte("workbook"), 0o644)
}

type testServer struct {
	router  http.Handler
	tasks   *memory.TaskRepository
	reports *usecase.ReportService
}

func newTestServer(t *testing.T, source fixture.Source) testServer {
	t.Helper()

	tasks := memory.NewTaskRepository(time.Hour)
	open := func(context.Context) (usecase.ReportCrawler, error) { return stubCrawler{}, nil }
	reports, err := usecase.NewReportService(
		tasks,
		open,
		fileWriter{dir: t.TempDir()},
		&counterIDs{},
		usecase.ReportConfig{Workers: 1},
		logging.NewNop(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reports.Shutdown(context.Background()) })

	handler := NewHandler(
		usecase.NewLeagueService(),
		usecase.NewFixtureService(source, logging.NewNop()),
		reports,
		logging.NewNop(),
	)
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("fbref_up 1\n"))
	})

	return testServer{
		router:  NewRouter(handler, logging.NewNop(), []string{"*"}, metrics),
		tasks:   tasks,
		reports: reports,
	}
}

func (s testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var envelope struct {
		APIVersion string `json:"apiVersion"`
		Data       T      `json:"data"`
	}
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, googleAPIVersion, envelope.APIVersion)
	return envelope.Data
}

func errorStatus(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var envelope struct {
		Error googleErrorBody `json:"error"`
	}
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Error.Status
}

func TestRouter_HealthzAndMetrics(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, fixturemock.NewSource(t))

	rec := srv.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, map[string]string{"status": "ok"}, decodeData[map[string]string](t, rec))

	rec = srv.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "fbref_up 1")
}

func TestRouter_MetricsDisabled(t *testing.T) {
	t.Parallel()

	handler := NewHandler(usecase.NewLeagueService(), nil, nil, logging.NewNop())
	router := NewRouter(handler, logging.NewNop(), nil, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without metrics handler, got %d", rec.Code)
	}
}

func TestRouter_Leagues(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, fixturemock.NewSource(t))

	rec := srv.do(t, http.MethodGet, "/v1/leagues", "")
	require.Equal(t, http.StatusOK, rec.Code)
	leagues := decodeData[[]leagueDTO](t, rec)
	require.Len(t, leagues, 5)
	require.Equal(t, leagueDTO{Code: "9", Name: "Premier League", CountryCode: "ENG"}, leagues[0])

	rec = srv.do(t, http.MethodGet, "/v1/leagues/20", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Bundesliga", decodeData[leagueDTO](t, rec).Name)

	rec = srv.do(t, http.MethodGet, "/v1/leagues/99", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "NOT_FOUND", errorStatus(t, rec))
}

func TestRouter_ListFixturesUsingMockery(t *testing.T) {
	t.Parallel()

	source := fixturemock.NewSource(t)
	source.On("ListByDate", mock.Anything, "2025-09-27", "9").Return([]fixture.Fixture{{
		LeagueCode: "9",
		LeagueName: "Premier League",
		Date:       "2025-09-27",
		Time:       "15:00",
		HomeTeam:   "Crystal Palace",
		AwayTeam:   "Liverpool",
		MatchURL:   testMatchURL,
		MatchID:    "822bd0ba",
	}}, nil).Once()

	srv := newTestServer(t, source)
	rec := srv.do(t, http.MethodGet, "/v1/fixtures?date=2025-09-27&league=9", "")
	require.Equal(t, http.StatusOK, rec.Code)

	items := decodeData[[]fixtureDTO](t, rec)
	require.Len(t, items, 1)
	require.Equal(t, "822bd0ba", items[0].MatchID)
	require.False(t, items[0].Played)
}

func TestRouter_ListFixturesErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		target     string
		sourceErr  error
		wantStatus int
	}{
		{name: "bad date", target: "/v1/fixtures?date=27-09-2025", wantStatus: http.StatusBadRequest},
		{name: "unknown league", target: "/v1/fixtures?date=2025-09-27&league=99", wantStatus: http.StatusBadRequest},
		{name: "site unavailable", target: "/v1/fixtures?date=2025-09-27", sourceErr: errors.New("navigation failed"), wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			source := fixturemock.NewSource(t)
			if tt.sourceErr != nil {
				source.On("ListByDate", mock.Anything, "2025-09-27", "").Return(nil, tt.sourceErr).Once()
			}

			rec := newTestServer(t, source).do(t, http.MethodGet, tt.target, "")
			require.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRouter_ReportLifecycle(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, fixturemock.NewSource(t))

	rec := srv.do(t, http.MethodPost, "/v1/reports", `{"match_url":"`+testMatchURL+`"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	created := decodeData[reportCreatedDTO](t, rec)
	require.Equal(t, reportCreatedDTO{TaskID: "task-1", Status: "started"}, created)

	srv.reports.Wait()

	rec = srv.do(t, http.MethodGet, "/v1/reports/task-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	status := decodeData[reportStatusDTO](t, rec)
	require.Equal(t, string(task.StatusCompleted), status.Status)
	require.Equal(t, 100, status.Progress)
	require.Equal(t, "822bd0ba", status.MatchID)
	require.Equal(t, "/v1/reports/task-1/download", status.DownloadURL)

	rec = srv.do(t, http.MethodGet, "/v1/reports", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeData[[]reportStatusDTO](t, rec), 1)

	rec = srv.do(t, http.MethodGet, "/v1/reports/task-1/download", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "workbook", rec.Body.String())
	require.Contains(t, rec.Header().Get("Content-Disposition"), `filename="fbref_report_822bd0ba.xlsx"`)
	require.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))

	rec = srv.do(t, http.MethodGet, "/v1/reports/task-1/download", "")
	require.Equal(t, http.StatusOK, rec.Code, "completed workbook stays downloadable")
	require.Equal(t, "workbook", rec.Body.String())
}

func TestRouter_CreateReportValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"match_url":`},
		{name: "unknown field", body: `{"match_url":"` + testMatchURL + `","league":"9"}`},
		{name: "missing match url", body: `{"match_id":"822bd0ba"}`},
		{name: "unsupported format", body: `{"match_url":"` + testMatchURL + `","format":"csv"}`},
		{name: "relative url", body: `{"match_url":"matches/822bd0ba"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := newTestServer(t, fixturemock.NewSource(t)).do(t, http.MethodPost, "/v1/reports", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Equal(t, "INVALID_ARGUMENT", errorStatus(t, rec))
		})
	}
}

func TestRouter_DownloadErrors(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, fixturemock.NewSource(t))
	ctx := context.Background()

	srv.tasks.Create(ctx, "running", task.Task{MatchURL: testMatchURL})
	srv.tasks.Update(ctx, "running", task.Phase(task.StatusScrapingTeams, 20, "Scraping team statistics..."))

	srv.tasks.Create(ctx, "missing-file", task.Task{MatchURL: testMatchURL})
	missing := filepath.Join(t.TempDir(), "gone.xlsx")
	patch := task.Phase(task.StatusCompleted, 100, "Report generation complete")
	patch.ResultFilePath = &missing
	srv.tasks.Update(ctx, "missing-file", patch)

	tests := []struct {
		name       string
		taskID     string
		wantStatus int
		wantReason string
	}{
		{name: "unknown task", taskID: "nope", wantStatus: http.StatusNotFound, wantReason: "NOT_FOUND"},
		{name: "not ready", taskID: "running", wantStatus: http.StatusBadRequest, wantReason: "FAILED_PRECONDITION"},
		{name: "file missing", taskID: "missing-file", wantStatus: http.StatusInternalServerError, wantReason: "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, http.MethodGet, "/v1/reports/"+tt.taskID+"/download", "")
			require.Equal(t, tt.wantStatus, rec.Code)
			require.Equal(t, tt.wantReason, errorStatus(t, rec))
		})
	}
}

func TestRecoverPanic(t *testing.T) {
	t.Parallel()

	handler := recoverPanic(logging.NewNop(), http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/reports", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
}
