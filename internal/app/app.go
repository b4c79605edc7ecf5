package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/riskibarqy/fbref-report/internal/config"
	"github.com/riskibarqy/fbref-report/internal/infrastructure/export"
	"github.com/riskibarqy/fbref-report/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/fbref-report/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/fbref-report/internal/interfaces/httpapi"
	"github.com/riskibarqy/fbref-report/internal/observability"
	basecache "github.com/riskibarqy/fbref-report/internal/platform/cache"
	idgen "github.com/riskibarqy/fbref-report/internal/platform/id"
	"github.com/riskibarqy/fbref-report/internal/platform/logging"
	"github.com/riskibarqy/fbref-report/internal/usecase"
)

// Runtime holds the HTTP server and the background components that must be
// stopped with it.
type Runtime struct {
	Server  *http.Server
	Reports *usecase.ReportService
	Janitor *usecase.Janitor
	Tasks   *memory.TaskRepository
}

// Pipeline is the scraping and report stack shared by the API and the CLI.
type Pipeline struct {
	Fixtures *usecase.FixtureService
	Reports  *usecase.ReportService
	Tasks    *memory.TaskRepository
	Exports  *export.ExcelWriter
	Cache    *basecache.Store
}

// NewPipeline wires scraper, fixture cache, task store and report workers.
// metrics may be nil.
func NewPipeline(cfg config.Config, logger *logging.Logger, metrics *observability.Metrics) (*Pipeline, error) {
	if logger == nil {
		logger = logging.Default()
	}

	scraper := NewScraper(cfg, logger, metrics)

	fixtureCache := basecache.NewStore(cfg.FixtureCacheTTL)
	fixtures := cache.NewFixtureSource(scraper, fixtureCache)
	if metrics != nil {
		fixtures.WithObserver(metrics)
	}

	tasks := memory.NewTaskRepository(cfg.TaskRetention)
	exports := export.NewExcelWriter(cfg.ExportDir, logger.Named("export"))

	var opts []usecase.ReportOption
	if metrics != nil {
		opts = append(opts, usecase.WithReportObserver(metrics))
	}
	reports, err := usecase.NewReportService(
		tasks,
		crawlerOpener(scraper),
		exports,
		idgen.NewUUIDGenerator(),
		usecase.ReportConfig{
			Workers:        cfg.ReportWorkers,
			IncludePlayers: cfg.ReportIncludePlayers,
			MaxPlayers:     cfg.ReportMaxPlayers,
		},
		logger.Named("report"),
		opts...,
	)
	if err != nil {
		return nil, fmt.Errorf("build report service: %w", err)
	}

	if metrics != nil {
		metrics.GaugeFunc("report_workers_running", "Report jobs currently running.", func() float64 {
			return float64(reports.Running())
		})
		metrics.GaugeFunc("fixture_cache_entries", "Fixture listings held in cache.", func() float64 {
			return float64(fixtureCache.Len())
		})
	}

	return &Pipeline{
		Fixtures: usecase.NewFixtureService(fixtures, logger.Named("fixtures")),
		Reports:  reports,
		Tasks:    tasks,
		Exports:  exports,
		Cache:    fixtureCache,
	}, nil
}

func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*Runtime, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	var (
		metrics        *observability.Metrics
		metricsHandler http.Handler
	)
	if cfg.MetricsEnabled {
		metrics = observability.NewMetrics()
		metricsHandler = metrics.Handler()
	}

	pipeline, err := NewPipeline(cfg, logger, metrics)
	if err != nil {
		return nil, err
	}

	janitor := usecase.NewJanitor(
		pipeline.Tasks,
		pipeline.Exports,
		pipeline.Cache,
		usecase.JanitorConfig{
			Interval:  cfg.TaskSweepInterval,
			KeepFiles: cfg.ExportKeepFiles,
		},
		logger.Named("janitor"),
	)

	handler := httpapi.NewHandler(usecase.NewLeagueService(), pipeline.Fixtures, pipeline.Reports, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, metricsHandler)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Runtime{
		Server:  server,
		Reports: pipeline.Reports,
		Janitor: janitor,
		Tasks:   pipeline.Tasks,
	}, nil
}

// Shutdown stops accepting requests, then waits for running report jobs and
// drops all task state.
func (r *Runtime) Shutdown(ctx context.Context) error {
	serverErr := r.Server.Shutdown(ctx)
	jobsErr := r.Reports.Shutdown(ctx)
	r.Tasks.Clear(ctx)

	if serverErr != nil {
		return fmt.Errorf("shutdown http server: %w", serverErr)
	}
	if jobsErr != nil {
		return fmt.Errorf("wait for report jobs: %w", jobsErr)
	}
	return nil
}
