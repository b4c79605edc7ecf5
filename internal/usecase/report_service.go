package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc/panics"

	"github.com/riskibarqy/fbref-report/internal/domain/fixture"
	"github.com/riskibarqy/fbref-report/internal/domain/matchreport"
	"github.com/riskibarqy/fbref-report/internal/domain/task"
	"github.com/riskibarqy/fbref-report/internal/platform/id"
	"github.com/riskibarqy/fbref-report/internal/platform/logging"
)

// ReportCrawler is one browser-backed scraping session.
type ReportCrawler interface {
	ScrapeMatch(ctx context.Context, matchURL string) matchreport.Record
	ScrapePlayer(ctx context.Context, player matchreport.PlayerLink) matchreport.PlayerData
	Close() error
}

// CrawlerOpener starts a fresh session for one report job.
type CrawlerOpener func(ctx context.Context) (ReportCrawler, error)

type ReportWriter interface {
	WriteMatchReport(ctx context.Context, taskID string, record matchreport.Record, players []matchreport.PlayerData) (string, error)
}

// ReportObserver receives the terminal status and duration of every job.
type ReportObserver interface {
	ObserveReport(status task.Status, duration time.Duration)
}

type ReportConfig struct {
	Workers        int
	IncludePlayers bool
	MaxPlayers     int
}

const (
	defaultReportWorkers = 2
	reportErrorPrefix    = "Error generating report: "
)

var errMatchUnavailable = errors.New("match page could not be scraped")

type CreateReportInput struct {
	MatchURL string
	MatchID  string
	Format   string
}

// ReportFile locates the workbook of a completed task.
type ReportFile struct {
	Task     task.Task
	Path     string
	Filename string
}

type ReportOption func(*ReportService)

func WithReportObserver(observer ReportObserver) ReportOption {
	return func(s *ReportService) { s.observer = observer }
}

// ReportService runs report jobs in the background and answers progress and
// download queries from the task store.
type ReportService struct {
	tasks    task.Repository
	open     CrawlerOpener
	writer   ReportWriter
	ids      id.Generator
	pool     *ants.Pool
	cfg      ReportConfig
	logger   *logging.Logger
	observer ReportObserver
	now      func() time.Time
	stat     func(name string) (os.FileInfo, error)

	jobs sync.WaitGroup
}

func NewReportService(
	tasks task.Repository,
	open CrawlerOpener,
	writer ReportWriter,
	ids id.Generator,
	cfg ReportConfig,
	logger *logging.Logger,
	opts ...ReportOption,
) (*ReportService, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Workers < 1 {
		cfg.Workers = defaultReportWorkers
	}
	if cfg.MaxPlayers <= 0 || cfg.MaxPlayers > matchreport.MaxPlayers {
		cfg.MaxPlayers = matchreport.MaxPlayers
	}

	pool, err := ants.NewPool(cfg.Workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("create report worker pool: %w", err)
	}

	s := &ReportService{
		tasks:  tasks,
		open:   open,
		writer: writer,
		ids:    ids,
		pool:   pool,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		stat:   os.Stat,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create registers a task and schedules its job. The job runs detached from
// ctx and is never cancelled by the caller.
func (s *ReportService) Create(ctx context.Context, input CreateReportInput) (task.Task, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReportService.Create")
	defer span.End()

	matchURL := strings.TrimSpace(input.MatchURL)
	if matchURL == "" {
		return task.Task{}, fmt.Errorf("%w: match url is required", ErrInvalidInput)
	}
	if !strings.HasPrefix(matchURL, "/") && !strings.HasPrefix(matchURL, "http://") && !strings.HasPrefix(matchURL, "https://") {
		return task.Task{}, fmt.Errorf("%w: match url must be a site path or http(s) url", ErrInvalidInput)
	}
	format := strings.ToLower(strings.TrimSpace(input.Format))
	if format == "" {
		format = task.FormatXLSX
	}
	if format != task.FormatXLSX {
		return task.Task{}, fmt.Errorf("%w: unsupported format=%s", ErrInvalidInput, format)
	}
	matchID := strings.TrimSpace(input.MatchID)
	if matchID == "" {
		matchID = fixture.MatchIDFromURL(matchURL)
	}

	taskID, err := s.ids.NewID()
	if err != nil {
		return task.Task{}, fmt.Errorf("generate task id: %w", err)
	}

	created := s.tasks.Create(ctx, taskID, task.Task{
		Format:   format,
		MatchURL: matchURL,
		MatchID:  matchID,
	})

	s.jobs.Add(1)
	if err := s.pool.Submit(func() {
		defer s.jobs.Done()
		s.run(taskID, matchURL)
	}); err != nil {
		s.jobs.Done()
		s.tasks.Update(ctx, taskID, task.Phase(task.StatusError, 100, reportErrorPrefix+"no report worker available"))
		s.logger.WarnContext(ctx, "report job rejected", "task_id", taskID, "error", err)
		return task.Task{}, fmt.Errorf("%w: submit report job: %v", ErrDependencyUnavailable, err)
	}

	s.logger.InfoContext(ctx, "report job scheduled", "task_id", taskID, "match_url", matchURL)
	return created, nil
}

func (s *ReportService) Get(ctx context.Context, taskID string) (task.Task, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReportService.Get")
	defer span.End()

	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return task.Task{}, fmt.Errorf("%w: task id is required", ErrInvalidInput)
	}
	item, ok := s.tasks.Get(ctx, taskID)
	if !ok {
		return task.Task{}, fmt.Errorf("%w: task=%s", ErrNotFound, taskID)
	}
	return item, nil
}

func (s *ReportService) List(ctx context.Context) []task.Task {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReportService.List")
	defer span.End()

	return s.tasks.ListAll(ctx)
}

// Download resolves the workbook of a completed task.
func (s *ReportService) Download(ctx context.Context, taskID string) (ReportFile, error) {
	item, err := s.Get(ctx, taskID)
	if err != nil {
		return ReportFile{}, err
	}
	if item.Status != task.StatusCompleted {
		return ReportFile{}, fmt.Errorf("%w: task=%s status=%s", ErrReportNotReady, item.ID, item.Status)
	}
	if item.ResultFilePath == "" {
		return ReportFile{}, fmt.Errorf("%w: task=%s", ErrReportFileMissing, item.ID)
	}
	info, err := s.stat(item.ResultFilePath)
	if err != nil || info.IsDir() {
		return ReportFile{}, fmt.Errorf("%w: task=%s path=%s", ErrReportFileMissing, item.ID, item.ResultFilePath)
	}

	return ReportFile{
		Task:     item,
		Path:     item.ResultFilePath,
		Filename: item.DownloadName(),
	}, nil
}

func (s *ReportService) Running() int {
	return s.pool.Running()
}

// Wait blocks until every scheduled job has finished.
func (s *ReportService) Wait() {
	s.jobs.Wait()
}

// Shutdown waits for running jobs until ctx expires, then releases the pool.
func (s *ReportService) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.jobs.Wait()
		close(done)
	}()

	defer s.pool.Release()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ReportService) run(taskID, matchURL string) {
	ctx := context.Background()
	start := s.now()
	logger := s.logger.With("task_id", taskID)

	var (
		path   string
		runErr error
	)
	if recovered := panics.Try(func() {
		path, runErr = s.generate(ctx, logger, taskID, matchURL)
	}); recovered != nil {
		logger.ErrorContext(ctx, "report job panicked", "panic", recovered.Value, "stack", string(recovered.Stack))
		runErr = fmt.Errorf("panic: %v", recovered.Value)
	}

	status := task.StatusCompleted
	if runErr != nil {
		status = task.StatusError
		s.tasks.Update(ctx, taskID, task.Phase(task.StatusError, 100, reportErrorPrefix+runErr.Error()))
		logger.ErrorContext(ctx, "report job failed", "error", runErr)
	} else {
		patch := task.Phase(task.StatusCompleted, 100, "Report generation complete")
		patch.ResultFilePath = &path
		s.tasks.Update(ctx, taskID, patch)
		logger.InfoContext(ctx, "report job completed", "path", path)
	}

	if s.observer != nil {
		s.observer.ObserveReport(status, s.now().Sub(start))
	}
}

func (s *ReportService) generate(ctx context.Context, logger *logging.Logger, taskID, matchURL string) (string, error) {
	s.tasks.Update(ctx, taskID, task.Phase(task.StatusDiscoveringFixture, 10, "Opening browser session..."))
	crawler, err := s.open(ctx)
	if err != nil {
		return "", fmt.Errorf("open browser session: %w", err)
	}
	defer func() {
		if err := crawler.Close(); err != nil {
			logger.WarnContext(ctx, "close crawler failed", "error", err)
		}
	}()

	s.tasks.Update(ctx, taskID, task.Phase(task.StatusScrapingTeams, 20, "Scraping team statistics..."))
	record := crawler.ScrapeMatch(ctx, matchURL)
	if record.Empty() {
		return "", errMatchUnavailable
	}
	if current, ok := s.tasks.Get(ctx, taskID); ok && current.MatchID == "" && record.Info.MatchID != "" {
		matchID := record.Info.MatchID
		s.tasks.Update(ctx, taskID, task.Patch{MatchID: &matchID})
	}

	players := s.scrapePlayers(ctx, logger, taskID, crawler, record.Players)

	s.tasks.Update(ctx, taskID, task.Phase(task.StatusBuildingFile, 90, "Building Excel file..."))
	path, err := s.writer.WriteMatchReport(ctx, taskID, record, players)
	if err != nil {
		return "", fmt.Errorf("write workbook: %w", err)
	}
	return path, nil
}

// scrapePlayers walks the player pages in order, moving progress from 40 to 80.
func (s *ReportService) scrapePlayers(
	ctx context.Context,
	logger *logging.Logger,
	taskID string,
	crawler ReportCrawler,
	links []matchreport.PlayerLink,
) []matchreport.PlayerData {
	if !s.cfg.IncludePlayers || len(links) == 0 {
		s.tasks.Update(ctx, taskID, task.Phase(task.StatusScrapingPlayers, 80, "Skipping player data"))
		return nil
	}
	if len(links) > s.cfg.MaxPlayers {
		links = links[:s.cfg.MaxPlayers]
	}

	s.tasks.Update(ctx, taskID, task.Phase(task.StatusScrapingPlayers, 40, "Scraping player data..."))
	out := make([]matchreport.PlayerData, 0, len(links))
	for i, link := range links {
		data := crawler.ScrapePlayer(ctx, link)
		if len(data.Sheets) == 0 {
			logger.InfoContext(ctx, "player page yielded no tables", "player_id", link.ID)
		}
		out = append(out, data)

		progress := 40 + 40*(i+1)/len(links)
		message := fmt.Sprintf("Scraped player %d of %d: %s", i+1, len(links), link.Name)
		s.tasks.Update(ctx, taskID, task.Phase(task.StatusScrapingPlayers, progress, message))
	}
	return out
}
