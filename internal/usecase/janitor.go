package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/fbref-report/internal/domain/task"
	"github.com/riskibarqy/fbref-report/internal/platform/logging"
)

type ExportCleaner interface {
	RemoveOlderThan(ctx context.Context, age time.Duration) (int, error)
}

type CachePurger interface {
	Purge(ctx context.Context) int
}

type JanitorConfig struct {
	Interval  time.Duration
	KeepFiles time.Duration
}

type JanitorResult struct {
	Tasks        int
	Files        int
	CacheEntries int
}

// Janitor periodically expires idle tasks, old workbook files and stale
// cache entries.
type Janitor struct {
	tasks  task.Repository
	files  ExportCleaner
	cache  CachePurger
	cfg    JanitorConfig
	logger *logging.Logger
}

func NewJanitor(tasks task.Repository, files ExportCleaner, cache CachePurger, cfg JanitorConfig, logger *logging.Logger) *Janitor {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	return &Janitor{
		tasks:  tasks,
		files:  files,
		cache:  cache,
		cfg:    cfg,
		logger: logger,
	}
}

func (j *Janitor) RunOnce(ctx context.Context) JanitorResult {
	var result JanitorResult
	if j.tasks != nil {
		result.Tasks = j.tasks.Sweep(ctx)
	}
	if j.files != nil && j.cfg.KeepFiles > 0 {
		removed, err := j.files.RemoveOlderThan(ctx, j.cfg.KeepFiles)
		if err != nil {
			j.logger.WarnContext(ctx, "remove expired report files failed", "error", err)
		}
		result.Files = removed
	}
	if j.cache != nil {
		result.CacheEntries = j.cache.Purge(ctx)
	}

	if result != (JanitorResult{}) {
		j.logger.InfoContext(ctx, "janitor pass finished",
			"tasks_expired", result.Tasks,
			"files_removed", result.Files,
			"cache_entries_purged", result.CacheEntries,
		)
	}
	return result
}

// Run sweeps on every interval tick until ctx is done.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}
