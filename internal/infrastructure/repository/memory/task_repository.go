package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/fbref-report/internal/domain/task"
)

const DefaultTaskRetention = time.Hour

// TaskRepository keeps report tasks in process memory. Tasks idle for longer
// than the retention window are dropped on the next read or sweep.
type TaskRepository struct {
	mu        sync.Mutex
	items     map[string]task.Task
	retention time.Duration
	now       func() time.Time
}

var _ task.Repository = (*TaskRepository)(nil)

func NewTaskRepository(retention time.Duration) *TaskRepository {
	if retention <= 0 {
		retention = DefaultTaskRetention
	}
	return &TaskRepository{
		items:     make(map[string]task.Task),
		retention: retention,
		now:       time.Now,
	}
}

func (r *TaskRepository) Create(_ context.Context, id string, seed task.Task) task.Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	item := task.Task{
		ID:        id,
		Status:    task.StatusInitializing,
		Progress:  0,
		Message:   task.DefaultMessage,
		Format:    task.FormatXLSX,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if seed.Status != "" {
		item.Status = seed.Status
	}
	if seed.Progress != 0 {
		item.Progress = seed.Progress
	}
	if seed.Message != "" {
		item.Message = seed.Message
	}
	if seed.Format != "" {
		item.Format = seed.Format
	}
	item.MatchURL = seed.MatchURL
	item.MatchID = seed.MatchID
	item.ResultFilePath = seed.ResultFilePath

	r.items[id] = item
	return item
}

func (r *TaskRepository) Update(_ context.Context, id string, patch task.Patch) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return false
	}

	patch.Apply(&item)
	now := r.now()
	if !now.After(item.UpdatedAt) {
		now = item.UpdatedAt.Add(time.Nanosecond)
	}
	item.UpdatedAt = now
	r.items[id] = item
	return true
}

func (r *TaskRepository) Get(_ context.Context, id string) (task.Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweepLocked()
	item, ok := r.items[id]
	return item, ok
}

// ListAll returns live tasks ordered by creation time.
func (r *TaskRepository) ListAll(_ context.Context) []task.Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweepLocked()
	out := make([]task.Task, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *TaskRepository) Sweep(_ context.Context) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.sweepLocked()
}

func (r *TaskRepository) Clear(_ context.Context) {
	r.mu.Lock()
	r.items = make(map[string]task.Task)
	r.mu.Unlock()
}

func (r *TaskRepository) sweepLocked() int {
	cutoff := r.now().Add(-r.retention)
	removed := 0
	for id, item := range r.items {
		if item.UpdatedAt.Before(cutoff) {
			delete(r.items, id)
			removed++
		}
	}
	return removed
}
