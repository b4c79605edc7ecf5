package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/fbref-report/internal/domain/task"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestTaskRepository() (*TaskRepository, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 9, 27, 15, 0, 0, 0, time.UTC)}
	repo := NewTaskRepository(time.Hour)
	repo.now = clock.Now
	return repo, clock
}

func TestTaskRepository_CreateAppliesDefaults(t *testing.T) {
	t.Parallel()

	repo, _ := newTestTaskRepository()
	ctx := context.Background()
	repo.Create(ctx, "t1", task.Task{MatchURL: "/en/matches/cc5b4244/x", MatchID: "cc5b4244"})

	got, ok := repo.Get(ctx, "t1")
	if !ok {
		t.Fatalf("expected task t1")
	}
	if got.Status != task.StatusInitializing || got.Progress != 0 {
		t.Fatalf("unexpected defaults: status=%s progress=%d", got.Status, got.Progress)
	}
	if got.Message != task.DefaultMessage || got.Format != task.FormatXLSX {
		t.Fatalf("unexpected message/format: %q %q", got.Message, got.Format)
	}
	if got.MatchID != "cc5b4244" {
		t.Fatalf("seed fields should be kept, got %q", got.MatchID)
	}
	if got.ResultFilePath != "" {
		t.Fatalf("new task must not have a result file")
	}
	if !got.CreatedAt.Equal(got.UpdatedAt) {
		t.Fatalf("created_at and updated_at should start equal")
	}
}

func TestTaskRepository_UpdateMergesAndAdvancesTimestamp(t *testing.T) {
	t.Parallel()

	repo, clock := newTestTaskRepository()
	ctx := context.Background()
	created := repo.Create(ctx, "t1", task.Task{MatchURL: "/en/matches/abc/x"})

	clock.Advance(time.Second)
	if !repo.Update(ctx, "t1", task.Phase(task.StatusScrapingTeams, 20, "Scraping team data...")) {
		t.Fatalf("expected update to succeed")
	}

	got, _ := repo.Get(ctx, "t1")
	if got.Status != task.StatusScrapingTeams || got.Progress != 20 {
		t.Fatalf("unexpected task after update: %+v", got)
	}
	if got.MatchURL != "/en/matches/abc/x" {
		t.Fatalf("update must keep untouched fields")
	}
	if !got.UpdatedAt.After(created.CreatedAt) {
		t.Fatalf("updated_at must be after created_at")
	}

	// Frozen clock still yields a strictly later timestamp.
	before := got.UpdatedAt
	repo.Update(ctx, "t1", task.Phase(task.StatusBuildingFile, 90, "Building file..."))
	got, _ = repo.Get(ctx, "t1")
	if !got.UpdatedAt.After(before) {
		t.Fatalf("updated_at must strictly increase, got %s then %s", before, got.UpdatedAt)
	}
}

func TestTaskRepository_UpdateUnknownIsNoop(t *testing.T) {
	t.Parallel()

	repo, _ := newTestTaskRepository()
	if repo.Update(context.Background(), "missing", task.Phase(task.StatusError, 100, "boom")) {
		t.Fatalf("update of unknown id should report false")
	}
	if len(repo.ListAll(context.Background())) != 0 {
		t.Fatalf("update must not create tasks")
	}
}

func TestTaskRepository_GetReturnsCopy(t *testing.T) {
	t.Parallel()

	repo, _ := newTestTaskRepository()
	ctx := context.Background()
	repo.Create(ctx, "t1", task.Task{})

	got, _ := repo.Get(ctx, "t1")
	got.Status = task.StatusCompleted
	got.ResultFilePath = "/tmp/hijacked.xlsx"

	again, _ := repo.Get(ctx, "t1")
	if again.Status != task.StatusInitializing || again.ResultFilePath != "" {
		t.Fatalf("mutating a read copy changed the store: %+v", again)
	}
}

func TestTaskRepository_SweepsIdleTasks(t *testing.T) {
	t.Parallel()

	repo, clock := newTestTaskRepository()
	ctx := context.Background()
	repo.Create(ctx, "stale", task.Task{})
	repo.Create(ctx, "done", task.Task{Status: task.StatusCompleted, Progress: 100})

	clock.Advance(30 * time.Minute)
	repo.Create(ctx, "fresh", task.Task{})

	clock.Advance(30*time.Minute + time.Second)
	if _, ok := repo.Get(ctx, "stale"); ok {
		t.Fatalf("expected stale task to be swept")
	}
	if _, ok := repo.Get(ctx, "done"); ok {
		t.Fatalf("completed tasks are swept too")
	}
	if _, ok := repo.Get(ctx, "fresh"); !ok {
		t.Fatalf("fresh task should survive")
	}

	all := repo.ListAll(ctx)
	if len(all) != 1 || all[0].ID != "fresh" {
		t.Fatalf("unexpected live tasks: %+v", all)
	}

	clock.Advance(2 * time.Hour)
	if removed := repo.Sweep(ctx); removed != 1 {
		t.Fatalf("expected sweep to remove one task, removed %d", removed)
	}
}

func TestTaskRepository_UpdateKeepsTaskAlive(t *testing.T) {
	t.Parallel()

	repo, clock := newTestTaskRepository()
	ctx := context.Background()
	repo.Create(ctx, "long", task.Task{})

	for i := 0; i < 3; i++ {
		clock.Advance(50 * time.Minute)
		repo.Update(ctx, "long", task.Phase(task.StatusScrapingPlayers, 40+i*10, "Scraping players..."))
	}
	if _, ok := repo.Get(ctx, "long"); !ok {
		t.Fatalf("recently updated task must not be swept")
	}
}

func TestTaskRepository_ListAllOrderAndClear(t *testing.T) {
	t.Parallel()

	repo, clock := newTestTaskRepository()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		repo.Create(ctx, fmt.Sprintf("t%d", i), task.Task{})
		clock.Advance(time.Second)
	}

	all := repo.ListAll(ctx)
	for i, item := range all {
		if item.ID != fmt.Sprintf("t%d", i) {
			t.Fatalf("unexpected order at %d: %s", i, item.ID)
		}
	}

	repo.Clear(ctx)
	if len(repo.ListAll(ctx)) != 0 {
		t.Fatalf("expected empty store after clear")
	}
}

func TestTaskRepository_ConcurrentWriters(t *testing.T) {
	t.Parallel()

	repo := NewTaskRepository(time.Hour)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("job-%d", i)
			repo.Create(ctx, id, task.Task{})
			for p := 10; p <= 100; p += 10 {
				repo.Update(ctx, id, task.Phase(task.StatusScrapingPlayers, p, "working"))
				_, _ = repo.Get(ctx, id)
			}
		}(i)
	}
	wg.Wait()

	for _, item := range repo.ListAll(ctx) {
		if item.Progress != 100 {
			t.Fatalf("task %s ended at progress %d", item.ID, item.Progress)
		}
	}
}
