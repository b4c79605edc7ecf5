package task

import "context"

// Repository stores report tasks for the lifetime of the process. Reads
// return copies and silently drop tasks idle past the retention window.
type Repository interface {
	Create(ctx context.Context, id string, seed Task) Task
	Update(ctx context.Context, id string, patch Patch) bool
	Get(ctx context.Context, id string) (Task, bool)
	ListAll(ctx context.Context) []Task
	Sweep(ctx context.Context) int
	Clear(ctx context.Context)
}
