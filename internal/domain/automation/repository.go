package automation

import "context"

// Repository persists task definitions.
type Repository interface {
	Create(ctx context.Context, task *Task) error
	Update(ctx context.Context, task *Task) error
	Delete(ctx context.Context, taskID string) error
	GetByTaskID(ctx context.Context, taskID string) (*Task, error)
	List(ctx context.Context) ([]*Task, error)
	// ListActive returns tasks with status active, schedule-driven and
	// approval-driven alike.
	ListActive(ctx context.Context) ([]*Task, error)
}
