package task

import (
	"context"
	"time"
)

// Filter narrows a task listing. Zero-valued fields are ignored; Search is a
// case-insensitive substring match on the task name.
type Filter struct {
	WorkspaceID string
	ProjectID   string
	AssigneeID  string
	Status      Status
	Priority    Priority
	DueDate     *time.Time
	Search      string
}

type Repository interface {
	Create(ctx context.Context, t *Task) error
	Get(ctx context.Context, id string) (*Task, error)
	List(ctx context.Context, f Filter) ([]*Task, error)
	ListByIDs(ctx context.Context, ids []string) ([]*Task, error)
	Update(ctx context.Context, t *Task) error
	Delete(ctx context.Context, id string) error
	// HighestPosition returns the largest position in the (workspace, status)
	// column; ok is false when the column is empty.
	HighestPosition(ctx context.Context, workspaceID string, status Status) (pos int, ok bool, err error)
}
