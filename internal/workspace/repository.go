package workspace

import "context"

type Repository interface {
	Create(ctx context.Context, w *Workspace) error
	Get(ctx context.Context, id string) (*Workspace, error)
	Delete(ctx context.Context, id string) error
}
