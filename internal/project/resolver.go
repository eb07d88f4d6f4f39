package project

import (
	"context"

	"github.com/nexboard/nexboard/internal/task"
)

// Resolver adapts the project repository to the summary lookup the task
// package embeds in its responses.
type Resolver struct {
	repo Repository
}

func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

func (r *Resolver) ProjectSummary(ctx context.Context, id string) (*task.ProjectSummary, error) {
	p, err := r.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &task.ProjectSummary{
		ID:          p.ID,
		WorkspaceID: p.WorkspaceID,
		Name:        p.Name,
		ImageURL:    p.ImageURL,
	}, nil
}
