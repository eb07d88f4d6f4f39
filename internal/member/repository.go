package member

import (
	"context"

	"github.com/nexboard/nexboard/pkg/cerr"
)

type Repository interface {
	Create(ctx context.Context, m *Member) error
	Get(ctx context.Context, id string) (*Member, error)
	// Resolve returns the membership of userID in workspaceID, or (nil, nil)
	// when the user is not a member.
	Resolve(ctx context.Context, workspaceID, userID string) (*Member, error)
	ListByWorkspace(ctx context.Context, workspaceID string) ([]*Member, error)
	ListByUser(ctx context.Context, userID string) ([]*Member, error)
	Update(ctx context.Context, m *Member) error
	Delete(ctx context.Context, id string) error
}

// Require resolves the caller's membership and fails with Unauthenticated
// when there is none. Every workspace-scoped operation calls this before any
// other validation.
func Require(ctx context.Context, repo Repository, workspaceID, userID string) (*Member, error) {
	m, err := repo.Resolve(ctx, workspaceID, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, cerr.NewError(cerr.Unauthenticated, "unauthorized", nil)
	}
	return m, nil
}
