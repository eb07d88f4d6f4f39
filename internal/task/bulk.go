package task

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/nexboard/nexboard/internal/member"
	"github.com/nexboard/nexboard/internal/user"
	"github.com/nexboard/nexboard/pkg/cerr"
)

// skippedMessage is returned when permission filtering dropped entries from
// a bulk update without failing the request.
const skippedMessage = "Some tasks were skipped due to insufficient permissions."

type BulkUpdateRequest struct {
	Tasks []BulkUpdateEntry `json:"tasks" validate:"required,min=1,dive"`
}

type BulkUpdateEntry struct {
	ID       string `json:"id" validate:"required"`
	Status   Status `json:"status" validate:"required"`
	Position int    `json:"position" validate:"required,gte=1000,lte=1000000"`
}

// BulkUpdate applies a batch of (id, status, position) changes, typically
// from a board drag and drop. All tasks must live in one workspace. Entries
// the caller may not touch are silently dropped and reported through the
// advisory message, but a single illegal status transition anywhere in the
// remaining batch fails the whole request before any write happens.
func (s *Server) BulkUpdate(ctx context.Context, actor *user.User, req *BulkUpdateRequest) ([]*Task, string, error) {
	if err := validate.Struct(req); err != nil {
		return nil, "", cerr.NewValidationError(err)
	}
	ids := make([]string, 0, len(req.Tasks))
	seen := make(map[string]struct{}, len(req.Tasks))
	for _, e := range req.Tasks {
		if !e.Status.Valid() {
			return nil, "", cerr.NewError(cerr.InvalidArgument, "unknown status", nil)
		}
		// repeated ids would turn the independent writes below into
		// conflicting writes to the same task
		if _, ok := seen[e.ID]; ok {
			return nil, "", cerr.NewError(cerr.InvalidArgument, "duplicate task id in batch", nil)
		}
		seen[e.ID] = struct{}{}
		ids = append(ids, e.ID)
	}
	fetched, err := s.repo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, "", err
	}

	workspaces := map[string]struct{}{}
	for _, t := range fetched {
		workspaces[t.WorkspaceID] = struct{}{}
	}
	if len(workspaces) != 1 {
		return nil, "", cerr.NewError(cerr.InvalidArgument, "all tasks must belong to the same workspace", nil)
	}
	workspaceID := fetched[0].WorkspaceID

	m, err := member.Require(ctx, s.members, workspaceID, actor.ID)
	if err != nil {
		return nil, "", err
	}

	allowed := make(map[string]*Task, len(fetched))
	for _, t := range fetched {
		if m.Role == member.RoleAdmin || t.AssigneeID == m.ID || t.CreatorID == actor.ID {
			allowed[t.ID] = t
		}
	}
	entries := make([]BulkUpdateEntry, 0, len(req.Tasks))
	for _, e := range req.Tasks {
		if _, ok := allowed[e.ID]; ok {
			entries = append(entries, e)
		}
	}
	if len(entries) == 0 {
		return nil, "", cerr.NewError(cerr.PermissionDenied, "you have no permission to update any of these tasks", nil)
	}

	// transition pre-pass: one bad edge aborts the batch before any write
	if m.Role != member.RoleAdmin {
		for _, e := range entries {
			current := allowed[e.ID]
			if e.Status != current.Status && !CanTransition(current.Status, e.Status) {
				return nil, "", NewInvalidTransitionError(current.Status, e.Status)
			}
		}
	}

	now := time.Now()
	updated := make([]*Task, len(entries))
	p := pool.New().WithContext(ctx).WithCancelOnError()
	for i, e := range entries {
		i, e := i, e
		p.Go(func(ctx context.Context) error {
			t := allowed[e.ID]
			if e.Status != t.Status {
				applyStatus(t, e.Status, now)
			}
			t.Position = e.Position
			t.UpdatedAt = now
			if err := s.repo.Update(ctx, t); err != nil {
				return err
			}
			s.bus.PublishNew(actor.ID, "task", t.ID, "update", map[string]any{
				"status":   t.Status,
				"position": t.Position,
			})
			updated[i] = t
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, "", err
	}

	message := ""
	if len(entries) < len(req.Tasks) {
		message = skippedMessage
	}
	return updated, message, nil
}
