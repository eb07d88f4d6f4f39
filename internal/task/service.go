package task

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/nexboard/nexboard/internal/member"
	"github.com/nexboard/nexboard/internal/user"
	"github.com/nexboard/nexboard/pkg/cerr"
)

// positionGap is the spacing between newly created tasks in a column,
// leaving room for reordering without rewriting siblings.
const positionGap = 1000

type CreateRequest struct {
	Name        string    `json:"name" validate:"required,min=1"`
	WorkspaceID string    `json:"workspaceId" validate:"required"`
	ProjectID   string    `json:"projectId" validate:"required"`
	DueDate     time.Time `json:"dueDate" validate:"required"`
	AssigneeID  string    `json:"assigneeId" validate:"required"`
	Status      Status    `json:"status"`
	Description string    `json:"description"`
	Priority    Priority  `json:"priority"`
	Type        Type      `json:"type"`
	StoryPoint  *int      `json:"storyPoint" validate:"omitempty,gte=0"`
}

// Create makes a new task at the top of the workspace's BACKLOG column.
func (s *Server) Create(ctx context.Context, actor *user.User, req *CreateRequest) (*Task, error) {
	if err := validate.Struct(req); err != nil {
		return nil, cerr.NewValidationError(err)
	}
	if req.Status != "" && req.Status != StatusBacklog {
		return nil, cerr.NewError(cerr.InvalidArgument, "only BACKLOG is allowed as the initial status", nil)
	}
	if req.Priority != "" && !req.Priority.Valid() {
		return nil, cerr.NewError(cerr.InvalidArgument, "unknown priority", nil)
	}
	if req.Type != "" && !req.Type.Valid() {
		return nil, cerr.NewError(cerr.InvalidArgument, "unknown type", nil)
	}

	m, err := member.Require(ctx, s.members, req.WorkspaceID, actor.ID)
	if err != nil {
		return nil, err
	}
	if m.Role == member.RoleMember && req.AssigneeID != m.ID {
		return nil, cerr.NewError(cerr.PermissionDenied, "members can only assign tasks to themselves", nil)
	}

	proj, err := s.projects.ProjectSummary(ctx, req.ProjectID)
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			return nil, cerr.NewError(cerr.InvalidArgument, "project not found", err)
		}
		return nil, err
	}
	if proj.WorkspaceID != req.WorkspaceID {
		return nil, cerr.NewError(cerr.InvalidArgument, "project does not belong to the workspace", nil)
	}

	highest, found, err := s.repo.HighestPosition(ctx, req.WorkspaceID, StatusBacklog)
	if err != nil {
		return nil, err
	}
	position := positionGap
	if found {
		position = highest + positionGap
	}

	now := time.Now()
	t := &Task{
		ID:          ulid.Make().String(),
		WorkspaceID: req.WorkspaceID,
		ProjectID:   req.ProjectID,
		Name:        req.Name,
		Description: req.Description,
		Status:      StatusBacklog,
		Priority:    req.Priority,
		Type:        req.Type,
		DueDate:     req.DueDate.UTC(),
		Position:    position,
		AssigneeID:  req.AssigneeID,
		CreatorID:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.StoryPoint != nil {
		t.StoryPoint = *req.StoryPoint
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	s.bus.PublishNew(actor.ID, "task", t.ID, "create", map[string]any{
		"name":       t.Name,
		"status":     t.Status,
		"assigneeId": t.AssigneeID,
		"dueDate":    t.DueDate,
	})
	return t, nil
}

// UpdateRequest carries a partial update. Nil means the field was omitted
// and stays untouched; there is no way to clear a field through this type.
type UpdateRequest struct {
	Name        *string    `json:"name" validate:"omitempty,min=1"`
	Status      *Status    `json:"status"`
	ProjectID   *string    `json:"projectId"`
	AssigneeID  *string    `json:"assigneeId"`
	DueDate     *time.Time `json:"dueDate"`
	Description *string    `json:"description"`
	Priority    *Priority  `json:"priority"`
	Type        *Type      `json:"type"`
	StoryPoint  *int       `json:"storyPoint" validate:"omitempty,gte=0"`
}

// Update applies a partial update to one task. Rule checks run in a fixed
// order and the first violation aborts before anything is written.
func (s *Server) Update(ctx context.Context, actor *user.User, id string, req *UpdateRequest) (*Task, error) {
	if err := validate.Struct(req); err != nil {
		return nil, cerr.NewValidationError(err)
	}

	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	m, err := member.Require(ctx, s.members, t.WorkspaceID, actor.ID)
	if err != nil {
		return nil, err
	}

	if req.Status != nil && *req.Status != t.Status {
		if !req.Status.Valid() {
			return nil, cerr.NewError(cerr.InvalidArgument, "unknown status", nil)
		}
		if m.Role != member.RoleAdmin && !CanTransition(t.Status, *req.Status) {
			return nil, NewInvalidTransitionError(t.Status, *req.Status)
		}
	}
	if m.Role == member.RoleMember {
		if t.CreatorID != actor.ID && t.AssigneeID != m.ID {
			return nil, cerr.NewError(cerr.PermissionDenied, "you can only update tasks you created or are assigned to", nil)
		}
		if req.AssigneeID != nil && *req.AssigneeID != m.ID {
			return nil, cerr.NewError(cerr.PermissionDenied, "members can only assign tasks to themselves", nil)
		}
		if req.ProjectID != nil && *req.ProjectID != t.ProjectID {
			return nil, cerr.NewError(cerr.PermissionDenied, "members cannot move tasks between projects", nil)
		}
	}
	if req.Priority != nil && !req.Priority.Valid() {
		return nil, cerr.NewError(cerr.InvalidArgument, "unknown priority", nil)
	}
	if req.Type != nil && !req.Type.Valid() {
		return nil, cerr.NewError(cerr.InvalidArgument, "unknown type", nil)
	}
	if req.ProjectID != nil && *req.ProjectID != t.ProjectID {
		proj, err := s.projects.ProjectSummary(ctx, *req.ProjectID)
		if err != nil {
			if cerr.IsCode(err, cerr.NotFound) {
				return nil, cerr.NewError(cerr.InvalidArgument, "project not found", err)
			}
			return nil, err
		}
		if proj.WorkspaceID != t.WorkspaceID {
			return nil, cerr.NewError(cerr.InvalidArgument, "project does not belong to the workspace", nil)
		}
	}

	now := time.Now()
	changes := map[string]any{}
	if req.Name != nil {
		t.Name = *req.Name
		changes["name"] = *req.Name
	}
	if req.Status != nil && *req.Status != t.Status {
		applyStatus(t, *req.Status, now)
		changes["status"] = *req.Status
	}
	if req.ProjectID != nil {
		t.ProjectID = *req.ProjectID
		changes["projectId"] = *req.ProjectID
	}
	if req.AssigneeID != nil {
		t.AssigneeID = *req.AssigneeID
		changes["assigneeId"] = *req.AssigneeID
	}
	if req.DueDate != nil {
		t.DueDate = req.DueDate.UTC()
		changes["dueDate"] = t.DueDate
	}
	if req.Description != nil {
		t.Description = *req.Description
		changes["description"] = *req.Description
	}
	if req.Priority != nil {
		t.Priority = *req.Priority
		changes["priority"] = *req.Priority
	}
	if req.Type != nil {
		t.Type = *req.Type
		changes["type"] = *req.Type
	}
	if req.StoryPoint != nil {
		t.StoryPoint = *req.StoryPoint
		changes["storyPoint"] = *req.StoryPoint
	}
	if len(changes) == 0 {
		return t, nil
	}
	t.UpdatedAt = now

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}

	s.bus.PublishNew(actor.ID, "task", t.ID, "update", changes)
	return t, nil
}

// Delete removes a task. Admins may delete any task in the workspace;
// members only tasks they created.
func (s *Server) Delete(ctx context.Context, actor *user.User, id string) (string, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	m, err := member.Require(ctx, s.members, t.WorkspaceID, actor.ID)
	if err != nil {
		return "", err
	}
	if m.Role == member.RoleMember && t.CreatorID != actor.ID {
		return "", cerr.NewError(cerr.PermissionDenied, "members can only delete tasks they created", nil)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return "", err
	}

	s.bus.PublishNew(actor.ID, "task", t.ID, "delete", map[string]any{"name": t.Name})
	return t.ID, nil
}

// applyStatus moves a task to a new status and stamps the first entry into
// IN_PROGRESS and DONE.
func applyStatus(t *Task, to Status, now time.Time) {
	t.Status = to
	if to == StatusInProgress && t.StartedAt == nil {
		at := now
		t.StartedAt = &at
	}
	if to == StatusDone && t.CompletedAt == nil {
		at := now
		t.CompletedAt = &at
	}
}
