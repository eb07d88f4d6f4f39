package task_test

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexboard/nexboard/internal/member"
	"github.com/nexboard/nexboard/internal/task"
	"github.com/nexboard/nexboard/pkg/cerr"
)

func TestBulkUpdateAdminAllToDone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t1 := f.createTask(t, f.admin, f.admin)
	t2 := f.createTask(t, f.admin, f.admin)
	t3 := f.createTask(t, f.admin, f.admin)
	f.setStatus(t, t2.ID, task.StatusTodo)
	f.setStatus(t, t3.ID, task.StatusInReview)
	f.drainEvents()

	updated, message, err := f.server.BulkUpdate(ctx, f.admin.user, &task.BulkUpdateRequest{
		Tasks: []task.BulkUpdateEntry{
			{ID: t1.ID, Status: task.StatusDone, Position: 1000},
			{ID: t2.ID, Status: task.StatusDone, Position: 2000},
			{ID: t3.ID, Status: task.StatusDone, Position: 3000},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, message)
	require.Len(t, updated, 3)
	for _, u := range updated {
		assert.Equal(t, task.StatusDone, u.Status)
	}

	events := f.drainEvents()
	assert.Len(t, events, 3)
	for _, e := range events {
		assert.Equal(t, "task", e.EntityType)
		assert.Equal(t, "update", e.Action)
	}
}

func TestBulkUpdateRejectsMixedWorkspaces(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t1 := f.createTask(t, f.admin, f.admin)

	// a task from a foreign workspace, written directly
	foreign := &task.Task{
		ID:          ulid.Make().String(),
		WorkspaceID: ulid.Make().String(),
		ProjectID:   ulid.Make().String(),
		Name:        "elsewhere",
		Status:      task.StatusBacklog,
		DueDate:     time.Now(),
		Position:    1000,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	require.NoError(t, f.tasks.Create(ctx, foreign))

	_, _, err := f.server.BulkUpdate(ctx, f.admin.user, &task.BulkUpdateRequest{
		Tasks: []task.BulkUpdateEntry{
			{ID: t1.ID, Status: task.StatusTodo, Position: 1000},
			{ID: foreign.ID, Status: task.StatusTodo, Position: 2000},
		},
	})
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.InvalidArgument))

	// neither task was written
	for _, tt := range []*task.Task{t1, foreign} {
		stored, err := f.tasks.Get(ctx, tt.ID)
		require.NoError(t, err)
		assert.Equal(t, task.StatusBacklog, stored.Status)
	}
}

func TestBulkUpdateAbortsOnIllegalTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t1 := f.createTask(t, f.alice, f.alice)
	t2 := f.createTask(t, f.alice, f.alice)

	_, _, err := f.server.BulkUpdate(ctx, f.alice.user, &task.BulkUpdateRequest{
		Tasks: []task.BulkUpdateEntry{
			{ID: t1.ID, Status: task.StatusTodo, Position: 1000},
			{ID: t2.ID, Status: task.StatusDone, Position: 2000},
		},
	})
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.InvalidArgument))

	// the legal first entry must not have been applied either
	stored, err := f.tasks.Get(ctx, t1.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusBacklog, stored.Status)
	assert.Equal(t, t1.Position, stored.Position)
}

func TestBulkUpdateSkipsForbiddenEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mine := f.createTask(t, f.alice, f.alice)
	theirs := f.createTask(t, f.admin, f.admin)

	updated, message, err := f.server.BulkUpdate(ctx, f.alice.user, &task.BulkUpdateRequest{
		Tasks: []task.BulkUpdateEntry{
			{ID: mine.ID, Status: task.StatusTodo, Position: 1000},
			{ID: theirs.ID, Status: task.StatusTodo, Position: 2000},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, mine.ID, updated[0].ID)
	assert.NotEmpty(t, message)

	// the forbidden entry stayed untouched
	stored, err := f.tasks.Get(ctx, theirs.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusBacklog, stored.Status)
}

func TestBulkUpdateEmptyAllowedSetIsForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	theirs := f.createTask(t, f.admin, f.admin)

	_, _, err := f.server.BulkUpdate(ctx, f.alice.user, &task.BulkUpdateRequest{
		Tasks: []task.BulkUpdateEntry{
			{ID: theirs.ID, Status: task.StatusTodo, Position: 1000},
		},
	})
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.PermissionDenied))
}

func TestBulkUpdateRequiresMembership(t *testing.T) {
	f := newFixture(t)
	t1 := f.createTask(t, f.admin, f.admin)

	outsider := f.bob
	// drop bob's membership so he has none at all
	require.NoError(t, f.members.Delete(context.Background(), outsider.member.ID))

	_, _, err := f.server.BulkUpdate(context.Background(), outsider.user, &task.BulkUpdateRequest{
		Tasks: []task.BulkUpdateEntry{
			{ID: t1.ID, Status: task.StatusTodo, Position: 1000},
		},
	})
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.Unauthenticated))
}

func TestBulkUpdateRejectsDuplicateTaskIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t1 := f.createTask(t, f.admin, f.admin)

	_, _, err := f.server.BulkUpdate(ctx, f.admin.user, &task.BulkUpdateRequest{
		Tasks: []task.BulkUpdateEntry{
			{ID: t1.ID, Status: task.StatusTodo, Position: 1000},
			{ID: t1.ID, Status: task.StatusDone, Position: 2000},
		},
	})
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.InvalidArgument))

	stored, err := f.tasks.Get(ctx, t1.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusBacklog, stored.Status)
	assert.Equal(t, t1.Position, stored.Position)
}

func TestBulkUpdateValidatesPositionRange(t *testing.T) {
	f := newFixture(t)
	t1 := f.createTask(t, f.admin, f.admin)

	for _, position := range []int{999, 1_000_001} {
		_, _, err := f.server.BulkUpdate(context.Background(), f.admin.user, &task.BulkUpdateRequest{
			Tasks: []task.BulkUpdateEntry{
				{ID: t1.ID, Status: task.StatusTodo, Position: position},
			},
		})
		require.Error(t, err)
		assert.True(t, cerr.IsCode(err, cerr.InvalidArgument))
	}
}

func TestBulkUpdateMemberLegalTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t1 := f.createTask(t, f.alice, f.alice)
	require.Equal(t, member.RoleMember, f.alice.member.Role)

	updated, _, err := f.server.BulkUpdate(ctx, f.alice.user, &task.BulkUpdateRequest{
		Tasks: []task.BulkUpdateEntry{
			{ID: t1.ID, Status: task.StatusTodo, Position: 5000},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, task.StatusTodo, updated[0].Status)
	assert.Equal(t, 5000, updated[0].Position)
}
