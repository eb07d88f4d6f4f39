package repositoryimpl

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexboard/nexboard/internal/task"
	"github.com/nexboard/nexboard/pkg/cerr"
	"github.com/nexboard/nexboard/pkg/storage"
)

func newRepo(t *testing.T) *YAMLRepository {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewYAMLRepository(store)
}

func newTask(workspaceID string, status task.Status, position int) *task.Task {
	now := time.Now()
	return &task.Task{
		ID:          ulid.Make().String(),
		WorkspaceID: workspaceID,
		ProjectID:   "p1",
		Name:        "task",
		Status:      status,
		DueDate:     now.Add(24 * time.Hour),
		Position:    position,
		AssigneeID:  "m1",
		CreatorID:   "u1",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestYAMLRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	created := newTask("w1", task.StatusBacklog, 1000)
	created.Priority = task.PriorityHigh
	created.Type = task.TypeBug
	created.StoryPoint = 5
	require.NoError(t, repo.Create(ctx, created))

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Status, got.Status)
	assert.Equal(t, created.Priority, got.Priority)
	assert.Equal(t, created.Type, got.Type)
	assert.Equal(t, created.StoryPoint, got.StoryPoint)
	assert.Equal(t, created.Position, got.Position)
	assert.True(t, created.DueDate.Equal(got.DueDate))

	err = repo.Create(ctx, created)
	assert.True(t, cerr.IsCode(err, cerr.AlreadyExists))

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.Get(ctx, created.ID)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestYAMLRepositoryListFilters(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	a := newTask("w1", task.StatusBacklog, 1000)
	a.Name = "Fix login crash"
	a.CreatedAt = time.Now().Add(-2 * time.Hour)
	b := newTask("w1", task.StatusTodo, 2000)
	b.Name = "Write docs"
	b.AssigneeID = "m2"
	b.CreatedAt = time.Now().Add(-1 * time.Hour)
	c := newTask("w2", task.StatusBacklog, 1000)
	c.Name = "Unrelated"
	for _, tt := range []*task.Task{a, b, c} {
		require.NoError(t, repo.Create(ctx, tt))
	}

	got, err := repo.List(ctx, task.Filter{WorkspaceID: "w1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	// newest first
	assert.Equal(t, b.ID, got[0].ID)
	assert.Equal(t, a.ID, got[1].ID)

	got, err = repo.List(ctx, task.Filter{WorkspaceID: "w1", Status: task.StatusTodo})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, b.ID, got[0].ID)

	got, err = repo.List(ctx, task.Filter{WorkspaceID: "w1", AssigneeID: "m2"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, b.ID, got[0].ID)

	got, err = repo.List(ctx, task.Filter{WorkspaceID: "w1", Search: "login"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a.ID, got[0].ID)
}

func TestYAMLRepositoryListByIDsSkipsMissing(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	a := newTask("w1", task.StatusBacklog, 1000)
	require.NoError(t, repo.Create(ctx, a))

	got, err := repo.ListByIDs(ctx, []string{a.ID, "no-such-task"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a.ID, got[0].ID)
}

func TestYAMLRepositoryHighestPosition(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	_, found, err := repo.HighestPosition(ctx, "w1", task.StatusBacklog)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.Create(ctx, newTask("w1", task.StatusBacklog, 1000)))
	require.NoError(t, repo.Create(ctx, newTask("w1", task.StatusBacklog, 3000)))
	require.NoError(t, repo.Create(ctx, newTask("w1", task.StatusTodo, 9000)))
	require.NoError(t, repo.Create(ctx, newTask("w2", task.StatusBacklog, 5000)))

	pos, found, err := repo.HighestPosition(ctx, "w1", task.StatusBacklog)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 3000, pos)
}
