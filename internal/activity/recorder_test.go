package activity_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexboard/nexboard/internal/activity"
	activityrepo "github.com/nexboard/nexboard/internal/activity/repositoryimpl"
	"github.com/nexboard/nexboard/internal/eventbus"
	"github.com/nexboard/nexboard/pkg/storage"
)

func TestRecorderAppendsPublishedEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	repo := activityrepo.NewYAMLRepository(store)
	bus := eventbus.New()

	recorder := activity.NewRecorder(repo, bus)
	go recorder.Start(ctx)

	// let the recorder subscribe before publishing
	require.Eventually(t, func() bool {
		bus.PublishNew("u1", "task", "t1", "update", map[string]any{"status": "DONE"})
		logs, err := repo.List(ctx, activity.Filter{UserID: "u1"})
		return err == nil && len(logs) > 0
	}, 2*time.Second, 10*time.Millisecond)

	logs, err := repo.List(ctx, activity.Filter{UserID: "u1"})
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	l := logs[0]
	assert.Equal(t, "task", l.EntityType)
	assert.Equal(t, "t1", l.EntityID)
	assert.Equal(t, "update", l.Action)
	assert.Contains(t, l.Changes, "DONE")
}

func TestRepositoryListFiltersAndPaginates(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	repo := activityrepo.NewYAMLRepository(store)

	base := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Append(ctx, &activity.Log{
			ID:         string(rune('a' + i)),
			UserID:     "u1",
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
			EntityType: "task",
			EntityID:   "t1",
			Action:     "update",
		}))
	}
	require.NoError(t, repo.Append(ctx, &activity.Log{
		ID:         "other",
		UserID:     "u2",
		Timestamp:  base,
		EntityType: "project",
		EntityID:   "p1",
		Action:     "create",
	}))

	logs, err := repo.List(ctx, activity.Filter{UserID: "u1", Limit: 2})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	// newest first
	assert.Equal(t, "e", logs[0].ID)
	assert.Equal(t, "d", logs[1].ID)

	logs, err = repo.List(ctx, activity.Filter{UserID: "u1", Limit: 2, Offset: 4})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "a", logs[0].ID)

	logs, err = repo.List(ctx, activity.Filter{EntityType: "project"})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "other", logs[0].ID)
}
