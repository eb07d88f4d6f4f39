package task_test

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexboard/nexboard/internal/eventbus"
	"github.com/nexboard/nexboard/internal/member"
	memberrepo "github.com/nexboard/nexboard/internal/member/repositoryimpl"
	"github.com/nexboard/nexboard/internal/project"
	projectrepo "github.com/nexboard/nexboard/internal/project/repositoryimpl"
	"github.com/nexboard/nexboard/internal/task"
	taskrepo "github.com/nexboard/nexboard/internal/task/repositoryimpl"
	"github.com/nexboard/nexboard/internal/user"
	userrepo "github.com/nexboard/nexboard/internal/user/repositoryimpl"
	"github.com/nexboard/nexboard/pkg/cerr"
	"github.com/nexboard/nexboard/pkg/storage"
)

// fixture wires a task server against real YAML repositories in a temp dir.
// One workspace with an admin and two plain members, plus one project.
type fixture struct {
	server  *task.Server
	tasks   task.Repository
	members member.Repository
	bus     *eventbus.Bus
	events  <-chan *eventbus.Event

	workspaceID string
	projectID   string

	admin *actor
	alice *actor
	bob   *actor
}

type actor struct {
	user   *user.User
	member *member.Member
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	users := userrepo.NewYAMLRepository(store)
	members := memberrepo.NewYAMLRepository(store)
	projects := projectrepo.NewYAMLRepository(store)
	tasks := taskrepo.NewYAMLRepository(store)
	bus := eventbus.New()
	_, events := bus.Subscribe(64)

	f := &fixture{
		server:      task.NewServer(tasks, members, users, project.NewResolver(projects), bus),
		tasks:       tasks,
		members:     members,
		bus:         bus,
		events:      events,
		workspaceID: ulid.Make().String(),
	}

	f.admin = f.addActor(t, ctx, users, members, "Admin", member.RoleAdmin)
	f.alice = f.addActor(t, ctx, users, members, "Alice", member.RoleMember)
	f.bob = f.addActor(t, ctx, users, members, "Bob", member.RoleMember)

	p := &project.Project{
		ID:          ulid.Make().String(),
		WorkspaceID: f.workspaceID,
		Name:        "Board",
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	require.NoError(t, projects.Create(ctx, p))
	f.projectID = p.ID

	return f
}

func (f *fixture) addActor(t *testing.T, ctx context.Context, users user.Repository, members member.Repository, name string, role member.Role) *actor {
	t.Helper()
	u := &user.User{
		ID:        ulid.Make().String(),
		Name:      name,
		Email:     name + "@example.com",
		CreatedAt: time.Now(),
	}
	require.NoError(t, users.Create(ctx, u))
	m := &member.Member{
		ID:          ulid.Make().String(),
		WorkspaceID: f.workspaceID,
		UserID:      u.ID,
		Role:        role,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	require.NoError(t, members.Create(ctx, m))
	return &actor{user: u, member: m}
}

func (f *fixture) createTask(t *testing.T, by *actor, assignee *actor) *task.Task {
	t.Helper()
	created, err := f.server.Create(context.Background(), by.user, &task.CreateRequest{
		Name:        "task",
		WorkspaceID: f.workspaceID,
		ProjectID:   f.projectID,
		DueDate:     time.Now().Add(24 * time.Hour),
		AssigneeID:  assignee.member.ID,
	})
	require.NoError(t, err)
	return created
}

// setStatus moves a task directly in storage, bypassing policy checks.
func (f *fixture) setStatus(t *testing.T, id string, status task.Status) {
	t.Helper()
	stored, err := f.tasks.Get(context.Background(), id)
	require.NoError(t, err)
	stored.Status = status
	require.NoError(t, f.tasks.Update(context.Background(), stored))
}

func (f *fixture) drainEvents() []*eventbus.Event {
	var out []*eventbus.Event
	for {
		select {
		case e := <-f.events:
			out = append(out, e)
		default:
			return out
		}
	}
}

func statusPtr(s task.Status) *task.Status { return &s }
func strPtr(s string) *string              { return &s }

func TestCreateAssignsSparsePositions(t *testing.T) {
	f := newFixture(t)

	var positions []int
	for i := 0; i < 3; i++ {
		created := f.createTask(t, f.admin, f.admin)
		positions = append(positions, created.Position)
	}
	assert.Equal(t, []int{1000, 2000, 3000}, positions)
}

func TestCreateForcesBacklog(t *testing.T) {
	f := newFixture(t)

	_, err := f.server.Create(context.Background(), f.admin.user, &task.CreateRequest{
		Name:        "task",
		WorkspaceID: f.workspaceID,
		ProjectID:   f.projectID,
		DueDate:     time.Now(),
		AssigneeID:  f.admin.member.ID,
		Status:      task.StatusDone,
	})
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.InvalidArgument))
}

func TestCreateMemberMustSelfAssign(t *testing.T) {
	f := newFixture(t)

	_, err := f.server.Create(context.Background(), f.alice.user, &task.CreateRequest{
		Name:        "task",
		WorkspaceID: f.workspaceID,
		ProjectID:   f.projectID,
		DueDate:     time.Now(),
		AssigneeID:  f.bob.member.ID,
	})
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.PermissionDenied))
}

func TestCreateRequiresMembership(t *testing.T) {
	f := newFixture(t)
	outsider := &user.User{ID: ulid.Make().String(), Name: "Eve"}

	_, err := f.server.Create(context.Background(), outsider, &task.CreateRequest{
		Name:        "task",
		WorkspaceID: f.workspaceID,
		ProjectID:   f.projectID,
		DueDate:     time.Now(),
		AssigneeID:  f.alice.member.ID,
	})
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.Unauthenticated))
}

func TestMemberFollowsTransitionTable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.createTask(t, f.alice, f.alice)

	// BACKLOG -> TODO is the only legal first move
	updated, err := f.server.Update(ctx, f.alice.user, created.ID, &task.UpdateRequest{Status: statusPtr(task.StatusTodo)})
	require.NoError(t, err)
	assert.Equal(t, task.StatusTodo, updated.Status)

	// TODO -> IN_REVIEW skips IN_PROGRESS and must fail naming both statuses
	_, err = f.server.Update(ctx, f.alice.user, created.ID, &task.UpdateRequest{Status: statusPtr(task.StatusInReview)})
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.InvalidArgument))
	assert.Contains(t, err.Error(), "TODO")
	assert.Contains(t, err.Error(), "IN_REVIEW")

	// stored status untouched by the failed update
	stored, err := f.tasks.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusTodo, stored.Status)
}

func TestAdminBypassesTransitionTable(t *testing.T) {
	f := newFixture(t)
	created := f.createTask(t, f.admin, f.admin)

	updated, err := f.server.Update(context.Background(), f.admin.user, created.ID, &task.UpdateRequest{Status: statusPtr(task.StatusDone)})
	require.NoError(t, err)
	assert.Equal(t, task.StatusDone, updated.Status)
	require.NotNil(t, updated.CompletedAt)
}

func TestStartedAtStampedOnInProgress(t *testing.T) {
	f := newFixture(t)
	created := f.createTask(t, f.admin, f.admin)

	updated, err := f.server.Update(context.Background(), f.admin.user, created.ID, &task.UpdateRequest{Status: statusPtr(task.StatusInProgress)})
	require.NoError(t, err)
	require.NotNil(t, updated.StartedAt)
	assert.Nil(t, updated.CompletedAt)
}

func TestMemberOwnershipGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	// bob is neither creator nor assignee
	created := f.createTask(t, f.alice, f.alice)

	_, err := f.server.Update(ctx, f.bob.user, created.ID, &task.UpdateRequest{Name: strPtr("renamed")})
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.PermissionDenied))

	_, err = f.server.Delete(ctx, f.bob.user, created.ID)
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.PermissionDenied))
}

func TestMemberCannotReassignOrMoveProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.createTask(t, f.alice, f.alice)

	_, err := f.server.Update(ctx, f.alice.user, created.ID, &task.UpdateRequest{AssigneeID: strPtr(f.bob.member.ID)})
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.PermissionDenied))

	_, err = f.server.Update(ctx, f.alice.user, created.ID, &task.UpdateRequest{ProjectID: strPtr(ulid.Make().String())})
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.PermissionDenied))
}

func TestPartialUpdateLeavesOtherFieldsAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.createTask(t, f.admin, f.alice)

	updated, err := f.server.Update(ctx, f.admin.user, created.ID, &task.UpdateRequest{Name: strPtr("renamed")})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)

	stored, err := f.tasks.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Status, stored.Status)
	assert.Equal(t, created.AssigneeID, stored.AssigneeID)
	assert.Equal(t, created.ProjectID, stored.ProjectID)
	assert.Equal(t, created.Position, stored.Position)
	assert.True(t, created.DueDate.Equal(stored.DueDate))
}

func TestDeleteRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	own := f.createTask(t, f.alice, f.alice)
	_, err := f.server.Delete(ctx, f.alice.user, own.ID)
	require.NoError(t, err)

	other := f.createTask(t, f.admin, f.alice)
	_, err = f.server.Delete(ctx, f.alice.user, other.ID)
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.PermissionDenied))

	_, err = f.server.Delete(ctx, f.admin.user, other.ID)
	require.NoError(t, err)
}
