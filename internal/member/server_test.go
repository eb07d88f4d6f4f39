package member_test

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
	"github.com/nexboard/nexboard/internal/user"
	userrepo "github.com/nexboard/nexboard/internal/user/repositoryimpl"
	"github.com/nexboard/nexboard/pkg/cerr"
	"github.com/nexboard/nexboard/pkg/storage"
)

type fixture struct {
	server      *member.Server
	members     member.Repository
	workspaceID string
	admin       *user.User
	adminMember *member.Member
	alice       *user.User
	aliceMember *member.Member
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	users := userrepo.NewYAMLRepository(store)
	members := memberrepo.NewYAMLRepository(store)

	f := &fixture{
		server:      member.NewServer(members, users, eventbus.New()),
		members:     members,
		workspaceID: ulid.Make().String(),
	}
	f.admin, f.adminMember = addMember(t, ctx, users, members, f.workspaceID, "Admin", member.RoleAdmin)
	f.alice, f.aliceMember = addMember(t, ctx, users, members, f.workspaceID, "Alice", member.RoleMember)
	return f
}

func addMember(t *testing.T, ctx context.Context, users user.Repository, members member.Repository, workspaceID, name string, role member.Role) (*user.User, *member.Member) {
	t.Helper()
	u := &user.User{ID: ulid.Make().String(), Name: name, Email: name + "@example.com", CreatedAt: time.Now()}
	require.NoError(t, users.Create(ctx, u))
	m := &member.Member{
		ID:          ulid.Make().String(),
		WorkspaceID: workspaceID,
		UserID:      u.ID,
		Role:        role,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	require.NoError(t, members.Create(ctx, m))
	return u, m
}

func TestRequire(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := member.Require(ctx, f.members, f.workspaceID, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, f.aliceMember.ID, m.ID)

	_, err = member.Require(ctx, f.members, f.workspaceID, "no-such-user")
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.Unauthenticated))
}

func TestListEnrichesUserFields(t *testing.T) {
	f := newFixture(t)

	got, err := f.server.List(context.Background(), f.admin, f.workspaceID)
	require.NoError(t, err)
	require.Len(t, got, 2)

	byID := map[string]string{}
	for _, e := range got {
		byID[e.Member.ID] = e.Name
	}
	assert.Equal(t, "Alice", byID[f.aliceMember.ID])
	assert.Equal(t, "Admin", byID[f.adminMember.ID])
}

func TestUpdateRoleAdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.server.UpdateRole(ctx, f.alice, f.adminMember.ID, &member.UpdateRoleRequest{Role: member.RoleMember})
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.PermissionDenied))

	updated, err := f.server.UpdateRole(ctx, f.admin, f.aliceMember.ID, &member.UpdateRoleRequest{Role: member.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, member.RoleAdmin, updated.Role)
}

func TestDeleteRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// a plain member cannot remove someone else
	_, err := f.server.Delete(ctx, f.alice, f.adminMember.ID)
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.PermissionDenied))

	// but may remove themselves
	id, err := f.server.Delete(ctx, f.alice, f.aliceMember.ID)
	require.NoError(t, err)
	assert.Equal(t, f.aliceMember.ID, id)

	// the last remaining member cannot be removed
	_, err = f.server.Delete(ctx, f.admin, f.adminMember.ID)
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.PermissionDenied))
}
