package member

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sourcegraph/conc/pool"

	"github.com/nexboard/nexboard/internal/auth"
	"github.com/nexboard/nexboard/internal/eventbus"
	"github.com/nexboard/nexboard/internal/user"
	"github.com/nexboard/nexboard/pkg/cerr"
)

var validate = validator.New()

type Server struct {
	repo  Repository
	users user.Repository
	bus   *eventbus.Bus
}

func NewServer(repo Repository, users user.Repository, bus *eventbus.Bus) *Server {
	return &Server{
		repo:  repo,
		users: users,
		bus:   bus,
	}
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/", s.handleList)
	r.Get("/{memberID}", s.handleGetByUser)
	r.Patch("/{memberID}", s.handleUpdateRole)
	r.Delete("/{memberID}", s.handleDelete)
}

// Enriched is a member together with the user directory fields the board UI
// shows next to it.
type Enriched struct {
	*Member
	Name  string `json:"name"`
	Email string `json:"email"`
}

type envelope struct {
	Data any `json:"data"`
}

// List returns all members of the workspace, enriched with user names. The
// caller must be a member.
func (s *Server) List(ctx context.Context, actor *user.User, workspaceID string) ([]*Enriched, error) {
	if _, err := Require(ctx, s.repo, workspaceID, actor.ID); err != nil {
		return nil, err
	}
	members, err := s.repo.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	p := pool.NewWithResults[*Enriched]().WithContext(ctx).WithCancelOnError()
	for _, m := range members {
		m := m
		p.Go(func(ctx context.Context) (*Enriched, error) {
			return s.enrich(ctx, m)
		})
	}
	return p.Wait()
}

// GetByUser looks a member up by user id. Kept for board URLs that reference
// people by account rather than by membership.
func (s *Server) GetByUser(ctx context.Context, userID string) (*Enriched, error) {
	memberships, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return nil, cerr.NewError(cerr.NotFound, "member not found", nil)
	}
	return s.enrich(ctx, memberships[0])
}

type UpdateRoleRequest struct {
	Role Role `json:"role" validate:"required"`
}

// UpdateRole changes a member's role. Only admins may do this, and the last
// remaining member of a workspace cannot be downgraded.
func (s *Server) UpdateRole(ctx context.Context, actor *user.User, memberID string, req *UpdateRoleRequest) (*Member, error) {
	if err := validate.Struct(req); err != nil {
		return nil, cerr.NewValidationError(err)
	}
	if !req.Role.Valid() {
		return nil, cerr.NewError(cerr.InvalidArgument, "unknown role", nil)
	}
	target, err := s.repo.Get(ctx, memberID)
	if err != nil {
		return nil, err
	}
	actorMember, err := Require(ctx, s.repo, target.WorkspaceID, actor.ID)
	if err != nil {
		return nil, err
	}
	if actorMember.Role != RoleAdmin {
		return nil, cerr.NewError(cerr.PermissionDenied, "only admins can change roles", nil)
	}
	all, err := s.repo.ListByWorkspace(ctx, target.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if len(all) == 1 {
		return nil, cerr.NewError(cerr.PermissionDenied, "cannot downgrade the only member", nil)
	}

	target.Role = req.Role
	if err := s.repo.Update(ctx, target); err != nil {
		return nil, err
	}

	s.bus.PublishNew(actor.ID, "member", target.ID, "update", map[string]any{"role": req.Role})
	return target, nil
}

// Delete removes a member from a workspace. A member may remove themselves;
// removing anyone else requires the admin role. The last member of a
// workspace cannot be removed.
func (s *Server) Delete(ctx context.Context, actor *user.User, memberID string) (string, error) {
	target, err := s.repo.Get(ctx, memberID)
	if err != nil {
		return "", err
	}
	actorMember, err := Require(ctx, s.repo, target.WorkspaceID, actor.ID)
	if err != nil {
		return "", err
	}
	if actorMember.ID != target.ID && actorMember.Role != RoleAdmin {
		return "", cerr.NewError(cerr.PermissionDenied, "only admins can remove other members", nil)
	}
	all, err := s.repo.ListByWorkspace(ctx, target.WorkspaceID)
	if err != nil {
		return "", err
	}
	if len(all) == 1 {
		return "", cerr.NewError(cerr.PermissionDenied, "cannot delete the only member", nil)
	}

	if err := s.repo.Delete(ctx, memberID); err != nil {
		return "", err
	}

	s.bus.PublishNew(actor.ID, "member", target.ID, "delete", map[string]any{"deletedBy": actor.ID})
	return target.ID, nil
}

func (s *Server) enrich(ctx context.Context, m *Member) (*Enriched, error) {
	e := &Enriched{Member: m, Name: "Unknown"}
	u, err := s.users.Get(ctx, m.UserID)
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			// account deleted after the membership was created
			return e, nil
		}
		return nil, err
	}
	e.Name = u.DisplayName()
	e.Email = u.Email
	return e, nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workspaceID := r.URL.Query().Get("workspaceId")
	if workspaceID == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "workspaceId is required", nil)
		return
	}
	members, err := s.List(ctx, auth.UserFromContext(ctx), workspaceID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, envelope{Data: members})
}

func (s *Server) handleGetByUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	m, err := s.GetByUser(ctx, chi.URLParam(r, "memberID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, envelope{Data: m})
}

func (s *Server) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req UpdateRoleRequest
	if err := cerr.DecodeJSON(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	m, err := s.UpdateRole(ctx, auth.UserFromContext(ctx), chi.URLParam(r, "memberID"), &req)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, envelope{Data: m})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := s.Delete(ctx, auth.UserFromContext(ctx), chi.URLParam(r, "memberID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, envelope{Data: map[string]string{"id": id}})
}
