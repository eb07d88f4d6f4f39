package project

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"

	"github.com/nexboard/nexboard/internal/auth"
	"github.com/nexboard/nexboard/internal/eventbus"
	"github.com/nexboard/nexboard/internal/member"
	"github.com/nexboard/nexboard/internal/task"
	"github.com/nexboard/nexboard/internal/user"
	"github.com/nexboard/nexboard/pkg/cerr"
)

var validate = validator.New()

type Server struct {
	repo    Repository
	members member.Repository
	users   user.Repository
	tasks   task.Repository
	bus     *eventbus.Bus
}

func NewServer(repo Repository, members member.Repository, users user.Repository, tasks task.Repository, bus *eventbus.Bus) *Server {
	return &Server{
		repo:    repo,
		members: members,
		users:   users,
		tasks:   tasks,
		bus:     bus,
	}
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/", s.handleList)
	r.Post("/", s.handleCreate)
	r.Get("/{projectID}", s.handleGet)
	r.Patch("/{projectID}", s.handleUpdate)
	r.Delete("/{projectID}", s.handleDelete)
	r.Get("/{projectID}/analytics", s.handleAnalytics)
	r.Get("/{projectID}/workload", s.handleWorkload)
}

type envelope struct {
	Data any `json:"data"`
}

type CreateRequest struct {
	Name        string `json:"name" validate:"required,min=1"`
	WorkspaceID string `json:"workspaceId" validate:"required"`
	ImageURL    string `json:"imageUrl" validate:"omitempty,url"`
}

// Create makes a project in a workspace. Admins only.
func (s *Server) Create(ctx context.Context, actor *user.User, req *CreateRequest) (*Project, error) {
	if err := validate.Struct(req); err != nil {
		return nil, cerr.NewValidationError(err)
	}
	if err := s.requireAdmin(ctx, actor, req.WorkspaceID); err != nil {
		return nil, err
	}

	now := time.Now()
	p := &Project{
		ID:          ulid.Make().String(),
		WorkspaceID: req.WorkspaceID,
		Name:        req.Name,
		ImageURL:    req.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.bus.PublishNew(actor.ID, "project", p.ID, "create", map[string]any{"name": p.Name})
	return p, nil
}

// List returns the workspace's projects to its members.
func (s *Server) List(ctx context.Context, actor *user.User, workspaceID string) ([]*Project, error) {
	if _, err := member.Require(ctx, s.members, workspaceID, actor.ID); err != nil {
		return nil, err
	}
	return s.repo.ListByWorkspace(ctx, workspaceID)
}

// Get returns one project to a workspace member.
func (s *Server) Get(ctx context.Context, actor *user.User, id string) (*Project, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := member.Require(ctx, s.members, p.WorkspaceID, actor.ID); err != nil {
		return nil, err
	}
	return p, nil
}

type UpdateRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1"`
	ImageURL *string `json:"imageUrl" validate:"omitempty,url"`
}

// Update renames a project or swaps its image. Admins only.
func (s *Server) Update(ctx context.Context, actor *user.User, id string, req *UpdateRequest) (*Project, error) {
	if err := validate.Struct(req); err != nil {
		return nil, cerr.NewValidationError(err)
	}
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireAdmin(ctx, actor, p.WorkspaceID); err != nil {
		return nil, err
	}

	changes := map[string]any{}
	if req.Name != nil {
		p.Name = *req.Name
		changes["name"] = *req.Name
	}
	if req.ImageURL != nil {
		p.ImageURL = *req.ImageURL
		changes["imageUrl"] = *req.ImageURL
	}
	if len(changes) == 0 {
		return p, nil
	}
	p.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.bus.PublishNew(actor.ID, "project", p.ID, "update", changes)
	return p, nil
}

// Delete removes a project. Admins only. Tasks pointing at the project are
// left in place; task responses render a nil project summary for them.
func (s *Server) Delete(ctx context.Context, actor *user.User, id string) (string, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if err := s.requireAdmin(ctx, actor, p.WorkspaceID); err != nil {
		return "", err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return "", err
	}

	s.bus.PublishNew(actor.ID, "project", p.ID, "delete", map[string]any{"name": p.Name})
	return p.ID, nil
}

func (s *Server) requireAdmin(ctx context.Context, actor *user.User, workspaceID string) error {
	m, err := member.Require(ctx, s.members, workspaceID, actor.ID)
	if err != nil {
		return err
	}
	if m.Role != member.RoleAdmin {
		return cerr.NewError(cerr.PermissionDenied, "only admins can manage projects", nil)
	}
	return nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workspaceID := r.URL.Query().Get("workspaceId")
	if workspaceID == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "workspaceId is required", nil)
		return
	}
	projects, err := s.List(ctx, auth.UserFromContext(ctx), workspaceID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, envelope{Data: projects})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CreateRequest
	if err := cerr.DecodeJSON(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	p, err := s.Create(ctx, auth.UserFromContext(ctx), &req)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, envelope{Data: p})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := s.Get(ctx, auth.UserFromContext(ctx), chi.URLParam(r, "projectID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, envelope{Data: p})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req UpdateRequest
	if err := cerr.DecodeJSON(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	p, err := s.Update(ctx, auth.UserFromContext(ctx), chi.URLParam(r, "projectID"), &req)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, envelope{Data: p})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := s.Delete(ctx, auth.UserFromContext(ctx), chi.URLParam(r, "projectID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, envelope{Data: map[string]string{"id": id}})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	a, err := s.Analytics(ctx, auth.UserFromContext(ctx), chi.URLParam(r, "projectID"), time.Now())
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, envelope{Data: a})
}

func (s *Server) handleWorkload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	wl, err := s.Workload(ctx, auth.UserFromContext(ctx), chi.URLParam(r, "projectID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, envelope{Data: wl})
}
