package workspace

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
	"github.com/nexboard/nexboard/internal/user"
	"github.com/nexboard/nexboard/pkg/cerr"
)

var validate = validator.New()

type Server struct {
	repo    Repository
	members member.Repository
	bus     *eventbus.Bus
}

func NewServer(repo Repository, members member.Repository, bus *eventbus.Bus) *Server {
	return &Server{
		repo:    repo,
		members: members,
		bus:     bus,
	}
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/", s.handleList)
	r.Post("/", s.handleCreate)
	r.Get("/{workspaceID}", s.handleGet)
}

type envelope struct {
	Data any `json:"data"`
}

type CreateRequest struct {
	Name     string `json:"name" validate:"required,min=1"`
	ImageURL string `json:"imageUrl" validate:"omitempty,url"`
}

// Create creates a workspace and makes the creator its first admin member.
func (s *Server) Create(ctx context.Context, actor *user.User, req *CreateRequest) (*Workspace, error) {
	if err := validate.Struct(req); err != nil {
		return nil, cerr.NewValidationError(err)
	}

	now := time.Now()
	w := &Workspace{
		ID:        ulid.Make().String(),
		Name:      req.Name,
		ImageURL:  req.ImageURL,
		OwnerID:   actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, w); err != nil {
		return nil, err
	}
	m := &member.Member{
		ID:          ulid.Make().String(),
		WorkspaceID: w.ID,
		UserID:      actor.ID,
		Role:        member.RoleAdmin,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.members.Create(ctx, m); err != nil {
		return nil, err
	}

	s.bus.PublishNew(actor.ID, "workspace", w.ID, "create", map[string]any{"name": w.Name})
	return w, nil
}

// Get returns a workspace to its members.
func (s *Server) Get(ctx context.Context, actor *user.User, id string) (*Workspace, error) {
	w, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := member.Require(ctx, s.members, w.ID, actor.ID); err != nil {
		return nil, err
	}
	return w, nil
}

// List returns the workspaces the caller is a member of.
func (s *Server) List(ctx context.Context, actor *user.User) ([]*Workspace, error) {
	memberships, err := s.members.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	workspaces := make([]*Workspace, 0, len(memberships))
	for _, m := range memberships {
		w, err := s.repo.Get(ctx, m.WorkspaceID)
		if err != nil {
			if cerr.IsCode(err, cerr.NotFound) {
				continue
			}
			return nil, err
		}
		workspaces = append(workspaces, w)
	}
	return workspaces, nil
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CreateRequest
	if err := cerr.DecodeJSON(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	ws, err := s.Create(ctx, auth.UserFromContext(ctx), &req)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, envelope{Data: ws})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ws, err := s.Get(ctx, auth.UserFromContext(ctx), chi.URLParam(r, "workspaceID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, envelope{Data: ws})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workspaces, err := s.List(ctx, auth.UserFromContext(ctx))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, envelope{Data: workspaces})
}
