package activity

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sourcegraph/conc/pool"

	"github.com/nexboard/nexboard/internal/auth"
	"github.com/nexboard/nexboard/internal/project"
	"github.com/nexboard/nexboard/internal/task"
	"github.com/nexboard/nexboard/internal/user"
	"github.com/nexboard/nexboard/internal/workspace"
	"github.com/nexboard/nexboard/pkg/cerr"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

type Server struct {
	repo       Repository
	users      user.Repository
	tasks      task.Repository
	projects   project.Repository
	workspaces workspace.Repository
}

func NewServer(repo Repository, users user.Repository, tasks task.Repository, projects project.Repository, workspaces workspace.Repository) *Server {
	return &Server{
		repo:       repo,
		users:      users,
		tasks:      tasks,
		projects:   projects,
		workspaces: workspaces,
	}
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/", s.handleList)
}

type envelope struct {
	Data any `json:"data"`
}

// Enriched is a log entry plus display fields resolved at read time. Entity
// names fall back to a tombstone label when the entity no longer exists.
type Enriched struct {
	*Log
	UserName   string `json:"userName"`
	UserEmail  string `json:"userEmail,omitempty"`
	EntityName string `json:"entityName,omitempty"`
}

// List returns activity entries, newest first. Without a userId filter it
// returns the caller's own activity.
func (s *Server) List(ctx context.Context, actor *user.User, f Filter) ([]*Enriched, error) {
	if f.UserID == "" {
		f.UserID = actor.ID
	}
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}

	logs, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}

	enriched := make([]*Enriched, len(logs))
	p := pool.New().WithContext(ctx).WithCancelOnError()
	for i, l := range logs {
		i, l := i, l
		p.Go(func(ctx context.Context) error {
			e, err := s.enrich(ctx, l)
			if err != nil {
				return err
			}
			enriched[i] = e
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return enriched, nil
}

func (s *Server) enrich(ctx context.Context, l *Log) (*Enriched, error) {
	e := &Enriched{Log: l, UserName: "Unknown"}
	u, err := s.users.Get(ctx, l.UserID)
	if err != nil && !cerr.IsCode(err, cerr.NotFound) {
		return nil, err
	}
	if u != nil {
		e.UserName = u.DisplayName()
		e.UserEmail = u.Email
	}

	switch l.EntityType {
	case "task":
		if t, err := s.tasks.Get(ctx, l.EntityID); err == nil {
			e.EntityName = t.Name
		} else if cerr.IsCode(err, cerr.NotFound) {
			e.EntityName = "Deleted Task"
		} else {
			return nil, err
		}
	case "project":
		if p, err := s.projects.Get(ctx, l.EntityID); err == nil {
			e.EntityName = p.Name
		} else if cerr.IsCode(err, cerr.NotFound) {
			e.EntityName = "Deleted Project"
		} else {
			return nil, err
		}
	case "workspace":
		if w, err := s.workspaces.Get(ctx, l.EntityID); err == nil {
			e.EntityName = w.Name
		} else if cerr.IsCode(err, cerr.NotFound) {
			e.EntityName = "Deleted Workspace"
		} else {
			return nil, err
		}
	}
	return e, nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	f := Filter{
		UserID:     q.Get("userId"),
		EntityType: q.Get("entityType"),
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "limit must be a non-negative integer", nil)
			return
		}
		f.Limit = n
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "offset must be a non-negative integer", nil)
			return
		}
		f.Offset = n
	}

	logs, err := s.List(ctx, auth.UserFromContext(ctx), f)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, envelope{Data: logs})
}
