package task

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sourcegraph/conc/pool"

	"github.com/nexboard/nexboard/internal/auth"
	"github.com/nexboard/nexboard/internal/eventbus"
	"github.com/nexboard/nexboard/internal/member"
	"github.com/nexboard/nexboard/internal/user"
	"github.com/nexboard/nexboard/pkg/cerr"
)

var validate = validator.New()

// ProjectSummary is the slice of a project a task response embeds. Defined
// here so the project package can depend on this one without a cycle.
type ProjectSummary struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspaceId"`
	Name        string `json:"name"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// ProjectResolver looks up the summary of a project by id.
type ProjectResolver interface {
	ProjectSummary(ctx context.Context, id string) (*ProjectSummary, error)
}

type Server struct {
	repo     Repository
	members  member.Repository
	users    user.Repository
	projects ProjectResolver
	bus      *eventbus.Bus
}

func NewServer(repo Repository, members member.Repository, users user.Repository, projects ProjectResolver, bus *eventbus.Bus) *Server {
	return &Server{
		repo:     repo,
		members:  members,
		users:    users,
		projects: projects,
		bus:      bus,
	}
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/", s.handleList)
	r.Post("/", s.handleCreate)
	r.Post("/bulk-update", s.handleBulkUpdate)
	r.Get("/{taskID}", s.handleGet)
	r.Patch("/{taskID}", s.handleUpdate)
	r.Delete("/{taskID}", s.handleDelete)
}

type envelope struct {
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

// Assignee is the member a task points at, enriched with directory fields.
type Assignee struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
}

// Enriched is a task together with its project and assignee summaries.
// Project and Assignee may be nil when the referenced record was deleted.
type Enriched struct {
	*Task
	Project  *ProjectSummary `json:"project,omitempty"`
	Assignee *Assignee       `json:"assignee,omitempty"`
}

// List returns the workspace's tasks, newest first, filtered and enriched.
// The caller must be a member of the workspace.
func (s *Server) List(ctx context.Context, actor *user.User, f Filter) ([]*Enriched, error) {
	if _, err := member.Require(ctx, s.members, f.WorkspaceID, actor.ID); err != nil {
		return nil, err
	}
	tasks, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}

	// indexed writes keep the sorted order the repository returned
	enriched := make([]*Enriched, len(tasks))
	p := pool.New().WithContext(ctx).WithCancelOnError()
	for i, t := range tasks {
		i, t := i, t
		p.Go(func(ctx context.Context) error {
			e, err := s.enrich(ctx, t)
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

// Get returns one task enriched with its project and assignee.
func (s *Server) Get(ctx context.Context, actor *user.User, id string) (*Enriched, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := member.Require(ctx, s.members, t.WorkspaceID, actor.ID); err != nil {
		return nil, err
	}
	return s.enrich(ctx, t)
}

func (s *Server) enrich(ctx context.Context, t *Task) (*Enriched, error) {
	e := &Enriched{Task: t}

	proj, err := s.projects.ProjectSummary(ctx, t.ProjectID)
	if err != nil && !cerr.IsCode(err, cerr.NotFound) {
		return nil, err
	}
	e.Project = proj

	if t.AssigneeID == "" {
		return e, nil
	}
	m, err := s.members.Get(ctx, t.AssigneeID)
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			return e, nil
		}
		return nil, err
	}
	a := &Assignee{ID: m.ID, UserID: m.UserID, Name: "Unknown"}
	u, err := s.users.Get(ctx, m.UserID)
	if err != nil && !cerr.IsCode(err, cerr.NotFound) {
		return nil, err
	}
	if u != nil {
		a.Name = u.DisplayName()
		a.Email = u.Email
	}
	e.Assignee = a
	return e, nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	if q.Get("workspaceId") == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "workspaceId is required", nil)
		return
	}
	f := Filter{
		WorkspaceID: q.Get("workspaceId"),
		ProjectID:   q.Get("projectId"),
		AssigneeID:  q.Get("assigneeId"),
		Status:      Status(q.Get("status")),
		Priority:    Priority(q.Get("priority")),
		Search:      q.Get("search"),
	}
	if f.Status != "" && !f.Status.Valid() {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "unknown status", nil)
		return
	}
	if f.Priority != "" && !f.Priority.Valid() {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "unknown priority", nil)
		return
	}
	if raw := q.Get("dueDate"); raw != "" {
		due, err := parseDueDate(raw)
		if err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
		f.DueDate = &due
	}

	tasks, err := s.List(ctx, auth.UserFromContext(ctx), f)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, envelope{Data: tasks})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	t, err := s.Get(ctx, auth.UserFromContext(ctx), chi.URLParam(r, "taskID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, envelope{Data: t})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CreateRequest
	if err := cerr.DecodeJSON(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	t, err := s.Create(ctx, auth.UserFromContext(ctx), &req)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, envelope{Data: t})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req UpdateRequest
	if err := cerr.DecodeJSON(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	t, err := s.Update(ctx, auth.UserFromContext(ctx), chi.URLParam(r, "taskID"), &req)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, envelope{Data: t})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := s.Delete(ctx, auth.UserFromContext(ctx), chi.URLParam(r, "taskID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, envelope{Data: map[string]string{"id": id}})
}

func (s *Server) handleBulkUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req BulkUpdateRequest
	if err := cerr.DecodeJSON(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	tasks, message, err := s.BulkUpdate(ctx, auth.UserFromContext(ctx), &req)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, envelope{Data: tasks, Message: message})
}

func parseDueDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, cerr.NewError(cerr.InvalidArgument, "dueDate must be RFC 3339 or YYYY-MM-DD", err)
	}
	return t.UTC(), nil
}
