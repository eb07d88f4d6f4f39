package comment

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"
	"github.com/sourcegraph/conc/pool"

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
	likes   LikeRepository
	tasks   task.Repository
	members member.Repository
	users   user.Repository
	bus     *eventbus.Bus
}

func NewServer(repo Repository, likes LikeRepository, tasks task.Repository, members member.Repository, users user.Repository, bus *eventbus.Bus) *Server {
	return &Server{
		repo:    repo,
		likes:   likes,
		tasks:   tasks,
		members: members,
		users:   users,
		bus:     bus,
	}
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/{taskID}", s.handleList)
	r.Post("/{taskID}", s.handleCreate)
	r.Post("/{taskID}/{parentID}", s.handleReply)
	r.Post("/{commentID}/like", s.handleToggleLike)
	r.Delete("/{commentID}", s.handleDelete)
}

type envelope struct {
	Data any `json:"data"`
}

// Enriched is a comment plus the fields a thread view needs.
type Enriched struct {
	*Comment
	AuthorName string `json:"authorName"`
	Likes      int    `json:"likes"`
	Liked      bool   `json:"liked"`
}

// List returns a task's comment thread, oldest first, to workspace members.
func (s *Server) List(ctx context.Context, actor *user.User, taskID string) ([]*Enriched, error) {
	t, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := member.Require(ctx, s.members, t.WorkspaceID, actor.ID); err != nil {
		return nil, err
	}
	comments, err := s.repo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	enriched := make([]*Enriched, len(comments))
	p := pool.New().WithContext(ctx).WithCancelOnError()
	for i, c := range comments {
		i, c := i, c
		p.Go(func(ctx context.Context) error {
			e, err := s.enrich(ctx, actor, c)
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

type CreateRequest struct {
	Content string `json:"content" validate:"required,min=1"`
}

// Create adds a comment to a task. parentID is empty for top-level comments.
func (s *Server) Create(ctx context.Context, actor *user.User, taskID, parentID string, req *CreateRequest) (*Comment, error) {
	if err := validate.Struct(req); err != nil {
		return nil, cerr.NewValidationError(err)
	}
	t, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := member.Require(ctx, s.members, t.WorkspaceID, actor.ID); err != nil {
		return nil, err
	}
	if parentID != "" {
		parent, err := s.repo.Get(ctx, parentID)
		if err != nil {
			return nil, err
		}
		if parent.TaskID != taskID {
			return nil, cerr.NewError(cerr.InvalidArgument, "parent comment belongs to another task", nil)
		}
	}

	now := time.Now()
	c := &Comment{
		ID:          ulid.Make().String(),
		TaskID:      taskID,
		WorkspaceID: t.WorkspaceID,
		AuthorID:    actor.ID,
		Content:     req.Content,
		ParentID:    parentID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.bus.PublishNew(actor.ID, "comment", c.ID, "create", map[string]any{"taskId": taskID})
	return c, nil
}

// ToggleLike likes the comment when the caller has not liked it yet and
// removes the like otherwise. Returns the resulting state.
func (s *Server) ToggleLike(ctx context.Context, actor *user.User, commentID string) (liked bool, likes int, err error) {
	c, err := s.repo.Get(ctx, commentID)
	if err != nil {
		return false, 0, err
	}
	if _, err := member.Require(ctx, s.members, c.WorkspaceID, actor.ID); err != nil {
		return false, 0, err
	}

	existing, err := s.likes.Resolve(ctx, commentID, actor.ID)
	if err != nil {
		return false, 0, err
	}
	if existing != nil {
		if err := s.likes.Delete(ctx, existing.ID); err != nil {
			return false, 0, err
		}
		liked = false
	} else {
		l := &Like{
			ID:        ulid.Make().String(),
			CommentID: commentID,
			UserID:    actor.ID,
			CreatedAt: time.Now(),
		}
		if err := s.likes.Create(ctx, l); err != nil {
			return false, 0, err
		}
		liked = true
	}
	likes, err = s.likes.CountByComment(ctx, commentID)
	if err != nil {
		return false, 0, err
	}
	return liked, likes, nil
}

// Delete removes a comment. Authors delete their own; admins any.
func (s *Server) Delete(ctx context.Context, actor *user.User, commentID string) (string, error) {
	c, err := s.repo.Get(ctx, commentID)
	if err != nil {
		return "", err
	}
	m, err := member.Require(ctx, s.members, c.WorkspaceID, actor.ID)
	if err != nil {
		return "", err
	}
	if c.AuthorID != actor.ID && m.Role != member.RoleAdmin {
		return "", cerr.NewError(cerr.PermissionDenied, "you can only delete your own comments", nil)
	}

	if err := s.repo.Delete(ctx, commentID); err != nil {
		return "", err
	}

	s.bus.PublishNew(actor.ID, "comment", c.ID, "delete", map[string]any{"taskId": c.TaskID})
	return c.ID, nil
}

func (s *Server) enrich(ctx context.Context, actor *user.User, c *Comment) (*Enriched, error) {
	e := &Enriched{Comment: c, AuthorName: "Unknown"}
	u, err := s.users.Get(ctx, c.AuthorID)
	if err != nil && !cerr.IsCode(err, cerr.NotFound) {
		return nil, err
	}
	if u != nil {
		e.AuthorName = u.DisplayName()
	}
	e.Likes, err = s.likes.CountByComment(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	mine, err := s.likes.Resolve(ctx, c.ID, actor.ID)
	if err != nil {
		return nil, err
	}
	e.Liked = mine != nil
	return e, nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	comments, err := s.List(ctx, auth.UserFromContext(ctx), chi.URLParam(r, "taskID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, envelope{Data: comments})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CreateRequest
	if err := cerr.DecodeJSON(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	c, err := s.Create(ctx, auth.UserFromContext(ctx), chi.URLParam(r, "taskID"), "", &req)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, envelope{Data: c})
}

func (s *Server) handleReply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CreateRequest
	if err := cerr.DecodeJSON(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	c, err := s.Create(ctx, auth.UserFromContext(ctx), chi.URLParam(r, "taskID"), chi.URLParam(r, "parentID"), &req)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, envelope{Data: c})
}

func (s *Server) handleToggleLike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	liked, likes, err := s.ToggleLike(ctx, auth.UserFromContext(ctx), chi.URLParam(r, "commentID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, envelope{Data: map[string]any{"liked": liked, "likes": likes}})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := s.Delete(ctx, auth.UserFromContext(ctx), chi.URLParam(r, "commentID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, envelope{Data: map[string]string{"id": id}})
}
