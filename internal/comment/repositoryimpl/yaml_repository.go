package repositoryimpl

import (
	"context"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/nexboard/nexboard/internal/comment"
	"github.com/nexboard/nexboard/pkg/cerr"
	"github.com/nexboard/nexboard/pkg/storage"
)

const (
	commentsPrefix = "comments"
	likesPrefix    = "likes"
)

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id string) string {
	return fmt.Sprintf("%s/%s.yaml", commentsPrefix, id)
}

func (r *YAMLRepository) Create(ctx context.Context, c *comment.Comment) error {
	exists, err := r.storage.Exists(ctx, path(c.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("comment", err)
	}
	if exists {
		return cerr.NewError(cerr.AlreadyExists, "comment already exists", nil)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal comment: %w", err))
	}
	if err := r.storage.Write(ctx, path(c.ID), data); err != nil {
		return cerr.WrapStorageWriteError("comment", err)
	}
	return nil
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*comment.Comment, error) {
	data, err := r.storage.Read(ctx, path(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("comment", err)
	}
	var c comment.Comment
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal comment: %w", err))
	}
	return &c, nil
}

func (r *YAMLRepository) ListByTask(ctx context.Context, taskID string) ([]*comment.Comment, error) {
	paths, err := r.storage.List(ctx, commentsPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("comments", err)
	}
	sort.Strings(paths)

	var out []*comment.Comment
	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		var c comment.Comment
		if err := yaml.Unmarshal(data, &c); err != nil {
			continue
		}
		if c.TaskID == taskID {
			out = append(out, &c)
		}
	}
	// oldest first, the order a thread reads in
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	if err := r.storage.Delete(ctx, path(id)); err != nil {
		return cerr.WrapStorageDeleteError("comment", err)
	}
	return nil
}

type YAMLLikeRepository struct {
	storage storage.Storage
}

func NewYAMLLikeRepository(s storage.Storage) *YAMLLikeRepository {
	return &YAMLLikeRepository{storage: s}
}

func likePath(id string) string {
	return fmt.Sprintf("%s/%s.yaml", likesPrefix, id)
}

func (r *YAMLLikeRepository) Create(ctx context.Context, l *comment.Like) error {
	data, err := yaml.Marshal(l)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal like: %w", err))
	}
	if err := r.storage.Write(ctx, likePath(l.ID), data); err != nil {
		return cerr.WrapStorageWriteError("like", err)
	}
	return nil
}

func (r *YAMLLikeRepository) Resolve(ctx context.Context, commentID, userID string) (*comment.Like, error) {
	all, err := r.list(ctx)
	if err != nil {
		return nil, err
	}
	for _, l := range all {
		if l.CommentID == commentID && l.UserID == userID {
			return l, nil
		}
	}
	return nil, nil
}

func (r *YAMLLikeRepository) CountByComment(ctx context.Context, commentID string) (int, error) {
	all, err := r.list(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, l := range all {
		if l.CommentID == commentID {
			n++
		}
	}
	return n, nil
}

func (r *YAMLLikeRepository) Delete(ctx context.Context, id string) error {
	if err := r.storage.Delete(ctx, likePath(id)); err != nil {
		return cerr.WrapStorageDeleteError("like", err)
	}
	return nil
}

func (r *YAMLLikeRepository) list(ctx context.Context) ([]*comment.Like, error) {
	paths, err := r.storage.List(ctx, likesPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("likes", err)
	}
	var all []*comment.Like
	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		var l comment.Like
		if err := yaml.Unmarshal(data, &l); err != nil {
			continue
		}
		all = append(all, &l)
	}
	return all, nil
}
