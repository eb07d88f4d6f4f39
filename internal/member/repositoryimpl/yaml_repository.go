package repositoryimpl

import (
	"context"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/nexboard/nexboard/internal/member"
	"github.com/nexboard/nexboard/pkg/cerr"
	"github.com/nexboard/nexboard/pkg/storage"
)

const membersPrefix = "members"

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id string) string {
	return fmt.Sprintf("%s/%s.yaml", membersPrefix, id)
}

func (r *YAMLRepository) Create(ctx context.Context, m *member.Member) error {
	exists, err := r.storage.Exists(ctx, path(m.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("member", err)
	}
	if exists {
		return cerr.NewError(cerr.AlreadyExists, "member already exists", nil)
	}
	return r.write(ctx, m)
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*member.Member, error) {
	data, err := r.storage.Read(ctx, path(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("member", err)
	}
	var m member.Member
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal member: %w", err))
	}
	return &m, nil
}

func (r *YAMLRepository) Resolve(ctx context.Context, workspaceID, userID string) (*member.Member, error) {
	all, err := r.list(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range all {
		if m.WorkspaceID == workspaceID && m.UserID == userID {
			return m, nil
		}
	}
	return nil, nil
}

func (r *YAMLRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]*member.Member, error) {
	all, err := r.list(ctx)
	if err != nil {
		return nil, err
	}
	var out []*member.Member
	for _, m := range all {
		if m.WorkspaceID == workspaceID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *YAMLRepository) ListByUser(ctx context.Context, userID string) ([]*member.Member, error) {
	all, err := r.list(ctx)
	if err != nil {
		return nil, err
	}
	var out []*member.Member
	for _, m := range all {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *YAMLRepository) Update(ctx context.Context, m *member.Member) error {
	exists, err := r.storage.Exists(ctx, path(m.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("member", err)
	}
	if !exists {
		return cerr.NewError(cerr.NotFound, "member not found", nil)
	}
	return r.write(ctx, m)
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	if err := r.storage.Delete(ctx, path(id)); err != nil {
		return cerr.WrapStorageDeleteError("member", err)
	}
	return nil
}

func (r *YAMLRepository) write(ctx context.Context, m *member.Member) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal member: %w", err))
	}
	if err := r.storage.Write(ctx, path(m.ID), data); err != nil {
		return cerr.WrapStorageWriteError("member", err)
	}
	return nil
}

func (r *YAMLRepository) list(ctx context.Context) ([]*member.Member, error) {
	paths, err := r.storage.List(ctx, membersPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("members", err)
	}
	sort.Strings(paths)

	var all []*member.Member
	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		var m member.Member
		if err := yaml.Unmarshal(data, &m); err != nil {
			continue
		}
		all = append(all, &m)
	}
	return all, nil
}
