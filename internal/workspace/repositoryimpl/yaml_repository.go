package repositoryimpl

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/nexboard/nexboard/internal/workspace"
	"github.com/nexboard/nexboard/pkg/cerr"
	"github.com/nexboard/nexboard/pkg/storage"
)

const workspacesPrefix = "workspaces"

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id string) string {
	return fmt.Sprintf("%s/%s.yaml", workspacesPrefix, id)
}

func (r *YAMLRepository) Create(ctx context.Context, w *workspace.Workspace) error {
	exists, err := r.storage.Exists(ctx, path(w.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("workspace", err)
	}
	if exists {
		return cerr.NewError(cerr.AlreadyExists, "workspace already exists", nil)
	}
	data, err := yaml.Marshal(w)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal workspace: %w", err))
	}
	if err := r.storage.Write(ctx, path(w.ID), data); err != nil {
		return cerr.WrapStorageWriteError("workspace", err)
	}
	return nil
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*workspace.Workspace, error) {
	data, err := r.storage.Read(ctx, path(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("workspace", err)
	}
	var w workspace.Workspace
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal workspace: %w", err))
	}
	return &w, nil
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	if err := r.storage.Delete(ctx, path(id)); err != nil {
		return cerr.WrapStorageDeleteError("workspace", err)
	}
	return nil
}
