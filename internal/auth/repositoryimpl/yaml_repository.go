package repositoryimpl

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/nexboard/nexboard/internal/auth"
	"github.com/nexboard/nexboard/pkg/cerr"
	"github.com/nexboard/nexboard/pkg/storage"
)

const sessionsPrefix = "sessions"

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(token string) string {
	return fmt.Sprintf("%s/%s.yaml", sessionsPrefix, token)
}

func (r *YAMLRepository) Get(ctx context.Context, token string) (*auth.Session, error) {
	data, err := r.storage.Read(ctx, path(token))
	if err != nil {
		return nil, cerr.WrapStorageReadError("session", err)
	}
	var s auth.Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal session: %w", err))
	}
	return &s, nil
}

func (r *YAMLRepository) Create(ctx context.Context, s *auth.Session) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal session: %w", err))
	}
	if err := r.storage.Write(ctx, path(s.Token), data); err != nil {
		return cerr.WrapStorageWriteError("session", err)
	}
	return nil
}

func (r *YAMLRepository) Delete(ctx context.Context, token string) error {
	if err := r.storage.Delete(ctx, path(token)); err != nil {
		return cerr.WrapStorageDeleteError("session", err)
	}
	return nil
}
