package repositoryimpl

import (
	"context"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/nexboard/nexboard/internal/activity"
	"github.com/nexboard/nexboard/pkg/cerr"
	"github.com/nexboard/nexboard/pkg/storage"
)

const activitiesPrefix = "activities"

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id string) string {
	return fmt.Sprintf("%s/%s.yaml", activitiesPrefix, id)
}

func (r *YAMLRepository) Append(ctx context.Context, l *activity.Log) error {
	data, err := yaml.Marshal(l)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal activity log: %w", err))
	}
	if err := r.storage.Write(ctx, path(l.ID), data); err != nil {
		return cerr.WrapStorageWriteError("activity log", err)
	}
	return nil
}

func (r *YAMLRepository) List(ctx context.Context, f activity.Filter) ([]*activity.Log, error) {
	paths, err := r.storage.List(ctx, activitiesPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("activity logs", err)
	}

	var all []*activity.Log
	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		var l activity.Log
		if err := yaml.Unmarshal(data, &l); err != nil {
			continue
		}
		if f.UserID != "" && l.UserID != f.UserID {
			continue
		}
		if f.EntityType != "" && l.EntityType != f.EntityType {
			continue
		}
		all = append(all, &l)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Timestamp.After(all[j].Timestamp) })

	if f.Offset > 0 {
		if f.Offset >= len(all) {
			return nil, nil
		}
		all = all[f.Offset:]
	}
	if f.Limit > 0 && len(all) > f.Limit {
		all = all[:f.Limit]
	}
	return all, nil
}
