package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageReadWriteDelete(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = s.Read(ctx, "tasks/missing.yaml")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.Write(ctx, "tasks/t1.yaml", []byte("name: hello")))

	data, err := s.Read(ctx, "tasks/t1.yaml")
	require.NoError(t, err)
	assert.Equal(t, "name: hello", string(data))

	exists, err := s.Exists(ctx, "tasks/t1.yaml")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, s.Delete(ctx, "tasks/t1.yaml"))

	exists, err = s.Exists(ctx, "tasks/t1.yaml")
	require.NoError(t, err)
	assert.False(t, exists)

	err = s.Delete(ctx, "tasks/t1.yaml")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLocalStorageList(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, "tasks/t1.yaml", []byte("a")))
	require.NoError(t, s.Write(ctx, "tasks/t2.yaml", []byte("b")))
	require.NoError(t, s.Write(ctx, "projects/p1.yaml", []byte("c")))

	paths, err := s.List(ctx, "tasks")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tasks/t1.yaml", "tasks/t2.yaml"}, paths)

	paths, err = s.List(ctx, "empty-prefix")
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestLocalStorageOverwrite(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, "tasks/t1.yaml", []byte("v1")))
	require.NoError(t, s.Write(ctx, "tasks/t1.yaml", []byte("v2")))

	data, err := s.Read(ctx, "tasks/t1.yaml")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}
