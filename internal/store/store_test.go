package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s StateStore) {
	t.Helper()
	ctx := context.Background()

	_, found, err := s.Load(ctx, DefaultKey)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Save(ctx, DefaultKey, "<b>12</b>"))
	v, found, err := s.Load(ctx, DefaultKey)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "<b>12</b>", v)

	require.NoError(t, s.Save(ctx, DefaultKey, "<b>13</b>"))
	v, _, err = s.Load(ctx, DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, "<b>13</b>", v)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	exerciseStore(t, s)

	data, err := os.ReadFile(filepath.Join(dir, "review_data.txt"))
	require.NoError(t, err)
	assert.Equal(t, "<b>13</b>", string(data))
}

func TestFileStoreOverwritesShorterValue(t *testing.T) {
	s := NewFileStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, DefaultKey, "<b>100 reviews</b>"))
	require.NoError(t, s.Save(ctx, DefaultKey, "<b>9</b>"))

	v, _, err := s.Load(ctx, DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, "<b>9</b>", v)
}

func TestFileStoreUnreadable(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	require.NoError(t, os.Mkdir(s.Path(DefaultKey), 0o755))

	_, _, err := s.Load(context.Background(), DefaultKey)
	require.Error(t, err)

	var se *StorageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "load", se.Op)
	assert.Equal(t, DefaultKey, se.Key)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewStore("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.EnsureSchema(context.Background()))
	exerciseStore(t, s)
}

func TestSQLiteStoreWithoutSchema(t *testing.T) {
	s, err := NewStore("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	_, _, err = s.Load(context.Background(), DefaultKey)
	var se *StorageError
	assert.True(t, errors.As(err, &se))
}

func TestNewStoreRejectsUnknownDriver(t *testing.T) {
	_, err := NewStore("mysql", "")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	s := &Store{driver: "sqlite"}
	assert.Equal(t, "SELECT ? , ?, '$x'", s.rebind("SELECT $1 , $2, '$x'"))

	pg := &Store{driver: "postgres"}
	assert.Equal(t, "SELECT $1", pg.rebind("SELECT $1"))
}
