package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore keeps each record as a flat text file named <key>.txt in dir.
// Writes replace the whole file.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = "."
	}
	return &FileStore{dir: dir}
}

func (s *FileStore) Path(key string) string {
	return filepath.Join(s.dir, key+".txt")
}

func (s *FileStore) Load(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, &StorageError{Op: "load", Key: key, Err: err}
	}
	data, err := os.ReadFile(s.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &StorageError{Op: "load", Key: key, Err: err}
	}
	return string(data), true, nil
}

func (s *FileStore) Save(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return &StorageError{Op: "save", Key: key, Err: err}
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return &StorageError{Op: "save", Key: key, Err: err}
	}
	if err := os.WriteFile(s.Path(key), []byte(value), 0o644); err != nil {
		return &StorageError{Op: "save", Key: key, Err: err}
	}
	return nil
}
