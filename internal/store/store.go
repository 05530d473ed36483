package store

import (
	"context"
	"fmt"
)

// DefaultKey names the single record holding the last seen review counter.
const DefaultKey = "review_data"

// StateStore persists named text records. Load reports found == false when
// the record has never been written.
type StateStore interface {
	Load(ctx context.Context, key string) (value string, found bool, err error)
	Save(ctx context.Context, key, value string) error
}

type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
