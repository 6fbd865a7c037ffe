package persist

import (
	"context"
	"errors"
	"fmt"
)

// DefaultKey is the single durable key holding the whitelisted stores.
const DefaultKey = "persist:root"

var (
	ErrBlobNotFound = errors.New("persisted blob not found")
	ErrCorruptBlob  = errors.New("persisted blob is corrupt")
)

// Storage is a durable key/value blob store. Load returns ErrBlobNotFound
// when nothing is stored under key.
type Storage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, payload []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// PersistenceError reports a failed durable operation. It never fails the
// in-memory mutation that triggered it.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
