// Package storage persists timers, the line index and the document behind a
// small string-keyed Store, and loads user settings.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/phuslu/log"

	"zentimer/internal/core/model"
)

// ErrNotFound is returned by Store.Get for a key that was never written.
var ErrNotFound = errors.New("key not found")

// Keys written by the persister.
const (
	KeyTimerRecords = "timerRecords"
	KeyLineIndex    = "lineIndex"
	KeyDocument     = "document"
)

// Store is a string-keyed byte store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// Open creates the store backend named by kind inside dir.
func Open(kind, dir string, logger *log.Logger) (Store, error) {
	switch kind {
	case model.StoreBadger:
		return OpenBadger(dir, logger)
	case model.StoreFile:
		return NewFileStore(dir), nil
	case model.StoreMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store %q", kind)
	}
}

// MemoryStore keeps values in a map. It forgets everything on exit.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

// Get returns a copy of the value stored under key.
func (store *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	value, ok := store.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

// Put stores a copy of value under key.
func (store *MemoryStore) Put(_ context.Context, key string, value []byte) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.values[key] = append([]byte(nil), value...)
	return nil
}

// Close is a no-op.
func (store *MemoryStore) Close() error {
	return nil
}
