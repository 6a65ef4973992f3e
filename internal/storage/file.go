package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps one JSON file per key in a directory.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates a store rooted at dir. The directory is created on
// the first write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Get reads the file for key.
func (store *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	data, err := os.ReadFile(store.path(key))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Put replaces the file for key. The write goes through a temporary file so
// a crash never leaves a half-written value behind.
func (store *FileStore) Put(_ context.Context, key string, value []byte) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if err := os.MkdirAll(store.dir, 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	temp, err := os.CreateTemp(store.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := temp.Write(value); err != nil {
		temp.Close()
		os.Remove(temp.Name())
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := temp.Close(); err != nil {
		os.Remove(temp.Name())
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Rename(temp.Name(), store.path(key)); err != nil {
		os.Remove(temp.Name())
		return fmt.Errorf("replace %s: %w", key, err)
	}
	return nil
}

// Close is a no-op.
func (store *FileStore) Close() error {
	return nil
}

func (store *FileStore) path(key string) string {
	return filepath.Join(store.dir, key+".json")
}
