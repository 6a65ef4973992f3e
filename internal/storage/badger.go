package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/phuslu/log"
	"github.com/timshannon/badgerhold/v4"

	"zentimer/internal/logging"
)

// entry is the envelope stored for every key.
type entry struct {
	Key       string
	Value     []byte
	UpdatedAt time.Time
}

// BadgerStore keeps values in an embedded Badger database.
type BadgerStore struct {
	store  *badgerhold.Store
	logger *log.Logger
}

// OpenBadger opens or creates the database in dir.
func OpenBadger(dir string, logger *log.Logger) (*BadgerStore, error) {
	logger = logging.OrNop(logger)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Encoder = cbor.Marshal
	options.Decoder = cbor.Unmarshal
	options.Options = badger.DefaultOptions(dir).
		WithLogger(nil).
		WithNumVersionsToKeep(1)

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	logger.Debug().Str("path", dir).Msg("badger store opened")

	return &BadgerStore{store: store, logger: logger}, nil
}

// Get returns the value stored under key.
func (store *BadgerStore) Get(_ context.Context, key string) ([]byte, error) {
	var stored entry
	err := store.store.Get(key, &stored)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return stored.Value, nil
}

// Put inserts or replaces the value stored under key.
func (store *BadgerStore) Put(_ context.Context, key string, value []byte) error {
	stored := entry{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	if err := store.store.Upsert(key, &stored); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Close reclaims value log space and closes the database.
func (store *BadgerStore) Close() error {
	if store.store == nil {
		return nil
	}
	store.compact()
	return store.store.Close()
}

// compact rewrites value log files until badger reports nothing to reclaim.
func (store *BadgerStore) compact() {
	for {
		err := store.store.Badger().RunValueLogGC(0.5)
		if err == nil {
			continue
		}
		if !errors.Is(err, badger.ErrNoRewrite) {
			store.logger.Debug().Err(err).Msg("value log gc skipped")
		}
		return
	}
}
