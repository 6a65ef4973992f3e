package storage

import (
	"context"
	"sync"
	"time"

	"github.com/phuslu/log"
	"golang.org/x/time/rate"

	"zentimer/internal/logging"
)

// PersisterOptions contains runtime options for Persister.
type PersisterOptions struct {
	Debounce time.Duration
	Logger   *log.Logger
}

// Persister writes snapshots on a trailing debounce. In-memory state stays
// authoritative: a failed write is logged and retried on the next window,
// and Close flushes whatever is still pending.
type Persister struct {
	mu       sync.Mutex
	saveMu   sync.Mutex
	store    Store
	source   func() Snapshot
	debounce time.Duration
	timer    *time.Timer
	dirty    bool
	closed   bool
	logger   *log.Logger
	failures rate.Sometimes
}

// NewPersister creates a persister that saves source() into store.
func NewPersister(store Store, source func() Snapshot, options PersisterOptions) *Persister {
	if options.Debounce <= 0 {
		options.Debounce = 150 * time.Millisecond
	}
	return &Persister{
		store:    store,
		source:   source,
		debounce: options.Debounce,
		logger:   logging.OrNop(options.Logger),
		failures: rate.Sometimes{First: 3, Interval: time.Minute},
	}
}

// Load reads the persisted snapshot.
func (persister *Persister) Load(ctx context.Context) (Snapshot, error) {
	return LoadSnapshot(ctx, persister.store, persister.logger)
}

// Touch marks state dirty and schedules a write one debounce window later.
// Further touches inside the window push the write back.
func (persister *Persister) Touch() {
	persister.mu.Lock()
	defer persister.mu.Unlock()
	persister.dirty = true
	persister.scheduleLocked()
}

// Flush writes immediately if anything is pending.
func (persister *Persister) Flush(ctx context.Context) error {
	persister.saveMu.Lock()
	defer persister.saveMu.Unlock()

	persister.mu.Lock()
	if !persister.dirty {
		persister.mu.Unlock()
		return nil
	}
	persister.dirty = false
	persister.mu.Unlock()

	if err := SaveSnapshot(ctx, persister.store, persister.source()); err != nil {
		persister.mu.Lock()
		persister.dirty = true
		persister.scheduleLocked()
		persister.mu.Unlock()
		return err
	}
	return nil
}

// Close flushes pending state and closes the store.
func (persister *Persister) Close(ctx context.Context) error {
	persister.mu.Lock()
	persister.closed = true
	if persister.timer != nil {
		persister.timer.Stop()
	}
	persister.mu.Unlock()

	flushErr := persister.Flush(ctx)
	if flushErr != nil {
		persister.logger.Error().Err(flushErr).Msg("final save failed")
	}
	if err := persister.store.Close(); err != nil {
		return err
	}
	return flushErr
}

func (persister *Persister) scheduleLocked() {
	if persister.closed {
		return
	}
	if persister.timer == nil {
		persister.timer = time.AfterFunc(persister.debounce, persister.flushInBackground)
		return
	}
	persister.timer.Reset(persister.debounce)
}

func (persister *Persister) flushInBackground() {
	if err := persister.Flush(context.Background()); err != nil {
		persister.failures.Do(func() {
			persister.logger.Warn().Err(err).Msg("save failed, retrying")
		})
	}
}
