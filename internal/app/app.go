// Package app assembles the timer core with its storage, alarm and ticking
// loop. Both hosts open one App and drive it through Keeper and Binder.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/phuslu/log"

	"zentimer/internal/alarm"
	"zentimer/internal/core/binder"
	"zentimer/internal/core/model"
	"zentimer/internal/core/timekeeper"
	"zentimer/internal/logging"
	"zentimer/internal/platform"
	"zentimer/internal/storage"
)

// Name is the application name used for config and data directories.
const Name = "zentimer"

// SampleDocument seeds the editor on a first run.
const SampleDocument = "00:10 boil eggs\n5 tea\n0:45 steep leaves\n2h 30m beef stock"

// Options contains the collaborators a host passes to Open.
type Options struct {
	Settings model.Settings
	// Alarm is the host's audible engine. Defaults to a silent one.
	Alarm  alarm.Engine
	Logger *log.Logger
	// Now overrides the wall clock.
	Now func() time.Time
	// Store overrides the backend named in settings. No instance lock is
	// taken for an injected store.
	Store storage.Store
}

// App is one open timer document.
type App struct {
	Keeper *timekeeper.Keeper
	Binder *binder.Binder

	mu        sync.Mutex
	settings  model.Settings
	alarm     *alarm.Async
	persister *storage.Persister
	guard     *platform.InstanceGuard
	logger    *log.Logger
}

// Open loads the persisted document, resumes its timers and starts ticking.
func Open(ctx context.Context, options Options) (*App, error) {
	logger := logging.OrNop(options.Logger)
	settings := options.Settings

	store := options.Store
	var guard *platform.InstanceGuard
	if store == nil {
		dataDir, err := storage.DataDir(Name, settings)
		if err != nil {
			return nil, err
		}
		if settings.Store != model.StoreMemory {
			guard, err = platform.AcquireSingleInstance(Name, dataDir)
			if err != nil {
				return nil, err
			}
		}
		store, err = storage.Open(settings.Store, dataDir, logger)
		if err != nil {
			_ = guard.Release()
			return nil, fmt.Errorf("open store: %w", err)
		}
		logger.Info().Str("store", settings.Store).Str("dir", dataDir).Msg("store opened")
	}

	engine := options.Alarm
	if engine == nil {
		engine = alarm.Noop{}
	}
	asyncAlarm := alarm.NewAsync(engine, settings.Volume, logger)

	keeper := timekeeper.New(settings.KeeperConfig(), timekeeper.Options{
		Now:    options.Now,
		Alarm:  asyncAlarm,
		Logger: logger,
	})
	lines := binder.New(keeper, binder.Options{})

	app := &App{
		Keeper:   keeper,
		Binder:   lines,
		settings: settings,
		alarm:    asyncAlarm,
		guard:    guard,
		logger:   logger,
	}
	app.persister = storage.NewPersister(store, app.snapshot, storage.PersisterOptions{
		Debounce: settings.PersistDebounce,
		Logger:   logger,
	})

	snapshot, err := app.persister.Load(ctx)
	if err != nil {
		asyncAlarm.Close()
		_ = store.Close()
		_ = guard.Release()
		return nil, err
	}
	document := snapshot.Document
	if !snapshot.HasDocument {
		document = SampleDocument
	}
	keeper.Restore(snapshot.Records)
	lines.Load(document, snapshot.Index)

	keeper.OnChange(app.persister.Touch)
	lines.OnChange(app.persister.Touch)
	app.persister.Touch()

	keeper.StartTicking()
	return app, nil
}

// Settings returns the settings the app runs with.
func (app *App) Settings() model.Settings {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.settings
}

// UpdateSettings applies edited preferences to the running app. Store and
// data directory changes take effect on the next start.
func (app *App) UpdateSettings(settings model.Settings) {
	settings.Volume = alarm.ClampVolume(settings.Volume)
	app.mu.Lock()
	app.settings = settings
	app.mu.Unlock()
	app.Keeper.UpdateConfig(settings.KeeperConfig())
	app.alarm.SetVolume(settings.Volume)
}

// SetVolume changes the alarm volume, clamped to 0..1.
func (app *App) SetVolume(volume float64) float64 {
	settings := app.Settings()
	settings.Volume = volume
	app.UpdateSettings(settings)
	return alarm.ClampVolume(volume)
}

// Flush writes pending state now.
func (app *App) Flush(ctx context.Context) error {
	return app.persister.Flush(ctx)
}

// Close stops ticking, silences the alarm, flushes and releases the store.
func (app *App) Close(ctx context.Context) error {
	app.Keeper.StopTicking()
	app.alarm.Close()
	err := app.persister.Close(ctx)
	if releaseErr := app.guard.Release(); releaseErr != nil {
		err = errors.Join(err, releaseErr)
	}
	if err != nil {
		return fmt.Errorf("close app: %w", err)
	}
	app.logger.Info().Msg("timers saved")
	return nil
}

func (app *App) snapshot() storage.Snapshot {
	document, index := app.Binder.Document()
	return storage.Snapshot{
		Records:     app.Keeper.Records(),
		Index:       index,
		Document:    document,
		HasDocument: true,
	}
}

// AlarmEngine picks the engine for a host: the configured player command
// when it resolves, otherwise fallback.
func AlarmEngine(settings model.Settings, fallback alarm.Engine, logger *log.Logger) alarm.Engine {
	if settings.AlarmCommand == "" {
		return fallback
	}
	command, err := alarm.NewCommand(settings.AlarmCommand, 0)
	if err != nil {
		logging.OrNop(logger).Warn().Err(err).Msg("alarm command unavailable, using built-in alarm")
		return fallback
	}
	return command
}
