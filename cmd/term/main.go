package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zentimer/internal/alarm"
	"zentimer/internal/app"
	"zentimer/internal/logging"
	"zentimer/internal/storage"
	"zentimer/internal/ui/term"
)

func main() {
	var (
		logLevel string
		store    string
		dataDir  string
	)
	flag.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides settings)")
	flag.StringVar(&store, "store", "", "Storage backend: badger, file, memory (overrides settings)")
	flag.StringVar(&dataDir, "data-dir", "", "Directory for the timer store (overrides settings)")
	flag.Parse()

	settings, settingsErr := storage.LoadSettings(app.Name)
	if logLevel != "" {
		settings.LogLevel = logLevel
	}
	if store != "" {
		settings.Store = store
	}
	if dataDir != "" {
		settings.DataDir = dataDir
	}

	console, err := term.NewConsole()
	if err != nil {
		logging.New("error", os.Stderr).Fatal().Err(err).Msg("terminal unavailable")
	}
	defer console.Close()

	logger := logging.New(settings.LogLevel, console.Stdout())
	if settingsErr != nil {
		logger.Warn().Err(settingsErr).Msg("settings unreadable, using defaults")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	bell := alarm.NewBell(os.Stdout, alarm.DefaultBellPattern())
	opened, err := app.Open(ctx, app.Options{
		Settings: settings,
		Alarm:    app.AlarmEngine(settings, bell, logger),
		Logger:   logger,
	})
	if err != nil {
		logger.Error().Err(err).Msg("open timers")
		return
	}

	console.Run(ctx, cancel, opened)

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()
	if err := opened.Close(closeCtx); err != nil {
		logger.Error().Err(err).Msg("close timers")
	}
}
