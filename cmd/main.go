package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"

	"zentimer/internal/alarm"
	"zentimer/internal/app"
	"zentimer/internal/core/model"
	"zentimer/internal/core/timekeeper"
	"zentimer/internal/logging"
	"zentimer/internal/storage"
	"zentimer/internal/ui/animation"
	"zentimer/internal/ui/editor"
	"zentimer/internal/ui/overlay"
	"zentimer/internal/ui/preferences"
	"zentimer/internal/ui/tray"
)

func main() {
	settings, settingsErr := storage.LoadSettings(app.Name)
	logger := logging.New(settings.LogLevel, os.Stderr)
	if settingsErr != nil {
		logger.Warn().Err(settingsErr).Msg("settings unreadable, using defaults")
	}

	bell := alarm.NewBell(os.Stderr, alarm.DefaultBellPattern())
	opened, err := app.Open(context.Background(), app.Options{
		Settings: settings,
		Alarm:    app.AlarmEngine(settings, bell, logger),
		Logger:   logger,
	})
	if err != nil {
		logger.Error().Err(err).Msg("open timers")
		return
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := opened.Close(ctx); err != nil {
			logger.Error().Err(err).Msg("close timers")
		}
	}()

	fyneApp := fyneapp.NewWithID("io.zentimer.app")

	timers := editor.New(fyneApp, opened, app.Name)
	mainWindow := timers.Window()
	mainWindow.SetMaster()

	popup := overlay.New(fyneApp, app.Name, animation.DefaultConfig())
	popup.SetOnSilence(opened.Keeper.AcknowledgeAll)
	popup.SetOnSnooze(func(ids []string) {
		for _, id := range ids {
			opened.Keeper.Snooze(id)
		}
	})

	prefsWindow := preferences.New(fyneApp, app.Name+" preferences", opened.Settings(), func(updated model.Settings) {
		if err := storage.SaveSettings(app.Name, updated); err != nil {
			logger.Error().Err(err).Msg("save settings")
		}
		opened.UpdateSettings(updated)
	})

	var trayManager *tray.Manager
	if desktopApp, ok := fyneApp.(desktop.App); ok {
		trayManager = tray.New(desktopApp, app.Name, tray.Callbacks{
			OnShow:        timers.Show,
			OnSilence:     opened.Keeper.AcknowledgeAll,
			OnPreferences: prefsWindow.Show,
			OnQuit:        fyneApp.Quit,
		})
		mainWindow.SetCloseIntercept(mainWindow.Hide)
	}

	render := func() {
		badge := opened.Keeper.Badge()
		mainWindow.SetTitle(windowTitle(badge))
		if trayManager != nil {
			trayManager.SetBadge(badge)
		}
		popup.Show(alerts(opened))
		timers.Refresh()
	}

	events := opened.Keeper.Subscribe(64)
	go func() {
		var lastProgress int64
		for event := range events {
			if event.Type == timekeeper.EventProgress {
				second := event.At.Unix()
				if second == lastProgress {
					continue
				}
				lastProgress = second
			}
			notify := event.Type == timekeeper.EventStateChange && event.Status == model.StatusOvertime
			fyne.Do(func() {
				render()
				if notify {
					fyneApp.SendNotification(fyne.NewNotification(app.Name, timerName(opened, event.ID)+" is up"))
				}
			})
		}
	}()

	render()
	mainWindow.ShowAndRun()
}

func windowTitle(badge int) string {
	if badge > 0 {
		return fmt.Sprintf("(%d) %s", badge, app.Name)
	}
	return app.Name
}

func alerts(opened *app.App) []overlay.Alert {
	var result []overlay.Alert
	for _, line := range opened.Binder.Lines() {
		if line.Timer == nil || !line.Timer.Alarming {
			continue
		}
		result = append(result, overlay.Alert{
			ID:       line.ID,
			Name:     line.Label,
			Overtime: line.Timer.Overtime,
		})
	}
	return result
}

func timerName(opened *app.App, id string) string {
	for _, line := range opened.Binder.Lines() {
		if line.ID == id && line.Label != "" {
			return line.Label
		}
	}
	return "A timer"
}
