package tray

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnShow        func()
	OnSilence     func()
	OnPreferences func()
	OnQuit        func()
}

// Manager handles system tray state.
type Manager struct {
	app         desktop.App
	title       string
	callbacks   Callbacks
	statusItem  *fyne.MenuItem
	silenceItem *fyne.MenuItem
	badge       int
}

// New creates a tray manager with the provided callbacks.
func New(app desktop.App, title string, callbacks Callbacks) *Manager {
	manager := &Manager{
		app:       app,
		title:     title,
		callbacks: callbacks,
	}

	manager.statusItem = fyne.NewMenuItem(StatusLabel(0), nil)
	manager.statusItem.Disabled = true

	manager.silenceItem = fyne.NewMenuItem("Silence all", func() {
		if manager.callbacks.OnSilence != nil {
			manager.callbacks.OnSilence()
		}
	})
	manager.silenceItem.Disabled = true

	manager.refreshMenu()
	return manager
}

// SetBadge updates the count of timers waiting for acknowledgement.
func (manager *Manager) SetBadge(badge int) {
	if badge == manager.badge {
		return
	}
	manager.badge = badge
	manager.statusItem.Label = StatusLabel(badge)
	manager.silenceItem.Disabled = badge == 0
	manager.refreshMenu()
}

// StatusLabel renders the tray status line for badge.
func StatusLabel(badge int) string {
	switch badge {
	case 0:
		return "No alarms"
	case 1:
		return "1 timer is up"
	default:
		return fmt.Sprintf("%d timers are up", badge)
	}
}

func (manager *Manager) refreshMenu() {
	if manager.app == nil {
		return
	}
	manager.app.SetSystemTrayMenu(fyne.NewMenu(manager.title,
		manager.statusItem,
		manager.silenceItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Show timers", func() {
			if manager.callbacks.OnShow != nil {
				manager.callbacks.OnShow()
			}
		}),
		fyne.NewMenuItem("Preferences", func() {
			if manager.callbacks.OnPreferences != nil {
				manager.callbacks.OnPreferences()
			}
		}),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() {
			if manager.callbacks.OnQuit != nil {
				manager.callbacks.OnQuit()
			}
		}),
	))
}
