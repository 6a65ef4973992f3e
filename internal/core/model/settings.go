package model

import "time"

// Store backends selectable in settings.
const (
	StoreBadger = "badger"
	StoreFile   = "file"
	StoreMemory = "memory"
)

// Settings defines editable user preferences.
type Settings struct {
	Volume          float64
	Snooze          time.Duration
	Store           string
	DataDir         string
	LogLevel        string
	PersistDebounce time.Duration
	TickInterval    time.Duration
	// AlarmCommand is an external player command line; empty uses the
	// built-in alarm of the host.
	AlarmCommand string
}

// DefaultSettings returns default settings for zentimer.
func DefaultSettings() Settings {
	keeper := DefaultKeeperConfig()
	return Settings{
		Volume:          keeper.Alarm.Volume,
		Snooze:          keeper.Alarm.Snooze,
		Store:           StoreBadger,
		LogLevel:        "info",
		PersistDebounce: keeper.Persist.Debounce,
		TickInterval:    keeper.TickInterval,
	}
}

// KeeperConfig converts settings to KeeperConfig.
func (settings Settings) KeeperConfig() KeeperConfig {
	return KeeperConfig{
		Alarm: AlarmConfig{
			Volume: settings.Volume,
			Snooze: settings.Snooze,
		},
		Persist: PersistConfig{
			Debounce: settings.PersistDebounce,
		},
		TickInterval: settings.TickInterval,
	}
}
