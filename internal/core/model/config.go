package model

import "time"

// AlarmConfig defines how the shared alarm behaves.
type AlarmConfig struct {
	Volume float64
	Snooze time.Duration
}

// PersistConfig defines how record mutations reach durable storage.
type PersistConfig struct {
	Debounce time.Duration
}

// KeeperConfig contains runtime settings for the timer state machine.
type KeeperConfig struct {
	Alarm   AlarmConfig
	Persist PersistConfig

	// TickInterval is the host callback resolution. The scheduler still
	// only runs one pass per wall-clock second.
	TickInterval time.Duration
}

// DefaultKeeperConfig returns the stock timer configuration.
func DefaultKeeperConfig() KeeperConfig {
	return KeeperConfig{
		Alarm: AlarmConfig{
			Volume: 0.15,
			Snooze: time.Minute,
		},
		Persist: PersistConfig{
			Debounce: 150 * time.Millisecond,
		},
		TickInterval: 100 * time.Millisecond,
	}
}
