package animation

import "time"

// DefaultConfig pulses a little under once per second with some jitter so
// several highlighted rows do not flash in lockstep.
func DefaultConfig() Config {
	return Config{
		On: Range{
			Min: 450 * time.Millisecond,
			Max: 550 * time.Millisecond,
		},
		Off: Range{
			Min: 300 * time.Millisecond,
			Max: 400 * time.Millisecond,
		},
	}
}
