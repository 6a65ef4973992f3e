package alarm

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// BellPattern times the terminal bell: a burst of Beats rings Gap apart,
// then Rest before the next burst.
type BellPattern struct {
	Beats int
	Gap   time.Duration
	Rest  time.Duration
}

// DefaultBellPattern rings three quick beats per second.
func DefaultBellPattern() BellPattern {
	return BellPattern{
		Beats: 3,
		Gap:   260 * time.Millisecond,
		Rest:  220 * time.Millisecond,
	}
}

// Bell rings the terminal bell on writer until stopped. Volume zero mutes it.
type Bell struct {
	writeMu sync.Mutex
	writer  io.Writer
	failed  error
	pattern BellPattern
	volume  float64
	volMu   sync.Mutex
	loop    loop
}

// NewBell creates a bell writing BEL characters to writer.
func NewBell(writer io.Writer, pattern BellPattern) *Bell {
	if pattern.Beats <= 0 {
		pattern = DefaultBellPattern()
	}
	return &Bell{writer: writer, pattern: pattern, volume: 1}
}

// PlayAlarm starts ringing.
func (bell *Bell) PlayAlarm() error {
	bell.loop.start(bell.run)
	return nil
}

// StopAlarm stops ringing. It returns the write error that silenced the
// bell early, if any.
func (bell *Bell) StopAlarm() error {
	bell.loop.stop()
	bell.writeMu.Lock()
	defer bell.writeMu.Unlock()
	err := bell.failed
	bell.failed = nil
	return err
}

// SetVolume mutes the bell at zero; a terminal bell has no other levels.
func (bell *Bell) SetVolume(volume float64) error {
	bell.volMu.Lock()
	bell.volume = ClampVolume(volume)
	bell.volMu.Unlock()
	return nil
}

func (bell *Bell) run(ctx context.Context) {
	for {
		for beat := 0; beat < bell.pattern.Beats; beat++ {
			if !bell.ring() {
				return
			}
			if !sleepWithContext(ctx, bell.pattern.Gap) {
				return
			}
		}
		if !sleepWithContext(ctx, bell.pattern.Rest) {
			return
		}
	}
}

// ring writes one BEL and reports whether the bell should keep going.
func (bell *Bell) ring() bool {
	bell.volMu.Lock()
	muted := bell.volume == 0
	bell.volMu.Unlock()
	if muted {
		return true
	}
	bell.writeMu.Lock()
	defer bell.writeMu.Unlock()
	if _, err := bell.writer.Write([]byte{'\a'}); err != nil {
		bell.failed = fmt.Errorf("ring bell: %w", err)
		return false
	}
	return true
}
