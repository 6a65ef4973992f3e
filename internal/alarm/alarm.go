// Package alarm provides the audible alert engines and the asynchronous
// front that lets the timer core fire them without waiting.
package alarm

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNoPlayer indicates the configured player command cannot be found.
var ErrNoPlayer = errors.New("alarm player not found")

// Engine plays one shared alert. PlayAlarm and StopAlarm are idempotent.
type Engine interface {
	PlayAlarm() error
	StopAlarm() error
	SetVolume(volume float64) error
}

// Noop is an engine that stays silent.
type Noop struct{}

func (Noop) PlayAlarm() error { return nil }

func (Noop) StopAlarm() error { return nil }

func (Noop) SetVolume(float64) error { return nil }

// ClampVolume bounds volume to 0..1.
func ClampVolume(volume float64) float64 {
	if volume < 0 {
		return 0
	}
	if volume > 1 {
		return 1
	}
	return volume
}

// loop runs one cancellable alert loop at a time.
type loop struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func (current *loop) start(run func(context.Context)) bool {
	current.mu.Lock()
	defer current.mu.Unlock()
	if current.cancel != nil {
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	current.cancel = cancel
	current.done = done
	go func() {
		defer close(done)
		run(ctx)
	}()
	return true
}

// stop cancels the loop and waits for it to exit.
func (current *loop) stop() {
	current.mu.Lock()
	cancel, done := current.cancel, current.done
	current.cancel, current.done = nil, nil
	current.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (current *loop) active() bool {
	current.mu.Lock()
	defer current.mu.Unlock()
	return current.cancel != nil
}

func sleepWithContext(ctx context.Context, duration time.Duration) bool {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
