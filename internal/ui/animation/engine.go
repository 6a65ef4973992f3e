// Package animation drives the pulsing highlight of timers that are past
// zero.
package animation

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Range defines a duration range with random sampling.
type Range struct {
	Min time.Duration
	Max time.Duration
}

// Random returns a random duration within the range.
func (value Range) Random(rng *rand.Rand) time.Duration {
	if value.Max <= value.Min {
		return value.Min
	}
	delta := value.Max - value.Min
	return value.Min + time.Duration(rng.Int63n(int64(delta)))
}

// Config contains pulse timing values.
type Config struct {
	On  Range
	Off Range
	// Flashes limits a burst; zero pulses until stopped.
	Flashes int
}

// Engine switches a highlight on and off until stopped.
type Engine struct {
	mu     sync.Mutex
	config Config
	apply  func(lit bool)
	cancel context.CancelFunc
	done   chan struct{}
	rng    *rand.Rand
}

// New creates a pulse engine. apply is called from the engine goroutine;
// UI callers wrap it in fyne.Do.
func New(config Config, apply func(lit bool)) *Engine {
	return &Engine{
		config: config,
		apply:  apply,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start begins pulsing. A running pulse is restarted.
func (engine *Engine) Start(ctx context.Context) {
	engine.Stop()

	engine.mu.Lock()
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	engine.cancel = cancel
	engine.done = done
	engine.mu.Unlock()

	go engine.run(runCtx, done)
}

// Stop ends the pulse and waits until the highlight is switched off.
func (engine *Engine) Stop() {
	engine.mu.Lock()
	cancel := engine.cancel
	done := engine.done
	engine.cancel = nil
	engine.done = nil
	engine.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Running reports whether a pulse is active.
func (engine *Engine) Running() bool {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.cancel != nil
}

func (engine *Engine) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer engine.apply(false)

	for flash := 0; engine.config.Flashes == 0 || flash < engine.config.Flashes; flash++ {
		engine.apply(true)
		if !sleepWithContext(ctx, engine.config.On.Random(engine.rng)) {
			return
		}
		engine.apply(false)
		if !sleepWithContext(ctx, engine.config.Off.Random(engine.rng)) {
			return
		}
	}
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
