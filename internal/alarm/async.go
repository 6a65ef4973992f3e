package alarm

import (
	"sync"
	"time"

	"github.com/phuslu/log"
	"golang.org/x/time/rate"

	"zentimer/internal/logging"
)

// Async drives an Engine from its own goroutine. Calls return immediately;
// the worker applies only the latest requested state, so a burst of
// play/stop calls settles on the last one. Engine failures are logged and
// never reach the caller.
type Async struct {
	engine   Engine
	logger   *log.Logger
	failures rate.Sometimes

	mu      sync.Mutex
	want    bool
	volume  float64
	pending bool
	wake    chan struct{}
	stopCh  chan struct{}
	done    chan struct{}
	closed  bool
}

// NewAsync starts a worker in front of engine.
func NewAsync(engine Engine, volume float64, logger *log.Logger) *Async {
	async := &Async{
		engine:   engine,
		logger:   logging.OrNop(logger),
		failures: rate.Sometimes{First: 3, Interval: time.Minute},
		volume:   ClampVolume(volume),
		pending:  true,
		wake:     make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	go async.run()
	async.signal()
	return async
}

// PlayAlarm requests the alarm on.
func (async *Async) PlayAlarm() {
	async.set(func() { async.want = true })
}

// StopAlarm requests the alarm off.
func (async *Async) StopAlarm() {
	async.set(func() { async.want = false })
}

// SetVolume requests a new volume, clamped to 0..1.
func (async *Async) SetVolume(volume float64) {
	async.set(func() {
		async.volume = ClampVolume(volume)
		async.pending = true
	})
}

// Playing reports the requested state.
func (async *Async) Playing() bool {
	async.mu.Lock()
	defer async.mu.Unlock()
	return async.want
}

// Close silences the engine and stops the worker.
func (async *Async) Close() {
	async.mu.Lock()
	if async.closed {
		async.mu.Unlock()
		return
	}
	async.closed = true
	async.mu.Unlock()

	close(async.stopCh)
	<-async.done
	if err := async.engine.StopAlarm(); err != nil {
		async.logger.Warn().Err(err).Msg("stop alarm on close")
	}
}

func (async *Async) set(change func()) {
	async.mu.Lock()
	if async.closed {
		async.mu.Unlock()
		return
	}
	change()
	async.mu.Unlock()
	async.signal()
}

func (async *Async) signal() {
	select {
	case async.wake <- struct{}{}:
	default:
	}
}

func (async *Async) run() {
	defer close(async.done)
	playing := false
	for {
		select {
		case <-async.stopCh:
			return
		case <-async.wake:
		}

		async.mu.Lock()
		want, volume, volumeChanged := async.want, async.volume, async.pending
		async.pending = false
		async.mu.Unlock()

		if volumeChanged {
			async.report("set volume", async.engine.SetVolume(volume))
		}
		if want == playing {
			continue
		}
		if want {
			async.report("play alarm", async.engine.PlayAlarm())
		} else {
			async.report("stop alarm", async.engine.StopAlarm())
		}
		playing = want
	}
}

func (async *Async) report(action string, err error) {
	if err == nil {
		return
	}
	async.failures.Do(func() {
		async.logger.Warn().Err(err).Str("action", action).Msg("alarm engine failed")
	})
}
