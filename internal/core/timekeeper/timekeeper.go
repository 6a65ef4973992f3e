// Package timekeeper owns every TimerRecord and drives their lifecycle: user
// actions, text edits, the once-per-second tick and the resume protocol.
package timekeeper

import (
	"sort"
	"sync"
	"time"

	"github.com/phuslu/log"

	"zentimer/internal/core/duration"
	"zentimer/internal/core/model"
	"zentimer/internal/core/scheduler"
	"zentimer/internal/logging"
)

// Alarm is the shared audible alert. The keeper calls PlayAlarm when the
// first record starts alarming and StopAlarm when the last one is silenced,
// both while holding its lock. Implementations must not block or call back
// into the keeper.
type Alarm interface {
	PlayAlarm()
	StopAlarm()
}

// Options contains runtime collaborators for Keeper.
type Options struct {
	// Now returns wall-clock time. Defaults to time.Now.
	Now    func() time.Time
	Alarm  Alarm
	Logger *log.Logger
}

// Keeper is the explicit store of timer records and their state machine.
type Keeper struct {
	mu        sync.Mutex
	config    model.KeeperConfig
	options   Options
	records   map[string]*model.TimerRecord
	scheduler *scheduler.Scheduler
	sounding  bool
	events    []chan Event
	onChange  []func()
	stopCh    chan struct{}
	running   bool
}

// New creates an empty Keeper.
func New(config model.KeeperConfig, options Options) *Keeper {
	defaults := model.DefaultKeeperConfig()
	if config.TickInterval <= 0 {
		config.TickInterval = defaults.TickInterval
	}
	if config.Alarm.Snooze <= 0 {
		config.Alarm.Snooze = defaults.Alarm.Snooze
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	if options.Alarm == nil {
		options.Alarm = silentAlarm{}
	}
	options.Logger = logging.OrNop(options.Logger)

	return &Keeper{
		config:    config,
		options:   options,
		records:   make(map[string]*model.TimerRecord),
		scheduler: scheduler.New(),
	}
}

// Subscribe registers a new observer channel. Slow observers miss events
// rather than stall the keeper.
func (keeper *Keeper) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	keeper.mu.Lock()
	keeper.events = append(keeper.events, ch)
	keeper.mu.Unlock()
	return ch
}

// OnChange registers a hook called after every record mutation, outside the
// keeper lock. The persister uses it to schedule a write.
func (keeper *Keeper) OnChange(hook func()) {
	keeper.mu.Lock()
	keeper.onChange = append(keeper.onChange, hook)
	keeper.mu.Unlock()
}

// StartTicking launches the tick loop.
func (keeper *Keeper) StartTicking() {
	keeper.mu.Lock()
	if keeper.running {
		keeper.mu.Unlock()
		return
	}
	keeper.running = true
	keeper.stopCh = make(chan struct{})
	stopCh := keeper.stopCh
	interval := keeper.config.TickInterval
	keeper.mu.Unlock()

	go keeper.run(interval, stopCh)
}

// StopTicking terminates the tick loop and closes observers.
func (keeper *Keeper) StopTicking() {
	keeper.mu.Lock()
	if !keeper.running {
		keeper.mu.Unlock()
		return
	}
	close(keeper.stopCh)
	keeper.running = false
	events := keeper.events
	keeper.events = nil
	keeper.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
}

// UpdateConfig replaces the runtime configuration. The tick interval only
// takes effect on the next StartTicking.
func (keeper *Keeper) UpdateConfig(config model.KeeperConfig) {
	keeper.mu.Lock()
	if config.TickInterval <= 0 {
		config.TickInterval = keeper.config.TickInterval
	}
	if config.Alarm.Snooze <= 0 {
		config.Alarm.Snooze = keeper.config.Alarm.Snooze
	}
	keeper.config = config
	keeper.mu.Unlock()
}

// Config returns the current runtime configuration.
func (keeper *Keeper) Config() model.KeeperConfig {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.config
}

func (keeper *Keeper) run(interval time.Duration, stopCh <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			keeper.tick(keeper.options.Now())
		}
	}
}

// tick runs one scheduler pass when a new wall-clock second has begun.
func (keeper *Keeper) tick(tickTime time.Time) {
	nowMs := model.EpochMs(tickTime)

	keeper.mu.Lock()
	due := keeper.scheduler.Due(nowMs)
	var snapshot []model.TimerRecord
	if due {
		snapshot = keeper.snapshotLocked()
	}
	keeper.mu.Unlock()
	if !due {
		return
	}

	for _, transition := range scheduler.Plan(snapshot, nowMs) {
		keeper.apply(transition, tickTime)
	}
}

// apply isolates one record: a panic is logged and the pass continues.
func (keeper *Keeper) apply(transition scheduler.Transition, tickTime time.Time) {
	defer func() {
		if recovered := recover(); recovered != nil {
			keeper.options.Logger.Error().
				Str("id", transition.ID).
				Str("kind", string(transition.Kind)).
				Any("panic", recovered).
				Msg("tick transition failed")
		}
	}()

	switch transition.Kind {
	case scheduler.KindFinish:
		keeper.finish(transition.ID, tickTime)
	case scheduler.KindProgress:
		keeper.emit(Event{
			Type:      EventProgress,
			ID:        transition.ID,
			Status:    model.StatusRunning,
			Remaining: millis(transition.RemainingMs),
			At:        tickTime,
		})
	case scheduler.KindOvertime:
		keeper.emit(Event{
			Type:     EventProgress,
			ID:       transition.ID,
			Status:   model.StatusOvertime,
			Overtime: millis(transition.OvertimeMs),
			At:       tickTime,
		})
	}
}

// finish is onTick's zero-crossing: running becomes overtime and the alarm
// starts. The plan is re-checked under the lock because an action may have
// run since the snapshot.
func (keeper *Keeper) finish(id string, at time.Time) {
	keeper.mutate(id, at, func(record *model.TimerRecord, nowMs int64) {
		if record.Status != model.StatusRunning || record.LiveRemainingMs(nowMs) > 0 {
			return
		}
		enterOvertime(record, nowMs)
	})
}

func enterOvertime(record *model.TimerRecord, nowMs int64) {
	record.Status = model.StatusOvertime
	record.RemainingMs = 0
	record.FinishedAtEpochMs = nowMs
	record.Acknowledged = false
	record.ClearAnchor()
}

// mutate applies change to one record under the lock, then publishes the
// resulting event and change hooks outside it. Unknown ids and changes that
// leave the record untouched are silent.
func (keeper *Keeper) mutate(id string, at time.Time, change func(record *model.TimerRecord, nowMs int64)) {
	event, alarm, changed := keeper.changeRecord(id, at, change)
	if !changed {
		return
	}
	keeper.publish(alarm, event)
}

func (keeper *Keeper) changeRecord(id string, at time.Time, change func(record *model.TimerRecord, nowMs int64)) (Event, *Event, bool) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	record, ok := keeper.records[id]
	if !ok {
		return Event{}, nil, false
	}
	before := record.Clone()
	change(record, model.EpochMs(at))
	if sameRecord(before, *record) {
		return Event{}, nil, false
	}
	event := keeper.recordEventLocked(EventStateChange, record, at)
	return event, keeper.syncAlarmLocked(at), true
}

func (keeper *Keeper) publish(alarm *Event, events ...Event) {
	for _, event := range events {
		keeper.emit(event)
	}
	if alarm != nil {
		keeper.emit(*alarm)
	}

	keeper.mu.Lock()
	hooks := append([]func(){}, keeper.onChange...)
	keeper.mu.Unlock()
	for _, hook := range hooks {
		hook()
	}
}

// syncAlarmLocked switches the shared alarm on the 0 to >0 and >0 to 0
// transitions of the alarming count, so one crossing plays exactly once.
// The switch happens under the lock so concurrent crossings reach the Alarm
// in the order the count changed.
func (keeper *Keeper) syncAlarmLocked(at time.Time) *Event {
	badge := keeper.badgeLocked()
	want := badge > 0
	if want == keeper.sounding {
		return nil
	}
	keeper.sounding = want
	if want {
		keeper.options.Alarm.PlayAlarm()
	} else {
		keeper.options.Alarm.StopAlarm()
	}
	return &Event{
		Type:     EventAlarm,
		Badge:    badge,
		Sounding: want,
		At:       at,
	}
}

func (keeper *Keeper) recordEventLocked(eventType EventType, record *model.TimerRecord, at time.Time) Event {
	nowMs := model.EpochMs(at)
	return Event{
		Type:      eventType,
		ID:        record.ID,
		Status:    record.Status,
		Remaining: millis(record.LiveRemainingMs(nowMs)),
		Overtime:  millis(record.OvertimeMs(nowMs)),
		Badge:     keeper.badgeLocked(),
		At:        at,
	}
}

func (keeper *Keeper) badgeLocked() int {
	count := 0
	for _, record := range keeper.records {
		if record.Alarming() {
			count++
		}
	}
	return count
}

// snapshotLocked copies every record, ordered by id for stable output.
func (keeper *Keeper) snapshotLocked() []model.TimerRecord {
	records := make([]model.TimerRecord, 0, len(keeper.records))
	for _, record := range keeper.records {
		records = append(records, record.Clone())
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	})
	return records
}

func (keeper *Keeper) emit(event Event) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	keeper.emitLocked(event)
}

func (keeper *Keeper) emitLocked(event Event) {
	for _, ch := range keeper.events {
		select {
		case ch <- event:
		default:
		}
	}
}

// millis converts a record duration, saturating instead of wrapping.
func millis(ms int64) time.Duration {
	return time.Duration(duration.ClampMilliseconds(ms)) * time.Millisecond
}

func sameRecord(left, right model.TimerRecord) bool {
	leftDefault, rightDefault := left.DefaultAtStartMs, right.DefaultAtStartMs
	left.DefaultAtStartMs, right.DefaultAtStartMs = nil, nil
	if left != right {
		return false
	}
	if leftDefault == nil || rightDefault == nil {
		return leftDefault == rightDefault
	}
	return *leftDefault == *rightDefault
}

type silentAlarm struct{}

func (silentAlarm) PlayAlarm() {}
func (silentAlarm) StopAlarm() {}
