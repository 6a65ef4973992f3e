package timekeeper

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"zentimer/internal/core/duration"
	"zentimer/internal/core/model"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(ms int64) *fakeClock {
	return &fakeClock{now: time.UnixMilli(ms)}
}

func (clock *fakeClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.now
}

func (clock *fakeClock) Advance(step time.Duration) time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	clock.now = clock.now.Add(step)
	return clock.now
}

type mockAlarm struct {
	mock.Mock
}

func (alarm *mockAlarm) PlayAlarm() { alarm.Called() }
func (alarm *mockAlarm) StopAlarm() { alarm.Called() }

func newTestKeeper(t *testing.T, startMs int64) (*Keeper, *fakeClock, *mockAlarm) {
	t.Helper()
	clock := newFakeClock(startMs)
	alarm := &mockAlarm{}
	alarm.On("PlayAlarm").Return()
	alarm.On("StopAlarm").Return()
	keeper := New(model.DefaultKeeperConfig(), Options{Now: clock.Now, Alarm: alarm})
	return keeper, clock, alarm
}

func mustRecord(t *testing.T, keeper *Keeper, id string) model.TimerRecord {
	t.Helper()
	record, ok := keeper.Record(id)
	require.True(t, ok, "record %s missing", id)
	return record
}

// runTicks drives the tick loop the way the host callback would.
func runTicks(keeper *Keeper, clock *fakeClock, step, total time.Duration) {
	for elapsed := time.Duration(0); elapsed < total; elapsed += step {
		keeper.tick(clock.Advance(step))
	}
}

func TestScenarioTwoAndAHalfHours(t *testing.T) {
	keeper, clock, alarm := newTestKeeper(t, 0)

	token, ok := duration.Parse("2h 30m")
	require.True(t, ok)
	require.Equal(t, int64(9_000_000), token.Milliseconds)
	require.Equal(t, "", token.Label)

	keeper.Create("stock", token.Milliseconds)
	keeper.Start("stock")
	keeper.tick(clock.Now())

	runTicks(keeper, clock, 500*time.Millisecond, 8_999_500*time.Millisecond)
	record := mustRecord(t, keeper, "stock")
	require.Equal(t, model.StatusRunning, record.Status)
	alarm.AssertNotCalled(t, "PlayAlarm")

	runTicks(keeper, clock, 500*time.Millisecond, 5*time.Second)

	record = mustRecord(t, keeper, "stock")
	assert.Equal(t, model.StatusOvertime, record.Status)
	assert.Equal(t, int64(0), record.RemainingMs)
	assert.Equal(t, int64(9_000_000), record.FinishedAtEpochMs)
	assert.False(t, record.Acknowledged)
	assert.Equal(t, 1, keeper.Badge())
	alarm.AssertNumberOfCalls(t, "PlayAlarm", 1)

	keeper.Acknowledge("stock")
	alarm.AssertNumberOfCalls(t, "StopAlarm", 1)
	assert.Equal(t, 0, keeper.Badge())
}

func TestRestoreDiscoversOvertime(t *testing.T) {
	const saved = int64(1_700_000_000_000)
	keeper, _, alarm := newTestKeeper(t, saved+12_000)

	defaultAtStart := int64(10_000)
	keeper.Restore([]model.TimerRecord{{
		ID:                 "tea",
		DefaultDurationMs:  10_000,
		RemainingMs:        10_000,
		Status:             model.StatusRunning,
		StartEpochMs:       saved,
		RemainingMsAtStart: 10_000,
		Acknowledged:       true,
		DefaultAtStartMs:   &defaultAtStart,
	}})

	record := mustRecord(t, keeper, "tea")
	assert.Equal(t, model.StatusOvertime, record.Status)
	assert.Equal(t, int64(0), record.RemainingMs)
	assert.Equal(t, saved+12_000, record.FinishedAtEpochMs)
	assert.False(t, record.Acknowledged)
	alarm.AssertNumberOfCalls(t, "PlayAlarm", 1)
}

func TestRestoreReanchorsRunning(t *testing.T) {
	keeper, clock, alarm := newTestKeeper(t, 50_000)

	keeper.Restore([]model.TimerRecord{
		{ID: "run", DefaultDurationMs: 60_000, RemainingMs: 60_000, Status: model.StatusRunning,
			StartEpochMs: 20_000, RemainingMsAtStart: 60_000, Acknowledged: true},
		{ID: "paused", DefaultDurationMs: 60_000, RemainingMs: 42_000, Status: model.StatusPaused, Acknowledged: true},
		{ID: "", DefaultDurationMs: 60_000, RemainingMs: 60_000, Status: model.StatusIdle},
	})

	running := mustRecord(t, keeper, "run")
	assert.Equal(t, model.StatusRunning, running.Status)
	assert.Equal(t, int64(50_000), running.StartEpochMs)
	assert.Equal(t, int64(30_000), running.RemainingMsAtStart)
	assert.Equal(t, int64(30_000), running.RemainingMs)

	paused := mustRecord(t, keeper, "paused")
	assert.Equal(t, int64(42_000), paused.RemainingMs)
	assert.Equal(t, model.StatusPaused, paused.Status)

	assert.Len(t, keeper.Records(), 2)
	alarm.AssertNotCalled(t, "PlayAlarm")

	clock.Advance(10 * time.Second)
	assert.Equal(t, int64(20_000), mustRecord(t, keeper, "run").LiveRemainingMs(model.EpochMs(clock.Now())))
}

func TestRestoreRetriggersUnacknowledgedOvertime(t *testing.T) {
	keeper, _, alarm := newTestKeeper(t, 100_000)

	keeper.Restore([]model.TimerRecord{
		{ID: "eggs", DefaultDurationMs: 600_000, Status: model.StatusOvertime, FinishedAtEpochMs: 90_000},
		{ID: "done", DefaultDurationMs: 600_000, Status: model.StatusFinished, FinishedAtEpochMs: 10_000, Acknowledged: true},
	})

	assert.Equal(t, 1, keeper.Badge())
	alarm.AssertNumberOfCalls(t, "PlayAlarm", 1)
}

func TestResetRestoresStartTimeDefault(t *testing.T) {
	keeper, clock, _ := newTestKeeper(t, 0)

	keeper.Create("pasta", 300_000)
	keeper.Start("pasta")
	clock.Advance(5 * time.Second)
	keeper.ApplyDuration("pasta", 600_000)

	record := mustRecord(t, keeper, "pasta")
	assert.Equal(t, int64(300_000), record.DefaultDurationMs)
	assert.Equal(t, int64(600_000), record.LiveRemainingMs(model.EpochMs(clock.Now())))

	clock.Advance(30 * time.Second)
	keeper.Reset("pasta")

	record = mustRecord(t, keeper, "pasta")
	assert.Equal(t, model.StatusIdle, record.Status)
	assert.Equal(t, int64(300_000), record.RemainingMs)
	assert.Equal(t, int64(300_000), record.DefaultDurationMs)
	assert.Nil(t, record.DefaultAtStartMs)
}

func TestResetNeverStartedUsesCurrentDefault(t *testing.T) {
	keeper, _, _ := newTestKeeper(t, 0)

	keeper.Create("tea", 300_000)
	keeper.ApplyDuration("tea", 120_000)
	keeper.AdjustRemaining("tea", 30_000)
	keeper.Reset("tea")

	record := mustRecord(t, keeper, "tea")
	assert.Equal(t, int64(120_000), record.RemainingMs)
	assert.Equal(t, int64(120_000), record.DefaultDurationMs)
}

func TestAcknowledgeAndStopAreIdempotent(t *testing.T) {
	keeper, clock, alarm := newTestKeeper(t, 0)

	keeper.Create("eggs", 1_000)
	keeper.Start("eggs")
	runTicks(keeper, clock, 250*time.Millisecond, 2*time.Second)
	require.Equal(t, model.StatusOvertime, mustRecord(t, keeper, "eggs").Status)

	keeper.Acknowledge("eggs")
	first := mustRecord(t, keeper, "eggs")
	keeper.Acknowledge("eggs")
	assert.Equal(t, first, mustRecord(t, keeper, "eggs"))
	assert.Equal(t, model.StatusFinished, first.Status)
	assert.True(t, first.Acknowledged)

	keeper.Stop("eggs")
	stopped := mustRecord(t, keeper, "eggs")
	keeper.Stop("eggs")
	assert.Equal(t, stopped, mustRecord(t, keeper, "eggs"))
	assert.Equal(t, model.StatusIdle, stopped.Status)
	assert.Equal(t, int64(1_000), stopped.RemainingMs)

	alarm.AssertNumberOfCalls(t, "PlayAlarm", 1)
	alarm.AssertNumberOfCalls(t, "StopAlarm", 1)
}

func TestUnknownIDsAreNoOps(t *testing.T) {
	keeper, _, alarm := newTestKeeper(t, 0)
	events := keeper.Subscribe(16)
	changes := 0
	keeper.OnChange(func() { changes++ })

	for _, action := range []Action{ActionStart, ActionPause, ActionResume, ActionStop, ActionReset,
		ActionAcknowledge, ActionSnooze, ActionToggle} {
		keeper.Do("missing", action)
	}
	keeper.AdjustRemaining("missing", 60_000)
	keeper.ApplyDuration("missing", 60_000)
	keeper.Delete("missing")

	_, ok := keeper.View("missing")
	assert.False(t, ok)
	assert.Zero(t, changes)
	assert.Empty(t, events)
	alarm.AssertNotCalled(t, "PlayAlarm")
	alarm.AssertNotCalled(t, "StopAlarm")
}

func TestPauseAndResume(t *testing.T) {
	keeper, clock, _ := newTestKeeper(t, 0)

	keeper.Create("plank", 60_000)
	keeper.Start("plank")
	clock.Advance(10 * time.Second)
	keeper.Pause("plank")

	record := mustRecord(t, keeper, "plank")
	assert.Equal(t, model.StatusPaused, record.Status)
	assert.Equal(t, int64(50_000), record.RemainingMs)

	clock.Advance(100 * time.Second)
	assert.Equal(t, int64(50_000), mustRecord(t, keeper, "plank").RemainingMs)

	keeper.Resume("plank")
	clock.Advance(20 * time.Second)
	view, ok := keeper.View("plank")
	require.True(t, ok)
	assert.Equal(t, int64(30_000), view.RemainingMs)
	assert.Equal(t, "30s", view.Remaining.String())
}

func TestStartOnlyFromIdle(t *testing.T) {
	keeper, clock, _ := newTestKeeper(t, 0)

	keeper.Create("bread", 60_000)
	keeper.Start("bread")
	clock.Advance(10 * time.Second)
	keeper.Start("bread")

	record := mustRecord(t, keeper, "bread")
	assert.Equal(t, int64(0), record.StartEpochMs)
	require.NotNil(t, record.DefaultAtStartMs)
	assert.Equal(t, int64(60_000), *record.DefaultAtStartMs)
}

func TestAdjustRemaining(t *testing.T) {
	keeper, clock, alarm := newTestKeeper(t, 0)

	keeper.Create("soup", 60_000)
	keeper.Start("soup")
	clock.Advance(10 * time.Second)
	keeper.AdjustRemaining("soup", 30_000)

	record := mustRecord(t, keeper, "soup")
	assert.Equal(t, int64(10_000), record.StartEpochMs)
	assert.Equal(t, int64(80_000), record.RemainingMsAtStart)

	keeper.AdjustRemaining("soup", -3_600_000)
	record = mustRecord(t, keeper, "soup")
	assert.Equal(t, int64(0), record.RemainingMsAtStart)
	assert.Equal(t, model.StatusRunning, record.Status)

	keeper.tick(clock.Now())
	assert.Equal(t, model.StatusOvertime, mustRecord(t, keeper, "soup").Status)
	alarm.AssertNumberOfCalls(t, "PlayAlarm", 1)

	keeper.Create("idle", 60_000)
	keeper.AdjustRemaining("idle", -90_000)
	assert.Equal(t, int64(0), mustRecord(t, keeper, "idle").RemainingMs)
	assert.Equal(t, int64(60_000), mustRecord(t, keeper, "idle").DefaultDurationMs)
}

func TestSnooze(t *testing.T) {
	keeper, clock, alarm := newTestKeeper(t, 0)

	keeper.Create("tea", 2_000)
	keeper.Snooze("tea")
	assert.Equal(t, model.StatusIdle, mustRecord(t, keeper, "tea").Status)

	keeper.Start("tea")
	runTicks(keeper, clock, time.Second, 3*time.Second)
	require.Equal(t, model.StatusOvertime, mustRecord(t, keeper, "tea").Status)

	keeper.Snooze("tea")
	record := mustRecord(t, keeper, "tea")
	assert.Equal(t, model.StatusRunning, record.Status)
	assert.Equal(t, int64(60_000), record.RemainingMsAtStart)
	assert.True(t, record.Acknowledged)
	assert.Zero(t, record.FinishedAtEpochMs)
	alarm.AssertNumberOfCalls(t, "StopAlarm", 1)
}

func TestSharedAlarmAcrossTimers(t *testing.T) {
	keeper, clock, alarm := newTestKeeper(t, 0)

	keeper.Create("a", 1_000)
	keeper.Create("b", 2_000)
	keeper.Create("c", 3_000)
	keeper.Start("a")
	keeper.Start("b")
	keeper.Start("c")
	runTicks(keeper, clock, 100*time.Millisecond, 4*time.Second)

	assert.Equal(t, 3, keeper.Badge())
	alarm.AssertNumberOfCalls(t, "PlayAlarm", 1)

	keeper.Acknowledge("a")
	alarm.AssertNotCalled(t, "StopAlarm")

	keeper.Delete("b")
	alarm.AssertNotCalled(t, "StopAlarm")
	assert.Equal(t, 1, keeper.Badge())

	keeper.AcknowledgeAll()
	alarm.AssertNumberOfCalls(t, "StopAlarm", 1)
	assert.Equal(t, 0, keeper.Badge())
}

func TestDeleteAlarmingRecordStopsAlarm(t *testing.T) {
	keeper, clock, alarm := newTestKeeper(t, 0)

	keeper.Create("eggs", 1_000)
	keeper.Start("eggs")
	runTicks(keeper, clock, time.Second, 2*time.Second)
	keeper.Delete("eggs")

	_, ok := keeper.Record("eggs")
	assert.False(t, ok)
	alarm.AssertNumberOfCalls(t, "StopAlarm", 1)
}

func TestToggle(t *testing.T) {
	keeper, clock, _ := newTestKeeper(t, 0)
	keeper.Create("eggs", 1_000)

	steps := []model.Status{model.StatusRunning, model.StatusPaused, model.StatusRunning}
	for _, want := range steps {
		keeper.Toggle("eggs")
		assert.Equal(t, want, mustRecord(t, keeper, "eggs").Status)
	}

	runTicks(keeper, clock, time.Second, 2*time.Second)
	keeper.Toggle("eggs")
	assert.Equal(t, model.StatusFinished, mustRecord(t, keeper, "eggs").Status)
	keeper.Toggle("eggs")
	assert.Equal(t, model.StatusIdle, mustRecord(t, keeper, "eggs").Status)
}

func TestApplyDuration(t *testing.T) {
	keeper, clock, _ := newTestKeeper(t, 0)

	keeper.Create("idle", 60_000)
	keeper.ApplyDuration("idle", 90_000)
	record := mustRecord(t, keeper, "idle")
	assert.Equal(t, int64(90_000), record.DefaultDurationMs)
	assert.Equal(t, int64(90_000), record.RemainingMs)

	keeper.Create("paused", 60_000)
	keeper.Start("paused")
	keeper.Pause("paused")
	keeper.ApplyDuration("paused", 30_000)
	record = mustRecord(t, keeper, "paused")
	assert.Equal(t, int64(60_000), record.DefaultDurationMs)
	assert.Equal(t, int64(30_000), record.RemainingMs)

	keeper.Create("over", 1_000)
	keeper.Start("over")
	runTicks(keeper, clock, time.Second, 2*time.Second)
	keeper.ApplyDuration("over", 30_000)
	record = mustRecord(t, keeper, "over")
	assert.Equal(t, model.StatusOvertime, record.Status)
	assert.Equal(t, int64(1_000), record.DefaultDurationMs)

	keeper.ApplyDuration("idle", 0)
	assert.Equal(t, int64(90_000), mustRecord(t, keeper, "idle").RemainingMs)
}

func TestCreateIgnoresExistingAndZero(t *testing.T) {
	keeper, _, _ := newTestKeeper(t, 0)

	keeper.Create("eggs", 60_000)
	keeper.Create("eggs", 120_000)
	keeper.Create("zero", 0)

	assert.Equal(t, int64(60_000), mustRecord(t, keeper, "eggs").DefaultDurationMs)
	_, ok := keeper.Record("zero")
	assert.False(t, ok)
}

func TestEventsAndChangeHooks(t *testing.T) {
	keeper, clock, _ := newTestKeeper(t, 0)
	events := keeper.Subscribe(32)
	changes := 0
	keeper.OnChange(func() { changes++ })

	keeper.Create("eggs", 1_000)
	keeper.Start("eggs")
	keeper.Start("eggs")
	runTicks(keeper, clock, time.Second, 2*time.Second)

	var types []EventType
	for len(events) > 0 {
		types = append(types, (<-events).Type)
	}
	assert.Equal(t, []EventType{EventCreated, EventStateChange, EventStateChange, EventAlarm, EventProgress}, types)
	assert.Equal(t, 3, changes)
}

func TestTickThrottledToWholeSeconds(t *testing.T) {
	keeper, clock, _ := newTestKeeper(t, 0)
	events := keeper.Subscribe(64)

	keeper.Create("eggs", 60_000)
	keeper.Start("eggs")
	<-events
	<-events

	// Passes at 0.1s, 1s, 2s and 3s.
	runTicks(keeper, clock, 100*time.Millisecond, 3*time.Second)
	assert.Len(t, events, 4)
}

func TestStartAndStopTicking(t *testing.T) {
	keeper := New(model.KeeperConfig{TickInterval: 5 * time.Millisecond}, Options{})
	events := keeper.Subscribe(8)

	keeper.Create("eggs", 60_000)
	keeper.Start("eggs")
	keeper.StartTicking()
	keeper.StartTicking()

	require.Eventually(t, func() bool {
		for len(events) > 0 {
			if event := <-events; event.Type == EventProgress {
				return true
			}
		}
		return false
	}, 3*time.Second, 10*time.Millisecond)

	keeper.StopTicking()
	keeper.StopTicking()
	for range events {
	}
}

func TestView(t *testing.T) {
	keeper, clock, _ := newTestKeeper(t, 0)

	keeper.Create("eggs", 65_000)
	view, ok := keeper.View("eggs")
	require.True(t, ok)
	assert.Equal(t, "1m 05s", view.Remaining.String())
	assert.Equal(t, []Action{ActionStart}, view.Actions)
	assert.Equal(t, []int64{10_000, 30_000, 60_000}, view.Steps)
	assert.Empty(t, view.Overtime)

	keeper.Start("eggs")
	runTicks(keeper, clock, time.Second, 65*time.Second)
	clock.Advance(75 * time.Second)

	view, ok = keeper.View("eggs")
	require.True(t, ok)
	assert.Equal(t, model.StatusOvertime, view.Status)
	assert.True(t, view.Alarming)
	assert.Equal(t, "+1:15", view.Overtime)
	assert.Equal(t, "0s", view.Remaining.String())
	assert.Equal(t, []Action{ActionAcknowledge, ActionSnooze, ActionStop, ActionReset}, view.Actions)
}

func TestAdjustRemainingSaturates(t *testing.T) {
	keeper, _, _ := newTestKeeper(t, 0)
	events := keeper.Subscribe(8)

	keeper.Create("soup", 600_000)
	keeper.AdjustRemaining("soup", 3_000_000*3_600_000)
	record := mustRecord(t, keeper, "soup")
	assert.Equal(t, duration.MaxMilliseconds, record.RemainingMs)

	keeper.AdjustRemaining("soup", math.MaxInt64)
	assert.Equal(t, duration.MaxMilliseconds, mustRecord(t, keeper, "soup").RemainingMs)

	keeper.AdjustRemaining("soup", math.MinInt64)
	assert.Equal(t, int64(0), mustRecord(t, keeper, "soup").RemainingMs)

	<-events
	event := <-events
	assert.Equal(t, EventStateChange, event.Type)
	assert.Positive(t, event.Remaining)
}

// gatedAlarm holds PlayAlarm until released so a concurrent action can race
// the tick that started the alarm.
type gatedAlarm struct {
	mu      sync.Mutex
	calls   []string
	entered chan struct{}
	release chan struct{}
}

func (alarm *gatedAlarm) PlayAlarm() {
	alarm.record("play")
	close(alarm.entered)
	<-alarm.release
}

func (alarm *gatedAlarm) StopAlarm() {
	alarm.record("stop")
}

func (alarm *gatedAlarm) record(call string) {
	alarm.mu.Lock()
	alarm.calls = append(alarm.calls, call)
	alarm.mu.Unlock()
}

func (alarm *gatedAlarm) Calls() []string {
	alarm.mu.Lock()
	defer alarm.mu.Unlock()
	return append([]string(nil), alarm.calls...)
}

func TestAcknowledgeRacingTickLeavesAlarmOff(t *testing.T) {
	clock := newFakeClock(0)
	alarm := &gatedAlarm{entered: make(chan struct{}), release: make(chan struct{})}
	keeper := New(model.DefaultKeeperConfig(), Options{Now: clock.Now, Alarm: alarm})

	keeper.Create("a", 1_000)
	keeper.Start("a")
	keeper.tick(clock.Now())

	ticked := make(chan struct{})
	go func() {
		defer close(ticked)
		keeper.tick(clock.Advance(time.Second))
	}()
	<-alarm.entered

	acknowledged := make(chan struct{})
	go func() {
		defer close(acknowledged)
		keeper.Acknowledge("a")
	}()
	assert.Never(t, func() bool {
		select {
		case <-acknowledged:
			return true
		default:
			return false
		}
	}, 50*time.Millisecond, 5*time.Millisecond)

	close(alarm.release)
	<-ticked
	<-acknowledged

	assert.Equal(t, model.StatusFinished, mustRecord(t, keeper, "a").Status)
	assert.Equal(t, 0, keeper.Badge())
	assert.Equal(t, []string{"play", "stop"}, alarm.Calls())
}

type panickingAlarm struct{}

func (panickingAlarm) PlayAlarm() { panic("speaker unplugged") }
func (panickingAlarm) StopAlarm() {}

func TestTickIsolatesFailingRecord(t *testing.T) {
	t.Run("alarm panics", func(t *testing.T) {
		clock := newFakeClock(0)
		keeper := New(model.DefaultKeeperConfig(), Options{Now: clock.Now, Alarm: panickingAlarm{}})

		keeper.Create("a", 1_000)
		keeper.Create("b", 1_000)
		keeper.Create("c", 3_000)
		keeper.Start("a")
		keeper.Start("b")
		keeper.Start("c")
		keeper.tick(clock.Now())

		keeper.tick(clock.Advance(time.Second))
		assert.Equal(t, model.StatusOvertime, mustRecord(t, keeper, "a").Status)
		assert.Equal(t, model.StatusOvertime, mustRecord(t, keeper, "b").Status)
		assert.Equal(t, 2, keeper.Badge())

		keeper.AcknowledgeAll()
		assert.Equal(t, 0, keeper.Badge())

		keeper.tick(clock.Advance(2 * time.Second))
		assert.Equal(t, model.StatusOvertime, mustRecord(t, keeper, "c").Status)
		assert.Equal(t, 1, keeper.Badge())
	})

	t.Run("change hook panics", func(t *testing.T) {
		keeper, clock, alarm := newTestKeeper(t, 0)

		keeper.Create("a", 1_000)
		keeper.Create("b", 2_000)
		keeper.Start("a")
		keeper.Start("b")
		keeper.tick(clock.Now())
		keeper.OnChange(func() { panic("disk full") })

		keeper.tick(clock.Advance(time.Second))
		assert.Equal(t, model.StatusOvertime, mustRecord(t, keeper, "a").Status)
		assert.Equal(t, model.StatusRunning, mustRecord(t, keeper, "b").Status)

		keeper.tick(clock.Advance(time.Second))
		assert.Equal(t, model.StatusOvertime, mustRecord(t, keeper, "b").Status)
		assert.Equal(t, 2, keeper.Badge())
		alarm.AssertNumberOfCalls(t, "PlayAlarm", 1)
	})
}
