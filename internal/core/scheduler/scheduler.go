// Package scheduler decides, once per wall-clock second, what every timer
// needs from the tick loop. It holds no timers itself: Plan is a pure pass
// over a snapshot and the caller applies the transitions it returns.
package scheduler

import "zentimer/internal/core/model"

// Kind names what a tick asks the caller to do with one record.
type Kind string

const (
	// KindProgress refreshes the displayed remaining time of a running record.
	KindProgress Kind = "progress"
	// KindFinish moves a running record that crossed zero into overtime.
	KindFinish Kind = "finish"
	// KindOvertime refreshes the displayed overtime of an overtime record.
	KindOvertime Kind = "overtime"
)

// Transition is one planned change for one record.
type Transition struct {
	ID          string
	Kind        Kind
	RemainingMs int64
	OvertimeMs  int64
}

// Scheduler throttles the host callback to one pass per whole second.
// It is not safe for concurrent use.
type Scheduler struct {
	lastSecond int64
	started    bool
}

// New creates a scheduler that is due on its first call.
func New() *Scheduler {
	return &Scheduler{}
}

// Due reports whether a pass should run at nowMs, and records it when so.
func (scheduler *Scheduler) Due(nowMs int64) bool {
	second := floorDiv(nowMs, 1000)
	if scheduler.started && second == scheduler.lastSecond {
		return false
	}
	scheduler.started = true
	scheduler.lastSecond = second
	return true
}

// Plan visits every record and returns the transitions due at nowMs, in
// record order. Idle, paused and finished records produce nothing.
func Plan(records []model.TimerRecord, nowMs int64) []Transition {
	transitions := make([]Transition, 0, len(records))
	for _, record := range records {
		switch record.Status {
		case model.StatusRunning:
			remaining := record.LiveRemainingMs(nowMs)
			kind := KindProgress
			if remaining <= 0 {
				kind = KindFinish
			}
			transitions = append(transitions, Transition{
				ID:          record.ID,
				Kind:        kind,
				RemainingMs: remaining,
			})
		case model.StatusOvertime:
			transitions = append(transitions, Transition{
				ID:         record.ID,
				Kind:       KindOvertime,
				OvertimeMs: record.OvertimeMs(nowMs),
			})
		}
	}
	return transitions
}

func floorDiv(value, divisor int64) int64 {
	quotient := value / divisor
	if value%divisor != 0 && value < 0 {
		quotient--
	}
	return quotient
}
