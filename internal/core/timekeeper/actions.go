package timekeeper

import (
	"time"

	"zentimer/internal/core/duration"
	"zentimer/internal/core/model"
)

// Action names a user operation on one timer.
type Action string

const (
	ActionStart       Action = "start"
	ActionPause       Action = "pause"
	ActionResume      Action = "resume"
	ActionStop        Action = "stop"
	ActionReset       Action = "reset"
	ActionAcknowledge Action = "acknowledge"
	ActionSnooze      Action = "snooze"
	ActionToggle      Action = "toggle"
)

// Start moves an idle timer to running and captures the reset target.
func (keeper *Keeper) Start(id string) {
	keeper.mutate(id, keeper.options.Now(), func(record *model.TimerRecord, nowMs int64) {
		if record.Status != model.StatusIdle {
			return
		}
		defaultAtStart := record.DefaultDurationMs
		record.Status = model.StatusRunning
		record.Anchor(nowMs, record.RemainingMs)
		record.DefaultAtStartMs = &defaultAtStart
		record.Acknowledged = true
	})
}

// Pause freezes the live remaining time of a running timer.
func (keeper *Keeper) Pause(id string) {
	keeper.mutate(id, keeper.options.Now(), func(record *model.TimerRecord, nowMs int64) {
		if record.Status != model.StatusRunning {
			return
		}
		record.RemainingMs = record.LiveRemainingMs(nowMs)
		record.Status = model.StatusPaused
		record.ClearAnchor()
	})
}

// Resume re-anchors a paused timer at the current time.
func (keeper *Keeper) Resume(id string) {
	keeper.mutate(id, keeper.options.Now(), func(record *model.TimerRecord, nowMs int64) {
		if record.Status != model.StatusPaused {
			return
		}
		record.Status = model.StatusRunning
		record.Anchor(nowMs, record.RemainingMs)
	})
}

// Stop returns any timer to idle at its current default duration.
func (keeper *Keeper) Stop(id string) {
	keeper.mutate(id, keeper.options.Now(), func(record *model.TimerRecord, _ int64) {
		toIdle(record, record.DefaultDurationMs)
	})
}

// Reset returns any timer to idle at the default captured by its last start,
// or at its current default when it never started.
func (keeper *Keeper) Reset(id string) {
	keeper.mutate(id, keeper.options.Now(), func(record *model.TimerRecord, _ int64) {
		target := record.ResetTarget()
		record.DefaultDurationMs = target
		toIdle(record, target)
	})
}

func toIdle(record *model.TimerRecord, remainingMs int64) {
	record.Status = model.StatusIdle
	record.RemainingMs = remainingMs
	record.Acknowledged = true
	record.FinishedAtEpochMs = 0
	record.DefaultAtStartMs = nil
	record.ClearAnchor()
}

// AdjustRemaining adds deltaMs to the remaining time in any state, flooring
// at zero and capping at duration.MaxMilliseconds. A running timer is
// re-anchored immediately.
func (keeper *Keeper) AdjustRemaining(id string, deltaMs int64) {
	deltaMs = max(-duration.MaxMilliseconds, min(deltaMs, duration.MaxMilliseconds))
	keeper.mutate(id, keeper.options.Now(), func(record *model.TimerRecord, nowMs int64) {
		live := duration.ClampMilliseconds(record.LiveRemainingMs(nowMs))
		next := duration.ClampMilliseconds(live + deltaMs)
		if record.Status == model.StatusRunning {
			record.Anchor(nowMs, next)
			return
		}
		record.RemainingMs = next
	})
}

// Acknowledge silences an overtime timer and marks it finished.
func (keeper *Keeper) Acknowledge(id string) {
	keeper.mutate(id, keeper.options.Now(), func(record *model.TimerRecord, _ int64) {
		if record.Status != model.StatusOvertime {
			return
		}
		record.Status = model.StatusFinished
		record.Acknowledged = true
	})
}

// AcknowledgeAll silences every overtime timer.
func (keeper *Keeper) AcknowledgeAll() {
	for _, id := range keeper.alarmingIDs() {
		keeper.Acknowledge(id)
	}
}

// Snooze restarts a timer that crossed zero with the configured snooze time
// added to its remaining time.
func (keeper *Keeper) Snooze(id string) {
	keeper.mu.Lock()
	snooze := keeper.config.Alarm.Snooze
	keeper.mu.Unlock()

	keeper.mutate(id, keeper.options.Now(), func(record *model.TimerRecord, nowMs int64) {
		if !record.PastZero() {
			return
		}
		record.Status = model.StatusRunning
		record.Acknowledged = true
		record.FinishedAtEpochMs = 0
		record.Anchor(nowMs, record.RemainingMs+snooze.Milliseconds())
	})
}

// Toggle is the single-key control: start when idle, pause when running,
// resume when paused, acknowledge when overtime. Finished timers are stopped.
func (keeper *Keeper) Toggle(id string) {
	record, ok := keeper.Record(id)
	if !ok {
		return
	}
	switch record.Status {
	case model.StatusIdle:
		keeper.Start(id)
	case model.StatusRunning:
		keeper.Pause(id)
	case model.StatusPaused:
		keeper.Resume(id)
	case model.StatusOvertime:
		keeper.Acknowledge(id)
	case model.StatusFinished:
		keeper.Stop(id)
	}
}

// Do dispatches a named action. Unknown actions are ignored.
func (keeper *Keeper) Do(id string, action Action) {
	switch action {
	case ActionStart:
		keeper.Start(id)
	case ActionPause:
		keeper.Pause(id)
	case ActionResume:
		keeper.Resume(id)
	case ActionStop:
		keeper.Stop(id)
	case ActionReset:
		keeper.Reset(id)
	case ActionAcknowledge:
		keeper.Acknowledge(id)
	case ActionSnooze:
		keeper.Snooze(id)
	case ActionToggle:
		keeper.Toggle(id)
	}
}

// Create adds an idle record for a newly parsed line. An existing id is left
// untouched.
func (keeper *Keeper) Create(id string, durationMs int64) {
	if durationMs <= 0 {
		return
	}
	at := keeper.options.Now()

	keeper.mu.Lock()
	if _, exists := keeper.records[id]; exists {
		keeper.mu.Unlock()
		return
	}
	record := model.NewRecord(id, durationMs)
	keeper.records[id] = &record
	event := keeper.recordEventLocked(EventCreated, &record, at)
	keeper.mu.Unlock()

	keeper.publish(nil, event)
}

// ApplyDuration feeds a re-parsed duration into an existing record. Idle
// records take it as both default and remaining; running and paused records
// only take it as remaining, so reset still returns to the value captured at
// start. Records past zero keep their state until stopped or reset.
func (keeper *Keeper) ApplyDuration(id string, durationMs int64) {
	if durationMs <= 0 {
		return
	}
	keeper.mutate(id, keeper.options.Now(), func(record *model.TimerRecord, nowMs int64) {
		switch record.Status {
		case model.StatusIdle:
			record.DefaultDurationMs = durationMs
			record.RemainingMs = durationMs
		case model.StatusRunning:
			record.Anchor(nowMs, durationMs)
		case model.StatusPaused:
			record.RemainingMs = durationMs
		}
	})
}

// Delete removes a record whose line no longer parses or was deleted.
func (keeper *Keeper) Delete(id string) {
	at := keeper.options.Now()
	event, alarm, ok := keeper.deleteRecord(id, at)
	if !ok {
		return
	}
	keeper.publish(alarm, event)
}

func (keeper *Keeper) deleteRecord(id string, at time.Time) (Event, *Event, bool) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	record, ok := keeper.records[id]
	if !ok {
		return Event{}, nil, false
	}
	delete(keeper.records, id)
	event := Event{
		Type:   EventRemoved,
		ID:     id,
		Status: record.Status,
		Badge:  keeper.badgeLocked(),
		At:     at,
	}
	return event, keeper.syncAlarmLocked(at), true
}

// Record returns a copy of one record.
func (keeper *Keeper) Record(id string) (model.TimerRecord, bool) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	record, ok := keeper.records[id]
	if !ok {
		return model.TimerRecord{}, false
	}
	return record.Clone(), true
}

// Records returns a copy of every record, ordered by id.
func (keeper *Keeper) Records() []model.TimerRecord {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.snapshotLocked()
}

// Badge returns the number of unacknowledged overtime records.
func (keeper *Keeper) Badge() int {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.badgeLocked()
}

func (keeper *Keeper) alarmingIDs() []string {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	var ids []string
	for _, record := range keeper.snapshotLocked() {
		if record.Alarming() {
			ids = append(ids, record.ID)
		}
	}
	return ids
}
