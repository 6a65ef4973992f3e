package model

import "time"

// Status is the lifecycle state of a TimerRecord.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusRunning  Status = "running"
	StatusPaused   Status = "paused"
	StatusFinished Status = "finished"
	StatusOvertime Status = "overtime"
)

// Valid reports whether the status is one of the known states.
func (status Status) Valid() bool {
	switch status {
	case StatusIdle, StatusRunning, StatusPaused, StatusFinished, StatusOvertime:
		return true
	}
	return false
}

// TimerRecord is the persisted, identity-bearing state of one countdown.
// All times are milliseconds; epochs are Unix milliseconds.
type TimerRecord struct {
	ID                 string `json:"id" validate:"required"`
	DefaultDurationMs  int64  `json:"defaultDurationMs" validate:"gt=0"`
	RemainingMs        int64  `json:"remainingMs" validate:"gte=0"`
	Status             Status `json:"status" validate:"oneof=idle running paused finished overtime"`
	StartEpochMs       int64  `json:"startEpochMs,omitempty" validate:"gte=0"`
	RemainingMsAtStart int64  `json:"remainingMsAtStart,omitempty" validate:"gte=0"`
	FinishedAtEpochMs  int64  `json:"finishedAtEpochMs,omitempty" validate:"gte=0"`
	Acknowledged       bool   `json:"acknowledged"`
	DefaultAtStartMs   *int64 `json:"defaultAtStartMs,omitempty" validate:"omitempty,gt=0"`
}

// NewRecord returns an idle record seeded from a parsed duration.
func NewRecord(id string, durationMs int64) TimerRecord {
	return TimerRecord{
		ID:                id,
		DefaultDurationMs: durationMs,
		RemainingMs:       durationMs,
		Status:            StatusIdle,
		Acknowledged:      true,
	}
}

// LiveRemainingMs returns the remaining time at nowMs. Only running records
// consult the anchor; every other state reports RemainingMs as stored.
func (record TimerRecord) LiveRemainingMs(nowMs int64) int64 {
	if record.Status != StatusRunning {
		return record.RemainingMs
	}
	remaining := record.RemainingMsAtStart - (nowMs - record.StartEpochMs)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// OvertimeMs returns how long the record has been past zero.
func (record TimerRecord) OvertimeMs(nowMs int64) int64 {
	if !record.PastZero() || record.FinishedAtEpochMs == 0 {
		return 0
	}
	elapsed := nowMs - record.FinishedAtEpochMs
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// PastZero reports whether the countdown has crossed zero.
func (record TimerRecord) PastZero() bool {
	return record.Status == StatusOvertime || record.Status == StatusFinished
}

// Alarming reports whether the record keeps the shared alarm sounding.
func (record TimerRecord) Alarming() bool {
	return record.Status == StatusOvertime && !record.Acknowledged
}

// Anchor re-bases live computation on (nowMs, remainingMs).
func (record *TimerRecord) Anchor(nowMs, remainingMs int64) {
	record.RemainingMs = remainingMs
	record.StartEpochMs = nowMs
	record.RemainingMsAtStart = remainingMs
}

// ClearAnchor drops the running anchor once the record leaves running.
func (record *TimerRecord) ClearAnchor() {
	record.StartEpochMs = 0
	record.RemainingMsAtStart = 0
}

// ResetTarget returns the value reset restores: the default captured at
// start, or the current default if the record never started.
func (record TimerRecord) ResetTarget() int64 {
	if record.DefaultAtStartMs != nil {
		return *record.DefaultAtStartMs
	}
	return record.DefaultDurationMs
}

// Clone returns a deep copy.
func (record TimerRecord) Clone() TimerRecord {
	if record.DefaultAtStartMs != nil {
		value := *record.DefaultAtStartMs
		record.DefaultAtStartMs = &value
	}
	return record
}

// EpochMs converts a wall-clock time to Unix milliseconds.
func EpochMs(at time.Time) int64 {
	return at.UnixMilli()
}
