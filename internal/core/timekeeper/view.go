package timekeeper

import (
	"zentimer/internal/core/duration"
	"zentimer/internal/core/model"
)

// View is the render model of one timer.
type View struct {
	ID          string
	Status      model.Status
	RemainingMs int64
	Remaining   duration.Groups
	OvertimeMs  int64
	// Overtime is "+M:SS" once the timer crossed zero, empty otherwise.
	Overtime string
	Alarming bool
	Actions  []Action
	// Steps are the quick-adjust increments for the current remaining time.
	Steps []int64
}

// View returns the render model of one timer at the current time.
func (keeper *Keeper) View(id string) (View, bool) {
	record, ok := keeper.Record(id)
	if !ok {
		return View{}, false
	}
	return NewView(record, model.EpochMs(keeper.options.Now())), true
}

// NewView renders a record at nowMs.
func NewView(record model.TimerRecord, nowMs int64) View {
	remaining := record.LiveRemainingMs(nowMs)
	view := View{
		ID:          record.ID,
		Status:      record.Status,
		RemainingMs: remaining,
		Remaining:   duration.Format(remaining),
		Alarming:    record.Alarming(),
		Actions:     actionsFor(record.Status),
		Steps:       duration.QuickSteps(remaining),
	}
	if record.PastZero() {
		view.OvertimeMs = record.OvertimeMs(nowMs)
		view.Overtime = "+" + duration.FormatClock(view.OvertimeMs)
	}
	return view
}

func actionsFor(status model.Status) []Action {
	switch status {
	case model.StatusIdle:
		return []Action{ActionStart}
	case model.StatusRunning:
		return []Action{ActionPause, ActionStop, ActionReset}
	case model.StatusPaused:
		return []Action{ActionResume, ActionStop, ActionReset}
	case model.StatusOvertime:
		return []Action{ActionAcknowledge, ActionSnooze, ActionStop, ActionReset}
	case model.StatusFinished:
		return []Action{ActionSnooze, ActionStop, ActionReset}
	}
	return nil
}
