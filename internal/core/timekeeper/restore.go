package timekeeper

import (
	"time"

	"zentimer/internal/core/model"
)

// Restore replaces every record with a loaded set and applies the resume
// protocol. Running records are re-anchored to now with whatever time was
// left when they were saved minus the time spent unloaded; one that ran out
// meanwhile is discovered already in overtime, alarm included. Paused and
// other records load verbatim. Records without an id are ignored.
func (keeper *Keeper) Restore(records []model.TimerRecord) {
	at := keeper.options.Now()
	count, resumed, expired, alarm := keeper.restoreRecords(records, at)

	keeper.options.Logger.Info().
		Int("records", count).
		Int("resumed", resumed).
		Int("expired", expired).
		Msg("timers restored")

	keeper.publish(alarm)
}

func (keeper *Keeper) restoreRecords(records []model.TimerRecord, at time.Time) (count, resumed, expired int, alarm *Event) {
	nowMs := model.EpochMs(at)

	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	keeper.records = make(map[string]*model.TimerRecord, len(records))
	for _, loaded := range records {
		if loaded.ID == "" {
			continue
		}
		record := loaded.Clone()
		if record.Status == model.StatusRunning {
			elapsed := max(nowMs-record.StartEpochMs, 0)
			remaining := record.RemainingMsAtStart - elapsed
			if remaining > 0 {
				record.Anchor(nowMs, remaining)
				resumed++
			} else {
				enterOvertime(&record, nowMs)
				expired++
			}
		}
		keeper.records[record.ID] = &record
	}
	return len(keeper.records), resumed, expired, keeper.syncAlarmLocked(at)
}
