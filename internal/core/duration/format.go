package duration

import (
	"fmt"
	"strconv"
	"strings"
)

// Unit marks a display group.
type Unit string

const (
	UnitHours   Unit = "h"
	UnitMinutes Unit = "m"
	UnitSeconds Unit = "s"
)

// Group is one displayed number with its unit marker.
type Group struct {
	Value string
	Unit  Unit
}

// Groups is an ordered, most-significant-first display of a duration.
type Groups []Group

// Format splits ms into display groups. The hour group appears iff h > 0,
// the minute group iff h > 0 or m > 0, the second group iff any higher group
// is non-zero or s > 0. Lower groups are zero-padded under a higher group.
// Zero renders as a single "0" seconds group; sub-second remainders are
// truncated.
func Format(ms int64) Groups {
	if ms < 0 {
		ms = -ms
	}
	hours := ms / msPerHour
	minutes := (ms % msPerHour) / msPerMinute
	seconds := (ms % msPerMinute) / msPerSecond

	groups := make(Groups, 0, 3)
	if hours > 0 {
		groups = append(groups, Group{Value: strconv.FormatInt(hours, 10), Unit: UnitHours})
	}
	if hours > 0 || minutes > 0 {
		groups = append(groups, Group{Value: pad(minutes, hours > 0), Unit: UnitMinutes})
	}
	if hours > 0 || minutes > 0 || seconds > 0 {
		groups = append(groups, Group{Value: pad(seconds, hours > 0 || minutes > 0), Unit: UnitSeconds})
	}
	if len(groups) == 0 {
		groups = append(groups, Group{Value: "0", Unit: UnitSeconds})
	}
	return groups
}

// Milliseconds reconstructs the numeric value of the groups.
func (groups Groups) Milliseconds() int64 {
	total := int64(0)
	for _, group := range groups {
		value, err := strconv.ParseInt(group.Value, 10, 64)
		if err != nil {
			continue
		}
		switch group.Unit {
		case UnitHours:
			total += value * msPerHour
		case UnitMinutes:
			total += value * msPerMinute
		case UnitSeconds:
			total += value * msPerSecond
		}
	}
	return total
}

// String renders the groups as "2h 05m 00s".
func (groups Groups) String() string {
	parts := make([]string, 0, len(groups))
	for _, group := range groups {
		parts = append(parts, group.Value+string(group.Unit))
	}
	return strings.Join(parts, " ")
}

// FormatClock renders an elapsed value as M:SS, or HH:MM:SS past an hour.
// Used for the overtime display.
func FormatClock(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	hours := ms / msPerHour
	minutes := (ms % msPerHour) / msPerMinute
	seconds := (ms % msPerMinute) / msPerSecond
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

func pad(value int64, padded bool) string {
	if padded {
		return fmt.Sprintf("%02d", value)
	}
	return strconv.FormatInt(value, 10)
}
