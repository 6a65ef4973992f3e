package duration

import "fmt"

// QuickSteps returns the quick-adjust increments offered for a remaining
// time: seconds under a minute, tens of seconds under an hour, tens of
// minutes otherwise.
func QuickSteps(remainingMs int64) []int64 {
	switch {
	case remainingMs < msPerMinute:
		return []int64{1 * msPerSecond, 5 * msPerSecond, 10 * msPerSecond}
	case remainingMs < msPerHour:
		return []int64{10 * msPerSecond, 30 * msPerSecond, 60 * msPerSecond}
	default:
		return []int64{10 * msPerMinute, 30 * msPerMinute, 60 * msPerMinute}
	}
}

// StepShort labels a step compactly: "1h", "5m", "10s", "250ms".
func StepShort(ms int64) string {
	switch {
	case ms != 0 && ms%msPerHour == 0:
		return fmt.Sprintf("%dh", ms/msPerHour)
	case ms != 0 && ms%msPerMinute == 0:
		return fmt.Sprintf("%dm", ms/msPerMinute)
	case ms != 0 && ms%msPerSecond == 0:
		return fmt.Sprintf("%ds", ms/msPerSecond)
	}
	return fmt.Sprintf("%dms", ms)
}

// StepLong labels a step for accessibility text: "1 minute", "30 seconds".
func StepLong(ms int64) string {
	switch {
	case ms != 0 && ms%msPerHour == 0:
		return plural(ms/msPerHour, "hour")
	case ms != 0 && ms%msPerMinute == 0:
		return plural(ms/msPerMinute, "minute")
	case ms != 0 && ms%msPerSecond == 0:
		return plural(ms/msPerSecond, "second")
	}
	return fmt.Sprintf("%d ms", ms)
}

// ParseStep reads a signed adjustment such as "+30s", "-5m" or "10".
func ParseStep(text string) (int64, bool) {
	sign := int64(1)
	if len(text) > 0 && (text[0] == '+' || text[0] == '-') {
		if text[0] == '-' {
			sign = -1
		}
		text = text[1:]
	}
	token, ok := Parse(text)
	if !ok || token.Offset != 0 || token.Label != "" {
		return 0, false
	}
	return sign * token.Milliseconds, true
}

func plural(count int64, unit string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, unit)
	}
	return fmt.Sprintf("%d %ss", count, unit)
}
