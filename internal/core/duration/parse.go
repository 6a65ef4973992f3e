// Package duration parses and formats the duration expressions that turn a
// line of text into a timer.
//
// Grammar, first match wins:
//
//	2h 30m 15s   unit groups, any order, case-insensitive, summed
//	1:02:03      H:MM:SS
//	00:05        H:MM when the first part has two or more digits
//	0:45         M:S when the first part has one digit
//	5            bare minutes
//
// A number or unit must be followed by end of line or a non-word character,
// so "5min" is not a duration while "5 min" is five minutes labelled "min".
// Unit groups may also run together without spaces ("2h30m").
package duration

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	msPerSecond = int64(1000)
	msPerMinute = 60 * msPerSecond
	msPerHour   = 60 * msPerMinute
)

// Kind names the grammar rule that produced a token.
type Kind string

const (
	KindUnits   Kind = "units"
	KindHMS     Kind = "hms"
	KindColon   Kind = "colon"
	KindMinutes Kind = "minutes"
)

// Token is the parse result of one duration expression within a line.
type Token struct {
	Milliseconds int64
	// Offset is the byte index where the expression starts.
	Offset int
	// ConsumedLength covers the expression and, for unit groups, the
	// whitespace between and after groups.
	ConsumedLength int
	Label          string
	Kind           Kind
}

// Parse reads a duration expression from the start of line, after leading
// spaces. When the line does not start with one, a trailing expression that
// ends the line is accepted and the text before it becomes the label
// ("tea 0:45"). ok is false when nothing matches or the total is zero.
func Parse(line string) (Token, bool) {
	start := 0
	for start < len(line) && line[start] == ' ' {
		start++
	}
	if token, matched := parseAt(line, start); matched {
		return token, token.Milliseconds > 0
	}
	return parseTrailing(line, start)
}

// parseAt applies the grammar at position start. matched reports whether a
// rule claimed the input, even when the result is rejected.
func parseAt(line string, start int) (Token, bool) {
	if token, matched := parseUnits(line, start); matched {
		return token, true
	}
	if token, matched := parseThreePart(line, start); matched {
		return token, true
	}
	if token, matched := parseTwoPart(line, start); matched {
		return token, true
	}
	return parseMinutes(line, start)
}

func parseTrailing(line string, from int) (Token, bool) {
	for index := from + 1; index < len(line); index++ {
		if !isSpace(line[index-1]) || !isDigit(line[index]) {
			continue
		}
		token, matched := parseAt(line, index)
		if !matched || token.Milliseconds <= 0 {
			continue
		}
		if strings.TrimSpace(line[index+token.ConsumedLength:]) != "" {
			continue
		}
		token.Label = strings.TrimSpace(line[from:index])
		return token, true
	}
	return Token{}, false
}

func parseUnits(line string, start int) (Token, bool) {
	total := int64(0)
	matched := false
	position := start
	for {
		value, next, ok := readInt(line, position)
		if !ok {
			break
		}
		next = skipSpaces(line, next)
		if next >= len(line) {
			break
		}
		unit := unitMs(line[next])
		if unit == 0 || !unitEnds(line, next+1) {
			break
		}
		matched = true
		total = addClamped(total, mulClamped(value, unit))
		position = skipSpaces(line, next+1)
	}
	if !matched {
		return Token{}, false
	}
	return newToken(line, start, position, total, KindUnits), true
}

func parseThreePart(line string, start int) (Token, bool) {
	hours, next, ok := readInt(line, start)
	if !ok || next >= len(line) || line[next] != ':' {
		return Token{}, false
	}
	minutes, next, ok := readShort(line, next+1, false)
	if !ok || next >= len(line) || line[next] != ':' {
		return Token{}, false
	}
	seconds, end, ok := readShort(line, next+1, true)
	if !ok {
		return Token{}, false
	}
	if minutes >= 60 || seconds >= 60 {
		return Token{}, true
	}
	total := addClamped(mulClamped(hours, msPerHour), minutes*msPerMinute+seconds*msPerSecond)
	return newToken(line, start, end, total, KindHMS), true
}

func parseTwoPart(line string, start int) (Token, bool) {
	first, next, ok := readInt(line, start)
	if !ok || next >= len(line) || line[next] != ':' {
		return Token{}, false
	}
	firstDigits := next - start
	second, end, ok := readShort(line, next+1, true)
	if !ok {
		return Token{}, false
	}
	if second >= 60 {
		return Token{}, true
	}
	var total int64
	if firstDigits >= 2 {
		total = addClamped(mulClamped(first, msPerHour), second*msPerMinute)
	} else {
		total = first*msPerMinute + second*msPerSecond
	}
	return newToken(line, start, end, total, KindColon), true
}

func parseMinutes(line string, start int) (Token, bool) {
	value, end, ok := readInt(line, start)
	if !ok || !atBoundary(line, end) {
		return Token{}, false
	}
	return newToken(line, start, end, mulClamped(value, msPerMinute), KindMinutes), true
}

func newToken(line string, start, end int, total int64, kind Kind) Token {
	return Token{
		Milliseconds:   total,
		Offset:         start,
		ConsumedLength: end - start,
		Label:          strings.TrimLeft(line[end:], " \t"),
		Kind:           kind,
	}
}

// readInt reads one or more digits at position.
func readInt(line string, position int) (int64, int, bool) {
	end := position
	for end < len(line) && isDigit(line[end]) {
		end++
	}
	if end == position {
		return 0, position, false
	}
	value, err := strconv.ParseInt(line[position:end], 10, 64)
	if err != nil {
		return 0, position, false
	}
	return value, end, true
}

// readShort reads one or two digits. With boundary set the digits must be
// followed by a non-word character; a two-digit read falls back to one digit
// the same way a backtracking \d{1,2}\b would.
func readShort(line string, position int, boundary bool) (int64, int, bool) {
	for width := 2; width >= 1; width-- {
		end := position + width
		if end > len(line) {
			continue
		}
		if !isDigit(line[position]) || (width == 2 && !isDigit(line[position+1])) {
			continue
		}
		if boundary && !atBoundary(line, end) {
			continue
		}
		if !boundary && (end >= len(line) || line[end] != ':') {
			continue
		}
		value, _ := strconv.ParseInt(line[position:end], 10, 64)
		return value, end, true
	}
	return 0, position, false
}

func skipSpaces(line string, position int) int {
	for position < len(line) && isSpace(line[position]) {
		position++
	}
	return position
}

func unitMs(char byte) int64 {
	switch char {
	case 'h', 'H':
		return msPerHour
	case 'm', 'M':
		return msPerMinute
	case 's', 'S':
		return msPerSecond
	}
	return 0
}

// unitEnds reports whether a unit letter ending before position stands alone
// or runs straight into another complete group ("2h30m"). "5m3" has no
// group after the m and does not end.
func unitEnds(line string, position int) bool {
	if atBoundary(line, position) {
		return true
	}
	if !isDigit(line[position]) {
		return false
	}
	_, next, ok := readInt(line, position)
	if !ok {
		return false
	}
	next = skipSpaces(line, next)
	return next < len(line) && unitMs(line[next]) != 0 && unitEnds(line, next+1)
}

// atBoundary reports whether a word ends just before position.
func atBoundary(line string, position int) bool {
	return position >= len(line) || !isWord(line[position])
}

func isDigit(char byte) bool {
	return char >= '0' && char <= '9'
}

func isSpace(char byte) bool {
	return char == ' ' || char == '\t' || char == '\n' || char == '\r' || char == '\f' || char == '\v'
}

func isWord(char byte) bool {
	return isDigit(char) || char == '_' || (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z')
}

// MaxMilliseconds is the largest duration a token carries. It is the
// largest millisecond count a time.Duration can hold.
const MaxMilliseconds = math.MaxInt64 / int64(time.Millisecond)

func mulClamped(value, unit int64) int64 {
	if value > MaxMilliseconds/unit {
		return MaxMilliseconds
	}
	return value * unit
}

func addClamped(left, right int64) int64 {
	if left > MaxMilliseconds-right {
		return MaxMilliseconds
	}
	return left + right
}

// ClampMilliseconds bounds ms to 0..MaxMilliseconds.
func ClampMilliseconds(ms int64) int64 {
	return max(0, min(ms, MaxMilliseconds))
}
