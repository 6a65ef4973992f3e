// Package term is the line-oriented command surface over an open timer
// document.
package term

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"zentimer/internal/app"
	"zentimer/internal/core/binder"
	"zentimer/internal/core/duration"
	"zentimer/internal/core/model"
	"zentimer/internal/core/timekeeper"
)

// Shell executes text commands against an App.
type Shell struct {
	app *app.App
}

// NewShell creates a shell for app.
func NewShell(app *app.App) *Shell {
	return &Shell{app: app}
}

var lineActions = map[string]timekeeper.Action{
	"start":  timekeeper.ActionStart,
	"pause":  timekeeper.ActionPause,
	"resume": timekeeper.ActionResume,
	"stop":   timekeeper.ActionStop,
	"reset":  timekeeper.ActionReset,
	"ack":    timekeeper.ActionAcknowledge,
	"snooze": timekeeper.ActionSnooze,
	"toggle": timekeeper.ActionToggle,
	"t":      timekeeper.ActionToggle,
}

// Execute runs one command line and reports whether the shell should exit.
func (shell *Shell) Execute(out io.Writer, input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return false
	}
	command, rest, _ := strings.Cut(input, " ")
	command = strings.ToLower(command)
	rest = strings.TrimSpace(rest)

	if action, ok := lineActions[command]; ok {
		shell.cmdAction(out, action, rest)
		return false
	}

	switch command {
	case "help", "?":
		printHelp(out)
	case "list", "ls", "l":
		shell.cmdList(out)
	case "add", "a":
		shell.cmdAdd(out, rest)
	case "set":
		shell.cmdSet(out, rest)
	case "insert", "ins":
		shell.cmdInsert(out, rest)
	case "delete", "del", "rm":
		shell.cmdDelete(out, rest)
	case "adjust", "adj":
		shell.cmdAdjust(out, rest)
	case "volume", "vol":
		shell.cmdVolume(out, rest)
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(out, "Unknown command: %s (type 'help' for commands)\n", command)
	}
	return false
}

// Prompt renders the input prompt with the overtime badge.
func (shell *Shell) Prompt() string {
	if badge := shell.app.Keeper.Badge(); badge > 0 {
		return fmt.Sprintf("(%d) %s> ", badge, app.Name)
	}
	return app.Name + "> "
}

// Notice renders a one-line announcement for events worth interrupting
// the prompt for.
func (shell *Shell) Notice(event timekeeper.Event) (string, bool) {
	if event.Type != timekeeper.EventStateChange || event.Status != model.StatusOvertime {
		return "", false
	}
	position, ok := shell.app.Binder.LineOf(event.ID)
	if !ok {
		return "", false
	}
	name := "timer"
	for _, view := range shell.app.Binder.Lines() {
		if view.ID == event.ID && view.Label != "" {
			name = view.Label
		}
	}
	return fmt.Sprintf("line %d: %s is up", position+1, name), true
}

func (shell *Shell) cmdList(out io.Writer) {
	lines := shell.app.Binder.Lines()
	if len(lines) == 0 {
		fmt.Fprintln(out, "(empty)")
		return
	}
	for _, view := range lines {
		fmt.Fprintln(out, formatLine(view))
	}
}

func formatLine(view binder.LineView) string {
	if view.Timer == nil {
		return fmt.Sprintf("%3d   %s", view.Index+1, view.Text)
	}
	timer := view.Timer
	shown := timer.Remaining.String()
	if timer.Overtime != "" {
		shown = timer.Overtime
	}
	marker := " "
	if timer.Alarming {
		marker = "!"
	}
	return fmt.Sprintf("%3d %s %-9s %-12s %s", view.Index+1, marker, timer.Status, shown, view.Label)
}

func (shell *Shell) cmdAdd(out io.Writer, text string) {
	position := len(shell.app.Binder.Lines())
	shell.app.Binder.InsertLine(position, text)
	shell.report(out, position)
}

func (shell *Shell) cmdSet(out io.Writer, rest string) {
	position, text, ok := lineAndText(out, rest)
	if !ok {
		return
	}
	shell.app.Binder.SetLine(position, text)
	shell.report(out, position)
}

func (shell *Shell) cmdInsert(out io.Writer, rest string) {
	position, text, ok := lineAndText(out, rest)
	if !ok {
		return
	}
	shell.app.Binder.InsertLine(position, text)
	shell.report(out, min(position, len(shell.app.Binder.Lines())-1))
}

func (shell *Shell) cmdDelete(out io.Writer, rest string) {
	position, ok := shell.lineNumber(out, rest)
	if !ok {
		return
	}
	shell.app.Binder.DeleteLine(position)
	fmt.Fprintf(out, "deleted line %d\n", position+1)
}

func (shell *Shell) cmdAction(out io.Writer, action timekeeper.Action, rest string) {
	if action == timekeeper.ActionAcknowledge && strings.EqualFold(rest, "all") {
		shell.app.Keeper.AcknowledgeAll()
		fmt.Fprintln(out, "all alarms off")
		return
	}
	position, ok := shell.lineNumber(out, rest)
	if !ok {
		return
	}
	id, ok := shell.app.Binder.IDAt(position)
	if !ok {
		fmt.Fprintf(out, "line %d has no timer\n", position+1)
		return
	}
	shell.app.Keeper.Do(id, action)
	shell.report(out, position)
}

func (shell *Shell) cmdAdjust(out io.Writer, rest string) {
	number, step, _ := strings.Cut(rest, " ")
	position, ok := shell.lineNumber(out, number)
	if !ok {
		return
	}
	delta, ok := duration.ParseStep(strings.TrimSpace(step))
	if !ok {
		fmt.Fprintf(out, "invalid step %q (try +30s or -5m)\n", strings.TrimSpace(step))
		return
	}
	id, ok := shell.app.Binder.IDAt(position)
	if !ok {
		fmt.Fprintf(out, "line %d has no timer\n", position+1)
		return
	}
	shell.app.Keeper.AdjustRemaining(id, delta)
	if delta < 0 {
		fmt.Fprintf(out, "removed %s\n", duration.StepLong(-delta))
	} else {
		fmt.Fprintf(out, "added %s\n", duration.StepLong(delta))
	}
	shell.report(out, position)
}

func (shell *Shell) cmdVolume(out io.Writer, rest string) {
	if rest == "" {
		fmt.Fprintf(out, "volume %.0f%%\n", shell.app.Settings().Volume*100)
		return
	}
	value, err := strconv.ParseFloat(strings.TrimSuffix(rest, "%"), 64)
	if err != nil {
		fmt.Fprintf(out, "invalid volume %q\n", rest)
		return
	}
	if strings.HasSuffix(rest, "%") || value > 1 {
		value /= 100
	}
	volume := shell.app.SetVolume(value)
	fmt.Fprintf(out, "volume %.0f%%\n", volume*100)
}

func (shell *Shell) report(out io.Writer, position int) {
	for _, view := range shell.app.Binder.Lines() {
		if view.Index == position {
			fmt.Fprintln(out, formatLine(view))
			return
		}
	}
}

func (shell *Shell) lineNumber(out io.Writer, text string) (int, bool) {
	number, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || number < 1 {
		fmt.Fprintf(out, "invalid line number %q\n", text)
		return 0, false
	}
	if number > len(shell.app.Binder.Lines()) {
		fmt.Fprintf(out, "no line %d\n", number)
		return 0, false
	}
	return number - 1, true
}

func lineAndText(out io.Writer, rest string) (int, string, bool) {
	number, text, _ := strings.Cut(rest, " ")
	value, err := strconv.Atoi(number)
	if err != nil || value < 1 {
		fmt.Fprintf(out, "invalid line number %q\n", number)
		return 0, "", false
	}
	return value - 1, text, true
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, `
Commands:
  Document:
    list                  - Show every line with its timer
    add <text>            - Append a line ("5 tea", "2h 30m stock")
    set <n> <text>        - Replace line n
    insert <n> <text>     - Insert a line before line n
    delete <n>            - Remove line n and its timer

  Timers:
    start|pause|resume <n>
    stop|reset <n>
    toggle <n>            - Start, pause, resume or silence line n
    ack <n|all>           - Silence an alarm
    snooze <n>            - Restart an alarm with the snooze time added
    adjust <n> <step>     - Add or remove time (+30s, -5m)

  Other:
    volume [0-100]        - Show or set the alarm volume
    help                  - Show this help
    quit                  - Save and exit`)
}
