// Package editor is the desktop timer document: free text on the left, one
// control row per timer line on the right.
package editor

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"zentimer/internal/app"
	"zentimer/internal/core/binder"
	"zentimer/internal/core/duration"
	"zentimer/internal/core/model"
	"zentimer/internal/core/timekeeper"
)

// Editor owns the timers window.
type Editor struct {
	app    *app.App
	window fyne.Window
	entry  *widget.Entry
	list   *widget.List
	rows   []binder.LineView
}

// New creates the timers window for opened.
func New(fyneApp fyne.App, opened *app.App, title string) *Editor {
	editor := &Editor{
		app:    opened,
		window: fyneApp.NewWindow(title),
	}

	editor.entry = widget.NewMultiLineEntry()
	editor.entry.PlaceHolder = "5 tea\n2h 30m beef stock\nsteep leaves 0:45"
	editor.entry.Wrapping = fyne.TextWrapOff
	editor.entry.SetText(opened.Binder.Text())
	editor.entry.OnChanged = func(text string) {
		editor.app.Binder.ApplyText(text)
		editor.Refresh()
	}

	editor.list = widget.NewList(
		func() int { return len(editor.rows) },
		newRow,
		func(index widget.ListItemID, object fyne.CanvasObject) {
			if index < len(editor.rows) {
				editor.bindRow(editor.rows[index], object)
			}
		},
	)

	split := container.NewHSplit(editor.entry, editor.list)
	split.Offset = 0.45
	editor.window.SetContent(split)
	editor.window.Resize(fyne.NewSize(860, 420))
	editor.Refresh()
	return editor
}

// Window returns the editor window.
func (editor *Editor) Window() fyne.Window {
	return editor.window
}

// Show displays the editor window.
func (editor *Editor) Show() {
	editor.window.Show()
	editor.window.RequestFocus()
}

// Refresh re-reads every line. Must run on the UI goroutine.
func (editor *Editor) Refresh() {
	editor.rows = TimerLines(editor.app.Binder.Lines())
	editor.list.Refresh()
}

// TimerLines keeps the lines that carry a timer.
func TimerLines(lines []binder.LineView) []binder.LineView {
	rows := make([]binder.LineView, 0, len(lines))
	for _, line := range lines {
		if line.Timer != nil {
			rows = append(rows, line)
		}
	}
	return rows
}

const (
	slotClock = iota
	slotToggle
	slotMinusMost
	slotMinusMore
	slotMinus
	slotPlus
	slotPlusMore
	slotPlusMost
	slotStop
	slotReset
)

// Step buttons pair with the quick steps, smallest nearest the middle.
var (
	minusSlots = []int{slotMinus, slotMinusMore, slotMinusMost}
	plusSlots  = []int{slotPlus, slotPlusMore, slotPlusMost}
)

func newRow() fyne.CanvasObject {
	clock := widget.NewLabel("00h 00m 00s")
	clock.TextStyle = fyne.TextStyle{Monospace: true}
	controls := container.NewHBox(
		clock,
		widget.NewButtonWithIcon("", theme.MediaPlayIcon(), nil),
		widget.NewButton("-1m", nil),
		widget.NewButton("-30s", nil),
		widget.NewButton("-10s", nil),
		widget.NewButton("+10s", nil),
		widget.NewButton("+30s", nil),
		widget.NewButton("+1m", nil),
		widget.NewButtonWithIcon("", theme.MediaStopIcon(), nil),
		widget.NewButtonWithIcon("", theme.MediaReplayIcon(), nil),
	)
	return container.NewBorder(nil, nil, nil, controls, widget.NewLabel("Timer"))
}

func (editor *Editor) bindRow(line binder.LineView, object fyne.CanvasObject) {
	view := line.Timer
	row := object.(*fyne.Container)
	title := row.Objects[0].(*widget.Label)
	controls := row.Objects[1].(*fyne.Container).Objects

	title.SetText(Title(line))
	title.TextStyle = fyne.TextStyle{Bold: view.Alarming}
	title.Refresh()

	controls[slotClock].(*widget.Label).SetText(Clock(*view))

	toggle := controls[slotToggle].(*widget.Button)
	toggle.SetText(ToggleLabel(view.Status))
	toggle.SetIcon(toggleIcon(view.Status))
	toggle.OnTapped = editor.do(view.ID, timekeeper.ActionToggle)

	for offset, step := range view.Steps {
		minus := controls[minusSlots[offset]].(*widget.Button)
		minus.SetText(StepLabel(-step))
		minus.OnTapped = editor.adjust(view.ID, -step)
		plus := controls[plusSlots[offset]].(*widget.Button)
		plus.SetText(StepLabel(step))
		plus.OnTapped = editor.adjust(view.ID, step)
	}

	stop := controls[slotStop].(*widget.Button)
	stop.OnTapped = editor.do(view.ID, timekeeper.ActionStop)
	reset := controls[slotReset].(*widget.Button)
	reset.OnTapped = editor.do(view.ID, timekeeper.ActionReset)
	if view.Status == model.StatusIdle {
		stop.Disable()
		reset.Disable()
	} else {
		stop.Enable()
		reset.Enable()
	}
}

func (editor *Editor) do(id string, action timekeeper.Action) func() {
	return func() {
		editor.app.Keeper.Do(id, action)
		editor.Refresh()
	}
}

func (editor *Editor) adjust(id string, stepMs int64) func() {
	return func() {
		editor.app.Keeper.AdjustRemaining(id, stepMs)
		editor.Refresh()
	}
}

// StepLabel renders a signed quick step for a button: "+30s", "-1m".
func StepLabel(stepMs int64) string {
	if stepMs < 0 {
		return "-" + duration.StepShort(-stepMs)
	}
	return "+" + duration.StepShort(stepMs)
}

// Title names a timer row by its label, or by its duration when unlabelled.
func Title(line binder.LineView) string {
	if line.Label != "" {
		return line.Label
	}
	return line.Token
}

// Clock renders the remaining time, or the overtime past zero.
func Clock(view timekeeper.View) string {
	if view.Overtime != "" {
		return view.Overtime
	}
	return view.Remaining.String()
}

// ToggleLabel names what the toggle button does in status.
func ToggleLabel(status model.Status) string {
	switch status {
	case model.StatusRunning:
		return "Pause"
	case model.StatusPaused:
		return "Resume"
	case model.StatusOvertime:
		return "Alarm off"
	case model.StatusFinished:
		return "Done"
	}
	return "Start"
}

func toggleIcon(status model.Status) fyne.Resource {
	switch status {
	case model.StatusRunning:
		return theme.MediaPauseIcon()
	case model.StatusOvertime:
		return theme.VolumeMuteIcon()
	case model.StatusFinished:
		return theme.ConfirmIcon()
	}
	return theme.MediaPlayIcon()
}
