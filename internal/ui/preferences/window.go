package preferences

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"zentimer/internal/core/model"
)

// Form holds the editable values as the widgets show them.
type Form struct {
	Volume        float64
	SnoozeSeconds string
	AlarmCommand  string
}

// FormFor renders settings into form values.
func FormFor(settings model.Settings) Form {
	return Form{
		Volume:        settings.Volume,
		SnoozeSeconds: strconv.Itoa(int(settings.Snooze / time.Second)),
		AlarmCommand:  settings.AlarmCommand,
	}
}

// Apply copies the form onto settings. Invalid snooze input keeps the
// previous value.
func (form Form) Apply(settings model.Settings) model.Settings {
	settings.Volume = min(max(form.Volume, 0), 1)
	if seconds, ok := parsePositiveInt(form.SnoozeSeconds); ok {
		settings.Snooze = time.Duration(seconds) * time.Second
	}
	settings.AlarmCommand = strings.TrimSpace(form.AlarmCommand)
	return settings
}

// Window handles the preferences UI.
type Window struct {
	window      fyne.Window
	settings    model.Settings
	onSave      func(model.Settings)
	volume      *widget.Slider
	volumeLabel *widget.Label
	snooze      *widget.Entry
	command     *widget.Entry
}

// New creates a preferences window.
func New(app fyne.App, title string, settings model.Settings, onSave func(model.Settings)) *Window {
	window := app.NewWindow(title)

	volumeLabel := widget.NewLabel("")
	volume := widget.NewSlider(0, 1)
	volume.Step = 0.05
	volume.OnChanged = func(value float64) {
		volumeLabel.SetText(formatVolume(value))
	}

	snooze := widget.NewEntry()
	command := widget.NewEntry()
	command.PlaceHolder = "built-in alarm"

	form := container.NewVBox(
		widget.NewLabelWithStyle("Alarm", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewBorder(nil, nil, widget.NewLabel("Volume"), volumeLabel, volume),
		container.NewHBox(widget.NewLabel("Snooze adds"), snooze, widget.NewLabel("sec")),
		widget.NewLabel("Player command ({volume} is replaced with 0-1)"),
		command,
	)

	saveButton := widget.NewButton("Save", nil)
	cancelButton := widget.NewButton("Cancel", nil)
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	content := container.NewBorder(nil, buttons, nil, nil, form)
	window.SetContent(content)
	window.Resize(fyne.NewSize(420, 260))
	window.SetCloseIntercept(window.Hide)

	prefs := &Window{
		window:      window,
		onSave:      onSave,
		volume:      volume,
		volumeLabel: volumeLabel,
		snooze:      snooze,
		command:     command,
	}
	prefs.UpdateSettings(settings)

	saveButton.OnTapped = prefs.handleSave
	cancelButton.OnTapped = func() {
		prefs.UpdateSettings(prefs.settings)
		window.Hide()
	}

	return prefs
}

// Show displays the preferences window.
func (prefs *Window) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// UpdateSettings replaces window values.
func (prefs *Window) UpdateSettings(settings model.Settings) {
	prefs.settings = settings
	form := FormFor(settings)
	prefs.volume.SetValue(form.Volume)
	prefs.volumeLabel.SetText(formatVolume(form.Volume))
	prefs.snooze.SetText(form.SnoozeSeconds)
	prefs.command.SetText(form.AlarmCommand)
}

func (prefs *Window) handleSave() {
	form := Form{
		Volume:        prefs.volume.Value,
		SnoozeSeconds: prefs.snooze.Text,
		AlarmCommand:  prefs.command.Text,
	}
	prefs.settings = form.Apply(prefs.settings)
	if prefs.onSave != nil {
		prefs.onSave(prefs.settings)
	}
	prefs.window.Hide()
}

func formatVolume(value float64) string {
	return fmt.Sprintf("%3.0f%%", value*100)
}

func parsePositiveInt(value string) (int, bool) {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return 0, false
	}
	return parsed, true
}
