package overlay

import (
	"context"
	"image/color"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"zentimer/internal/ui/animation"
)

// Alert is one timer shown in the popup.
type Alert struct {
	ID       string
	Name     string
	Overtime string
}

var (
	restColor  = color.NRGBA{R: 24, G: 24, B: 28, A: 235}
	flashColor = color.NRGBA{R: 168, G: 40, B: 32, A: 235}
	textColor  = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	clockColor = color.NRGBA{R: 232, G: 190, B: 66, A: 255}
)

// Window is the popup raised while timers are past zero.
type Window struct {
	window     fyne.Window
	background *canvas.Rectangle
	titleLabel *canvas.Text
	namesLabel *canvas.Text
	clockLabel *canvas.Text
	offButton  *widget.Button
	snooze     *widget.Button
	engine     *animation.Engine
	alerts     []Alert
	visible    bool
	onSilence  func()
	onSnooze   func(ids []string)
}

type splashWindowDriver interface {
	CreateSplashWindow() fyne.Window
}

// New creates the alarm popup. It stays hidden until Show.
func New(app fyne.App, title string, config animation.Config) *Window {
	window := app.NewWindow(title)
	if driver, ok := app.Driver().(splashWindowDriver); ok {
		window = driver.CreateSplashWindow()
	}
	if app.Icon() != nil {
		window.SetIcon(app.Icon())
	}
	window.SetPadded(false)

	background := canvas.NewRectangle(restColor)

	titleLabel := canvas.NewText("Time's up", textColor)
	titleLabel.TextStyle = fyne.TextStyle{Bold: true}
	titleLabel.TextSize = 21

	namesLabel := canvas.NewText("", textColor)
	namesLabel.TextSize = 15

	clockLabel := canvas.NewText("", clockColor)
	clockLabel.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
	clockLabel.TextSize = 18

	popup := &Window{
		window:     window,
		background: background,
		titleLabel: titleLabel,
		namesLabel: namesLabel,
		clockLabel: clockLabel,
	}
	popup.offButton = widget.NewButton("Alarm off", func() {
		if popup.onSilence != nil {
			popup.onSilence()
		}
	})
	popup.snooze = widget.NewButton("Snooze", func() {
		if popup.onSnooze != nil {
			popup.onSnooze(popup.ids())
		}
	})
	popup.engine = animation.New(config, func(lit bool) {
		fyne.Do(func() {
			popup.setLit(lit)
		})
	})

	text := container.NewVBox(titleLabel, namesLabel, clockLabel)
	buttons := container.NewHBox(layout.NewSpacer(), popup.snooze, popup.offButton)
	content := container.NewPadded(container.NewBorder(nil, buttons, nil, nil, text))
	window.SetContent(container.NewStack(background, content))
	window.Resize(fyne.NewSize(320, 150))
	window.SetCloseIntercept(func() {
		if popup.onSilence != nil {
			popup.onSilence()
		}
	})

	return popup
}

// SetOnSilence sets the "Alarm off" handler.
func (popup *Window) SetOnSilence(handler func()) {
	popup.onSilence = handler
}

// SetOnSnooze sets the snooze handler. It receives the ids on display.
func (popup *Window) SetOnSnooze(handler func(ids []string)) {
	popup.onSnooze = handler
}

// Show displays alerts, or hides the popup when there are none. Must run
// on the UI goroutine.
func (popup *Window) Show(alerts []Alert) {
	if len(alerts) == 0 {
		popup.Hide()
		return
	}
	popup.alerts = alerts
	popup.namesLabel.Text = Names(alerts)
	popup.namesLabel.Refresh()
	popup.clockLabel.Text = alerts[0].Overtime
	popup.clockLabel.Refresh()

	if popup.visible {
		return
	}
	popup.visible = true
	popup.window.CenterOnScreen()
	popup.window.Show()
	popup.window.RequestFocus()
	popup.engine.Start(context.Background())
}

// Hide closes the popup and stops the pulse.
func (popup *Window) Hide() {
	popup.alerts = nil
	if !popup.visible {
		return
	}
	popup.visible = false
	popup.engine.Stop()
	popup.window.Hide()
}

// Visible reports whether the popup is showing.
func (popup *Window) Visible() bool {
	return popup.visible
}

func (popup *Window) ids() []string {
	ids := make([]string, 0, len(popup.alerts))
	for _, alert := range popup.alerts {
		ids = append(ids, alert.ID)
	}
	return ids
}

func (popup *Window) setLit(lit bool) {
	if lit && popup.visible {
		popup.background.FillColor = flashColor
	} else {
		popup.background.FillColor = restColor
	}
	canvas.Refresh(popup.background)
}

// Names joins alert names for display, naming at most three.
func Names(alerts []Alert) string {
	names := make([]string, 0, 3)
	for _, alert := range alerts {
		if len(names) == 3 {
			break
		}
		name := alert.Name
		if name == "" {
			name = "timer"
		}
		names = append(names, name)
	}
	text := strings.Join(names, ", ")
	if extra := len(alerts) - len(names); extra > 0 {
		text += " +" + strconv.Itoa(extra)
	}
	return text
}
