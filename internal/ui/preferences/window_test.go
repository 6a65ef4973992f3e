package preferences

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"zentimer/internal/core/model"
)

func TestFormRoundTrip(t *testing.T) {
	settings := model.DefaultSettings()
	settings.AlarmCommand = "paplay alarm.oga"

	form := FormFor(settings)
	assert.Equal(t, "60", form.SnoozeSeconds)
	assert.Equal(t, settings, form.Apply(settings))
}

func TestFormApply(t *testing.T) {
	settings := model.DefaultSettings()

	tests := []struct {
		name        string
		form        Form
		wantVolume  float64
		wantSnooze  time.Duration
		wantCommand string
	}{
		{
			name:       "valid values",
			form:       Form{Volume: 0.5, SnoozeSeconds: " 90 ", AlarmCommand: "  mpv bell.ogg "},
			wantVolume: 0.5, wantSnooze: 90 * time.Second, wantCommand: "mpv bell.ogg",
		},
		{
			name:       "invalid snooze keeps previous",
			form:       Form{Volume: 0.2, SnoozeSeconds: "soon"},
			wantVolume: 0.2, wantSnooze: settings.Snooze,
		},
		{
			name:       "zero snooze keeps previous",
			form:       Form{Volume: 0.2, SnoozeSeconds: "0"},
			wantVolume: 0.2, wantSnooze: settings.Snooze,
		},
		{
			name:       "volume clamped",
			form:       Form{Volume: 3, SnoozeSeconds: "30"},
			wantVolume: 1, wantSnooze: 30 * time.Second,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.form.Apply(settings)
			assert.Equal(t, tt.wantVolume, got.Volume)
			assert.Equal(t, tt.wantSnooze, got.Snooze)
			assert.Equal(t, tt.wantCommand, got.AlarmCommand)
			assert.Equal(t, settings.Store, got.Store)
		})
	}
}

func TestFormatVolume(t *testing.T) {
	assert.Equal(t, " 15%", formatVolume(0.15))
	assert.Equal(t, "100%", formatVolume(1))
}
