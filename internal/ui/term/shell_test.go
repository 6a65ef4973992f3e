package term

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zentimer/internal/app"
	"zentimer/internal/core/duration"
	"zentimer/internal/core/model"
	"zentimer/internal/core/timekeeper"
	"zentimer/internal/storage"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (clock *clock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.now
}

func (clock *clock) Advance(step time.Duration) {
	clock.mu.Lock()
	clock.now = clock.now.Add(step)
	clock.mu.Unlock()
}

func newTestShell(t *testing.T) (*Shell, *app.App, *clock) {
	t.Helper()
	fake := &clock{now: time.UnixMilli(1_700_000_000_000)}
	opened, err := app.Open(context.Background(), app.Options{
		Settings: model.DefaultSettings(),
		Store:    storage.NewMemoryStore(),
		Now:      fake.Now,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = opened.Close(context.Background()) })
	return NewShell(opened), opened, fake
}

func run(shell *Shell, input string) string {
	var out bytes.Buffer
	shell.Execute(&out, input)
	return out.String()
}

func timerAt(t *testing.T, opened *app.App, position int) *timekeeper.View {
	t.Helper()
	lines := opened.Binder.Lines()
	require.Greater(t, len(lines), position)
	require.NotNil(t, lines[position].Timer, lines[position].Text)
	return lines[position].Timer
}

func TestShellList(t *testing.T) {
	shell, _, _ := newTestShell(t)

	out := run(shell, "list")
	assert.Contains(t, out, "boil eggs")
	assert.Contains(t, out, "steep leaves")
	assert.Contains(t, out, "2h 30m 00s")
	assert.Contains(t, out, "idle")
}

func TestShellEditCommands(t *testing.T) {
	shell, opened, _ := newTestShell(t)

	out := run(shell, "add 10s tea")
	assert.Contains(t, out, "tea")
	require.Len(t, opened.Binder.Lines(), 5)
	teaID, ok := opened.Binder.IDAt(4)
	require.True(t, ok)

	run(shell, "set 5 20s tea")
	assert.Equal(t, int64(20_000), timerAt(t, opened, 4).RemainingMs)

	run(shell, "insert 1 shopping list")
	require.Len(t, opened.Binder.Lines(), 6)
	position, ok := opened.Binder.LineOf(teaID)
	require.True(t, ok)
	assert.Equal(t, 5, position)

	out = run(shell, "delete 1")
	assert.Contains(t, out, "deleted line 1")
	assert.Equal(t, "00:10 boil eggs", opened.Binder.Lines()[0].Text)
}

func TestShellTimerCommands(t *testing.T) {
	shell, opened, _ := newTestShell(t)

	run(shell, "start 1")
	assert.Equal(t, model.StatusRunning, timerAt(t, opened, 0).Status)

	assert.Contains(t, run(shell, "adjust 1 +30s"), "added 30 seconds")
	assert.Equal(t, int64(630_000), timerAt(t, opened, 0).RemainingMs)

	run(shell, "pause 1")
	assert.Equal(t, model.StatusPaused, timerAt(t, opened, 0).Status)

	run(shell, "toggle 1")
	assert.Equal(t, model.StatusRunning, timerAt(t, opened, 0).Status)

	assert.Contains(t, run(shell, "adjust 1 -1h"), "removed 1 hour")
	assert.Equal(t, int64(0), timerAt(t, opened, 0).RemainingMs)

	run(shell, "stop 1")
	view := timerAt(t, opened, 0)
	assert.Equal(t, model.StatusIdle, view.Status)
	assert.Equal(t, int64(600_000), view.RemainingMs)

	assert.Contains(t, run(shell, "adjust 1 +3000000h"), "added")
	assert.Equal(t, duration.MaxMilliseconds, timerAt(t, opened, 0).RemainingMs)
}

func TestShellAlarmFlow(t *testing.T) {
	shell, opened, fake := newTestShell(t)

	run(shell, "add 1s pasta")
	run(shell, "start 5")
	assert.Equal(t, "zentimer> ", shell.Prompt())

	fake.Advance(2 * time.Second)
	require.Eventually(t, func() bool {
		return opened.Keeper.Badge() == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "(1) zentimer> ", shell.Prompt())

	id, ok := opened.Binder.IDAt(4)
	require.True(t, ok)
	notice, ok := shell.Notice(timekeeper.Event{Type: timekeeper.EventStateChange, ID: id, Status: model.StatusOvertime})
	require.True(t, ok)
	assert.Equal(t, "line 5: pasta is up", notice)

	_, ok = shell.Notice(timekeeper.Event{Type: timekeeper.EventProgress, ID: id, Status: model.StatusOvertime})
	assert.False(t, ok)

	fake.Advance(5 * time.Second)
	out := run(shell, "list")
	assert.Contains(t, out, "!")
	assert.Contains(t, out, "+0:05")

	assert.Contains(t, run(shell, "ack all"), "all alarms off")
	assert.Equal(t, 0, opened.Keeper.Badge())
	assert.Equal(t, model.StatusFinished, timerAt(t, opened, 4).Status)

	run(shell, "snooze 5")
	assert.Equal(t, model.StatusRunning, timerAt(t, opened, 4).Status)
	assert.Equal(t, int64(60_000), timerAt(t, opened, 4).RemainingMs)
}

func TestShellErrors(t *testing.T) {
	shell, _, _ := newTestShell(t)

	tests := []struct {
		input string
		want  string
	}{
		{input: "frobnicate", want: "Unknown command: frobnicate"},
		{input: "start", want: "invalid line number"},
		{input: "start x", want: "invalid line number"},
		{input: "start 99", want: "no line 99"},
		{input: "adjust 1 soon", want: "invalid step"},
		{input: "set zero text", want: "invalid line number"},
		{input: "volume loud", want: "invalid volume"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Contains(t, run(shell, tt.input), tt.want)
		})
	}

	run(shell, "add shopping list")
	assert.Contains(t, run(shell, "start 5"), "line 5 has no timer")
}

func TestShellVolume(t *testing.T) {
	shell, opened, _ := newTestShell(t)

	assert.Equal(t, "volume 40%\n", run(shell, "volume 40"))
	assert.InDelta(t, 0.4, opened.Settings().Volume, 1e-9)
	assert.Equal(t, "volume 40%\n", run(shell, "volume"))
	assert.Equal(t, "volume 50%\n", run(shell, "vol 0.5"))
}

func TestShellQuit(t *testing.T) {
	shell, _, _ := newTestShell(t)

	var out bytes.Buffer
	assert.False(t, shell.Execute(&out, "   "))
	assert.False(t, shell.Execute(&out, "help"))
	assert.Contains(t, out.String(), "Commands:")
	assert.True(t, shell.Execute(&out, "QUIT"))
	assert.True(t, shell.Execute(&out, "q"))
}
