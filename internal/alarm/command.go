package alarm

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	volumePlaceholder        = "{volume}"
	volumePercentPlaceholder = "{volume%}"
)

// Command loops an external player, such as "paplay alarm.oga", until
// stopped. A "{volume}" argument is replaced with the volume as 0..1, and
// "{volume%}" with a 0..100 percentage.
type Command struct {
	path   string
	args   []string
	pause  time.Duration
	mu     sync.Mutex
	volume float64
	loop   loop
}

// NewCommand parses a command line and resolves its program on PATH.
func NewCommand(commandLine string, pause time.Duration) (*Command, error) {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty alarm command: %w", ErrNoPlayer)
	}
	path, err := exec.LookPath(fields[0])
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", fields[0], ErrNoPlayer)
	}
	if pause <= 0 {
		pause = 500 * time.Millisecond
	}
	return &Command{path: path, args: fields[1:], pause: pause, volume: 1}, nil
}

// PlayAlarm starts the player loop.
func (command *Command) PlayAlarm() error {
	command.loop.start(command.run)
	return nil
}

// StopAlarm kills the running player and ends the loop.
func (command *Command) StopAlarm() error {
	command.loop.stop()
	return nil
}

// SetVolume applies from the next player run.
func (command *Command) SetVolume(volume float64) error {
	command.mu.Lock()
	command.volume = ClampVolume(volume)
	command.mu.Unlock()
	return nil
}

// Args returns the player arguments for the current volume.
func (command *Command) Args() []string {
	command.mu.Lock()
	volume := command.volume
	command.mu.Unlock()

	args := make([]string, len(command.args))
	for position, arg := range command.args {
		arg = strings.ReplaceAll(arg, volumePercentPlaceholder, strconv.Itoa(int(volume*100+0.5)))
		arg = strings.ReplaceAll(arg, volumePlaceholder, strconv.FormatFloat(volume, 'f', 2, 64))
		args[position] = arg
	}
	return args
}

func (command *Command) run(ctx context.Context) {
	for {
		player := exec.CommandContext(ctx, command.path, command.Args()...)
		started := time.Now()
		err := player.Run()
		if ctx.Err() != nil {
			return
		}
		// A player that fails straight away would spin; back off instead.
		wait := command.pause
		if err != nil && time.Since(started) < command.pause {
			wait = 5 * command.pause
		}
		if !sleepWithContext(ctx, wait) {
			return
		}
	}
}
