package term

import (
	"context"
	"fmt"
	"io"

	"github.com/chzyer/readline"

	"zentimer/internal/app"
	"zentimer/internal/core/timekeeper"
)

// Console drives a Shell from an interactive terminal.
type Console struct {
	rl    *readline.Instance
	shell *Shell
}

// NewConsole creates the readline console. It is created before the App so
// that logging can share its output.
func NewConsole() (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          app.Name + "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return nil, fmt.Errorf("create readline: %w", err)
	}
	return &Console{rl: rl}, nil
}

// Stdout returns a writer that coordinates with the prompt. Use it for log
// output.
func (console *Console) Stdout() io.Writer {
	return console.rl.Stdout()
}

// Close releases the terminal.
func (console *Console) Close() error {
	return console.rl.Close()
}

// Run reads commands for opened until quit, end of input or ctx is done.
func (console *Console) Run(ctx context.Context, cancel context.CancelFunc, opened *app.App) {
	console.shell = NewShell(opened)
	events := opened.Keeper.Subscribe(64)
	go console.watch(ctx, events)

	fmt.Fprintln(console.rl.Stdout(), "Type 'help' for commands.")
	console.shell.cmdList(console.rl.Stdout())
	console.refreshPrompt()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := console.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			cancel()
			return
		}
		if console.shell.Execute(console.rl.Stdout(), line) {
			cancel()
			return
		}
		console.refreshPrompt()
	}
}

func (console *Console) watch(ctx context.Context, events <-chan timekeeper.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if notice, ok := console.shell.Notice(event); ok {
				fmt.Fprintln(console.rl.Stdout(), notice)
			}
			if event.Type == timekeeper.EventAlarm || event.Type == timekeeper.EventStateChange {
				console.refreshPrompt()
			}
		}
	}
}

func (console *Console) refreshPrompt() {
	console.rl.SetPrompt(console.shell.Prompt())
	console.rl.Refresh()
}
