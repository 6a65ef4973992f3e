// Package logging builds the structured loggers shared by every host.
package logging

import (
	"io"
	"strings"

	"github.com/phuslu/log"
)

// New returns a console logger writing to writer at the named level.
// Unknown level names fall back to info.
func New(level string, writer io.Writer) *log.Logger {
	return &log.Logger{
		Level:      parseLevel(level),
		TimeFormat: "15:04:05",
		Writer: &log.ConsoleWriter{
			Writer:         writer,
			EndWithMessage: true,
		},
	}
}

// Nop returns a logger that drops everything. Components use it when no
// logger is injected.
func Nop() *log.Logger {
	return &log.Logger{
		Level:  log.PanicLevel,
		Writer: &log.IOWriter{Writer: io.Discard},
	}
}

// OrNop returns logger, or Nop when logger is nil.
func OrNop(logger *log.Logger) *log.Logger {
	if logger == nil {
		return Nop()
	}
	return logger
}

func parseLevel(name string) log.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return log.TraceLevel
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
