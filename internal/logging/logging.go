package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// log fields
const (
	Component = "component"
	RunID     = "run"
	Source    = "source"
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
}

// New builds the process logger. format is "json" or "console"; level follows zerolog names.
func New(level, format string) zerolog.Logger {
	return NewWithWriter(os.Stderr, level, format)
}

func NewWithWriter(w io.Writer, level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	out := w
	if !strings.EqualFold(strings.TrimSpace(format), "json") {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

func For(log zerolog.Logger, component string) zerolog.Logger {
	return log.With().Str(Component, component).Logger()
}
