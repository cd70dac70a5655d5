// Package logging builds the zerolog logger shared by every component. The
// TUI owns the terminal, so log lines go to a file in console format.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options configure New.
type Options struct {
	// Path is the log file. Parent directories are created as needed.
	Path string
	// Level is a zerolog level name; empty means info.
	Level string
	// Console, when set, receives a colored copy of every line.
	Console io.Writer
}

// ParseLevel converts a level name to a zerolog.Level, case-insensitively.
func ParseLevel(name string) (zerolog.Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q", name)
	}
	return level, nil
}

// New opens the log file and returns a timestamped logger writing to it. The
// returned closer releases the file.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	if opts.Path == "" {
		return zerolog.Nop(), nil, fmt.Errorf("log file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}

	var out io.Writer = zerolog.ConsoleWriter{Out: file, TimeFormat: time.RFC3339, NoColor: true}
	if opts.Console != nil {
		out = zerolog.MultiLevelWriter(
			zerolog.ConsoleWriter{Out: opts.Console, TimeFormat: time.RFC3339},
			out,
		)
	}
	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return logger, file, nil
}

// Component returns a child logger tagged with the component name.
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}
