// Package logging builds the zerolog logger shared by the avatar stage.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Level is a textual log level as accepted on the command line.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Config holds logger configuration.
type Config struct {
	Level   Level  // Minimum level (default: info)
	Console bool   // Human-readable console output instead of JSON
	LogDir  string // Optional directory for a dated log file
	Out     io.Writer
}

// DefaultConfig returns console logging at info level.
func DefaultConfig() Config {
	return Config{Level: LevelInfo, Console: true, Out: os.Stderr}
}

// nopCloser is returned when no log file was opened.
type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New creates the root logger. The returned closer releases the log file,
// if one was opened.
func New(cfg Config) (zerolog.Logger, io.Closer, error) {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}
	if cfg.Console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	var closer io.Closer = nopCloser{}
	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		name := fmt.Sprintf("avatarstage_%s.log", time.Now().Format("2006-01-02"))
		file, err := os.OpenFile(filepath.Join(cfg.LogDir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = io.MultiWriter(out, file)
		closer = file
	}

	logger := zerolog.New(out).Level(ParseLevel(cfg.Level)).With().
		Timestamp().
		Str("app", "avatarstage").
		Logger()

	return logger, closer, nil
}

// ParseLevel maps a Level to zerolog, defaulting to info.
func ParseLevel(l Level) zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Component returns a child logger tagged with a component name.
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
