// Package logging builds the zerolog loggers used by the installer and the
// launcher.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config contains logger configuration.
type Config struct {
	// Level sets the logging level (trace, debug, info, warn, error).
	// Unknown or empty values fall back to info.
	Level string
	// Pretty enables human-readable console output.
	Pretty bool
	// Output sets the console writer (defaults to os.Stderr). Junie's
	// standard output belongs to the child process, never to us.
	Output io.Writer

	// File, when set, also writes JSON logs to a rotated file.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// DefaultConfig returns the installer's logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Pretty:     true,
		Output:     os.Stderr,
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 28,
	}
}

// LauncherConfig is DefaultConfig at warn level, so nothing is printed around
// a healthy child's output.
func LauncherConfig() Config {
	cfg := DefaultConfig()
	cfg.Level = "warn"
	return cfg
}

// ParseLevel maps a level name to a zerolog level. ok is false for names
// zerolog does not know, in which case level is info.
func ParseLevel(name string) (level zerolog.Level, ok bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return zerolog.InfoLevel, false
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel, false
	}
	return level, true
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New creates a logger for cfg. The returned Closer flushes and closes the log
// file, if any; it is always non-nil.
func New(cfg Config) (zerolog.Logger, io.Closer, error) {
	zerolog.TimeFieldFormat = time.RFC3339

	level, _ := ParseLevel(cfg.Level)

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: "15:04:05",
		}
	}

	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		file, err := fileWriter(cfg)
		if err != nil {
			return zerolog.Nop(), closer, err
		}
		output = zerolog.MultiLevelWriter(output, file)
		closer = file
	}

	logger := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()
	return logger, closer, nil
}

// NewWithComponent creates a logger with a component field for structured logging.
func NewWithComponent(cfg Config, component string) (zerolog.Logger, io.Closer, error) {
	logger, closer, err := New(cfg)
	if err != nil {
		return logger, closer, err
	}
	return logger.With().Str("component", component).Logger(), closer, nil
}

func fileWriter(cfg Config) (*lumberjack.Logger, error) {
	path := cfg.File
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}, nil
}
