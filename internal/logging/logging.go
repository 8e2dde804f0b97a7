// Package logging builds the zerolog logger used by the sitepulse CLI.
//
// Console output always goes to stderr so the results table on stdout stays
// machine-readable. An optional log file is written as JSON lines and rotated
// by size.
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

// Format selects how console log lines are rendered.
type Format string

const (
	// FormatConsole renders human-readable lines.
	FormatConsole Format = "console"

	// FormatJSON renders one JSON object per line.
	FormatJSON Format = "json"
)

// Config holds logger settings.
type Config struct {
	// Level is debug, info, warn or error. Empty means warn.
	Level string

	// Format is the console format. Empty means console.
	Format Format

	// File, if set, receives JSON log lines with rotation.
	File string

	// MaxSizeMB is the size at which File is rotated.
	MaxSizeMB int

	// MaxBackups is the number of rotated files kept.
	MaxBackups int

	// NoColor disables colour in console format.
	NoColor bool

	// Console is the console destination. Nil means os.Stderr.
	Console io.Writer
}

// New builds a logger from cfg.
//
// The returned closer releases the log file, if any; it is always non-nil
// and safe to call when no file was configured.
func New(cfg Config) (zerolog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}

	console := cfg.Console
	if console == nil {
		console = os.Stderr
	}

	var consoleWriter io.Writer
	switch cfg.Format {
	case "", FormatConsole:
		consoleWriter = zerolog.ConsoleWriter{
			Out:        console,
			NoColor:    cfg.NoColor,
			TimeFormat: time.TimeOnly,
		}
	case FormatJSON:
		consoleWriter = console
	default:
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("unknown log format %q (expected console or json)", cfg.Format)
	}

	writers := []io.Writer{consoleWriter}
	var closer io.Closer = nopCloser{}

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("failed to create log directory: %w", err)
		}
		rotating := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			LocalTime:  true,
		}
		writers = append(writers, rotating)
		closer = rotating
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()

	return logger, closer, nil
}

// ParseLevel parses a level name. Empty means warn.
func ParseLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return zerolog.WarnLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.WarnLevel, fmt.Errorf("unknown log level %q (expected debug, info, warn or error)", s)
	}
	return level, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
