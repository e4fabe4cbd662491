package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/phuslu/log"
)

// Config selects level and outputs for the run logger.
type Config struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	NoColor    bool   `yaml:"no_color"`
}

// New builds a logger writing human-readable lines to stderr and, when cfg.File is set,
// JSON lines to a size-rotated file.
func New(cfg Config) *log.Logger {
	console := &log.ConsoleWriter{
		ColorOutput:    !cfg.NoColor,
		EndWithMessage: true,
		Writer:         os.Stderr,
	}

	var writer log.Writer = console
	if cfg.File != "" {
		maxSize := int64(cfg.MaxSizeMB) * 1024 * 1024
		if maxSize <= 0 {
			maxSize = 50 * 1024 * 1024
		}
		backups := cfg.MaxBackups
		if backups <= 0 {
			backups = 7
		}
		writer = &log.MultiEntryWriter{
			console,
			&log.FileWriter{
				Filename:     cfg.File,
				MaxSize:      maxSize,
				MaxBackups:   backups,
				EnsureFolder: true,
				LocalTime:    true,
			},
		}
	}

	return &log.Logger{
		Level:      ParseLevel(cfg.Level),
		TimeFormat: time.DateTime,
		Writer:     writer,
	}
}

// NewWithWriter logs JSON lines to w. Used by tests that inspect log output.
func NewWithWriter(level string, w io.Writer) *log.Logger {
	return &log.Logger{
		Level:  ParseLevel(level),
		Writer: &log.IOWriter{Writer: w},
	}
}

// Nop returns a logger that discards everything.
func Nop() *log.Logger {
	return NewWithWriter("error", io.Discard)
}

// ParseLevel maps a config string to a level. Empty or unknown values mean info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// Trade starts an info entry tagged as a trading event.
func Trade(l *log.Logger) *log.Entry {
	return l.Info().Str("event", "trade")
}
