package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/phrazzld/errbook/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// level is shared by every handler created by Setup so SetLevel takes effect
// without rebuilding loggers.
var level = new(slog.LevelVar)

// ParseLevel converts a configured level name (case-insensitive) into a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

// SetLevel changes the level of all loggers created by Setup.
func SetLevel(name string) error {
	lvl, err := ParseLevel(name)
	if err != nil {
		return err
	}
	level.Set(lvl)
	return nil
}

// Setup initializes the application's logging system based on the provided
// configuration. It creates a JSON logger writing to stdout and, when a log
// file is configured, to a rotated file as well. The logger is installed as
// the slog default. The returned closer releases the log file.
func Setup(cfg config.LogConfig) (*slog.Logger, io.Closer, error) {
	return SetupTo(cfg, os.Stdout)
}

// SetupTo is Setup with console output going to console instead of stdout.
func SetupTo(cfg config.LogConfig, console io.Writer) (*slog.Logger, io.Closer, error) {
	if err := SetLevel(cfg.Level); err != nil {
		return nil, nil, err
	}

	out := console
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		out = io.MultiWriter(console, rotating)
		closer = rotating
	}

	logger := New(out)
	slog.SetDefault(logger)

	return logger, closer, nil
}

// New creates a JSON logger on w that honours the shared level.
func New(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
