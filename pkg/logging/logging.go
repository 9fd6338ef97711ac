// Package logging configures colored structured logging with tint.
//
// Usage:
//
//	logging.Setup()                          // LOG_LEVEL and LOG_FILE from env
//	logging.SetupWithLevel(slog.LevelDebug)  // explicit level, stderr only
//	closer := logging.Configure("info", "/var/log/dineout/server.log")
//
// Environment variables:
//
//	LOG_LEVEL: debug, info, warn, error (default: info)
//	LOG_FILE: optional path; output is also written there with rotation
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup configures logging from LOG_LEVEL and LOG_FILE.
func Setup() io.Closer {
	return Configure(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE"))
}

// SetupWithLevel configures colored logging to stderr at the given level.
func SetupWithLevel(level slog.Level) {
	slog.SetDefault(slog.New(newHandler(os.Stderr, level, false)))
}

// Configure installs the default logger. When file is set, records are also
// written to a rotating log file and color is disabled. The returned closer
// releases the file.
func Configure(level, file string) io.Closer {
	lvl := ParseLevel(level)
	if file == "" {
		SetupWithLevel(lvl)
		return nopCloser{}
	}

	rotator := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	}
	slog.SetDefault(slog.New(newHandler(io.MultiWriter(os.Stderr, rotator), lvl, true)))
	return rotator
}

func newHandler(w io.Writer, level slog.Level, noColor bool) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		AddSource:  true,
		NoColor:    noColor,
	})
}

// ParseLevel maps a level name to a slog level, defaulting to INFO.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
