package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var log *slog.Logger

func init() {
	log = newLogger(os.Stdout, os.Getenv("DEBUG") != "", os.Getenv("LOG_FORMAT"))
}

func newLogger(w io.Writer, debug bool, format string) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// SetOutput redirects log output, keeping the level and format from the environment.
func SetOutput(w io.Writer) {
	log = newLogger(w, os.Getenv("DEBUG") != "", os.Getenv("LOG_FORMAT"))
}

// Info logs at info level.
func Info(msg string, args ...any) {
	log.Info(msg, args...)
}

// Error logs at error level.
func Error(msg string, args ...any) {
	log.Error(msg, args...)
}

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	log.Debug(msg, args...)
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	log.Warn(msg, args...)
}
