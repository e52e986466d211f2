package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var Logger *slog.Logger

// Init installs the process logger. DEBUG=true lowers the level and
// LOG_FORMAT=json switches to the JSON handler.
func Init() {
	Logger = New(os.Stdout, os.Getenv("DEBUG") == "true", os.Getenv("LOG_FORMAT"))
	slog.SetDefault(Logger)
}

// New builds a logger writing to w.
func New(w io.Writer, debug bool, format string) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func get() *slog.Logger {
	if Logger == nil {
		return slog.Default()
	}
	return Logger
}

// With returns a child logger carrying args on every record.
func With(args ...any) *slog.Logger {
	return get().With(args...)
}

func Info(msg string, args ...any) {
	get().Info(msg, args...)
}

func Error(msg string, args ...any) {
	get().Error(msg, args...)
}

func Debug(msg string, args ...any) {
	get().Debug(msg, args...)
}

func Warn(msg string, args ...any) {
	get().Warn(msg, args...)
}
