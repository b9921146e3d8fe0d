package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	slogmulti "github.com/samber/slog-multi"
)

// SetupLogger builds the run logger: human-readable text on stderr and JSON
// lines appended to logFile. If the log file cannot be opened the logger
// falls back to stderr only. The returned func closes the file.
func SetupLogger(logFile string, level slog.Level) (*slog.Logger, func() error) {
	console := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})

	if logFile == "" {
		return slog.New(console), func() error { return nil }
	}

	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		slog.Warn("cannot create log directory, logging to stderr only", "error", err, "file", logFile)
		return slog.New(console), func() error { return nil }
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		slog.Warn("cannot open log file, logging to stderr only", "error", err, "file", logFile)
		return slog.New(console), func() error { return nil }
	}

	// The file always records debug detail so a failed run can be inspected
	// after the fact, whatever the console level is.
	jsonLines := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: min(level, slog.LevelDebug)})

	return slog.New(slogmulti.Fanout(console, jsonLines)), file.Close
}

// SetupLoggerWithWriters creates the same fanout over arbitrary writers.
func SetupLoggerWithWriters(console, file io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slogmulti.Fanout(
		slog.NewTextHandler(console, &slog.HandlerOptions{Level: level}),
		slog.NewJSONHandler(file, &slog.HandlerOptions{Level: min(level, slog.LevelDebug)}),
	))
}
