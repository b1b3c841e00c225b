package config

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// LogOptions controls SetupLogger.
type LogOptions struct {
	File  string
	Level slog.Level
	// Quiet raises the console threshold to WARN so log lines do not tear
	// through the interactive progress display. The file keeps Level.
	Quiet bool
}

// SetupLogger builds the sopkb logger: human-readable text on stderr and
// JSON lines appended to the log file. The returned func closes the file.
func SetupLogger(opts LogOptions) (*slog.Logger, func() error) {
	consoleLevel := opts.Level
	if opts.Quiet && consoleLevel < slog.LevelWarn {
		consoleLevel = slog.LevelWarn
	}
	console := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: consoleLevel})

	if opts.File == "" {
		return slog.New(console), func() error { return nil }
	}

	file, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		slog.Error("failed to open log file, using stderr only", "error", err, "file", opts.File)
		return slog.New(console), func() error { return nil }
	}

	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: opts.Level})
	return slog.New(slogmulti.Fanout(console, fileHandler)), file.Close
}

// NewLoggerWithWriters fans out to arbitrary writers. Used by tests.
func NewLoggerWithWriters(console, file io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slogmulti.Fanout(
		slog.NewTextHandler(console, &slog.HandlerOptions{Level: level}),
		slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level}),
	))
}
