// Package logging wires slog for a terminal UI: records fan out to a log
// file and to an in-memory ring the console can render. Nothing is ever
// written to stdout/stderr while the UI owns the terminal.
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	slogmulti "github.com/samber/slog-multi"
)

// Setup opens (or creates) the log file, installs the default slog logger,
// and returns the ring buffer holding recent records for in-UI display.
// The returned closer flushes and closes the file.
func Setup(logFile string, level slog.Level) (*Ring, func() error, error) {
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	ring := NewRing(DefaultRingSize)
	handler := slogmulti.Fanout(
		slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}),
		NewRingHandler(ring, level),
	)
	slog.SetDefault(slog.New(handler))
	return ring, f.Close, nil
}
