// Package applog builds the slog.Logger every daemon's main() constructs
// from the "-l" flag: "-" (or empty) for a human-readable stderr sink,
// any other path for a JSON-lines file sink.
package applog

import (
	"log/slog"
	"os"

	phuslog "github.com/phuslu/log"
)

// New builds a logger at level, writing to stderr (path == "" or "-") or to
// a JSON log file at path. The returned close func flushes/closes the
// underlying file sink and is a no-op for the stderr sink.
func New(path string, level slog.Level) (*slog.Logger, func() error, error) {
	opts := &slog.HandlerOptions{Level: level}

	if path == "" || path == "-" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), func() error { return nil }, nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, err
	}
	return slog.New(phuslog.SlogNewJSONHandler(f, opts)), f.Close, nil
}
