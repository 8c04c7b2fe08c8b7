// Package observability configures structured logging for importguard.
package observability

import (
	"log/slog"
	"os"
)

// SetupLogging installs the process-wide slog default. Library code logs
// through slog.Default(), so this is the single knob for verbosity.
// Verbose wins over quiet when both are set.
func SetupLogging(verbose, quiet bool) *slog.Logger {
	level := slog.LevelWarn

	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	return logger
}
