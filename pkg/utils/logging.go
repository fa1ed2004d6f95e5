package utils

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// NewLogger returns the text logger every component writes to. Verbose
// enables debug output, quiet restricts output to errors.
func NewLogger(w io.Writer, verbose, quiet bool) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level := slog.LevelInfo
	switch {
	case quiet:
		level = slog.LevelError
	case verbose:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// WithRunID tags a logger with a fresh run identifier and returns both
func WithRunID(logger *slog.Logger) (*slog.Logger, string) {
	id := uuid.New().String()
	return logger.With("run_id", id), id
}

// VerboseLogger provides consistent verbose logging across packages
type VerboseLogger struct {
	verbose bool
	out     io.Writer
}

// NewVerboseLogger creates a new verbose logger writing to stderr
func NewVerboseLogger(verbose bool) *VerboseLogger {
	return &VerboseLogger{verbose: verbose, out: os.Stderr}
}

// Logf logs a formatted message if verbose mode is enabled
func (v *VerboseLogger) Logf(format string, args ...interface{}) {
	if v.verbose {
		fmt.Fprintf(v.out, format, args...)
	}
}

// IsVerbose returns whether verbose mode is enabled
func (v *VerboseLogger) IsVerbose() bool {
	return v.verbose
}
