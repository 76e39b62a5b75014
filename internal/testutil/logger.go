package testutil

import (
	"io"
	"log/slog"
)

// SilentLogger returns a logger that discards everything. Tests exercising
// code paths that log advisories use it to keep output clean.
func SilentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
