package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. Level defaults to info;
// USERVAULT_LOG_LEVEL=debug turns on debug logging.
func New() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("USERVAULT_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
