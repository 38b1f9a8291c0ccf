package testutil

import (
	"log/slog"
	"os"
)

// NewLogger builds the logger store and admin tests pass into
// Config.Logger. It logs at Warn and above by default; set
// SDNALYZER_TEST_LOG=info or =debug to lower the level while debugging
// a failure locally.
func NewLogger() *slog.Logger {
	level := slog.LevelWarn
	switch os.Getenv("SDNALYZER_TEST_LOG") {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
