// Package logger builds the tinted slog.Logger shared by every
// sdnalyzer role (observer tick loop, admin endpoint, one-off
// setup/reset). A single process only ever runs one role at a time,
// but the component tag keeps log lines attributable when output from
// several roles is aggregated downstream.
package logger

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// New builds a logger at Info level, or Debug when verbose is set.
// component, if non-empty, is attached to every record so multi-role
// log aggregation can tell the observer's lines from the admin
// endpoint's.
func New(verbose bool, component string) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(formatRFC3339Millis(a.Value.Time()))
			}
			if s, ok := a.Value.Any().(string); ok && s == "" {
				return slog.Attr{}
			}
			return a
		},
	}))
	if component != "" {
		log = log.With("component", component)
	}
	return log
}

// formatRFC3339Millis renders UTC timestamps at millisecond precision.
func formatRFC3339Millis(t time.Time) string {
	t = t.UTC()
	base := t.Format("2006-01-02T15:04:05")
	ms := t.Nanosecond() / 1_000_000
	return fmt.Sprintf("%s.%03dZ", base, ms)
}
