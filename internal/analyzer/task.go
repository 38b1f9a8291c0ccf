// Package analyzer implements the report-generating tasks of §4.5: each
// task reads a time window from the store, derives a JSON content body,
// and persists the result as a Report.
package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/sdnalyzer/sdnalyzer/internal/metrics"
	"github.com/sdnalyzer/sdnalyzer/internal/store"
)

// Window lengths used by the catalogue (§4.5): every task uses the 24h
// default except SimpleServiceUsage and ServiceStatistics, which use 1h.
const (
	defaultWindow = 24 * time.Hour
	hourlyWindow  = time.Hour
)

// window24h and windowHourly are the two Task.Window implementations
// every task in the catalogue composes, shifted back from `now`.
func window24h(now time.Time) (time.Time, time.Time) {
	return now.Add(-defaultWindow), now
}

func windowHourly(now time.Time) (time.Time, time.Time) {
	return now.Add(-hourlyWindow), now
}

// Task is one analyzer report type. Window determines the lookback
// period relative to `now` (most tasks use 24h; SimpleServiceUsage and
// ServiceStatistics use 1h, per §4.5).
type Task interface {
	Name() string
	Window(now time.Time) (start, stop time.Time)
	Analyze(ctx context.Context, sess *store.Session, start, stop time.Time) (content any, sampled []time.Time, err error)
}

// Runner drives the shared run protocol: open a read session, run the
// task, derive sample_start/stop/count, insert a Report (§4.5).
type Runner struct {
	Store *store.Store
	Clock clockwork.Clock
	Log   *slog.Logger
}

func NewRunner(st *store.Store, clock clockwork.Clock, log *slog.Logger) *Runner {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Runner{Store: st, Clock: clock, Log: log}
}

// Run executes one task and persists its Report.
func (r *Runner) Run(ctx context.Context, task Task) (*store.Report, error) {
	now := r.Clock.Now()
	start, stop := task.Window(now)

	runStart := time.Now()

	readSess, err := r.Store.Begin(ctx)
	if err != nil {
		metrics.AnalyzerTaskTotal.WithLabelValues(task.Name(), "error").Inc()
		return nil, fmt.Errorf("%s: failed to begin session: %w", task.Name(), err)
	}

	content, sampled, err := task.Analyze(ctx, readSess, start, stop)
	readSess.Rollback(ctx) // read-only: nothing to commit
	if err != nil {
		metrics.AnalyzerTaskTotal.WithLabelValues(task.Name(), "error").Inc()
		return nil, fmt.Errorf("%s: %w", task.Name(), err)
	}

	body, err := json.Marshal(content)
	if err != nil {
		metrics.AnalyzerTaskTotal.WithLabelValues(task.Name(), "error").Inc()
		return nil, fmt.Errorf("%s: failed to marshal content: %w", task.Name(), err)
	}

	sampleStart, sampleStop, sampleCount := summarizeTimestamps(sampled)
	duration := time.Since(runStart).Seconds()

	writeSess, err := r.Store.Begin(ctx)
	if err != nil {
		metrics.AnalyzerTaskTotal.WithLabelValues(task.Name(), "error").Inc()
		return nil, fmt.Errorf("%s: failed to begin write session: %w", task.Name(), err)
	}
	report, err := writeSess.InsertReport(ctx, store.Report{
		Type:              task.Name(),
		SampleInterval:    stop.Sub(start).Seconds(),
		SampleStart:       sampleStart,
		SampleStop:        sampleStop,
		SampleCount:       sampleCount,
		ExecutionDuration: duration,
		Content:           string(body),
	})
	if err != nil {
		writeSess.Rollback(ctx)
		metrics.AnalyzerTaskTotal.WithLabelValues(task.Name(), "error").Inc()
		return nil, fmt.Errorf("%s: failed to insert report: %w", task.Name(), err)
	}
	if err := writeSess.Commit(ctx); err != nil {
		metrics.AnalyzerTaskTotal.WithLabelValues(task.Name(), "error").Inc()
		return nil, fmt.Errorf("%s: failed to commit report: %w", task.Name(), err)
	}

	metrics.AnalyzerTaskTotal.WithLabelValues(task.Name(), "ok").Inc()
	metrics.AnalyzerTaskDuration.WithLabelValues(task.Name()).Observe(duration)
	return report, nil
}

// summarizeTimestamps derives sample_start/sample_stop/sample_count
// from the distinct sampled timestamps a task touched (§4.5, §8
// invariant 6). With no timestamps touched the report still persists
// with a zero sample_count and nil bounds (§7: reports always persist).
func summarizeTimestamps(sampled []time.Time) (start, stop *time.Time, count int) {
	if len(sampled) == 0 {
		return nil, nil, 0
	}
	distinct := make(map[int64]struct{}, len(sampled))
	min, max := sampled[0], sampled[0]
	for _, t := range sampled {
		distinct[t.UnixNano()] = struct{}{}
		if t.Before(min) {
			min = t
		}
		if t.After(max) {
			max = t
		}
	}
	return &min, &max, len(distinct)
}

// ErrUnknownTask is returned by a task registry lookup for an
// unrecognized task name.
var ErrUnknownTask = errors.New("unknown analyzer task")
