package store

import (
	"context"
	"fmt"
	"time"
)

// LatestSampleTimestamp returns the most recent completed tick, or nil
// if the store has never completed one.
func (s *Session) LatestSampleTimestamp(ctx context.Context) (*SampleTimestamp, error) {
	var st SampleTimestamp
	var intervalSeconds float64
	row := s.tx.QueryRow(ctx, `SELECT sampled, interval_seconds FROM sample_timestamps ORDER BY sampled DESC LIMIT 1`)
	if err := row.Scan(&st.Sampled, &intervalSeconds); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query latest sample timestamp: %w", err)
	}
	st.Interval = time.Duration(intervalSeconds * float64(time.Second))
	return &st, nil
}

// SampleTimestampsInWindow returns the distinct sampled timestamps in
// [start, stop], ascending. Analyzer tasks use this set as the grid
// that per-link series are resampled onto and as the expected tick
// count for activity ratios (§4.5); sample_start/stop/count are derived
// from the sample rows a task touched, not from this set.
func (s *Session) SampleTimestampsInWindow(ctx context.Context, start, stop time.Time) ([]time.Time, error) {
	rows, err := s.tx.Query(ctx, `
		SELECT sampled FROM sample_timestamps WHERE sampled >= $1 AND sampled <= $2 ORDER BY sampled ASC`,
		start, stop)
	if err != nil {
		return nil, fmt.Errorf("failed to query sample timestamps in window: %w", err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan sample timestamp: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
