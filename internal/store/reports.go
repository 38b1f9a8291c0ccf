package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InsertReport persists one analyzer task run (§4.5's shared run
// protocol, final step).
func (s *Session) InsertReport(ctx context.Context, r Report) (*Report, error) {
	r.ID = uuid.New()
	r.Created = time.Now().UTC()
	_, err := s.tx.Exec(ctx, `
		INSERT INTO reports (id, created, type, sample_interval, sample_start, sample_stop,
			sample_count, execution_duration, content)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		r.ID, r.Created, r.Type, r.SampleInterval, r.SampleStart, r.SampleStop,
		r.SampleCount, r.ExecutionDuration, r.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to insert report: %w", err)
	}
	return &r, nil
}

// LatestReport returns the most recent Report of a given type, or nil.
func (s *Session) LatestReport(ctx context.Context, reportType string) (*Report, error) {
	var r Report
	row := s.tx.QueryRow(ctx, `
		SELECT id, created, type, sample_interval, sample_start, sample_stop, sample_count,
			execution_duration, content
		FROM reports WHERE type = $1 ORDER BY created DESC LIMIT 1`, reportType)
	err := row.Scan(&r.ID, &r.Created, &r.Type, &r.SampleInterval, &r.SampleStart, &r.SampleStop,
		&r.SampleCount, &r.ExecutionDuration, &r.Content)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query latest report: %w", err)
	}
	return &r, nil
}
