package analyzer

import (
	"context"
	"time"

	"github.com/sdnalyzer/sdnalyzer/internal/store"
)

// SimpleLinkStatistics reports, per link, the most recent LinkSample
// plus the full time series of samples in the window (§4.5).
type SimpleLinkStatistics struct{}

func (SimpleLinkStatistics) Name() string { return "SimpleLinkStatistics" }

func (SimpleLinkStatistics) Window(now time.Time) (time.Time, time.Time) { return window24h(now) }

type linkStatisticsEntry struct {
	LinkID string            `json:"link_id"`
	Latest *store.LinkSample `json:"latest"`
	Series []store.LinkSample `json:"series"`
}

func (SimpleLinkStatistics) Analyze(ctx context.Context, sess *store.Session, start, stop time.Time) (any, []time.Time, error) {
	links, err := sess.AllLinks(ctx)
	if err != nil {
		return nil, nil, err
	}

	var entries []linkStatisticsEntry
	var sampled []time.Time
	for _, l := range links {
		series, err := sess.LinkSamplesInWindow(ctx, l.ID, start, stop)
		if err != nil {
			return nil, nil, err
		}
		if len(series) == 0 {
			continue
		}
		linkID, err := linkIDString(ctx, sess, l)
		if err != nil {
			return nil, nil, err
		}
		latest := series[len(series)-1]
		entries = append(entries, linkStatisticsEntry{
			LinkID: linkID,
			Latest: &latest,
			Series: series,
		})
		for _, s := range series {
			sampled = append(sampled, s.Sampled)
		}
	}

	return entries, sampled, nil
}
