package analyzer

import (
	"context"
	"time"

	"github.com/sdnalyzer/sdnalyzer/internal/store"
)

// LinkImprovementAnalysis pairs each link's reliability series with its
// betweenness-centrality series, both resampled onto the window's
// sample timestamps, and reports the global max centrality observed
// (§4.5) — a link with high centrality and low reliability is the
// strongest improvement candidate.
type LinkImprovementAnalysis struct{}

func (LinkImprovementAnalysis) Name() string { return "LinkImprovementAnalysis" }

func (LinkImprovementAnalysis) Window(now time.Time) (time.Time, time.Time) { return window24h(now) }

type linkImprovementEntry struct {
	LinkID            string             `json:"link_id"`
	ReliabilitySeries []reliabilityPoint `json:"reliability_series"`
	CentralitySeries  []reliabilityPoint `json:"centrality_series"`
}

type linkImprovementContent struct {
	Links         []linkImprovementEntry `json:"links"`
	MaxCentrality float64                `json:"max_centrality"`
}

func (LinkImprovementAnalysis) Analyze(ctx context.Context, sess *store.Session, start, stop time.Time) (any, []time.Time, error) {
	timestamps, err := sess.SampleTimestampsInWindow(ctx, start, stop)
	if err != nil {
		return nil, nil, err
	}
	if len(timestamps) == 0 {
		return linkImprovementContent{Links: []linkImprovementEntry{}}, nil, nil
	}

	links, err := sess.AllLinks(ctx)
	if err != nil {
		return nil, nil, err
	}

	var entries []linkImprovementEntry
	var sampled []time.Time
	var maxCentrality float64

	for _, l := range links {
		series, err := sess.LinkSamplesInWindow(ctx, l.ID, start, stop)
		if err != nil {
			return nil, nil, err
		}
		if len(series) == 0 {
			continue
		}

		reliabilityByTick := make(map[time.Time]float64, len(series))
		centralityByTick := make(map[time.Time]float64, len(series))
		for _, s := range series {
			reliabilityByTick[s.Sampled] = reliabilityValue(s)
			if s.Betweenness != nil {
				centralityByTick[s.Sampled] = *s.Betweenness
				if *s.Betweenness > maxCentrality {
					maxCentrality = *s.Betweenness
				}
			}
		}

		reliabilitySeries := resampleForwardFill(timestamps, reliabilityByTick)
		centralitySeries := resampleForwardFill(timestamps, centralityByTick)
		if len(reliabilitySeries) == 0 && len(centralitySeries) == 0 {
			continue
		}

		linkID, err := linkIDString(ctx, sess, l)
		if err != nil {
			return nil, nil, err
		}
		entries = append(entries, linkImprovementEntry{
			LinkID:            linkID,
			ReliabilitySeries: reliabilitySeries,
			CentralitySeries:  centralitySeries,
		})
		for _, s := range series {
			sampled = append(sampled, s.Sampled)
		}
	}

	return linkImprovementContent{Links: entries, MaxCentrality: maxCentrality}, sampled, nil
}
