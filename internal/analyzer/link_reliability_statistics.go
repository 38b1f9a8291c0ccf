package analyzer

import (
	"context"
	"sort"
	"time"

	"github.com/sdnalyzer/sdnalyzer/internal/store"
)

// LinkReliabilityStatistics reports each link's reliability series
// r(t) = 1 - max(src_loss, dst_loss), resampled onto the window's union
// of distinct sample timestamps, plus the mean ratio and whether either
// endpoint is a host (§4.5).
type LinkReliabilityStatistics struct{}

func (LinkReliabilityStatistics) Name() string { return "LinkReliabilityStatistics" }

func (LinkReliabilityStatistics) Window(now time.Time) (time.Time, time.Time) { return window24h(now) }

type reliabilityPoint struct {
	Sampled time.Time `json:"sampled"`
	Value   float64   `json:"value"`
}

type linkReliabilityEntry struct {
	LinkID   string             `json:"link_id"`
	Ratio    float64            `json:"ratio"`
	LastMile bool               `json:"last_mile"`
	Series   []reliabilityPoint `json:"series"`
}

func (LinkReliabilityStatistics) Analyze(ctx context.Context, sess *store.Session, start, stop time.Time) (any, []time.Time, error) {
	timestamps, err := sess.SampleTimestampsInWindow(ctx, start, stop)
	if err != nil {
		return nil, nil, err
	}
	if len(timestamps) == 0 {
		return []linkReliabilityEntry{}, nil, nil
	}

	links, err := sess.AllLinks(ctx)
	if err != nil {
		return nil, nil, err
	}

	var entries []linkReliabilityEntry
	var sampled []time.Time
	for _, l := range links {
		series, err := sess.LinkSamplesInWindow(ctx, l.ID, start, stop)
		if err != nil {
			return nil, nil, err
		}
		if len(series) == 0 {
			continue
		}

		byTick := make(map[time.Time]float64, len(series))
		for _, s := range series {
			byTick[s.Sampled] = reliabilityValue(s)
		}

		points := resampleForwardFill(timestamps, byTick)
		if len(points) == 0 {
			continue
		}

		var sum float64
		for _, p := range points {
			sum += p.Value
		}
		ratio := sum / float64(len(points))

		lastMile, err := isLastMile(ctx, sess, l)
		if err != nil {
			return nil, nil, err
		}
		linkID, err := linkIDString(ctx, sess, l)
		if err != nil {
			return nil, nil, err
		}

		entries = append(entries, linkReliabilityEntry{
			LinkID:   linkID,
			Ratio:    ratio,
			LastMile: lastMile,
			Series:   points,
		})
		for _, s := range series {
			sampled = append(sampled, s.Sampled)
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Ratio < entries[j].Ratio })
	return entries, sampled, nil
}

// reliabilityValue implements r(t) = 1 - max(src_loss, dst_loss),
// treating an unset loss as 0 (no observed loss this tick).
func reliabilityValue(s store.LinkSample) float64 {
	var srcLoss, dstLoss float64
	if s.SrcPacketLoss != nil {
		srcLoss = *s.SrcPacketLoss
	}
	if s.DstPacketLoss != nil {
		dstLoss = *s.DstPacketLoss
	}
	loss := srcLoss
	if dstLoss > loss {
		loss = dstLoss
	}
	return 1 - loss
}

// resampleForwardFill walks `timestamps` in order, carrying the most
// recent known value forward; timestamps before the first known sample
// are dropped rather than guessed at.
func resampleForwardFill(timestamps []time.Time, byTick map[time.Time]float64) []reliabilityPoint {
	var out []reliabilityPoint
	var last float64
	have := false
	for _, t := range timestamps {
		if v, ok := byTick[t]; ok {
			last = v
			have = true
		}
		if !have {
			continue
		}
		out = append(out, reliabilityPoint{Sampled: t, Value: last})
	}
	return out
}
