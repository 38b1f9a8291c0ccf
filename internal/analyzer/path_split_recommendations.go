package analyzer

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/sdnalyzer/sdnalyzer/internal/store"
)

// PathSplitRecommendations flags, for each switch with more than one
// non-host link, which pairs of links look most different in loss/delay
// behavior — a standardized-distance proxy for "these two paths behave
// differently enough that splitting traffic across them is meaningful"
// (§4.5).
type PathSplitRecommendations struct{}

func (PathSplitRecommendations) Name() string { return "PathSplitRecommendations" }

func (PathSplitRecommendations) Window(now time.Time) (time.Time, time.Time) { return window24h(now) }

const (
	minLoss  = 1e-3
	minDelay = 1.0 // ms
	minVar   = 1e-6
)

type pathSplitPair struct {
	LinkA    string  `json:"link_a"`
	LinkB    string  `json:"link_b"`
	Distance float64 `json:"distance"`
}

type pathSplitSwitchEntry struct {
	DeviceID    string          `json:"device_id"`
	Splits      []pathSplitPair `json:"splits"`
	MaxDistance float64         `json:"max_distance"`
}

type pathSplitContent struct {
	Switches  []pathSplitSwitchEntry `json:"switches"`
	MaxGlobal float64                `json:"max_global"`
}

type linkFeatureVector struct {
	linkID string
	loss   float64
	delay  float64
}

func (PathSplitRecommendations) Analyze(ctx context.Context, sess *store.Session, start, stop time.Time) (any, []time.Time, error) {
	switches, err := sess.SwitchNodes(ctx)
	if err != nil {
		return nil, nil, err
	}

	var out []pathSplitSwitchEntry
	var sampled []time.Time
	var globalMax float64

	for _, sw := range switches {
		links, err := sess.LinksForNode(ctx, sw.ID)
		if err != nil {
			return nil, nil, err
		}

		var vectors []linkFeatureVector
		for _, l := range links {
			otherID := l.DstNodeID
			isSrc := true
			if l.SrcNodeID != sw.ID {
				otherID = l.SrcNodeID
				isSrc = false
			}
			other, err := sess.GetNodeByID(ctx, otherID)
			if err != nil {
				return nil, nil, err
			}
			if other != nil && other.Type == store.NodeTypeHost {
				continue
			}

			series, err := sess.LinkSamplesInWindow(ctx, l.ID, start, stop)
			if err != nil {
				return nil, nil, err
			}
			if len(series) == 0 {
				continue
			}
			loss, delay, n := averageLossDelay(series, isSrc)
			if n == 0 {
				continue
			}
			for _, s := range series {
				sampled = append(sampled, s.Sampled)
			}
			linkID, err := linkIDString(ctx, sess, l)
			if err != nil {
				return nil, nil, err
			}
			vectors = append(vectors, linkFeatureVector{
				linkID: linkID,
				loss:   math.Max(loss, minLoss),
				delay:  math.Max(delay, minDelay),
			})
		}

		if len(vectors) < 2 {
			continue
		}

		lossVar := math.Max(featureVariance(vectors, func(v linkFeatureVector) float64 { return v.loss }), minVar)
		delayVar := math.Max(featureVariance(vectors, func(v linkFeatureVector) float64 { return v.delay }), minVar)

		var pairs []pathSplitPair
		var switchMax float64
		for i := 0; i < len(vectors); i++ {
			for j := i + 1; j < len(vectors); j++ {
				d := standardizedDistance(vectors[i], vectors[j], lossVar, delayVar)
				pairs = append(pairs, pathSplitPair{LinkA: vectors[i].linkID, LinkB: vectors[j].linkID, Distance: d})
				if d > switchMax {
					switchMax = d
				}
			}
		}
		// Most-different pairs first: these are the strongest
		// split candidates.
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].Distance > pairs[j].Distance })

		if switchMax > globalMax {
			globalMax = switchMax
		}
		out = append(out, pathSplitSwitchEntry{DeviceID: sw.DeviceID, Splits: pairs, MaxDistance: switchMax})
	}

	return pathSplitContent{Switches: out, MaxGlobal: globalMax}, sampled, nil
}

// averageLossDelay averages the switch-side loss/delay fields (src_*
// when the switch is the link's src endpoint, dst_* otherwise) over
// every sample that reported them.
func averageLossDelay(series []store.LinkSample, isSrc bool) (loss, delay float64, n int) {
	var lossSum, delaySum float64
	var lossN, delayN int
	for _, s := range series {
		var l, d *float64
		if isSrc {
			l, d = s.SrcPacketLoss, s.SrcDelay
		} else {
			l, d = s.DstPacketLoss, s.DstDelay
		}
		if l != nil {
			lossSum += *l
			lossN++
		}
		if d != nil {
			delaySum += *d
			delayN++
		}
	}
	if lossN == 0 && delayN == 0 {
		return 0, 0, 0
	}
	if lossN > 0 {
		loss = lossSum / float64(lossN)
	}
	if delayN > 0 {
		delay = delaySum / float64(delayN)
	}
	return loss, delay, lossN + delayN
}

func featureVariance(vectors []linkFeatureVector, feature func(linkFeatureVector) float64) float64 {
	if len(vectors) < 2 {
		return 0
	}
	var sum float64
	for _, v := range vectors {
		sum += feature(v)
	}
	mean := sum / float64(len(vectors))
	var sq float64
	for _, v := range vectors {
		d := feature(v) - mean
		sq += d * d
	}
	return sq / float64(len(vectors)-1)
}

func standardizedDistance(a, b linkFeatureVector, lossVar, delayVar float64) float64 {
	lossD := a.loss - b.loss
	delayD := a.delay - b.delay
	return math.Sqrt(lossD*lossD/lossVar + delayD*delayD/delayVar)
}
