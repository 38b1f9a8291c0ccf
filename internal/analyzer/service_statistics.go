package analyzer

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/sdnalyzer/sdnalyzer/internal/store"
)

// ServiceStatistics computes per-provider (mac, ip, protocol, port)
// data rate, flow count, and duration statistics over the last hour,
// evaluated at the provider's attachment switch, split by consume and
// provide direction (§4.5). The provider side of a flow is whichever
// endpoint holds the lower transport port.
//
// The data rate formula here is (Δbytes / Δt) * 8. An earlier version
// of this computation divided only the previous sample's byte count by
// Δt before subtracting, which silently produced nonsense rates; this
// implementation uses the arithmetically correct grouping.
type ServiceStatistics struct{}

func (ServiceStatistics) Name() string { return "ServiceStatistics" }

func (ServiceStatistics) Window(now time.Time) (time.Time, time.Time) { return windowHourly(now) }

type directionStats struct {
	RateAvg        float64 `json:"rate_avg"`
	RateStd        float64 `json:"rate_std"`
	CountAvg       float64 `json:"count_avg"`
	CountStd       float64 `json:"count_std"`
	DurationAvg    float64 `json:"duration_avg"`
	DurationStd    float64 `json:"duration_std"`
	ActivityActual int     `json:"activity_actual"`
	ActivityMax    int     `json:"activity_max"`
}

type serviceStatisticsEntry struct {
	DeviceID string          `json:"device_id"`
	MAC      string          `json:"mac"`
	IP       string          `json:"ip"`
	Protocol string          `json:"protocol"`
	Port     int             `json:"port"`
	Consume  *directionStats `json:"consume,omitempty"`
	Provide  *directionStats `json:"provide,omitempty"`
}

// providerKey identifies one (host, protocol, port) service provider.
// A host can expose the same service over several concurrent flows
// (e.g. two clients talking to the same listening port); every flow
// sharing a key is merged into one series before statistics are taken,
// mirroring the original's groupby-per-provider accumulation.
type providerKey struct {
	DeviceID string
	Protocol string
	Port     int
}

type providerFlows struct {
	MAC     string
	IP      string
	Consume []store.Flow
	Provide []store.Flow
}

func (ServiceStatistics) Analyze(ctx context.Context, sess *store.Session, start, stop time.Time) (any, []time.Time, error) {
	timestamps, err := sess.SampleTimestampsInWindow(ctx, start, stop)
	if err != nil {
		return nil, nil, err
	}
	activityMax := len(timestamps)

	hosts, err := sess.HostNodes(ctx)
	if err != nil {
		return nil, nil, err
	}

	providers := map[providerKey]*providerFlows{}
	var order []providerKey

	for _, host := range hosts {
		links, err := sess.LinksForNode(ctx, host.ID)
		if err != nil {
			return nil, nil, err
		}
		apID, ok := attachmentSwitch(host, links)
		if !ok {
			continue
		}

		flows, err := sess.FlowsForNode(ctx, apID)
		if err != nil {
			return nil, nil, err
		}

		for _, fl := range flows {
			srcPort, srcOK := parsePortNumberLocal(fl.Match.TPSrc)
			dstPort, dstOK := parsePortNumberLocal(fl.Match.TPDst)
			if !srcOK || !dstOK || srcPort == 0 || dstPort == 0 {
				continue
			}

			isConsume := dstPort < srcPort
			providerMAC := fl.Match.EthSrc
			providerIP := fl.Match.NWSrc
			providerPort := srcPort
			if isConsume {
				providerMAC = fl.Match.EthDst
				providerIP = fl.Match.NWDst
				providerPort = dstPort
			}
			if store.HostDeviceID(providerMAC) != host.DeviceID {
				continue
			}

			key := providerKey{DeviceID: host.DeviceID, Protocol: fl.Match.IPProto, Port: providerPort}
			p, ok := providers[key]
			if !ok {
				p = &providerFlows{MAC: providerMAC, IP: providerIP}
				providers[key] = p
				order = append(order, key)
			}
			if isConsume {
				p.Consume = append(p.Consume, fl)
			} else {
				p.Provide = append(p.Provide, fl)
			}
		}
	}

	var entries []serviceStatisticsEntry
	var sampled []time.Time

	for _, key := range order {
		p := providers[key]
		entry := serviceStatisticsEntry{
			DeviceID: key.DeviceID, MAC: p.MAC, IP: p.IP, Protocol: key.Protocol, Port: key.Port,
		}

		consume, consumeSampled, err := mergedDirectionStats(ctx, sess, p.Consume, start, stop, activityMax)
		if err != nil {
			return nil, nil, err
		}
		entry.Consume = consume
		sampled = append(sampled, consumeSampled...)

		provide, provideSampled, err := mergedDirectionStats(ctx, sess, p.Provide, start, stop, activityMax)
		if err != nil {
			return nil, nil, err
		}
		entry.Provide = provide
		sampled = append(sampled, provideSampled...)

		if entry.Consume != nil || entry.Provide != nil {
			entries = append(entries, entry)
		}
	}
	return entries, sampled, nil
}

// mergedDirectionStats combines every flow's samples in one direction
// into a single per-timestamp series (summing byte_count/duration for
// flows active at the same tick) before computing statistics, so that
// concurrent flows on the same provider port don't overwrite one
// another's contribution.
func mergedDirectionStats(ctx context.Context, sess *store.Session, flows []store.Flow, start, stop time.Time, activityMax int) (*directionStats, []time.Time, error) {
	if len(flows) == 0 {
		return nil, nil, nil
	}

	var all []store.FlowSample
	for _, fl := range flows {
		samples, err := sess.FlowSamplesInWindow(ctx, fl.ID, start, stop)
		if err != nil {
			return nil, nil, err
		}
		all = append(all, samples...)
	}
	if len(all) == 0 {
		return nil, nil, nil
	}

	var sampled []time.Time
	for _, s := range all {
		sampled = append(sampled, s.Sampled)
	}

	merged := mergeFlowSamples(all)
	stats, ok := computeDirectionStats(merged, activityMax)
	if !ok {
		return nil, sampled, nil
	}
	return stats, sampled, nil
}

// mergeFlowSamples sums byte_count and duration_seconds across every
// sample sharing a timestamp, and counts how many flows contributed to
// each tick, producing one combined series ordered by time.
func mergeFlowSamples(samples []store.FlowSample) []mergedSample {
	byStamp := map[time.Time]*mergedSample{}
	var order []time.Time
	for _, s := range samples {
		m, ok := byStamp[s.Sampled]
		if !ok {
			m = &mergedSample{Sampled: s.Sampled}
			byStamp[s.Sampled] = m
			order = append(order, s.Sampled)
		}
		m.ByteCount += s.ByteCount
		m.DurationSeconds += s.DurationSeconds
		m.FlowCount++
	}
	sort.Slice(order, func(i, j int) bool { return order[i].Before(order[j]) })

	out := make([]mergedSample, len(order))
	for i, t := range order {
		out[i] = *byStamp[t]
	}
	return out
}

// mergedSample is one timestamp's combined totals across every flow
// sharing a provider identity.
type mergedSample struct {
	Sampled         time.Time
	ByteCount       int64
	DurationSeconds float64
	FlowCount       int
}

// attachmentSwitch returns the non-host endpoint of the host's first
// link, per the original's "ap = link.src if link.src.type != host else
// link.dst".
func attachmentSwitch(host store.Node, links []store.Link) (uuid.UUID, bool) {
	if len(links) == 0 {
		return uuid.Nil, false
	}
	l := links[0]
	if l.SrcNodeID == host.ID {
		return l.DstNodeID, true
	}
	return l.SrcNodeID, true
}

// computeDirectionStats derives the rate/count/duration statistics for
// one provider direction's merged sample series.
func computeDirectionStats(samples []mergedSample, activityMax int) (*directionStats, bool) {
	var rates, counts, durations []float64
	ticks := map[time.Time]bool{}

	for i := 1; i < len(samples); i++ {
		prev, cur := samples[i-1], samples[i]
		ticks[cur.Sampled] = true
		dt := cur.Sampled.Sub(prev.Sampled).Seconds()
		if dt <= 0 {
			continue
		}
		deltaBytes := float64(cur.ByteCount - prev.ByteCount)
		if deltaBytes <= 0 {
			continue
		}
		rates = append(rates, (deltaBytes/dt)*8)
	}
	if len(samples) > 0 {
		ticks[samples[0].Sampled] = true
	}
	for _, s := range samples {
		counts = append(counts, float64(s.FlowCount))
		durations = append(durations, s.DurationSeconds)
	}

	if len(rates) == 0 {
		return nil, false
	}

	rateAvg, rateStd := meanStdDev(rates)
	countAvg, countStd := meanStdDev(counts)
	durAvg, durStd := meanStdDev(durations)

	return &directionStats{
		RateAvg: rateAvg, RateStd: rateStd,
		CountAvg: countAvg, CountStd: countStd,
		DurationAvg: durAvg, DurationStd: durStd,
		ActivityActual: len(ticks), ActivityMax: activityMax,
	}, true
}

func meanStdDev(vals []float64) (mean, stddev float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	mean = sum / float64(len(vals))
	if len(vals) < 2 {
		return mean, 0
	}
	var sq float64
	for _, v := range vals {
		d := v - mean
		sq += d * d
	}
	stddev = math.Sqrt(sq / float64(len(vals)-1))
	return mean, stddev
}
