package analyzer

import (
	"context"
	"time"

	"github.com/sdnalyzer/sdnalyzer/internal/store"
)

// TopologyCentrality snapshots the newest per-node (degree, betweenness,
// closeness) and per-link betweenness values into a single report
// (§4.5).
type TopologyCentrality struct{}

func (TopologyCentrality) Name() string { return "TopologyCentrality" }

func (TopologyCentrality) Window(now time.Time) (time.Time, time.Time) { return window24h(now) }

type nodeCentralityEntry struct {
	DeviceID    string   `json:"device_id"`
	Degree      *int     `json:"degree"`
	Betweenness *float64 `json:"betweenness"`
	Closeness   *float64 `json:"closeness"`
}

type linkCentralityEntry struct {
	LinkID      string   `json:"link_id"`
	Betweenness *float64 `json:"betweenness"`
}

type topologyCentralityContent struct {
	Nodes []nodeCentralityEntry `json:"nodes"`
	Links []linkCentralityEntry `json:"links"`
}

func (TopologyCentrality) Analyze(ctx context.Context, sess *store.Session, start, stop time.Time) (any, []time.Time, error) {
	latest, err := sess.LatestSampleTimestamp(ctx)
	if err != nil {
		return nil, nil, err
	}
	if latest == nil {
		return topologyCentralityContent{}, nil, nil
	}

	nodesAtTick, err := sess.NodesAtTick(ctx, latest.Sampled)
	if err != nil {
		return nil, nil, err
	}
	linksAtTick, err := sess.LinksAtTick(ctx, latest.Sampled)
	if err != nil {
		return nil, nil, err
	}

	var nodes []nodeCentralityEntry
	for _, nt := range nodesAtTick {
		nodes = append(nodes, nodeCentralityEntry{
			DeviceID:    nt.Node.DeviceID,
			Degree:      nt.Sample.Degree,
			Betweenness: nt.Sample.Betweenness,
			Closeness:   nt.Sample.Closeness,
		})
	}

	var links []linkCentralityEntry
	for _, lt := range linksAtTick {
		linkID, err := linkIDString(ctx, sess, lt.Link)
		if err != nil {
			return nil, nil, err
		}
		links = append(links, linkCentralityEntry{LinkID: linkID, Betweenness: lt.Sample.Betweenness})
	}

	return topologyCentralityContent{Nodes: nodes, Links: links}, []time.Time{latest.Sampled}, nil
}
