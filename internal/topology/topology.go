// Package topology materializes the undirected graph view of a tick
// (§4.3) and augments its NodeSample/LinkSample rows with degree,
// betweenness, and closeness centrality.
package topology

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/sdnalyzer/sdnalyzer/internal/store"
)

// vertex pairs a graph node ID with the store Node/NodeSample it
// represents, so results can be written back after gonum computes them
// over opaque int64 IDs.
type vertex struct {
	nodeID uuid.UUID
}

// edge pairs a graph edge with the LinkSample it represents.
type edge struct {
	linkID uuid.UUID
}

// Augmentor computes and writes back centrality metrics for one tick.
type Augmentor struct{}

func NewAugmentor() *Augmentor { return &Augmentor{} }

// Augment builds the undirected graph for `sampled` from the session's
// NodesAtTick/LinksAtTick rows, computes degree/betweenness/closeness,
// and writes the results back onto those same rows. Call
// store.Session.EnsureNodeSampleForTick first so nodes with no links
// this tick still get a NodeSample row (degree 0, closeness 0).
func (a *Augmentor) Augment(ctx context.Context, sess *store.Session, sampled time.Time) error {
	nodesAtTick, err := sess.NodesAtTick(ctx, sampled)
	if err != nil {
		return fmt.Errorf("failed to load nodes at tick: %w", err)
	}
	linksAtTick, err := sess.LinksAtTick(ctx, sampled)
	if err != nil {
		return fmt.Errorf("failed to load links at tick: %w", err)
	}

	g := simple.NewUndirectedGraph()
	idByNode := make(map[uuid.UUID]int64, len(nodesAtTick))
	vertexByID := make(map[int64]vertex, len(nodesAtTick))

	for _, nt := range nodesAtTick {
		n := g.NewNode()
		g.AddNode(n)
		idByNode[nt.Node.ID] = n.ID()
		vertexByID[n.ID()] = vertex{nodeID: nt.Node.ID}
	}

	edgeByEndpoints := make(map[[2]int64]edge, len(linksAtTick))
	for _, lt := range linksAtTick {
		srcID, ok := idByNode[lt.Link.SrcNodeID]
		if !ok {
			continue
		}
		dstID, ok := idByNode[lt.Link.DstNodeID]
		if !ok {
			continue
		}
		if srcID == dstID {
			continue
		}
		g.SetEdge(g.NewEdge(g.Node(srcID), g.Node(dstID)))
		edgeByEndpoints[endpointKey(srcID, dstID)] = edge{linkID: lt.Link.ID}
	}

	degree := computeDegree(g)
	betweenness := network.Betweenness(g)
	edgeBetweenness := network.EdgeBetweenness(g)
	closeness := computeCloseness(g, degree)

	for nodeID, gid := range idByNode {
		if err := sess.UpdateNodeSampleCentrality(ctx, nodeID, sampled,
			degree[gid], betweenness[gid], closeness[gid]); err != nil {
			return fmt.Errorf("failed to update node sample centrality: %w", err)
		}
	}

	for key, e := range edgeByEndpoints {
		score := edgeBetweenness[key[0]][key[1]] + edgeBetweenness[key[1]][key[0]]
		if err := sess.UpdateLinkSampleBetweenness(ctx, e.linkID, sampled, score); err != nil {
			return fmt.Errorf("failed to update link sample betweenness: %w", err)
		}
	}

	return nil
}

func endpointKey(a, b int64) [2]int64 {
	if a < b {
		return [2]int64{a, b}
	}
	return [2]int64{b, a}
}

func computeDegree(g graph.Undirected) map[int64]int {
	out := make(map[int64]int)
	nodes := g.Nodes()
	for nodes.Next() {
		n := nodes.Node()
		out[n.ID()] = g.From(n.ID()).Len()
	}
	return out
}

// computeCloseness returns, per node, the reciprocal of the mean
// shortest-path distance to every other reachable vertex, forced to 0
// when the node's degree is 0 (§4.3's special case — an isolated node
// has no reachable vertices and BFS alone would also yield 0, but the
// spec calls this out explicitly so we make it unconditional).
func computeCloseness(g graph.Undirected, degree map[int64]int) map[int64]float64 {
	out := make(map[int64]float64, len(degree))
	nodes := g.Nodes()
	var all []graph.Node
	for nodes.Next() {
		all = append(all, nodes.Node())
	}

	for _, src := range all {
		id := src.ID()
		if degree[id] == 0 {
			out[id] = 0
			continue
		}
		dist := bfsDistances(g, id)
		var sum float64
		var reachable int
		for other, d := range dist {
			if other == id {
				continue
			}
			sum += float64(d)
			reachable++
		}
		if reachable == 0 || sum == 0 {
			out[id] = 0
			continue
		}
		mean := sum / float64(reachable)
		out[id] = 1 / mean
	}
	return out
}

// bfsDistances returns shortest-path hop counts from src to every
// vertex reachable from it.
func bfsDistances(g graph.Undirected, src int64) map[int64]int {
	dist := map[int64]int{src: 0}
	queue := []int64{src}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		it := g.From(u)
		for it.Next() {
			v := it.Node().ID()
			if _, seen := dist[v]; seen {
				continue
			}
			dist[v] = dist[u] + 1
			queue = append(queue, v)
		}
	}
	return dist
}
