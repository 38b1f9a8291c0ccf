package topology

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/graph/simple"
)

func TestComputeDegree(t *testing.T) {
	g := simple.NewUndirectedGraph()
	a, b, c := g.NewNode(), g.NewNode(), g.NewNode()
	g.AddNode(a)
	g.AddNode(b)
	g.AddNode(c)
	g.SetEdge(g.NewEdge(a, b))

	degree := computeDegree(g)
	require.Equal(t, 1, degree[a.ID()])
	require.Equal(t, 1, degree[b.ID()])
	require.Equal(t, 0, degree[c.ID()])
}

func TestComputeCloseness_IsolatedNodeIsZero(t *testing.T) {
	g := simple.NewUndirectedGraph()
	a, b := g.NewNode(), g.NewNode()
	g.AddNode(a)
	g.AddNode(b)

	degree := computeDegree(g)
	closeness := computeCloseness(g, degree)
	require.Equal(t, 0.0, closeness[a.ID()])
	require.Equal(t, 0.0, closeness[b.ID()])
}

func TestComputeCloseness_Chain(t *testing.T) {
	g := simple.NewUndirectedGraph()
	a, b, c := g.NewNode(), g.NewNode(), g.NewNode()
	g.AddNode(a)
	g.AddNode(b)
	g.AddNode(c)
	g.SetEdge(g.NewEdge(a, b))
	g.SetEdge(g.NewEdge(b, c))

	degree := computeDegree(g)
	closeness := computeCloseness(g, degree)

	// b is adjacent to both a and c: mean distance 1, closeness 1.
	require.InDelta(t, 1.0, closeness[b.ID()], 1e-9)
	// a reaches b at distance 1 and c at distance 2: mean 1.5, closeness 1/1.5.
	require.InDelta(t, 1.0/1.5, closeness[a.ID()], 1e-9)
}

func TestEndpointKey_OrderIndependent(t *testing.T) {
	require.Equal(t, endpointKey(1, 2), endpointKey(2, 1))
}

func TestBFSDistances(t *testing.T) {
	g := simple.NewUndirectedGraph()
	a, b, c := g.NewNode(), g.NewNode(), g.NewNode()
	g.AddNode(a)
	g.AddNode(b)
	g.AddNode(c)
	g.SetEdge(g.NewEdge(a, b))
	g.SetEdge(g.NewEdge(b, c))

	dist := bfsDistances(g, a.ID())
	require.Equal(t, 0, dist[a.ID()])
	require.Equal(t, 1, dist[b.ID()])
	require.Equal(t, 2, dist[c.ID()])
}
