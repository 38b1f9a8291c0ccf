package analyzer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sdnalyzer/sdnalyzer/internal/store"
)

func f64(v float64) *float64 { return &v }

func TestReliabilityValue(t *testing.T) {
	require.Equal(t, 1.0, reliabilityValue(store.LinkSample{}))
	require.Equal(t, 0.75, reliabilityValue(store.LinkSample{SrcPacketLoss: f64(0.25), DstPacketLoss: f64(0.1)}))
	require.Equal(t, 0.9, reliabilityValue(store.LinkSample{SrcPacketLoss: f64(0.05), DstPacketLoss: f64(0.1)}))
}

func TestResampleForwardFill(t *testing.T) {
	t0 := time.Unix(0, 0)
	t1 := t0.Add(time.Second)
	t2 := t0.Add(2 * time.Second)
	t3 := t0.Add(3 * time.Second)

	byTick := map[time.Time]float64{t0: 1.0, t2: 0.5}
	points := resampleForwardFill([]time.Time{t0, t1, t2, t3}, byTick)

	require.Len(t, points, 4)
	require.Equal(t, 1.0, points[0].Value)
	require.Equal(t, 1.0, points[1].Value) // forward-filled
	require.Equal(t, 0.5, points[2].Value)
	require.Equal(t, 0.5, points[3].Value)
}

func TestResampleForwardFill_DropsBeforeFirstKnownValue(t *testing.T) {
	t0 := time.Unix(0, 0)
	t1 := t0.Add(time.Second)
	byTick := map[time.Time]float64{t1: 1.0}
	points := resampleForwardFill([]time.Time{t0, t1}, byTick)
	require.Len(t, points, 1)
	require.Equal(t, t1, points[0].Sampled)
}

func TestMeanStdDev(t *testing.T) {
	mean, std := meanStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	require.InDelta(t, 5.0, mean, 1e-9)
	require.InDelta(t, 2.138, std, 1e-3)
}

func TestMeanStdDev_SingleValue(t *testing.T) {
	mean, std := meanStdDev([]float64{3})
	require.Equal(t, 3.0, mean)
	require.Equal(t, 0.0, std)
}

func TestStandardizedDistance(t *testing.T) {
	a := linkFeatureVector{loss: 0.1, delay: 10}
	b := linkFeatureVector{loss: 0.2, delay: 20}
	d := standardizedDistance(a, b, 0.01, 100)
	require.InDelta(t, 1.4142, d, 1e-3)
}

func TestSummarizeTimestamps_Empty(t *testing.T) {
	start, stop, count := summarizeTimestamps(nil)
	require.Nil(t, start)
	require.Nil(t, stop)
	require.Equal(t, 0, count)
}

func TestSummarizeTimestamps(t *testing.T) {
	t0 := time.Unix(100, 0)
	t1 := time.Unix(50, 0)
	t2 := time.Unix(200, 0)
	start, stop, count := summarizeTimestamps([]time.Time{t0, t1, t2})
	require.Equal(t, t1, *start)
	require.Equal(t, t2, *stop)
	require.Equal(t, 3, count)
}

func TestKnownPort(t *testing.T) {
	_, ok := knownPort("80", knownTCPPorts)
	require.True(t, ok)
	_, ok = knownPort("9999", knownTCPPorts)
	require.False(t, ok)
	_, ok = knownPort("not-a-number", knownTCPPorts)
	require.False(t, ok)
}
