package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/sdnalyzer/sdnalyzer/internal/store"
	"github.com/sdnalyzer/sdnalyzer/internal/testutil"
)

func newTestStore(t *testing.T) *store.Store {
	if testing.Short() {
		t.Skip("skipping postgres-backed test in -short mode")
	}
	ctx := context.Background()
	log := testutil.NewLogger()

	pg, err := testutil.NewPostgres(ctx, log, nil)
	require.NoError(t, err)
	t.Cleanup(pg.Close)

	s, err := store.Open(ctx, store.Config{Logger: log, ConnectionString: pg.ConnStr()})
	require.NoError(t, err)
	t.Cleanup(s.Close)

	require.NoError(t, s.Init(ctx))
	return s
}

// S1: empty network, one tick, no rows beyond the SampleTimestamp.
func TestStore_EmptyTickProducesOnlyTimestamp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	sess, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, sess.InsertSampleTimestamp(ctx, now, 30*time.Second))
	require.NoError(t, sess.Commit(ctx))

	sess, err = s.Begin(ctx)
	require.NoError(t, err)
	latest, err := sess.LatestSampleTimestamp(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	require.True(t, latest.Sampled.Equal(now))
	require.NoError(t, sess.Rollback(ctx))
}

// S2: two switches, one link, canonicalized so src device_id "…:01" wins.
func TestStore_LinkCanonicalization(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	sess, err := s.Begin(ctx)
	require.NoError(t, err)

	n01, err := sess.FindOrCreateNode(ctx, "00:00:00:00:00:01", store.NodeTypeSwitch, now)
	require.NoError(t, err)
	n02, err := sess.FindOrCreateNode(ctx, "00:00:00:00:00:02", store.NodeTypeSwitch, now)
	require.NoError(t, err)
	p01, err := sess.FindOrCreatePort(ctx, n01.ID, 1, "", "", now)
	require.NoError(t, err)
	p02, err := sess.FindOrCreatePort(ctx, n02.ID, 1, "", "", now)
	require.NoError(t, err)

	// Observed direction is {src:02, dst:01}; CanonicalizeLink must swap it.
	srcDevice, src, dstDevice, dst := store.CanonicalizeLink(
		n02.DeviceID, store.LinkEndpoint{NodeID: n02.ID, PortID: p02.ID},
		n01.DeviceID, store.LinkEndpoint{NodeID: n01.ID, PortID: p01.ID},
	)
	require.Equal(t, n01.DeviceID, srcDevice)
	require.Equal(t, n02.DeviceID, dstDevice)
	require.Equal(t, n01.ID, src.NodeID)
	require.Equal(t, n02.ID, dst.NodeID)

	link, _, err := sess.FindOrCreateLink(ctx, src, dst, "internal", "unidirectional", now)
	require.NoError(t, err)
	require.Equal(t, n01.ID, link.SrcNodeID)
	require.Equal(t, p01.ID, link.SrcPortID)

	require.NoError(t, sess.Commit(ctx))

	// Invariant #2: no two Link rows for the same unordered endpoint 4-tuple.
	sess, err = s.Begin(ctx)
	require.NoError(t, err)
	again, _, err := sess.FindOrCreateLink(ctx, src, dst, "internal", "unidirectional", now.Add(time.Second))
	require.NoError(t, err)
	require.Equal(t, link.ID, again.ID)
	require.NoError(t, sess.Rollback(ctx))
}

// A device_id that was never created resolves to no Node, which is how
// sensors applied after SwitchList skip switches they don't know.
func TestStore_UnknownDeviceHasNoNode(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess, err := s.Begin(ctx)
	require.NoError(t, err)
	missing, err := sess.GetNodeByDeviceID(ctx, "00:00:00:00:00:ff")
	require.NoError(t, err)
	require.Nil(t, missing)
	require.NoError(t, sess.Rollback(ctx))
}

// The window query returns each recorded tick once, in ascending order.
func TestStore_SampleTimestampsInWindow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	sess, err := s.Begin(ctx)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, sess.InsertSampleTimestamp(ctx, base.Add(time.Duration(i)*30*time.Second), 30*time.Second))
	}
	require.NoError(t, sess.Commit(ctx))

	sess, err = s.Begin(ctx)
	require.NoError(t, err)
	ts, err := sess.SampleTimestampsInWindow(ctx, base, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, ts, 3)
	require.True(t, ts[0].Before(ts[len(ts)-1]) || ts[0].Equal(ts[len(ts)-1]))
	require.NoError(t, sess.Rollback(ctx))
}

// Invariant #7: link ID is stable under endpoint canonicalization,
// regardless of which side is presented as src.
func TestStore_LinkIDStableUnderCanonicalization(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	sess, err := s.Begin(ctx)
	require.NoError(t, err)
	n01, err := sess.FindOrCreateNode(ctx, "00:00:00:00:00:01", store.NodeTypeSwitch, now)
	require.NoError(t, err)
	n02, err := sess.FindOrCreateNode(ctx, "00:00:00:00:00:02", store.NodeTypeSwitch, now)
	require.NoError(t, err)
	p01, err := sess.FindOrCreatePort(ctx, n01.ID, 1, "", "", now)
	require.NoError(t, err)
	p02, err := sess.FindOrCreatePort(ctx, n02.ID, 1, "", "", now)
	require.NoError(t, err)

	src1, e1, dst1, e2 := store.CanonicalizeLink(n01.DeviceID, store.LinkEndpoint{NodeID: n01.ID, PortID: p01.ID}, n02.DeviceID, store.LinkEndpoint{NodeID: n02.ID, PortID: p02.ID})
	_ = src1
	_ = dst1
	link1, _, err := sess.FindOrCreateLink(ctx, e1, e2, "internal", "unidirectional", now)
	require.NoError(t, err)

	src2, f1, dst2, f2 := store.CanonicalizeLink(n02.DeviceID, store.LinkEndpoint{NodeID: n02.ID, PortID: p02.ID}, n01.DeviceID, store.LinkEndpoint{NodeID: n01.ID, PortID: p01.ID})
	_ = src2
	_ = dst2
	link2, _, err := sess.FindOrCreateLink(ctx, f1, f2, "internal", "unidirectional", now.Add(time.Second))
	require.NoError(t, err)

	require.Equal(t, link1.ID, link2.ID)
	require.NoError(t, sess.Rollback(ctx))
}

// S6: after N ticks with one link, the link's samples in the window
// number exactly N.
func TestStore_LinkSamplesAccumulateOverTicks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	sess, err := s.Begin(ctx)
	require.NoError(t, err)
	n01, err := sess.FindOrCreateNode(ctx, "00:00:00:00:00:01", store.NodeTypeSwitch, base)
	require.NoError(t, err)
	n02, err := sess.FindOrCreateNode(ctx, "00:00:00:00:00:02", store.NodeTypeSwitch, base)
	require.NoError(t, err)
	p01, err := sess.FindOrCreatePort(ctx, n01.ID, 1, "", "", base)
	require.NoError(t, err)
	p02, err := sess.FindOrCreatePort(ctx, n02.ID, 1, "", "", base)
	require.NoError(t, err)
	require.NoError(t, sess.Commit(ctx))

	const ticks = 4
	var linkID uuid.UUID
	for i := 0; i < ticks; i++ {
		now := base.Add(time.Duration(i) * 30 * time.Second)
		sess, err := s.Begin(ctx)
		require.NoError(t, err)
		link, _, err := sess.FindOrCreateLink(ctx,
			store.LinkEndpoint{NodeID: n01.ID, PortID: p01.ID},
			store.LinkEndpoint{NodeID: n02.ID, PortID: p02.ID},
			"internal", "unidirectional", now)
		require.NoError(t, err)
		linkID = link.ID
		require.NoError(t, sess.Commit(ctx))
	}

	sess, err = s.Begin(ctx)
	require.NoError(t, err)
	samples, err := sess.LinkSamplesInWindow(ctx, linkID, base.Add(-time.Minute), base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, samples, ticks)
	require.NoError(t, sess.Rollback(ctx))
}
