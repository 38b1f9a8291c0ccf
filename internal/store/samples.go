package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InsertPortSample appends a PortSample for now (§3: samples are
// append-only). Counters are assumed monotonic within a reboot epoch;
// callers don't need to clamp here, only derivation of rates does.
func (s *Session) InsertPortSample(ctx context.Context, ps PortSample) error {
	ps.ID = uuid.New()
	_, err := s.tx.Exec(ctx, `
		INSERT INTO port_samples (id, port_id, sampled, receive_packets, transmit_packets,
			receive_bytes, transmit_bytes, receive_dropped, transmit_dropped,
			receive_errors, transmit_errors, receive_frame_errors, receive_overrun_errors,
			receive_crc_errors, collisions)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		ON CONFLICT (port_id, sampled) DO NOTHING`,
		ps.ID, ps.PortID, ps.Sampled, ps.ReceivePackets, ps.TransmitPackets,
		ps.ReceiveBytes, ps.TransmitBytes, ps.ReceiveDropped, ps.TransmitDropped,
		ps.ReceiveErrors, ps.TransmitErrors, ps.ReceiveFrameErrors, ps.ReceiveOverrunErrors,
		ps.ReceiveCRCErrors, ps.Collisions)
	if err != nil {
		return fmt.Errorf("failed to insert port sample: %w", err)
	}
	return nil
}

// previousPortSample returns the PortSample immediately before `now`
// for a port, or nil if there isn't one.
func (s *Session) previousPortSample(ctx context.Context, portID uuid.UUID, now time.Time) (*PortSample, error) {
	var ps PortSample
	row := s.tx.QueryRow(ctx, `
		SELECT id, port_id, sampled, receive_packets, transmit_packets, receive_bytes, transmit_bytes
		FROM port_samples WHERE port_id = $1 AND sampled < $2
		ORDER BY sampled DESC LIMIT 1`, portID, now)
	err := row.Scan(&ps.ID, &ps.PortID, &ps.Sampled, &ps.ReceivePackets, &ps.TransmitPackets, &ps.ReceiveBytes, &ps.TransmitBytes)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query previous port sample: %w", err)
	}
	return &ps, nil
}

// currentPortSample returns the PortSample at exactly `now` for a port.
func (s *Session) currentPortSample(ctx context.Context, portID uuid.UUID, now time.Time) (*PortSample, error) {
	var ps PortSample
	row := s.tx.QueryRow(ctx, `
		SELECT id, port_id, sampled, receive_packets, transmit_packets, receive_bytes, transmit_bytes
		FROM port_samples WHERE port_id = $1 AND sampled = $2`, portID, now)
	err := row.Scan(&ps.ID, &ps.PortID, &ps.Sampled, &ps.ReceivePackets, &ps.TransmitPackets, &ps.ReceiveBytes, &ps.TransmitBytes)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query current port sample: %w", err)
	}
	return &ps, nil
}

// portDataRates computes (transmit, receive) data rates in bits per
// second for a port at `now`, per §4.2. Returns (nil, nil) fields when
// fewer than two samples exist.
func (s *Session) portDataRates(ctx context.Context, portID uuid.UUID, now time.Time) (tx *int64, rx *int64, err error) {
	cur, err := s.currentPortSample(ctx, portID, now)
	if err != nil || cur == nil {
		return nil, nil, err
	}
	prev, err := s.previousPortSample(ctx, portID, now)
	if err != nil || prev == nil {
		return nil, nil, err
	}
	dt := cur.Sampled.Sub(prev.Sampled).Seconds()
	tx = deriveDataRateBPS(prev.TransmitBytes, cur.TransmitBytes, dt)
	rx = deriveDataRateBPS(prev.ReceiveBytes, cur.ReceiveBytes, dt)
	return tx, rx, nil
}

// portTransmitPacketsDelta returns max(0, now.transmit_packets -
// prev.transmit_packets), or 0 if there is no prior sample.
func (s *Session) portTransmitPacketsDelta(ctx context.Context, portID uuid.UUID, now time.Time) (int64, error) {
	cur, err := s.currentPortSample(ctx, portID, now)
	if err != nil || cur == nil {
		return 0, err
	}
	prev, err := s.previousPortSample(ctx, portID, now)
	if err != nil || prev == nil {
		return 0, err
	}
	return clampNonNegative(cur.TransmitPackets - prev.TransmitPackets), nil
}

// portReceivePacketsDelta returns max(0, now.receive_packets -
// prev.receive_packets), or 0 if there is no prior sample.
func (s *Session) portReceivePacketsDelta(ctx context.Context, portID uuid.UUID, now time.Time) (int64, error) {
	cur, err := s.currentPortSample(ctx, portID, now)
	if err != nil || cur == nil {
		return 0, err
	}
	prev, err := s.previousPortSample(ctx, portID, now)
	if err != nil || prev == nil {
		return 0, err
	}
	return clampNonNegative(cur.ReceivePackets - prev.ReceivePackets), nil
}

// InsertFlowSample appends a FlowSample for now.
func (s *Session) InsertFlowSample(ctx context.Context, fs FlowSample) error {
	fs.ID = uuid.New()
	_, err := s.tx.Exec(ctx, `
		INSERT INTO flow_samples (id, flow_id, sampled, packet_count, byte_count,
			duration_seconds, priority, idle_timeout, hard_timeout)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (flow_id, sampled) DO NOTHING`,
		fs.ID, fs.FlowID, fs.Sampled, fs.PacketCount, fs.ByteCount,
		fs.DurationSeconds, fs.Priority, fs.IdleTimeout, fs.HardTimeout)
	if err != nil {
		return fmt.Errorf("failed to insert flow sample: %w", err)
	}
	return nil
}

// InsertNodeSample appends a NodeSample for now, typically empty, to
// seed the topology view before augmentation; the augmentor fills in
// degree/betweenness/closeness later via UpdateNodeSampleCentrality.
func (s *Session) InsertNodeSample(ctx context.Context, ns NodeSample) error {
	ns.ID = uuid.New()
	_, err := s.tx.Exec(ctx, `
		INSERT INTO node_samples (id, node_id, sampled, degree, betweenness, closeness)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (node_id, sampled) DO NOTHING`,
		ns.ID, ns.NodeID, ns.Sampled, ns.Degree, ns.Betweenness, ns.Closeness)
	if err != nil {
		return fmt.Errorf("failed to insert node sample: %w", err)
	}
	return nil
}

// UpdateNodeSampleCentrality writes degree/betweenness/closeness back
// onto the NodeSample row for (nodeID, sampled), per §4.3.
func (s *Session) UpdateNodeSampleCentrality(ctx context.Context, nodeID uuid.UUID, sampled time.Time, degree int, betweenness, closeness float64) error {
	_, err := s.tx.Exec(ctx, `
		UPDATE node_samples SET degree = $1, betweenness = $2, closeness = $3
		WHERE node_id = $4 AND sampled = $5`,
		degree, betweenness, closeness, nodeID, sampled)
	if err != nil {
		return fmt.Errorf("failed to update node sample centrality: %w", err)
	}
	return nil
}

// UpdateLinkSampleBetweenness writes edge betweenness back onto the
// LinkSample row for (linkID, sampled), per §4.3.
func (s *Session) UpdateLinkSampleBetweenness(ctx context.Context, linkID uuid.UUID, sampled time.Time, betweenness float64) error {
	_, err := s.tx.Exec(ctx, `
		UPDATE link_samples SET betweenness = $1 WHERE link_id = $2 AND sampled = $3`,
		betweenness, linkID, sampled)
	if err != nil {
		return fmt.Errorf("failed to update link sample betweenness: %w", err)
	}
	return nil
}

// InsertSampleTimestamp marks one tick complete (§4.4, last step).
func (s *Session) InsertSampleTimestamp(ctx context.Context, sampled time.Time, interval time.Duration) error {
	_, err := s.tx.Exec(ctx, `
		INSERT INTO sample_timestamps (sampled, interval_seconds) VALUES ($1, $2)
		ON CONFLICT (sampled) DO NOTHING`,
		sampled, interval.Seconds())
	if err != nil {
		return fmt.Errorf("failed to insert sample timestamp: %w", err)
	}
	return nil
}
