package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// LinkSamplesInWindow returns a link's LinkSample rows in [start, stop],
// ascending by sampled — the time series analyzer tasks resample onto
// the window's distinct timestamps (§4.5).
func (s *Session) LinkSamplesInWindow(ctx context.Context, linkID uuid.UUID, start, stop time.Time) ([]LinkSample, error) {
	rows, err := s.tx.Query(ctx, `
		SELECT id, link_id, sampled, betweenness, src_packet_loss, dst_packet_loss,
			src_transmit_data_rate, src_receive_data_rate, dst_transmit_data_rate,
			dst_receive_data_rate, src_delay, dst_delay
		FROM link_samples WHERE link_id = $1 AND sampled >= $2 AND sampled <= $3
		ORDER BY sampled ASC`, linkID, start, stop)
	if err != nil {
		return nil, fmt.Errorf("failed to query link samples in window: %w", err)
	}
	defer rows.Close()

	var out []LinkSample
	for rows.Next() {
		var ls LinkSample
		if err := rows.Scan(&ls.ID, &ls.LinkID, &ls.Sampled, &ls.Betweenness, &ls.SrcPacketLoss,
			&ls.DstPacketLoss, &ls.SrcTransmitDataRate, &ls.SrcReceiveDataRate,
			&ls.DstTransmitDataRate, &ls.DstReceiveDataRate, &ls.SrcDelay, &ls.DstDelay); err != nil {
			return nil, fmt.Errorf("failed to scan link sample: %w", err)
		}
		out = append(out, ls)
	}
	return out, rows.Err()
}

// AllLinks returns every Link, used by tasks that iterate over the
// whole topology (SimpleLinkStatistics, LinkReliabilityStatistics,
// LinkImprovementAnalysis, PathSplitRecommendations).
func (s *Session) AllLinks(ctx context.Context) ([]Link, error) {
	rows, err := s.tx.Query(ctx, `
		SELECT id, src_node_id, src_port_id, dst_node_id, dst_port_id, type, direction, created, last_seen
		FROM links`)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	defer rows.Close()

	var out []Link
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.ID, &l.SrcNodeID, &l.SrcPortID, &l.DstNodeID, &l.DstPortID,
			&l.Type, &l.Direction, &l.Created, &l.LastSeen); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// NodeSamplesInWindow returns a node's NodeSample rows in [start, stop].
func (s *Session) NodeSamplesInWindow(ctx context.Context, nodeID uuid.UUID, start, stop time.Time) ([]NodeSample, error) {
	rows, err := s.tx.Query(ctx, `
		SELECT id, node_id, sampled, degree, betweenness, closeness
		FROM node_samples WHERE node_id = $1 AND sampled >= $2 AND sampled <= $3
		ORDER BY sampled ASC`, nodeID, start, stop)
	if err != nil {
		return nil, fmt.Errorf("failed to query node samples in window: %w", err)
	}
	defer rows.Close()

	var out []NodeSample
	for rows.Next() {
		var ns NodeSample
		if err := rows.Scan(&ns.ID, &ns.NodeID, &ns.Sampled, &ns.Degree, &ns.Betweenness, &ns.Closeness); err != nil {
			return nil, fmt.Errorf("failed to scan node sample: %w", err)
		}
		out = append(out, ns)
	}
	return out, rows.Err()
}

// HostNodes returns every Node of type host — SimpleServiceUsage and
// ServiceStatistics iterate over these (§4.5).
func (s *Session) HostNodes(ctx context.Context) ([]Node, error) {
	rows, err := s.tx.Query(ctx, `
		SELECT id, device_id, type, created, last_seen, connected_since
		FROM nodes WHERE type = $1`, NodeTypeHost)
	if err != nil {
		return nil, fmt.Errorf("failed to query host nodes: %w", err)
	}
	defer rows.Close()

	var out []Node
	for rows.Next() {
		var n Node
		if err := rows.Scan(&n.ID, &n.DeviceID, &n.Type, &n.Created, &n.LastSeen, &n.ConnectedSince); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// SwitchNodes returns every Node of type switch — PathSplitRecommendations
// filters these down to ones with >1 non-host link (§4.5).
func (s *Session) SwitchNodes(ctx context.Context) ([]Node, error) {
	rows, err := s.tx.Query(ctx, `
		SELECT id, device_id, type, created, last_seen, connected_since
		FROM nodes WHERE type = $1`, NodeTypeSwitch)
	if err != nil {
		return nil, fmt.Errorf("failed to query switch nodes: %w", err)
	}
	defer rows.Close()

	var out []Node
	for rows.Next() {
		var n Node
		if err := rows.Scan(&n.ID, &n.DeviceID, &n.Type, &n.Created, &n.LastSeen, &n.ConnectedSince); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// FlowsForNode returns every Flow owned by a node, without samples —
// SimpleServiceUsage and ServiceStatistics classify flows by transport
// port (§4.5) and load samples separately via FlowSamplesInWindow.
func (s *Session) FlowsForNode(ctx context.Context, nodeID uuid.UUID) ([]Flow, error) {
	rows, err := s.tx.Query(ctx, `
		SELECT id, node_id, cookie, in_port, eth_type, eth_src, eth_dst, eth_vlan_vid,
			ip_proto, nw_src, nw_dst, nw_src_mask_len, nw_dst_mask_len, tp_src, tp_dst,
			wildcards, created, last_seen
		FROM flows WHERE node_id = $1`, nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query flows for node: %w", err)
	}
	defer rows.Close()

	var out []Flow
	for rows.Next() {
		var f Flow
		if err := rows.Scan(&f.ID, &f.NodeID, &f.Cookie, &f.Match.InPort, &f.Match.EthType,
			&f.Match.EthSrc, &f.Match.EthDst, &f.Match.EthVlanVID, &f.Match.IPProto,
			&f.Match.NWSrc, &f.Match.NWDst, &f.Match.NWSrcMaskLen, &f.Match.NWDstMaskLen,
			&f.Match.TPSrc, &f.Match.TPDst, &f.Match.Wildcards, &f.Created, &f.LastSeen); err != nil {
			return nil, fmt.Errorf("failed to scan flow: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// FlowSamplesInWindow returns a flow's FlowSample rows in [start, stop].
func (s *Session) FlowSamplesInWindow(ctx context.Context, flowID uuid.UUID, start, stop time.Time) ([]FlowSample, error) {
	rows, err := s.tx.Query(ctx, `
		SELECT id, flow_id, sampled, packet_count, byte_count, duration_seconds, priority,
			idle_timeout, hard_timeout
		FROM flow_samples WHERE flow_id = $1 AND sampled >= $2 AND sampled <= $3
		ORDER BY sampled ASC`, flowID, start, stop)
	if err != nil {
		return nil, fmt.Errorf("failed to query flow samples in window: %w", err)
	}
	defer rows.Close()

	var out []FlowSample
	for rows.Next() {
		var fs FlowSample
		if err := rows.Scan(&fs.ID, &fs.FlowID, &fs.Sampled, &fs.PacketCount, &fs.ByteCount,
			&fs.DurationSeconds, &fs.Priority, &fs.IdleTimeout, &fs.HardTimeout); err != nil {
			return nil, fmt.Errorf("failed to scan flow sample: %w", err)
		}
		out = append(out, fs)
	}
	return out, rows.Err()
}
