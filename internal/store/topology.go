package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NodeAtTick pairs a Node with its NodeSample row for one tick.
type NodeAtTick struct {
	Node   Node
	Sample NodeSample
}

// LinkAtTick pairs a Link with its LinkSample row for one tick.
type LinkAtTick struct {
	Link   Link
	Sample LinkSample
}

// NodesAtTick returns every Node with a NodeSample row at exactly
// `sampled` — the topology view's vertex set for one tick (§4.3).
func (s *Session) NodesAtTick(ctx context.Context, sampled time.Time) ([]NodeAtTick, error) {
	rows, err := s.tx.Query(ctx, `
		SELECT n.id, n.device_id, n.type, n.created, n.last_seen, n.connected_since,
			ns.id, ns.node_id, ns.sampled, ns.degree, ns.betweenness, ns.closeness
		FROM node_samples ns JOIN nodes n ON n.id = ns.node_id
		WHERE ns.sampled = $1`, sampled)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes at tick: %w", err)
	}
	defer rows.Close()

	var out []NodeAtTick
	for rows.Next() {
		var nt NodeAtTick
		if err := rows.Scan(&nt.Node.ID, &nt.Node.DeviceID, &nt.Node.Type, &nt.Node.Created,
			&nt.Node.LastSeen, &nt.Node.ConnectedSince,
			&nt.Sample.ID, &nt.Sample.NodeID, &nt.Sample.Sampled, &nt.Sample.Degree,
			&nt.Sample.Betweenness, &nt.Sample.Closeness); err != nil {
			return nil, fmt.Errorf("failed to scan node at tick: %w", err)
		}
		out = append(out, nt)
	}
	return out, rows.Err()
}

// LinksAtTick returns every Link with a LinkSample row at exactly
// `sampled` — the topology view's edge set for one tick (§4.3).
func (s *Session) LinksAtTick(ctx context.Context, sampled time.Time) ([]LinkAtTick, error) {
	rows, err := s.tx.Query(ctx, `
		SELECT l.id, l.src_node_id, l.src_port_id, l.dst_node_id, l.dst_port_id, l.type, l.direction,
			l.created, l.last_seen,
			ls.id, ls.link_id, ls.sampled, ls.betweenness, ls.src_packet_loss, ls.dst_packet_loss,
			ls.src_transmit_data_rate, ls.src_receive_data_rate, ls.dst_transmit_data_rate,
			ls.dst_receive_data_rate, ls.src_delay, ls.dst_delay
		FROM link_samples ls JOIN links l ON l.id = ls.link_id
		WHERE ls.sampled = $1`, sampled)
	if err != nil {
		return nil, fmt.Errorf("failed to query links at tick: %w", err)
	}
	defer rows.Close()

	var out []LinkAtTick
	for rows.Next() {
		var lt LinkAtTick
		if err := rows.Scan(&lt.Link.ID, &lt.Link.SrcNodeID, &lt.Link.SrcPortID, &lt.Link.DstNodeID,
			&lt.Link.DstPortID, &lt.Link.Type, &lt.Link.Direction, &lt.Link.Created, &lt.Link.LastSeen,
			&lt.Sample.ID, &lt.Sample.LinkID, &lt.Sample.Sampled, &lt.Sample.Betweenness,
			&lt.Sample.SrcPacketLoss, &lt.Sample.DstPacketLoss, &lt.Sample.SrcTransmitDataRate,
			&lt.Sample.SrcReceiveDataRate, &lt.Sample.DstTransmitDataRate, &lt.Sample.DstReceiveDataRate,
			&lt.Sample.SrcDelay, &lt.Sample.DstDelay); err != nil {
			return nil, fmt.Errorf("failed to scan link at tick: %w", err)
		}
		out = append(out, lt)
	}
	return out, rows.Err()
}

// EnsureNodeSampleForTick guarantees every known Node has a NodeSample
// row for `sampled` before the centrality augmentor runs, even nodes
// with no links this tick (degree 0, closeness 0 per §4.3's special
// case). Called once per tick before augmentation.
func (s *Session) EnsureNodeSampleForTick(ctx context.Context, sampled time.Time) error {
	rows, err := s.tx.Query(ctx, `SELECT id FROM nodes`)
	if err != nil {
		return fmt.Errorf("failed to list nodes: %w", err)
	}
	var nodeIDs []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan node id: %w", err)
		}
		nodeIDs = append(nodeIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, id := range nodeIDs {
		if err := s.InsertNodeSample(ctx, NodeSample{NodeID: id, Sampled: sampled}); err != nil {
			return err
		}
	}
	return nil
}

// NodeIDForPort resolves a port to its owning node, used by the
// topology adaptor when building graph edges.
func (s *Session) NodeIDForPort(ctx context.Context, portID uuid.UUID) (uuid.UUID, error) {
	var nodeID uuid.UUID
	row := s.tx.QueryRow(ctx, `SELECT node_id FROM ports WHERE id = $1`, portID)
	if err := row.Scan(&nodeID); err != nil {
		return uuid.Nil, fmt.Errorf("failed to resolve node for port: %w", err)
	}
	return nodeID, nil
}
