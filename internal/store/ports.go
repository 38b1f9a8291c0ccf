package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FindOrCreatePort finds a Port by (node, port_number), or creates it.
// Unique per (node, port_number) per §3.
func (s *Session) FindOrCreatePort(ctx context.Context, nodeID uuid.UUID, portNumber int, hardwareAddress, name string, now time.Time) (*Port, error) {
	var p Port
	row := s.tx.QueryRow(ctx, `
		SELECT id, node_id, port_number, hardware_address, name, created, last_seen
		FROM ports WHERE node_id = $1 AND port_number = $2`, nodeID, portNumber)
	err := row.Scan(&p.ID, &p.NodeID, &p.PortNumber, &p.HardwareAddress, &p.Name, &p.Created, &p.LastSeen)
	if err == nil {
		if _, err := s.tx.Exec(ctx, `
			UPDATE ports SET hardware_address = $1, name = $2, last_seen = $3 WHERE id = $4`,
			hardwareAddress, name, now, p.ID); err != nil {
			return nil, fmt.Errorf("failed to refresh port: %w", err)
		}
		p.HardwareAddress = hardwareAddress
		p.Name = name
		p.LastSeen = now
		return &p, nil
	}
	if !isNoRows(err) {
		return nil, fmt.Errorf("failed to query port: %w", err)
	}

	p = Port{
		ID:              uuid.New(),
		NodeID:          nodeID,
		PortNumber:      portNumber,
		HardwareAddress: hardwareAddress,
		Name:            name,
		Created:         now,
		LastSeen:        now,
	}
	_, err = s.tx.Exec(ctx, `
		INSERT INTO ports (id, node_id, port_number, hardware_address, name, created, last_seen)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.NodeID, p.PortNumber, p.HardwareAddress, p.Name, p.Created, p.LastSeen)
	if err != nil {
		return nil, fmt.Errorf("failed to insert port: %w", err)
	}
	return &p, nil
}

// GetPort looks up a port by (node, port_number) without mutation.
func (s *Session) GetPort(ctx context.Context, nodeID uuid.UUID, portNumber int) (*Port, error) {
	var p Port
	row := s.tx.QueryRow(ctx, `
		SELECT id, node_id, port_number, hardware_address, name, created, last_seen
		FROM ports WHERE node_id = $1 AND port_number = $2`, nodeID, portNumber)
	if err := row.Scan(&p.ID, &p.NodeID, &p.PortNumber, &p.HardwareAddress, &p.Name, &p.Created, &p.LastSeen); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query port: %w", err)
	}
	return &p, nil
}

// GetPortByID looks up a port by primary key, used by the analyzer
// tasks to resolve a Link's endpoint port numbers.
func (s *Session) GetPortByID(ctx context.Context, id uuid.UUID) (*Port, error) {
	var p Port
	row := s.tx.QueryRow(ctx, `
		SELECT id, node_id, port_number, hardware_address, name, created, last_seen
		FROM ports WHERE id = $1`, id)
	if err := row.Scan(&p.ID, &p.NodeID, &p.PortNumber, &p.HardwareAddress, &p.Name, &p.Created, &p.LastSeen); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query port: %w", err)
	}
	return &p, nil
}

// LinksForNode returns every Link where node is either endpoint — used
// by PathSplitRecommendations to find a switch's non-host links.
func (s *Session) LinksForNode(ctx context.Context, nodeID uuid.UUID) ([]Link, error) {
	rows, err := s.tx.Query(ctx, `
		SELECT id, src_node_id, src_port_id, dst_node_id, dst_port_id, type, direction, created, last_seen
		FROM links WHERE src_node_id = $1 OR dst_node_id = $1`, nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query links for node: %w", err)
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
