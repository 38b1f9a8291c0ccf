package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FindOrCreateNode finds a Node by device_id, or creates it. On every
// call last_seen is refreshed to now (§3 lifecycles); connected_since
// is set only on creation.
func (s *Session) FindOrCreateNode(ctx context.Context, deviceID string, typ NodeType, now time.Time) (*Node, error) {
	var n Node
	var connectedSince *time.Time
	row := s.tx.QueryRow(ctx, `
		SELECT id, device_id, type, created, last_seen, connected_since
		FROM nodes WHERE device_id = $1`, deviceID)
	err := row.Scan(&n.ID, &n.DeviceID, &n.Type, &n.Created, &n.LastSeen, &connectedSince)
	if err == nil {
		n.ConnectedSince = connectedSince
		if _, err := s.tx.Exec(ctx, `UPDATE nodes SET last_seen = $1 WHERE id = $2`, now, n.ID); err != nil {
			return nil, fmt.Errorf("failed to refresh node last_seen: %w", err)
		}
		n.LastSeen = now
		return &n, nil
	}
	if !isNoRows(err) {
		return nil, fmt.Errorf("failed to query node: %w", err)
	}

	n = Node{
		ID:             uuid.New(),
		DeviceID:       deviceID,
		Type:           typ,
		Created:        now,
		LastSeen:       now,
		ConnectedSince: &now,
	}
	_, err = s.tx.Exec(ctx, `
		INSERT INTO nodes (id, device_id, type, created, last_seen, connected_since)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		n.ID, n.DeviceID, n.Type, n.Created, n.LastSeen, n.ConnectedSince)
	if err != nil {
		return nil, fmt.Errorf("failed to insert node: %w", err)
	}
	return &n, nil
}

// SetNodeConnectedSince records a switch's controller-reported
// connection time, refreshed every tick per the SwitchList sensor.
func (s *Session) SetNodeConnectedSince(ctx context.Context, nodeID uuid.UUID, connectedSince time.Time) error {
	_, err := s.tx.Exec(ctx, `UPDATE nodes SET connected_since = $1 WHERE id = $2`, connectedSince, nodeID)
	if err != nil {
		return fmt.Errorf("failed to set node connected_since: %w", err)
	}
	return nil
}

// GetNodeByDeviceID looks up a node without mutating last_seen.
func (s *Session) GetNodeByDeviceID(ctx context.Context, deviceID string) (*Node, error) {
	var n Node
	var connectedSince *time.Time
	row := s.tx.QueryRow(ctx, `
		SELECT id, device_id, type, created, last_seen, connected_since
		FROM nodes WHERE device_id = $1`, deviceID)
	if err := row.Scan(&n.ID, &n.DeviceID, &n.Type, &n.Created, &n.LastSeen, &connectedSince); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query node: %w", err)
	}
	n.ConnectedSince = connectedSince
	return &n, nil
}

// GetNodeByID looks up a node by primary key, used by the analyzer
// tasks to resolve a Link's endpoints.
func (s *Session) GetNodeByID(ctx context.Context, id uuid.UUID) (*Node, error) {
	var n Node
	var connectedSince *time.Time
	row := s.tx.QueryRow(ctx, `
		SELECT id, device_id, type, created, last_seen, connected_since
		FROM nodes WHERE id = $1`, id)
	if err := row.Scan(&n.ID, &n.DeviceID, &n.Type, &n.Created, &n.LastSeen, &connectedSince); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query node: %w", err)
	}
	n.ConnectedSince = connectedSince
	return &n, nil
}

// HostDeviceID synthesizes a host Node's device_id from its MAC, per
// §3's invariant: Node.device_id for a host is "00:00:" + mac.
func HostDeviceID(mac string) string {
	return "00:00:" + mac
}
