package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FindOrCreateInternetAddress finds an InternetAddress by its string
// value, or creates it (§3: created on first sighting, never deleted).
func (s *Session) FindOrCreateInternetAddress(ctx context.Context, address string, now time.Time) (*InternetAddress, error) {
	var ia InternetAddress
	row := s.tx.QueryRow(ctx, `SELECT id, created, address FROM internet_addresses WHERE address = $1`, address)
	err := row.Scan(&ia.ID, &ia.Created, &ia.Address)
	if err == nil {
		return &ia, nil
	}
	if !isNoRows(err) {
		return nil, fmt.Errorf("failed to query internet address: %w", err)
	}
	ia = InternetAddress{ID: uuid.New(), Created: now, Address: address}
	if _, err := s.tx.Exec(ctx, `
		INSERT INTO internet_addresses (id, created, address) VALUES ($1, $2, $3)`,
		ia.ID, ia.Created, ia.Address); err != nil {
		return nil, fmt.Errorf("failed to insert internet address: %w", err)
	}
	return &ia, nil
}

// LinkNodeInternetAddress records that a node owns/uses an
// InternetAddress, idempotently (the join table has no extra columns
// to refresh, so a duplicate insert is simply ignored).
func (s *Session) LinkNodeInternetAddress(ctx context.Context, nodeID, addressID uuid.UUID) error {
	_, err := s.tx.Exec(ctx, `
		INSERT INTO node_internet_addresses (node_id, address_id)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`, nodeID, addressID)
	if err != nil {
		return fmt.Errorf("failed to link node to internet address: %w", err)
	}
	return nil
}
