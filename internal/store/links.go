package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// LinkEndpoint names one side of a link before canonicalization.
type LinkEndpoint struct {
	NodeID uuid.UUID
	PortID uuid.UUID
}

// CanonicalizeLink swaps (src, dst) so that src.DeviceID <= dst.DeviceID,
// per §4.1's canonical link creation rule. srcDeviceID/dstDeviceID are
// used only to decide the swap.
func CanonicalizeLink(srcDeviceID string, src LinkEndpoint, dstDeviceID string, dst LinkEndpoint) (string, LinkEndpoint, string, LinkEndpoint) {
	if srcDeviceID > dstDeviceID {
		return dstDeviceID, dst, srcDeviceID, src
	}
	return srcDeviceID, src, dstDeviceID, dst
}

// FindOrCreateLink finds a Link by its canonical 4-tuple, or creates it,
// then always inserts a new LinkSample row for now with src/dst packet
// loss and data rate populated from the two most recent PortSamples on
// each endpoint (§4.1, §4.2). Betweenness/closeness are left unset for
// the augmentor; delay is left unset for the Delay sensor.
func (s *Session) FindOrCreateLink(ctx context.Context, src LinkEndpoint, dst LinkEndpoint, linkType, direction string, now time.Time) (*Link, *LinkSample, error) {
	var l Link
	row := s.tx.QueryRow(ctx, `
		SELECT id, src_node_id, src_port_id, dst_node_id, dst_port_id, type, direction, created, last_seen
		FROM links WHERE src_node_id = $1 AND src_port_id = $2 AND dst_node_id = $3 AND dst_port_id = $4`,
		src.NodeID, src.PortID, dst.NodeID, dst.PortID)
	err := row.Scan(&l.ID, &l.SrcNodeID, &l.SrcPortID, &l.DstNodeID, &l.DstPortID, &l.Type, &l.Direction, &l.Created, &l.LastSeen)
	switch {
	case err == nil:
		if _, err := s.tx.Exec(ctx, `
			UPDATE links SET type = $1, direction = $2, last_seen = $3 WHERE id = $4`,
			linkType, direction, now, l.ID); err != nil {
			return nil, nil, fmt.Errorf("failed to refresh link: %w", err)
		}
		l.Type = linkType
		l.Direction = direction
		l.LastSeen = now
	case isNoRows(err):
		l = Link{
			ID:        uuid.New(),
			SrcNodeID: src.NodeID,
			SrcPortID: src.PortID,
			DstNodeID: dst.NodeID,
			DstPortID: dst.PortID,
			Type:      linkType,
			Direction: direction,
			Created:   now,
			LastSeen:  now,
		}
		_, err = s.tx.Exec(ctx, `
			INSERT INTO links (id, src_node_id, src_port_id, dst_node_id, dst_port_id, type, direction, created, last_seen)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			l.ID, l.SrcNodeID, l.SrcPortID, l.DstNodeID, l.DstPortID, l.Type, l.Direction, l.Created, l.LastSeen)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to insert link: %w", err)
		}
	default:
		return nil, nil, fmt.Errorf("failed to query link: %w", err)
	}

	sample, err := s.insertLinkSampleForNow(ctx, &l, now)
	if err != nil {
		return nil, nil, err
	}
	return &l, sample, nil
}

func (s *Session) insertLinkSampleForNow(ctx context.Context, l *Link, now time.Time) (*LinkSample, error) {
	srcTx, srcRx, err := s.portDataRates(ctx, l.SrcPortID, now)
	if err != nil {
		return nil, err
	}
	dstTx, dstRx, err := s.portDataRates(ctx, l.DstPortID, now)
	if err != nil {
		return nil, err
	}

	srcDeltaTx, err := s.portTransmitPacketsDelta(ctx, l.SrcPortID, now)
	if err != nil {
		return nil, err
	}
	dstDeltaRx, err := s.portReceivePacketsDelta(ctx, l.DstPortID, now)
	if err != nil {
		return nil, err
	}
	dstDeltaTx, err := s.portTransmitPacketsDelta(ctx, l.DstPortID, now)
	if err != nil {
		return nil, err
	}
	srcDeltaRx, err := s.portReceivePacketsDelta(ctx, l.SrcPortID, now)
	if err != nil {
		return nil, err
	}

	srcLoss := derivePacketLoss(srcDeltaTx, dstDeltaRx)
	dstLoss := derivePacketLoss(dstDeltaTx, srcDeltaRx)

	sample := LinkSample{
		ID:                  uuid.New(),
		LinkID:              l.ID,
		Sampled:             now,
		SrcPacketLoss:       srcLoss,
		DstPacketLoss:       dstLoss,
		SrcTransmitDataRate: srcTx,
		SrcReceiveDataRate:  srcRx,
		DstTransmitDataRate: dstTx,
		DstReceiveDataRate:  dstRx,
	}
	_, err = s.tx.Exec(ctx, `
		INSERT INTO link_samples (id, link_id, sampled, src_packet_loss, dst_packet_loss,
			src_transmit_data_rate, src_receive_data_rate, dst_transmit_data_rate, dst_receive_data_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (link_id, sampled) DO NOTHING`,
		sample.ID, sample.LinkID, sample.Sampled, sample.SrcPacketLoss, sample.DstPacketLoss,
		sample.SrcTransmitDataRate, sample.SrcReceiveDataRate, sample.DstTransmitDataRate, sample.DstReceiveDataRate)
	if err != nil {
		return nil, fmt.Errorf("failed to insert link sample: %w", err)
	}
	return &sample, nil
}

// GetLinkBySides looks up a link by its canonical endpoints without mutation.
func (s *Session) GetLinkBySides(ctx context.Context, src LinkEndpoint, dst LinkEndpoint) (*Link, error) {
	var l Link
	row := s.tx.QueryRow(ctx, `
		SELECT id, src_node_id, src_port_id, dst_node_id, dst_port_id, type, direction, created, last_seen
		FROM links WHERE src_node_id = $1 AND src_port_id = $2 AND dst_node_id = $3 AND dst_port_id = $4`,
		src.NodeID, src.PortID, dst.NodeID, dst.PortID)
	if err := row.Scan(&l.ID, &l.SrcNodeID, &l.SrcPortID, &l.DstNodeID, &l.DstPortID, &l.Type, &l.Direction, &l.Created, &l.LastSeen); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query link: %w", err)
	}
	return &l, nil
}

// SetLinkSampleDelay applies a one-way delay value (§4.2) to any
// LinkSample(sampled=now) whose link endpoint matches (dpid, port) on
// either side. inconsistent samples are the caller's responsibility to
// skip before calling this.
func (s *Session) SetLinkSampleDelay(ctx context.Context, nodeDeviceID string, portNumber int, now time.Time, delay float64) error {
	tag, err := s.tx.Exec(ctx, `
		UPDATE link_samples ls
		SET src_delay = $1
		FROM links l, nodes n, ports p
		WHERE ls.link_id = l.id AND ls.sampled = $2
		  AND l.src_node_id = n.id AND l.src_port_id = p.id
		  AND n.device_id = $3 AND p.port_number = $4`,
		delay, now, nodeDeviceID, portNumber)
	if err != nil {
		return fmt.Errorf("failed to set src link sample delay: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	if _, err := s.tx.Exec(ctx, `
		UPDATE link_samples ls
		SET dst_delay = $1
		FROM links l, nodes n, ports p
		WHERE ls.link_id = l.id AND ls.sampled = $2
		  AND l.dst_node_id = n.id AND l.dst_port_id = p.id
		  AND n.device_id = $3 AND p.port_number = $4`,
		delay, now, nodeDeviceID, portNumber); err != nil {
		return fmt.Errorf("failed to set dst link sample delay: %w", err)
	}
	return nil
}
