package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Well-known constants for the flow match default rules (§4.1).
const (
	ethTypeARP             = "2054" // 0x0806
	defaultNWSrcMaskLen    = 24
	defaultNWDstMaskLen    = 0
	defaultEthVlanVID      = -1
	defaultInPort          = 0
)

// NormalizeFlowMatch applies §4.1's default rules for missing match
// keys before a Flow is looked up or created. raw values come from the
// controller's JSON response; callers pass empty string for any
// missing field.
func NormalizeFlowMatch(m FlowMatch, rawInPort string, ethTypePresent bool, nwSrcMaskLenPresent, nwDstMaskLenPresent bool) FlowMatch {
	if !ethTypePresent {
		m.EthType = ""
	}
	if rawInPort == "" || rawInPort == "any" {
		m.InPort = defaultInPort
	}
	if !nwSrcMaskLenPresent {
		m.NWSrcMaskLen = defaultNWSrcMaskLen
	}
	if !nwDstMaskLenPresent {
		m.NWDstMaskLen = defaultNWDstMaskLen
	}
	return m
}

// FindOrCreateFlow finds a Flow by (nodeID, cookie, match), or creates
// it. Identity is the full match-tuple plus node and cookie (§3, §4.1).
func (s *Session) FindOrCreateFlow(ctx context.Context, nodeID uuid.UUID, cookie int64, match FlowMatch, now time.Time) (*Flow, error) {
	var f Flow
	row := s.tx.QueryRow(ctx, `
		SELECT id, node_id, cookie, in_port, eth_type, eth_src, eth_dst, eth_vlan_vid,
			ip_proto, network_tos, nw_src, nw_dst, nw_src_mask_len, nw_dst_mask_len, tp_src, tp_dst,
			wildcards, created, last_seen
		FROM flows
		WHERE node_id = $1 AND cookie = $2 AND in_port = $3 AND eth_type = $4
		  AND eth_src = $5 AND eth_dst = $6 AND eth_vlan_vid = $7 AND ip_proto = $8
		  AND network_tos = $9 AND nw_src = $10 AND nw_dst = $11 AND nw_src_mask_len = $12
		  AND nw_dst_mask_len = $13 AND tp_src = $14 AND tp_dst = $15 AND wildcards = $16`,
		nodeID, cookie, match.InPort, match.EthType, match.EthSrc, match.EthDst, match.EthVlanVID,
		match.IPProto, match.NetworkTypeOfService, match.NWSrc, match.NWDst, match.NWSrcMaskLen, match.NWDstMaskLen,
		match.TPSrc, match.TPDst, match.Wildcards)
	err := row.Scan(&f.ID, &f.NodeID, &f.Cookie, &f.Match.InPort, &f.Match.EthType, &f.Match.EthSrc,
		&f.Match.EthDst, &f.Match.EthVlanVID, &f.Match.IPProto, &f.Match.NetworkTypeOfService, &f.Match.NWSrc, &f.Match.NWDst,
		&f.Match.NWSrcMaskLen, &f.Match.NWDstMaskLen, &f.Match.TPSrc, &f.Match.TPDst,
		&f.Match.Wildcards, &f.Created, &f.LastSeen)
	switch {
	case err == nil:
		if _, err := s.tx.Exec(ctx, `UPDATE flows SET last_seen = $1 WHERE id = $2`, now, f.ID); err != nil {
			return nil, fmt.Errorf("failed to refresh flow: %w", err)
		}
		f.LastSeen = now
		return &f, nil
	case isNoRows(err):
		f = Flow{
			ID:       uuid.New(),
			NodeID:   nodeID,
			Cookie:   cookie,
			Match:    match,
			Created:  now,
			LastSeen: now,
		}
		_, err = s.tx.Exec(ctx, `
			INSERT INTO flows (id, node_id, cookie, in_port, eth_type, eth_src, eth_dst, eth_vlan_vid,
				ip_proto, network_tos, nw_src, nw_dst, nw_src_mask_len, nw_dst_mask_len, tp_src, tp_dst,
				wildcards, created, last_seen)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
			f.ID, f.NodeID, f.Cookie, f.Match.InPort, f.Match.EthType, f.Match.EthSrc, f.Match.EthDst,
			f.Match.EthVlanVID, f.Match.IPProto, f.Match.NetworkTypeOfService, f.Match.NWSrc, f.Match.NWDst, f.Match.NWSrcMaskLen,
			f.Match.NWDstMaskLen, f.Match.TPSrc, f.Match.TPDst, f.Match.Wildcards, f.Created, f.LastSeen)
		if err != nil {
			return nil, fmt.Errorf("failed to insert flow: %w", err)
		}
		return &f, nil
	default:
		return nil, fmt.Errorf("failed to query flow: %w", err)
	}
}

// IsARPEthType reports whether an eth_type value is ARP (0x0806 = 2054),
// which per §4.1 causes nw_src/nw_dst to be populated from arp_spa/arp_tpa
// instead of ipv4_src/ipv4_dst.
func IsARPEthType(ethType string) bool {
	return ethType == ethTypeARP
}
