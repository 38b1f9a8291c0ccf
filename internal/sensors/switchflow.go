package sensors

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/sdnalyzer/sdnalyzer/internal/controller"
	"github.com/sdnalyzer/sdnalyzer/internal/store"
)

type flowMatchJSON struct {
	InPort     flexString `json:"in_port"`
	EthType    flexString `json:"eth_type"`
	EthSrc     flexString `json:"eth_src"`
	EthDst     flexString `json:"eth_dst"`
	EthVlanVID flexString `json:"eth_vlan_vid"`
	IPProto    flexString `json:"ip_proto"`
	IPDSCP     flexString `json:"ip_dscp"`
	IPv4Src    flexString `json:"ipv4_src"`
	IPv4Dst    flexString `json:"ipv4_dst"`
	ARPSpa     flexString `json:"arp_spa"`
	ARPTpa     flexString `json:"arp_tpa"`
	TCPSrc     flexString `json:"tcp_src"`
	TCPDst     flexString `json:"tcp_dst"`
	UDPSrc     flexString `json:"udp_src"`
	UDPDst     flexString `json:"udp_dst"`

	hasInPort     bool
	hasEthType    bool
	hasEthVlanVID bool
}

// UnmarshalJSON records which keys were present before defaults are
// applied, since §4.1's default rules distinguish "absent" from
// "present but zero".
func (m *flowMatchJSON) UnmarshalJSON(b []byte) error {
	type alias flowMatchJSON
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(b, (*alias)(m)); err != nil {
		return err
	}
	_, m.hasInPort = raw["in_port"]
	_, m.hasEthType = raw["eth_type"]
	_, m.hasEthVlanVID = raw["eth_vlan_vid"]
	return nil
}

type flowEntry struct {
	Cookie          int64         `json:"cookie"`
	Match           flowMatchJSON `json:"match"`
	PacketCount     int64         `json:"packetCount"`
	ByteCount       int64         `json:"byteCount"`
	DurationSeconds float64       `json:"durationSeconds"`
	Priority        int           `json:"priority"`
	IdleTimeoutSec  int           `json:"idleTimeoutSec"`
	HardTimeoutSec  int           `json:"hardTimeoutSec"`
}

type switchFlowEntry struct {
	Flows []flowEntry `json:"flows"`
}

// SwitchFlow ingests per-switch flow tables (§4.1, sensor #6), depends
// on SwitchList.
type SwitchFlow struct {
	client *controller.Client
	data   map[string]switchFlowEntry
}

func NewSwitchFlow(client *controller.Client) *SwitchFlow {
	return &SwitchFlow{client: client}
}

func (s *SwitchFlow) Name() string { return "SwitchFlow" }

func (s *SwitchFlow) Prepare(ctx context.Context) error {
	data := map[string]switchFlowEntry{}
	if err := s.client.Get(ctx, "core/switch/all/flow/json", &data); err != nil {
		return err
	}
	s.data = data
	return nil
}

func (s *SwitchFlow) Apply(ctx context.Context, sess *store.Session, now time.Time) error {
	for deviceID, entry := range s.data {
		sw, err := sess.GetNodeByDeviceID(ctx, deviceID)
		if err != nil {
			return err
		}
		if sw == nil {
			continue
		}
		for _, fl := range entry.Flows {
			match := normalizeFlowMatch(fl.Match)
			flow, err := sess.FindOrCreateFlow(ctx, sw.ID, fl.Cookie, match, now)
			if err != nil {
				return err
			}
			sample := store.FlowSample{
				FlowID:          flow.ID,
				Sampled:         now,
				PacketCount:     fl.PacketCount,
				ByteCount:       fl.ByteCount,
				DurationSeconds: fl.DurationSeconds,
				Priority:        fl.Priority,
				IdleTimeout:     fl.IdleTimeoutSec,
				HardTimeout:     fl.HardTimeoutSec,
			}
			if err := sess.InsertFlowSample(ctx, sample); err != nil {
				return err
			}
		}
	}
	return nil
}

// normalizeFlowMatch applies §4.1's default rules for missing match
// keys and ARP-vs-IP network address population.
func normalizeFlowMatch(m flowMatchJSON) store.FlowMatch {
	out := store.FlowMatch{
		EthSrc:               string(m.EthSrc),
		EthDst:               string(m.EthDst),
		IPProto:              "0",
		NetworkTypeOfService: "0",
		NWSrcMaskLen:         24,
		NWDstMaskLen:         0,
		TPSrc:                "0",
		TPDst:                "0",
	}

	if m.hasEthType {
		out.EthType = string(m.EthType)
	}
	if m.hasInPort && string(m.InPort) != "any" {
		if n, ok := parsePortNumber(string(m.InPort)); ok {
			out.InPort = n
		}
	}
	if m.hasEthVlanVID {
		if n, err := strconv.Atoi(string(m.EthVlanVID)); err == nil {
			out.EthVlanVID = n
		}
	} else {
		out.EthVlanVID = -1
	}
	if m.IPProto != "" {
		out.IPProto = string(m.IPProto)
	}
	if m.IPDSCP != "" {
		out.NetworkTypeOfService = string(m.IPDSCP)
	}

	if store.IsARPEthType(string(m.EthType)) {
		out.NWSrc = string(m.ARPSpa)
		out.NWDst = string(m.ARPTpa)
	} else {
		out.NWSrc = string(m.IPv4Src)
		out.NWDst = string(m.IPv4Dst)
		if m.TCPSrc != "" && m.TCPDst != "" {
			out.TPSrc = string(m.TCPSrc)
			out.TPDst = string(m.TCPDst)
		}
		if m.UDPSrc != "" && m.UDPDst != "" {
			out.TPSrc = string(m.UDPSrc)
			out.TPDst = string(m.UDPDst)
		}
	}

	return out
}
