package store

import (
	"time"

	"github.com/google/uuid"
)

// NodeType enumerates §3's Node.type values.
type NodeType string

const (
	NodeTypeSwitch NodeType = "switch"
	NodeTypeHost   NodeType = "host"
)

// Node is §3's Node entity.
type Node struct {
	ID              uuid.UUID
	DeviceID        string
	Type            NodeType
	Created         time.Time
	LastSeen        time.Time
	ConnectedSince  *time.Time
}

// Port is §3's Port entity, unique per (node, port_number).
type Port struct {
	ID               uuid.UUID
	NodeID           uuid.UUID
	PortNumber       int
	HardwareAddress  string
	Name             string
	Created          time.Time
	LastSeen         time.Time
}

// Link is §3's Link entity. Canonicalized so src.DeviceID <= dst.DeviceID.
type Link struct {
	ID        uuid.UUID
	SrcNodeID uuid.UUID
	SrcPortID uuid.UUID
	DstNodeID uuid.UUID
	DstPortID uuid.UUID
	Type      string
	Direction string
	Created   time.Time
	LastSeen  time.Time
}

// FlowMatch is the 13 L2/L3/L4 match fields plus wildcards that, along
// with the owning node and cookie, identify a Flow (§4.1). No other
// match keys from the controller are stored.
type FlowMatch struct {
	InPort               int
	EthType              string
	EthSrc               string
	EthDst               string
	EthVlanVID           int
	IPProto              string
	NetworkTypeOfService string
	NWSrc                string
	NWDst                string
	NWSrcMaskLen         int
	NWDstMaskLen         int
	TPSrc                string
	TPDst                string
	Wildcards            int64
}

// Flow is §3's Flow entity.
type Flow struct {
	ID       uuid.UUID
	NodeID   uuid.UUID
	Cookie   int64
	Match    FlowMatch
	Created  time.Time
	LastSeen time.Time
}

// InternetAddress is §3's InternetAddress entity.
type InternetAddress struct {
	ID      uuid.UUID
	Created time.Time
	Address string
}

// SampleTimestamp marks one completed observer tick.
type SampleTimestamp struct {
	Sampled  time.Time
	Interval time.Duration
}

// NodeSample is §3's NodeSample entity.
type NodeSample struct {
	ID          uuid.UUID
	NodeID      uuid.UUID
	Sampled     time.Time
	Degree      *int
	Betweenness *float64
	Closeness   *float64
}

// LinkSample is §3's LinkSample entity.
type LinkSample struct {
	ID                  uuid.UUID
	LinkID              uuid.UUID
	Sampled             time.Time
	Betweenness         *float64
	SrcPacketLoss       *float64
	DstPacketLoss       *float64
	SrcTransmitDataRate *int64
	SrcReceiveDataRate  *int64
	DstTransmitDataRate *int64
	DstReceiveDataRate  *int64
	SrcDelay            *float64
	DstDelay            *float64
}

// PortSample is §3's PortSample entity: twelve cumulative counters.
type PortSample struct {
	ID                   uuid.UUID
	PortID               uuid.UUID
	Sampled              time.Time
	ReceivePackets       int64
	TransmitPackets      int64
	ReceiveBytes         int64
	TransmitBytes        int64
	ReceiveDropped       int64
	TransmitDropped      int64
	ReceiveErrors        int64
	TransmitErrors       int64
	ReceiveFrameErrors   int64
	ReceiveOverrunErrors int64
	ReceiveCRCErrors     int64
	Collisions           int64
}

// FlowSample is §3's FlowSample entity.
type FlowSample struct {
	ID              uuid.UUID
	FlowID          uuid.UUID
	Sampled         time.Time
	PacketCount     int64
	ByteCount       int64
	DurationSeconds float64
	Priority        int
	IdleTimeout     int
	HardTimeout     int
}

// Report is §3's Report entity: a persisted analyzer output.
type Report struct {
	ID                 uuid.UUID
	Created            time.Time
	Type               string
	SampleInterval     float64
	SampleStart        *time.Time
	SampleStop         *time.Time
	SampleCount        int
	ExecutionDuration  float64
	Content            string
}
