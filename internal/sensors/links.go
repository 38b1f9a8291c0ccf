package sensors

import (
	"context"
	"time"

	"github.com/sdnalyzer/sdnalyzer/internal/controller"
	"github.com/sdnalyzer/sdnalyzer/internal/store"
)

type linkEntry struct {
	SrcSwitch string     `json:"src-switch"`
	SrcPort   flexString `json:"src-port"`
	DstSwitch string     `json:"dst-switch"`
	DstPort   flexString `json:"dst-port"`
	Type      string     `json:"type"`
	Direction string     `json:"direction"`
}

// Links discovers inter-switch links (§4.1, sensor #5), depends on
// SwitchList. Its LinkSample rows are later updated by Delay.
type Links struct {
	client *controller.Client
	data   []linkEntry
}

func NewLinks(client *controller.Client) *Links {
	return &Links{client: client}
}

func (s *Links) Name() string { return "Links" }

func (s *Links) Prepare(ctx context.Context) error {
	var data []linkEntry
	if err := s.client.Get(ctx, "topology/links/json", &data); err != nil {
		return err
	}
	s.data = data
	return nil
}

func (s *Links) Apply(ctx context.Context, sess *store.Session, now time.Time) error {
	for _, l := range s.data {
		srcPortNumber, ok := parsePortNumber(string(l.SrcPort))
		if !ok {
			continue
		}
		dstPortNumber, ok := parsePortNumber(string(l.DstPort))
		if !ok {
			continue
		}

		src, err := sess.GetNodeByDeviceID(ctx, l.SrcSwitch)
		if err != nil {
			return err
		}
		dst, err := sess.GetNodeByDeviceID(ctx, l.DstSwitch)
		if err != nil {
			return err
		}
		if src == nil || dst == nil {
			continue
		}
		srcPort, err := sess.GetPort(ctx, src.ID, srcPortNumber)
		if err != nil {
			return err
		}
		dstPort, err := sess.GetPort(ctx, dst.ID, dstPortNumber)
		if err != nil {
			return err
		}
		if srcPort == nil || dstPort == nil {
			continue
		}

		_, canonSrc, _, canonDst := store.CanonicalizeLink(
			src.DeviceID, store.LinkEndpoint{NodeID: src.ID, PortID: srcPort.ID},
			dst.DeviceID, store.LinkEndpoint{NodeID: dst.ID, PortID: dstPort.ID},
		)
		if _, _, err := sess.FindOrCreateLink(ctx, canonSrc, canonDst, l.Type, l.Direction, now); err != nil {
			return err
		}
	}
	return nil
}
