package sensors

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/sdnalyzer/sdnalyzer/internal/controller"
	"github.com/sdnalyzer/sdnalyzer/internal/store"
)

// switchListEntry is one element of core/controller/switches/json.
type switchListEntry struct {
	SwitchDPID     string `json:"switchDPID"`
	ConnectedSince string `json:"connectedSince"`
}

// SwitchList is the root sensor: every other sensor depends on the set
// of switches it discovers this tick (§4.1, sensor #1).
type SwitchList struct {
	client *controller.Client
	data   []switchListEntry
}

func NewSwitchList(client *controller.Client) *SwitchList {
	return &SwitchList{client: client}
}

func (s *SwitchList) Name() string { return "SwitchList" }

func (s *SwitchList) Prepare(ctx context.Context) error {
	var data []switchListEntry
	if err := s.client.Get(ctx, "core/controller/switches/json", &data); err != nil {
		return err
	}
	s.data = data
	return nil
}

func (s *SwitchList) Apply(ctx context.Context, sess *store.Session, now time.Time) error {
	for _, sw := range s.data {
		node, err := sess.FindOrCreateNode(ctx, sw.SwitchDPID, store.NodeTypeSwitch, now)
		if err != nil {
			return err
		}
		if connectedSince, ok := parseControllerTime(sw.ConnectedSince); ok {
			if err := sess.SetNodeConnectedSince(ctx, node.ID, connectedSince); err != nil {
				return err
			}
		}
		if err := sess.InsertNodeSample(ctx, store.NodeSample{NodeID: node.ID, Sampled: now}); err != nil {
			return err
		}
	}
	return nil
}

// parseControllerTime parses Floodlight's millisecond-or-second epoch
// timestamps, used by SwitchList and Devices.
func parseControllerTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if len(raw) == 13 {
		raw = raw[:len(raw)-3]
	}
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(secs, 0).UTC(), true
}
