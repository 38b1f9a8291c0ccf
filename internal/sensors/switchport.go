package sensors

import (
	"context"
	"time"

	"github.com/sdnalyzer/sdnalyzer/internal/controller"
	"github.com/sdnalyzer/sdnalyzer/internal/store"
)

type switchPortCounters struct {
	PortNumber           flexString `json:"portNumber"`
	ReceivePackets       int64      `json:"receivePackets"`
	TransmitPackets      int64      `json:"transmitPackets"`
	ReceiveBytes         int64      `json:"receiveBytes"`
	TransmitBytes        int64      `json:"transmitBytes"`
	ReceiveDropped       int64      `json:"receiveDropped"`
	TransmitDropped      int64      `json:"transmitDropped"`
	ReceiveErrors        int64      `json:"receiveErrors"`
	TransmitErrors       int64      `json:"transmitErrors"`
	ReceiveFrameErrors   int64      `json:"receiveFrameErrors"`
	ReceiveOverrunErrors int64      `json:"receiveOverrunErrors"`
	ReceiveCRCErrors     int64      `json:"receiveCRCErrors"`
	Collisions           int64      `json:"collisions"`
}

type switchPortEntry struct {
	Port []switchPortCounters `json:"port"`
}

// SwitchPort ingests per-port counters (§4.1, sensor #4), depends on
// SwitchFeatures having created the Port rows.
type SwitchPort struct {
	client *controller.Client
	data   map[string]switchPortEntry
}

func NewSwitchPort(client *controller.Client) *SwitchPort {
	return &SwitchPort{client: client}
}

func (s *SwitchPort) Name() string { return "SwitchPort" }

func (s *SwitchPort) Prepare(ctx context.Context) error {
	data := map[string]switchPortEntry{}
	if err := s.client.Get(ctx, "core/switch/all/port/json", &data); err != nil {
		return err
	}
	s.data = data
	return nil
}

func (s *SwitchPort) Apply(ctx context.Context, sess *store.Session, now time.Time) error {
	for deviceID, entry := range s.data {
		sw, err := sess.GetNodeByDeviceID(ctx, deviceID)
		if err != nil {
			return err
		}
		if sw == nil {
			continue
		}
		for _, c := range entry.Port {
			if c.PortNumber == "local" {
				continue
			}
			number, ok := parsePortNumber(string(c.PortNumber))
			if !ok {
				continue
			}
			port, err := sess.GetPort(ctx, sw.ID, number)
			if err != nil {
				return err
			}
			if port == nil {
				continue
			}
			sample := store.PortSample{
				PortID:               port.ID,
				Sampled:              now,
				ReceivePackets:       c.ReceivePackets,
				TransmitPackets:      c.TransmitPackets,
				ReceiveBytes:         c.ReceiveBytes,
				TransmitBytes:        c.TransmitBytes,
				ReceiveDropped:       c.ReceiveDropped,
				TransmitDropped:      c.TransmitDropped,
				ReceiveErrors:        c.ReceiveErrors,
				TransmitErrors:       c.TransmitErrors,
				ReceiveFrameErrors:   c.ReceiveFrameErrors,
				ReceiveOverrunErrors: c.ReceiveOverrunErrors,
				ReceiveCRCErrors:     c.ReceiveCRCErrors,
				Collisions:           c.Collisions,
			}
			if err := sess.InsertPortSample(ctx, sample); err != nil {
				return err
			}
		}
	}
	return nil
}
