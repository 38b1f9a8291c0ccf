package sensors

import (
	"context"
	"time"

	"github.com/sdnalyzer/sdnalyzer/internal/controller"
	"github.com/sdnalyzer/sdnalyzer/internal/store"
)

type deviceAttachmentPoint struct {
	SwitchDPID string `json:"switchDPID"`
	Port       int    `json:"port"`
}

type deviceEntry struct {
	MAC             []string                `json:"mac"`
	IPv4            []string                `json:"ipv4"`
	LastSeen        string                  `json:"lastSeen"`
	AttachmentPoint []deviceAttachmentPoint `json:"attachmentPoint"`
}

// Devices discovers hosts attached to known switches (§4.1, sensor #2).
// It creates a host Node per device, its InternetAddresses, and the
// host-to-switch Link using the same canonical link creation Links uses.
type Devices struct {
	client *controller.Client
	data   []deviceEntry
}

func NewDevices(client *controller.Client) *Devices {
	return &Devices{client: client}
}

func (s *Devices) Name() string { return "Devices" }

func (s *Devices) Prepare(ctx context.Context) error {
	var data []deviceEntry
	if err := s.client.Get(ctx, "device/", &data); err != nil {
		return err
	}
	s.data = data
	return nil
}

func (s *Devices) Apply(ctx context.Context, sess *store.Session, now time.Time) error {
	for _, d := range s.data {
		if len(d.MAC) == 0 {
			continue
		}
		mac := d.MAC[0]
		deviceID := store.HostDeviceID(mac)

		host, err := sess.FindOrCreateNode(ctx, deviceID, store.NodeTypeHost, now)
		if err != nil {
			return err
		}
		if lastSeen, ok := parseControllerTime(d.LastSeen); ok {
			host.LastSeen = lastSeen
		}

		for _, ip := range d.IPv4 {
			addr, err := sess.FindOrCreateInternetAddress(ctx, ip, now)
			if err != nil {
				return err
			}
			if err := sess.LinkNodeInternetAddress(ctx, host.ID, addr.ID); err != nil {
				return err
			}
		}

		if len(d.AttachmentPoint) > 0 {
			if err := sess.InsertNodeSample(ctx, store.NodeSample{NodeID: host.ID, Sampled: now}); err != nil {
				return err
			}
		}

		const hostLocalPort = 1
		hostPort, err := sess.FindOrCreatePort(ctx, host.ID, hostLocalPort, mac, "UNK", now)
		if err != nil {
			return err
		}

		for _, ap := range d.AttachmentPoint {
			sw, err := sess.GetNodeByDeviceID(ctx, ap.SwitchDPID)
			if err != nil {
				return err
			}
			if sw == nil {
				continue
			}
			swPort, err := sess.GetPort(ctx, sw.ID, ap.Port)
			if err != nil {
				return err
			}
			if swPort == nil {
				continue
			}

			_, src, _, dst := store.CanonicalizeLink(
				host.DeviceID, store.LinkEndpoint{NodeID: host.ID, PortID: hostPort.ID},
				sw.DeviceID, store.LinkEndpoint{NodeID: sw.ID, PortID: swPort.ID},
			)
			if _, _, err := sess.FindOrCreateLink(ctx, src, dst, "ethernet", "bidirectional", now); err != nil {
				return err
			}
		}
	}
	return nil
}
