package sensors

import (
	"context"
	"time"

	"github.com/sdnalyzer/sdnalyzer/internal/controller"
	"github.com/sdnalyzer/sdnalyzer/internal/store"
)

type switchFeaturesPort struct {
	PortNumber      flexString `json:"portNumber"`
	HardwareAddress string     `json:"hardwareAddress"`
	Name            string     `json:"name"`
}

type switchFeaturesEntry struct {
	PortDesc []switchFeaturesPort `json:"portDesc"`
}

// SwitchFeatures discovers each switch's ports (§4.1, sensor #3),
// depends on SwitchList having created the switch Node rows.
type SwitchFeatures struct {
	client *controller.Client
	data   map[string]switchFeaturesEntry
}

func NewSwitchFeatures(client *controller.Client) *SwitchFeatures {
	return &SwitchFeatures{client: client}
}

func (s *SwitchFeatures) Name() string { return "SwitchFeatures" }

func (s *SwitchFeatures) Prepare(ctx context.Context) error {
	data := map[string]switchFeaturesEntry{}
	if err := s.client.Get(ctx, "core/switch/all/features/json", &data); err != nil {
		return err
	}
	s.data = data
	return nil
}

func (s *SwitchFeatures) Apply(ctx context.Context, sess *store.Session, now time.Time) error {
	for deviceID, entry := range s.data {
		sw, err := sess.GetNodeByDeviceID(ctx, deviceID)
		if err != nil {
			return err
		}
		if sw == nil {
			continue
		}
		for _, p := range entry.PortDesc {
			if p.PortNumber == "local" {
				continue
			}
			number, ok := parsePortNumber(string(p.PortNumber))
			if !ok {
				continue
			}
			if _, err := sess.FindOrCreatePort(ctx, sw.ID, number, p.HardwareAddress, p.Name, now); err != nil {
				return err
			}
		}
	}
	return nil
}
