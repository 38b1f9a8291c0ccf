package sensors

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sdnalyzer/sdnalyzer/internal/controller"
	"github.com/sdnalyzer/sdnalyzer/internal/store"
)

type delaySample struct {
	Inconsistency bool       `json:"inconsistency"`
	SrcCtrlDelay  *float64   `json:"srcCtrlDelay"`
	DstCtrlDelay  *float64   `json:"dstCtrlDelay"`
	FullDelay     float64    `json:"fullDelay"`
	SrcDpid       string     `json:"srcDpid"`
	SrcPort       flexString `json:"srcPort"`
	DstDpid       string     `json:"dstDpid"`
	DstPort       flexString `json:"dstPort"`
}

// Delay ingests one-way link delay measurements (§4.1, sensor #7),
// updating LinkSample rows the Links sensor already created for `now`.
// The endpoint returns {"code": 404} when unsupported, which is not an
// error — it just means no delay data this tick.
type Delay struct {
	client    *controller.Client
	samples   []delaySample
	notFound  bool
}

func NewDelay(client *controller.Client) *Delay {
	return &Delay{client: client}
}

func (s *Delay) Name() string { return "Delay" }

func (s *Delay) Prepare(ctx context.Context) error {
	var raw json.RawMessage
	if err := s.client.Get(ctx, "uds/delay/json", &raw); err != nil {
		return err
	}

	var errDoc struct {
		Code int `json:"code"`
	}
	if err := json.Unmarshal(raw, &errDoc); err == nil && errDoc.Code == 404 {
		s.notFound = true
		s.samples = nil
		return nil
	}

	var samples []delaySample
	if err := json.Unmarshal(raw, &samples); err != nil {
		return err
	}
	s.notFound = false
	s.samples = samples
	return nil
}

func (s *Delay) Apply(ctx context.Context, sess *store.Session, now time.Time) error {
	if s.notFound {
		return nil
	}
	for _, d := range s.samples {
		if d.Inconsistency || d.SrcCtrlDelay == nil || d.DstCtrlDelay == nil {
			continue
		}
		delay := store.DeriveLinkDelay(d.FullDelay, *d.SrcCtrlDelay, *d.DstCtrlDelay)

		if srcPort, ok := parsePortNumber(string(d.SrcPort)); ok {
			if err := sess.SetLinkSampleDelay(ctx, d.SrcDpid, srcPort, now, delay); err != nil {
				return err
			}
		}
		if dstPort, ok := parsePortNumber(string(d.DstPort)); ok {
			if err := sess.SetLinkSampleDelay(ctx, d.DstDpid, dstPort, now, delay); err != nil {
				return err
			}
		}
	}
	return nil
}
