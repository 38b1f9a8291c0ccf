package analyzer

import (
	"context"
	"time"

	"github.com/sdnalyzer/sdnalyzer/internal/store"
)

// knownTCPPorts and knownUDPPorts are the well-known ports
// SimpleServiceUsage classifies flows against (§4.5). ServiceStatistics
// does not use them; it picks the provider by the lower transport port.
var (
	knownTCPPorts = map[int]string{
		21: "FTP", 22: "SSH", 23: "Telnet", 25: "SMTP", 53: "DNS", 80: "HTTP",
		110: "POP3", 143: "IMAP", 161: "SNMP", 443: "HTTPS", 554: "RTSP",
	}
	knownUDPPorts = map[int]string{554: "RTSP"}
)

const (
	ipProtoTCP = "6"
	ipProtoUDP = "17"
)

// SimpleServiceUsage counts, per host, how many flows in the last hour
// consumed or provided each well-known {tcp,udp} port — split by
// comparing which side of the flow the port sat on (§4.5).
type SimpleServiceUsage struct{}

func (SimpleServiceUsage) Name() string { return "ServiceUsage" }

func (SimpleServiceUsage) Window(now time.Time) (time.Time, time.Time) { return windowHourly(now) }

type serviceUsageContent struct {
	TCP     map[int]string                          `json:"tcp"`
	UDP     map[int]string                           `json:"udp"`
	Devices map[string]map[string]map[string]map[int]int `json:"devices"` // device -> consumes|provides -> tcp|udp -> port -> count
}

func (SimpleServiceUsage) Analyze(ctx context.Context, sess *store.Session, start, stop time.Time) (any, []time.Time, error) {
	hosts, err := sess.HostNodes(ctx)
	if err != nil {
		return nil, nil, err
	}
	known := make(map[string]bool, len(hosts))
	for _, h := range hosts {
		known[h.DeviceID] = true
	}

	switches, err := sess.SwitchNodes(ctx)
	if err != nil {
		return nil, nil, err
	}

	devices := map[string]map[string]map[string]map[int]int{}
	add := func(deviceID, direction, protocol string, port, count int) {
		if !known[deviceID] {
			return
		}
		if devices[deviceID] == nil {
			devices[deviceID] = map[string]map[string]map[int]int{}
		}
		if devices[deviceID][direction] == nil {
			devices[deviceID][direction] = map[string]map[int]int{}
		}
		if devices[deviceID][direction][protocol] == nil {
			devices[deviceID][direction][protocol] = map[int]int{}
		}
		devices[deviceID][direction][protocol][port] += count
	}

	var sampled []time.Time
	for _, sw := range switches {
		flows, err := sess.FlowsForNode(ctx, sw.ID)
		if err != nil {
			return nil, nil, err
		}
		for _, fl := range flows {
			samples, err := sess.FlowSamplesInWindow(ctx, fl.ID, start, stop)
			if err != nil {
				return nil, nil, err
			}
			if len(samples) == 0 {
				continue
			}
			count := len(samples) / 2 // flows are typically observed in both directions
			for _, s := range samples {
				sampled = append(sampled, s.Sampled)
			}

			accumulateServiceUsage(add, fl, count, ipProtoTCP, "tcp", knownTCPPorts)
			accumulateServiceUsage(add, fl, count, ipProtoUDP, "udp", knownUDPPorts)
		}
	}

	return serviceUsageContent{TCP: knownTCPPorts, UDP: knownUDPPorts, Devices: devices}, sampled, nil
}

func accumulateServiceUsage(
	add func(deviceID, direction, protocol string, port, count int),
	fl store.Flow, count int, ipProto, protocolKey string, ports map[int]string,
) {
	if fl.Match.IPProto != ipProto {
		return
	}
	srcDevice := store.HostDeviceID(fl.Match.EthSrc)
	dstDevice := store.HostDeviceID(fl.Match.EthDst)

	if port, ok := knownPort(fl.Match.TPSrc, ports); ok {
		add(srcDevice, "provides", protocolKey, port, count)
		add(dstDevice, "consumes", protocolKey, port, count)
	}
	if port, ok := knownPort(fl.Match.TPDst, ports); ok {
		add(srcDevice, "consumes", protocolKey, port, count)
		add(dstDevice, "provides", protocolKey, port, count)
	}
}

func knownPort(raw string, ports map[int]string) (int, bool) {
	n, ok := parsePortNumberLocal(raw)
	if !ok {
		return 0, false
	}
	if _, known := ports[n]; !known {
		return 0, false
	}
	return n, true
}
