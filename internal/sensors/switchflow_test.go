package sensors

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func decodeMatch(t *testing.T, raw string) flowMatchJSON {
	t.Helper()
	var m flowMatchJSON
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

func TestNormalizeFlowMatch_Defaults(t *testing.T) {
	m := decodeMatch(t, `{}`)
	out := normalizeFlowMatch(m)

	require.Equal(t, "", out.EthType)
	require.Equal(t, -1, out.EthVlanVID)
	require.Equal(t, 0, out.InPort)
	require.Equal(t, "0", out.IPProto)
	require.Equal(t, "0", out.TPSrc)
	require.Equal(t, "0", out.TPDst)
	require.Equal(t, 24, out.NWSrcMaskLen)
	require.Equal(t, 0, out.NWDstMaskLen)
}

func TestNormalizeFlowMatch_InPortAny(t *testing.T) {
	m := decodeMatch(t, `{"in_port": "any"}`)
	out := normalizeFlowMatch(m)
	require.Equal(t, 0, out.InPort)
}

func TestNormalizeFlowMatch_ARPPopulatesFromArpFields(t *testing.T) {
	m := decodeMatch(t, `{"eth_type": "2054", "arp_spa": "10.0.0.1", "arp_tpa": "10.0.0.2", "ipv4_src": "should-not-be-used"}`)
	out := normalizeFlowMatch(m)
	require.Equal(t, "10.0.0.1", out.NWSrc)
	require.Equal(t, "10.0.0.2", out.NWDst)
}

func TestNormalizeFlowMatch_IPPopulatesFromIPv4AndTCP(t *testing.T) {
	m := decodeMatch(t, `{"eth_type": "2048", "ipv4_src": "10.0.0.1", "ipv4_dst": "10.0.0.2", "tcp_src": "80", "tcp_dst": "443"}`)
	out := normalizeFlowMatch(m)
	require.Equal(t, "10.0.0.1", out.NWSrc)
	require.Equal(t, "10.0.0.2", out.NWDst)
	require.Equal(t, "80", out.TPSrc)
	require.Equal(t, "443", out.TPDst)
}

func TestNormalizeFlowMatch_IPPopulatesFromUDP(t *testing.T) {
	m := decodeMatch(t, `{"eth_type": "2048", "ipv4_src": "10.0.0.1", "ipv4_dst": "10.0.0.2", "udp_src": "53", "udp_dst": "12345"}`)
	out := normalizeFlowMatch(m)
	require.Equal(t, "53", out.TPSrc)
	require.Equal(t, "12345", out.TPDst)
}

func TestNormalizeFlowMatch_EthVlanVidPresent(t *testing.T) {
	m := decodeMatch(t, `{"eth_vlan_vid": "42"}`)
	out := normalizeFlowMatch(m)
	require.Equal(t, 42, out.EthVlanVID)
}
