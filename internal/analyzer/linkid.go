package analyzer

import (
	"context"
	"fmt"

	"github.com/sdnalyzer/sdnalyzer/internal/store"
)

// linkIDString resolves a Link's endpoints and formats the report ID
// string used across every task that names links: "{src.device_id}-
// {src_port}.{dst.device_id}-{dst_port}" (§4.5).
func linkIDString(ctx context.Context, sess *store.Session, l store.Link) (string, error) {
	srcNode, err := sess.GetNodeByID(ctx, l.SrcNodeID)
	if err != nil {
		return "", err
	}
	dstNode, err := sess.GetNodeByID(ctx, l.DstNodeID)
	if err != nil {
		return "", err
	}
	srcPort, err := sess.GetPortByID(ctx, l.SrcPortID)
	if err != nil {
		return "", err
	}
	dstPort, err := sess.GetPortByID(ctx, l.DstPortID)
	if err != nil {
		return "", err
	}
	if srcNode == nil || dstNode == nil || srcPort == nil || dstPort == nil {
		return "", fmt.Errorf("link %s references a missing node or port", l.ID)
	}
	return fmt.Sprintf("%s-%d.%s-%d", srcNode.DeviceID, srcPort.PortNumber, dstNode.DeviceID, dstPort.PortNumber), nil
}

// isLastMile reports whether either endpoint of a link is a host,
// per LinkReliabilityStatistics' last_mile flag (§4.5).
func isLastMile(ctx context.Context, sess *store.Session, l store.Link) (bool, error) {
	srcNode, err := sess.GetNodeByID(ctx, l.SrcNodeID)
	if err != nil {
		return false, err
	}
	dstNode, err := sess.GetNodeByID(ctx, l.DstNodeID)
	if err != nil {
		return false, err
	}
	return (srcNode != nil && srcNode.Type == store.NodeTypeHost) ||
		(dstNode != nil && dstNode.Type == store.NodeTypeHost), nil
}
