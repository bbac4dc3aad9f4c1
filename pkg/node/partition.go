package node

import "context"

// PartitionInfo returns the raw "partition-info" reply for this node. The
// record format (headered vs. positional) is parsed by pkg/partition,
// which needs visibility across every node to compute per-namespace
// tolerances — this method stays a thin info call.
func (n *Node) PartitionInfo(ctx context.Context) (string, error) {
	return n.call(ctx, "partition-info")
}
