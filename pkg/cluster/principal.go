package cluster

import (
	"context"
	"strconv"

	"github.com/aerocluster/asadm/pkg/node"
)

// Principal returns the expected principal's node-id: the maximum
// paxos_principal value reported by any alive node, broken by
// lexicographic order on that node's own node-id (spec.md §4.4). If no
// alive node exists, Principal returns "" and ok=false.
func (c *Cluster) Principal(ctx context.Context) (principalID string, ok bool) {
	stats := InfoAll(ctx, c, func(ctx context.Context, n *node.Node) (map[string]string, error) {
		return n.Statistics(ctx)
	})

	var bestValue uint64
	var bestID string
	found := false

	for key, res := range stats {
		if res.Err != nil {
			continue
		}
		raw, present := res.Value["paxos_principal"]
		if !present {
			continue
		}
		value, err := strconv.ParseUint(raw, 16, 64)
		if err != nil {
			continue
		}

		n, nodeOK := c.Node(key)
		if !nodeOK {
			continue
		}
		ownID, err := n.NodeID(ctx)
		if err != nil {
			continue
		}

		switch {
		case !found:
			bestValue, bestID, found = value, ownID, true
		case value > bestValue:
			bestValue, bestID = value, ownID
		case value == bestValue && ownID > bestID:
			bestID = ownID
		}
	}

	return bestID, found
}
