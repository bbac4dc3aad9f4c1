package cluster

import (
	"context"
	"strconv"
	"strings"

	"github.com/aerocluster/asadm/pkg/node"
	"github.com/aerocluster/asadm/pkg/util"
)

// Discover runs breadth-first membership discovery from the configured
// seed addresses (spec.md §4.4):
//
//  1. For each seed, construct a Node; if the initial handshake fails,
//     retain it as a fake placeholder (alive=false) and do not expand
//     from it.
//  2. Otherwise add it to the frontier.
//  3. For each frontier node, call the appropriate peers view (alumni,
//     alternate, or standard, per the cluster's policy flags) — or the
//     legacy services fallback if the node lacks the peers feature — to
//     enumerate new candidate endpoints.
//  4. Repeat until the frontier is empty or OnlyConnectSeed is set.
//
// Running Discover twice against an unchanged cluster produces an
// identical registry (same NodeKey set, same node-ids) — nodes already
// present are re-probed but not duplicated.
func (c *Cluster) Discover(ctx context.Context) error {
	var frontier []*node.Node

	for _, addr := range c.seedAddrs {
		host, port := splitSeedAddr(addr, c.port)
		n, ok := c.connectOrFake(ctx, host, port)
		if ok {
			frontier = append(frontier, n)
		}
	}

	if c.onlyConnectSeed {
		return nil
	}

	seenTLS := make(map[string]string)
	for len(frontier) > 0 {
		var next []*node.Node
		for _, n := range frontier {
			endpoints, err := c.discoverPeersOf(ctx, n)
			if err != nil {
				continue
			}
			for _, ep := range endpoints {
				key := util.CanonicalNodeKey(ep.Host, ep.Port)
				if first, seen := seenTLS[key]; !seen {
					seenTLS[key] = ep.TLSName
				} else if first != ep.TLSName {
					util.WithNode(key).Warnf("peers records disagree on tls_name: keeping %q, ignoring %q", first, ep.TLSName)
				}
				if _, exists := c.Node(key); exists {
					continue
				}
				added, ok := c.connectOrFake(ctx, ep.Host, ep.Port)
				if ok {
					next = append(next, added)
				}
			}
		}
		frontier = next
	}
	return nil
}

// connectOrFake constructs a Node for host:port, registers it (real or
// fake), and reports whether it should be expanded further (true only
// for a node that answered its handshake).
//
// A node that answers its handshake is then reconciled to its own
// canonical service address (spec.md §4.4 discovery step 2): the node
// itself is asked "service" and the registry key used is derived from
// that reply rather than from whatever address reached it, so two
// discovery paths that land on the same node (seed list vs. a peer
// advertisement) converge on one registry entry.
func (c *Cluster) connectOrFake(ctx context.Context, host string, port int) (*node.Node, bool) {
	dialedKey := util.CanonicalNodeKey(host, port)
	n := node.New(c.newNodeConfig(host, port))

	callCtx, cancel := withTimeout(ctx, c.timeout)
	_, err := n.NodeID(callCtx)
	cancel()
	if err != nil {
		fake := node.NewFake(host, port)
		c.register(dialedKey, fake)
		return nil, false
	}

	key := dialedKey
	svcCtx, svcCancel := withTimeout(ctx, c.timeout)
	svc, svcErr := n.Service(svcCtx)
	svcCancel()
	if svcErr == nil {
		key = util.CanonicalNodeKey(svc.Host, svc.Port)
	}

	c.register(key, n)
	return n, true
}

// discoverPeersOf returns the endpoints a single frontier node reports,
// using the peers-list protocol when supported, the legacy services
// fallback otherwise.
func (c *Cluster) discoverPeersOf(ctx context.Context, n *node.Node) ([]node.Endpoint, error) {
	callCtx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	if n.UsePeersList(callCtx) {
		view := node.PeersStandard
		switch {
		case c.useServicesAlumni:
			view = node.PeersAlumni
		case c.useServicesAlt:
			view = node.PeersAlternate
		}
		result, err := n.Peers(callCtx, view)
		if err != nil {
			return nil, err
		}
		return result.Endpoints, nil
	}
	return n.ServicesLegacy(callCtx)
}

// splitSeedAddr parses "host:port" or a bare host, defaulting to
// defaultPort when no port is given.
func splitSeedAddr(addr string, defaultPort int) (string, int) {
	addr = strings.TrimSpace(addr)
	if strings.HasPrefix(addr, "[") {
		if end := strings.Index(addr, "]"); end >= 0 {
			host := addr[1:end]
			rest := strings.TrimPrefix(addr[end+1:], ":")
			if p, err := strconv.Atoi(rest); err == nil {
				return host, p
			}
			return host, defaultPort
		}
	}
	if idx := strings.LastIndex(addr, ":"); idx >= 0 && strings.Count(addr, ":") == 1 {
		if p, err := strconv.Atoi(addr[idx+1:]); err == nil {
			return addr[:idx], p
		}
	}
	return addr, defaultPort
}
