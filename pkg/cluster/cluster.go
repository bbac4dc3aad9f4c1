// Package cluster discovers and tracks cluster membership, owns the node
// registry, and fans operations out across every live node in parallel.
package cluster

import (
	"context"
	"crypto/tls"
	"sync"
	"time"

	"github.com/aerocluster/asadm/pkg/node"
	"github.com/aerocluster/asadm/pkg/util"
)

// Config constructs a Cluster.
type Config struct {
	SeedAddrs []string // "host:port" or bare host (Port used as default)
	Port      int

	// Credentials is looked up by canonical NodeKey; DefaultCredentials
	// is used for any node without a specific entry.
	Credentials        map[string]node.Credentials
	DefaultCredentials *node.Credentials

	TLSConfig *tls.Config
	TLSName   string
	Timeout   time.Duration

	UseServicesAlumni bool
	UseServicesAlt    bool
	OnlyConnectSeed   bool
}

// Cluster owns the node registry and the policy flags governing
// discovery. It exclusively owns every *node.Node and the socket pools
// reachable through them; every other component only holds read-only
// views returned by Node/Nodes/AliveNodes.
type Cluster struct {
	mu    sync.RWMutex
	nodes map[string]*node.Node

	seedAddrs []string
	port      int

	credentials        map[string]node.Credentials
	defaultCredentials *node.Credentials

	tlsConfig *tls.Config
	tlsName   string
	timeout   time.Duration

	useServicesAlumni bool
	useServicesAlt    bool
	onlyConnectSeed   bool
}

// New constructs a Cluster bound to cfg. Discover must be called to
// populate the registry.
func New(cfg Config) *Cluster {
	if cfg.Port <= 0 {
		cfg.Port = 3000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	return &Cluster{
		nodes:              make(map[string]*node.Node),
		seedAddrs:          cfg.SeedAddrs,
		port:               cfg.Port,
		credentials:        cfg.Credentials,
		defaultCredentials: cfg.DefaultCredentials,
		tlsConfig:          cfg.TLSConfig,
		tlsName:            cfg.TLSName,
		timeout:            cfg.Timeout,
		useServicesAlumni:  cfg.UseServicesAlumni,
		useServicesAlt:     cfg.UseServicesAlt,
		onlyConnectSeed:    cfg.OnlyConnectSeed,
	}
}

// credentialsFor returns the credentials this cluster should use to
// connect to key, falling back to DefaultCredentials.
func (c *Cluster) credentialsFor(key string) *node.Credentials {
	if c.credentials != nil {
		if cr, ok := c.credentials[key]; ok {
			return &cr
		}
	}
	return c.defaultCredentials
}

// newNodeConfig builds a node.Config for host:port under this cluster's
// shared policy (TLS, timeout, credentials).
func (c *Cluster) newNodeConfig(host string, port int) node.Config {
	key := util.CanonicalNodeKey(host, port)
	return node.Config{
		Host:           host,
		Port:           port,
		TLSName:        c.tlsName,
		TLSConfig:      c.tlsConfig,
		Timeout:        c.timeout,
		Credentials:    c.credentialsFor(key),
		UseServicesAlt: c.useServicesAlt,
		ConsiderAlumni: c.useServicesAlumni,
	}
}

// Node returns the registered node for key, if any.
func (c *Cluster) Node(key string) (*node.Node, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.nodes[key]
	return n, ok
}

// Nodes returns a stable snapshot of every registered node, alive or
// fake. The returned map is a copy — callers never see registry swaps
// made by a concurrent Discover.
func (c *Cluster) Nodes() map[string]*node.Node {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]*node.Node, len(c.nodes))
	for k, n := range c.nodes {
		out[k] = n
	}
	return out
}

// AliveNodes returns Nodes filtered to those currently Alive().
func (c *Cluster) AliveNodes() map[string]*node.Node {
	all := c.Nodes()
	out := make(map[string]*node.Node, len(all))
	for k, n := range all {
		if n.Alive() {
			out[k] = n
		}
	}
	return out
}

// register inserts n into the registry under key, replacing any prior
// entry. Registry mutation is always this single locked path — never
// held across network I/O (spec.md §5).
func (c *Cluster) register(key string, n *node.Node) {
	c.mu.Lock()
	c.nodes[key] = n
	c.mu.Unlock()
}

// Close tears down every node's socket pools.
func (c *Cluster) Close() {
	for _, n := range c.Nodes() {
		n.Close()
	}
}

// Len returns the number of registered nodes (alive or fake).
func (c *Cluster) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.nodes)
}

func withTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return parent, func() {}
	}
	return context.WithTimeout(parent, d)
}
