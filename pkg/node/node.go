// Package node implements the typed info-protocol client for a single
// cluster node: identity, peers/services discovery, statistics, config,
// latency, histograms, and partition info, all over a pooled socket.
package node

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"
	"time"

	"github.com/aerocluster/asadm/pkg/codec"
	"github.com/aerocluster/asadm/pkg/pool"
	"github.com/aerocluster/asadm/pkg/util"
)

// fakeNodeID is used for a placeholder Node constructed when the initial
// connect to a seed address fails (spec.md §3 "a faked node is permitted").
const fakeNodeID = "000000000000000"

// Endpoint is a (host, port, tls_name) service/peer tuple.
type Endpoint struct {
	Host    string
	Port    int
	TLSName string
}

// Credentials carries the auth material forwarded to the wire protocol.
// The core never interprets these beyond handing them to the socket
// layer; ConfigError for malformed credentials is raised by pkg/config.
type Credentials struct {
	User     string
	Password string
}

// Config constructs a Node.
type Config struct {
	Host           string
	Port           int
	TLSName        string
	TLSConfig      *tls.Config
	Timeout        time.Duration
	Credentials    *Credentials
	UseServicesAlt bool
	ConsiderAlumni bool
}

// Node is the typed client for one cluster node. All exported operations
// never panic — failures are returned as one of the util sentinel errors
// (possibly wrapped in *util.PerNodeError by the caller that knows the
// NodeKey).
type Node struct {
	key     string // canonical NodeKey, see util.CanonicalNodeKey
	host    string
	fqdn    string
	port    int
	xdrPort int
	tlsName string
	timeout time.Duration
	creds   *Credentials

	useServicesAlt bool
	considerAlumni bool

	pool    *pool.Pool
	tlsCfg  *tls.Config
	xdrPool *pool.Pool

	mu              sync.RWMutex
	alive           bool
	nodeID          string
	features        map[string]bool
	usePeersList    bool
	peersGeneration string
	peersCached     []Endpoint
	serviceAddrs    []Endpoint
	build           string
}

// New constructs a Node bound to cfg, but does not connect. The first
// info call performs the initial handshake.
func New(cfg Config) *Node {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	key := util.CanonicalNodeKey(cfg.Host, cfg.Port)
	n := &Node{
		key:            key,
		host:           cfg.Host,
		port:           cfg.Port,
		xdrPort:        3004,
		tlsName:        cfg.TLSName,
		timeout:        cfg.Timeout,
		creds:          cfg.Credentials,
		useServicesAlt: cfg.UseServicesAlt,
		considerAlumni: cfg.ConsiderAlumni,
		features:       make(map[string]bool),
	}
	n.tlsCfg = cfg.TLSConfig
	n.pool = pool.New(pool.Config{
		Host:           cfg.Host,
		Port:           cfg.Port,
		TLSName:        cfg.TLSName,
		TLSConfig:      cfg.TLSConfig,
		ConnectTimeout: n.timeout,
		ReadTimeout:    5 * time.Second,
	})
	return n
}

// NewFake constructs the placeholder Node recorded for a seed address
// whose initial connect failed (spec.md §3, scenario S6). It is alive=false;
// NodeID reports the placeholder id and every other info operation fails
// with util.ErrUnreachable.
func NewFake(host string, port int) *Node {
	return &Node{
		key:    util.CanonicalNodeKey(host, port),
		host:   host,
		port:   port,
		nodeID: fakeNodeID,
		alive:  false,
	}
}

// Key returns the canonical NodeKey.
func (n *Node) Key() string {
	return n.key
}

// Host returns the management address this node was dialed on, for
// collaborators (sysstats) that need an address outside the info
// protocol's own socket pool.
func (n *Node) Host() string {
	return n.host
}

// Alive reports whether the last operation against this node succeeded.
func (n *Node) Alive() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.alive
}

// NodeID returns the cached node-id, establishing identity on first call.
func (n *Node) NodeID(ctx context.Context) (string, error) {
	n.mu.RLock()
	if n.nodeID != "" {
		defer n.mu.RUnlock()
		return n.nodeID, nil
	}
	n.mu.RUnlock()

	reply, err := n.call(ctx, "node")
	if err != nil {
		return "", err
	}
	id := reply
	if id == "" {
		return "", fmt.Errorf("%w: empty node id", util.ErrCommandUnsupported)
	}

	n.mu.Lock()
	n.nodeID = id
	n.mu.Unlock()
	return id, nil
}

// Features returns the node's capability tokens, refreshing the cache on
// first call (idempotent info reply, per spec.md §5 caching policy).
func (n *Node) Features(ctx context.Context) (map[string]bool, error) {
	n.mu.RLock()
	if len(n.features) > 0 {
		defer n.mu.RUnlock()
		return n.features, nil
	}
	n.mu.RUnlock()

	reply, err := n.call(ctx, "features")
	if err != nil {
		return nil, err
	}
	feats := make(map[string]bool)
	for _, f := range codec.ToList(reply, ";") {
		feats[f] = true
	}

	n.mu.Lock()
	n.features = feats
	n.usePeersList = feats["peers"]
	n.mu.Unlock()
	return feats, nil
}

// UsePeersList reports whether this node supports the peers-list
// discovery protocol (vs. the legacy services fallback).
func (n *Node) UsePeersList(ctx context.Context) bool {
	if _, err := n.Features(ctx); err != nil {
		return false
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.usePeersList
}

// Build returns the cached server build version string.
func (n *Node) Build(ctx context.Context) (string, error) {
	n.mu.RLock()
	if n.build != "" {
		defer n.mu.RUnlock()
		return n.build, nil
	}
	n.mu.RUnlock()

	reply, err := n.call(ctx, "build")
	if err != nil {
		return "", err
	}
	n.mu.Lock()
	n.build = reply
	n.mu.Unlock()
	return reply, nil
}

// XDRBuild returns the build version reported on the XDR listener, issued
// over the main info port when the xdr feature is present and falling
// back to the dedicated XDR port otherwise (legacy servers, pre-3.8).
func (n *Node) XDRBuild(ctx context.Context) (string, error) {
	feats, err := n.Features(ctx)
	if err == nil && feats["xdr"] {
		return n.call(ctx, "build")
	}
	return n.xdrCall(ctx, "build")
}

// call issues command against the node's socket pool and returns the raw
// reply string, translating transport failures into the taxonomy from
// spec.md §7. On any failure the node is marked not alive — the cache
// invalidation policy from §5 ("Invalidated on any I/O failure for that
// node").
func (n *Node) call(ctx context.Context, command string) (string, error) {
	return n.callWithPool(ctx, n.pool, command)
}

// Info issues an arbitrary raw info-protocol command and returns the
// unparsed reply, for asinfo-style passthrough where the caller, not the
// node client, knows how to interpret the response.
func (n *Node) Info(ctx context.Context, command string) (string, error) {
	return n.call(ctx, command)
}

// callOnPort routes command through a lazily-created pool bound to a port
// other than the node's main info port — used for the legacy XDR
// listener (xdrPort), which is a distinct socket but shares the node's
// TLS and timeout configuration.
func (n *Node) callOnPort(ctx context.Context, port int, command string) (string, error) {
	n.mu.Lock()
	if n.xdrPool == nil {
		n.xdrPool = pool.New(pool.Config{
			Host:           n.host,
			Port:           port,
			TLSName:        n.tlsName,
			TLSConfig:      n.tlsCfg,
			ConnectTimeout: n.timeout,
			ReadTimeout:    5 * time.Second,
		})
	}
	p := n.xdrPool
	n.mu.Unlock()
	return n.callWithPool(ctx, p, command)
}

func (n *Node) callWithPool(ctx context.Context, p *pool.Pool, command string) (string, error) {
	if n.pool == nil {
		return "", fmt.Errorf("%w: placeholder node %s", util.ErrUnreachable, n.key)
	}
	socket, err := p.Acquire()
	if err != nil {
		n.markDead()
		return "", fmt.Errorf("%w: %v", util.ErrUnreachable, err)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(n.timeout)
	}
	if err := socket.Conn.SetDeadline(deadline); err != nil {
		p.Release(socket, false)
		return "", fmt.Errorf("%w: %v", util.ErrUnreachable, err)
	}

	// A watcher goroutine closes this socket the moment ctx is cancelled,
	// which unblocks the write/read below immediately instead of waiting
	// for the deadline. On cancellation the owning call below never
	// returns the socket to the pool — it is already closed — and
	// reports Cancelled (spec.md §5).
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			socket.Conn.Close()
		case <-watchDone:
		}
	}()

	if _, err := socket.Conn.Write(codec.Encode(command)); err != nil {
		if ctx.Err() != nil {
			socket.Conn.Close()
			return "", fmt.Errorf("%w: %v", util.ErrCancelled, ctx.Err())
		}
		p.Release(socket, false)
		n.markDead()
		return "", classifyIOError(err)
	}

	reply, err := codec.Decode(socket.Conn)
	if err != nil {
		if ctx.Err() != nil {
			socket.Conn.Close()
			return "", fmt.Errorf("%w: %v", util.ErrCancelled, ctx.Err())
		}
		p.Release(socket, false)
		n.markDead()
		return "", classifyIOError(err)
	}

	if ctx.Err() != nil {
		socket.Conn.Close()
		return "", fmt.Errorf("%w: %v", util.ErrCancelled, ctx.Err())
	}

	p.Release(socket, true)
	n.markAlive()
	return reply, nil
}

func (n *Node) markAlive() {
	n.mu.Lock()
	n.alive = true
	n.mu.Unlock()
}

func (n *Node) markDead() {
	n.mu.Lock()
	n.alive = false
	n.nodeID = ""
	n.build = ""
	n.features = make(map[string]bool)
	n.usePeersList = false
	n.mu.Unlock()
}

// Close releases all pooled sockets for this node.
func (n *Node) Close() {
	if n.pool != nil {
		n.pool.CloseAll()
	}
	n.mu.RLock()
	xdrPool := n.xdrPool
	n.mu.RUnlock()
	if xdrPool != nil {
		xdrPool.CloseAll()
	}
}

func classifyIOError(err error) error {
	type timeouter interface{ Timeout() bool }
	if te, ok := err.(timeouter); ok && te.Timeout() {
		return fmt.Errorf("%w: %v", util.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", util.ErrInvalidResponse, err)
}
