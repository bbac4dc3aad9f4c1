package cluster

import (
	"context"
	"errors"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/aerocluster/asadm/pkg/codec"
	"github.com/aerocluster/asadm/pkg/node"
	"github.com/aerocluster/asadm/pkg/util"
)

// startFakeInfoServer runs a minimal info-protocol server whose responses
// are computed lazily per-connection by build(), so a reply can reference
// the listener's own just-bound port (self-referencing peers replies).
func startFakeInfoServer(t *testing.T, build func() map[string]string) (port int, stop func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port = ln.Addr().(*net.TCPAddr).Port
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				responses := build()
				for {
					cmd, err := codec.Decode(c)
					if err != nil {
						return
					}
					if _, err := c.Write(codec.Encode(responses[cmd])); err != nil {
						return
					}
				}
			}(conn)
		}
	}()
	return port, func() { ln.Close() }
}

func static(responses map[string]string) func() map[string]string {
	return func() map[string]string { return responses }
}

// TestDiscoverSingleHealthySeed is scenario S1 from spec.md §8: a single
// seed whose peers reply carries its own endpoint back. Expected: exactly
// one registered node, which is also the principal.
func TestDiscoverSingleHealthySeed(t *testing.T) {
	var selfPort int
	selfPort, stop := startFakeInfoServer(t, func() map[string]string {
		return map[string]string{
			"node":            "NodeA",
			"features":        "peers",
			"peers-clear-std": "7,3000,[(NodeA,,[127.0.0.1:" + strconv.Itoa(selfPort) + "])]",
			"statistics":      "paxos_principal=abcd1234",
		}
	})
	defer stop()

	c := New(Config{SeedAddrs: []string{"127.0.0.1:" + strconv.Itoa(selfPort)}, Timeout: time.Second})
	defer c.Close()

	if err := c.Discover(context.Background()); err != nil {
		t.Fatalf("discover: %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("got %d nodes, want 1", c.Len())
	}

	id, ok := c.Principal(context.Background())
	if !ok || id != "NodeA" {
		t.Errorf("got principal %q ok=%v, want NodeA", id, ok)
	}
}

// TestDiscoverTwoNodeCluster is scenario S2: two nodes, each reporting the
// other as a peer. Expected: registry has both keys, each reached once.
func TestDiscoverTwoNodeCluster(t *testing.T) {
	var portA, portB int
	var stopA, stopB func()
	portA, stopA = startFakeInfoServer(t, func() map[string]string {
		return map[string]string{
			"node":            "A",
			"features":        "peers",
			"peers-clear-std": "7,3000,[(B,,[127.0.0.1:" + strconv.Itoa(portB) + "])]",
		}
	})
	defer stopA()
	portB, stopB = startFakeInfoServer(t, func() map[string]string {
		return map[string]string{
			"node":            "B",
			"features":        "peers",
			"peers-clear-std": "7,3000,[(A,,[127.0.0.1:" + strconv.Itoa(portA) + "])]",
		}
	})
	defer stopB()

	c := New(Config{SeedAddrs: []string{"127.0.0.1:" + strconv.Itoa(portA)}, Timeout: time.Second})
	defer c.Close()

	if err := c.Discover(context.Background()); err != nil {
		t.Fatalf("discover: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("got %d nodes, want 2", c.Len())
	}
	nodes := c.Nodes()
	keyA := "127.0.0.1:" + strconv.Itoa(portA)
	keyB := "127.0.0.1:" + strconv.Itoa(portB)
	if _, ok := nodes[keyA]; !ok {
		t.Errorf("missing node A at %s", keyA)
	}
	if _, ok := nodes[keyB]; !ok {
		t.Errorf("missing node B at %s", keyB)
	}
}

// TestDiscoverFakedUnreachableSeed is scenario S6: a seed whose connect
// is refused. Expected: a placeholder Node, alive=false, node-id
// "000000000000000"; principal computation ignores it.
func TestDiscoverFakedUnreachableSeed(t *testing.T) {
	c := New(Config{SeedAddrs: []string{"127.0.0.1:9"}, Timeout: 200 * time.Millisecond})
	defer c.Close()

	if err := c.Discover(context.Background()); err != nil {
		t.Fatalf("discover: %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("got %d nodes, want 1", c.Len())
	}
	nodes := c.Nodes()
	n, ok := nodes["127.0.0.1:9"]
	if !ok {
		t.Fatalf("expected placeholder node registered")
	}
	if n.Alive() {
		t.Error("expected placeholder node to be not alive")
	}
	id, _ := n.NodeID(context.Background())
	if id != "000000000000000" {
		t.Errorf("got node-id %q, want placeholder id", id)
	}

	if _, ok := c.Principal(context.Background()); ok {
		t.Error("expected no principal when every node is fake")
	}
}

// TestDiscoverIsIdempotent re-runs discovery against an unchanged single
// node and checks the registry set stays identical (invariant 1).
func TestDiscoverIsIdempotent(t *testing.T) {
	var selfPort int
	selfPort, stop := startFakeInfoServer(t, func() map[string]string {
		return map[string]string{
			"node":            "NodeA",
			"features":        "peers",
			"peers-clear-std": "7,3000,[(NodeA,,[127.0.0.1:" + strconv.Itoa(selfPort) + "])]",
		}
	})
	defer stop()

	c := New(Config{SeedAddrs: []string{"127.0.0.1:" + strconv.Itoa(selfPort)}, Timeout: time.Second})
	defer c.Close()

	if err := c.Discover(context.Background()); err != nil {
		t.Fatalf("first discover: %v", err)
	}
	first := c.Nodes()

	if err := c.Discover(context.Background()); err != nil {
		t.Fatalf("second discover: %v", err)
	}
	second := c.Nodes()

	if len(first) != len(second) {
		t.Fatalf("registry size changed: %d vs %d", len(first), len(second))
	}
	for k := range first {
		if _, ok := second[k]; !ok {
			t.Errorf("key %s dropped after second discover", k)
		}
	}
}

func TestInfoAllIsolatesPerNodeFailure(t *testing.T) {
	goodPort, stopGood := startFakeInfoServer(t, static(map[string]string{"node": "GOOD"}))
	defer stopGood()

	c := New(Config{Timeout: 300 * time.Millisecond})
	good := node.New(c.newNodeConfig("127.0.0.1", goodPort))
	if _, err := good.NodeID(context.Background()); err != nil {
		t.Fatalf("priming good node: %v", err)
	}
	c.register("good", good)
	c.register("bad", node.NewFake("127.0.0.1", 1))

	results := InfoAll(context.Background(), c, func(ctx context.Context, n *node.Node) (string, error) {
		return n.NodeID(ctx)
	})

	if res, ok := results["good"]; !ok || res.Err != nil || res.Value != "GOOD" {
		t.Errorf("got good result %+v", res)
	}
	res, ok := results["bad"]
	if !ok {
		t.Fatal("bad node missing from InfoAll results: spec.md §8 invariant 2 requires one entry per requested node")
	}
	if res.Err == nil {
		t.Error("bad (never-alive) node should carry a per-node error, not a value")
	}
	if !errors.Is(res.Err, util.ErrUnreachable) {
		t.Errorf("bad node error = %v, want wrapping util.ErrUnreachable", res.Err)
	}
}
