package cluster

import (
	"context"

	"github.com/aerocluster/asadm/pkg/future"
	"github.com/aerocluster/asadm/pkg/node"
	"github.com/aerocluster/asadm/pkg/util"
)

// Result is one node's outcome from a fan-out call: exactly one of Value
// or Err is meaningful.
type Result[T any] struct {
	Value T
	Err   error
}

// InfoAll issues op against every registered node in parallel — one
// future per (Node, operation), per spec.md §4.4's scheduling model —
// and returns a map with exactly one entry per requested node (spec.md
// §8 invariant 2: "info_all returns one entry per requested node, none
// missing"). A node that is not alive is never dialed; its Result
// carries *util.PerNodeError wrapping util.ErrUnreachable instead of an
// attempted call. A single node's failure never aborts the others.
//
// Go cannot express this as a method on *Cluster (methods can't carry
// their own type parameters), so it is a package-level generic function
// taking the cluster explicitly.
func InfoAll[T any](ctx context.Context, c *Cluster, op func(context.Context, *node.Node) (T, error)) map[string]Result[T] {
	registry := c.Nodes()

	type pending struct {
		key string
		fut *future.Future[T]
	}
	futures := make([]pending, 0, len(registry))
	out := make(map[string]Result[T], len(registry))
	for key, n := range registry {
		if !n.Alive() {
			out[key] = Result[T]{Err: util.NewPerNodeError(key, util.ErrUnreachable)}
			continue
		}
		n := n
		futures = append(futures, pending{
			key: key,
			fut: future.Submit(func() (T, error) { return op(ctx, n) }),
		})
	}

	for _, p := range futures {
		val, err := p.fut.Result(ctx)
		if err != nil {
			out[p.key] = Result[T]{Err: util.NewPerNodeError(p.key, err)}
			continue
		}
		out[p.key] = Result[T]{Value: val}
	}
	return out
}
