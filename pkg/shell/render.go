package shell

import (
	"io"
	"sort"

	"github.com/aerocluster/asadm/pkg/cluster"
	"github.com/aerocluster/asadm/pkg/health"
	"github.com/aerocluster/asadm/pkg/node"
	"github.com/aerocluster/asadm/pkg/view"
)

// NodeRow is one row of "show nodes" output.
type NodeRow struct {
	Key       string
	NodeID    string
	Alive     bool
	Principal bool
}

// buildNodeRows joins the registry with a fanned-out node-id map and the
// computed principal, sorted by NodeKey for stable output.
func buildNodeRows(nodes map[string]*node.Node, ids map[string]cluster.Result[string], principal string) []NodeRow {
	rows := make([]NodeRow, 0, len(nodes))
	for key, n := range nodes {
		id := ""
		if res, ok := ids[key]; ok && res.Err == nil {
			id = res.Value
		}
		rows = append(rows, NodeRow{
			Key:       key,
			NodeID:    id,
			Alive:     n.Alive(),
			Principal: id != "" && id == principal,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })
	return rows
}

func renderNodeTable(w io.Writer, rows []NodeRow) {
	t := view.NewTable("NODE", "NODE-ID", "STATUS", "PRINCIPAL").WithWriter(w)
	for _, r := range rows {
		status := view.Green("up")
		if !r.Alive {
			status = view.Red("down")
		}
		mark := ""
		if r.Principal {
			mark = view.Bold("*")
		}
		t.Row(r.Key, dash(r.NodeID), status, mark)
	}
	t.Flush()
}

// dash returns s if non-empty, otherwise the conventional placeholder.
func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatHealthStatus(status health.Status) string {
	switch status {
	case health.StatusOK:
		return view.Green("OK")
	case health.StatusWarning:
		return view.Yellow("WARNING")
	case health.StatusCritical:
		return view.Red("CRITICAL")
	default:
		return string(status)
	}
}

// toPlainMap drops the errored entries of a fan-out result map, keeping
// only successful values — the shape snapshot.Input and partition.Analyze
// both want, with per-node failures simply omitted rather than aborting
// the whole collection (spec.md §7: per-node errors never abort a
// cluster-wide operation).
func toPlainMap[T any](results map[string]cluster.Result[T]) map[string]T {
	out := make(map[string]T, len(results))
	for k, r := range results {
		if r.Err != nil {
			continue
		}
		out[k] = r.Value
	}
	return out
}

// flipNodeNamespace turns a node-keyed fan-out of per-namespace stats
// into the entity-keyed-first shape snapshot.Input.NamespaceStatistics
// and partition.ComputeNamespaceAverages both expect.
func flipNodeNamespace(results map[string]cluster.Result[map[string]map[string]string]) map[string]map[string]map[string]string {
	out := make(map[string]map[string]map[string]string)
	for nodeKey, r := range results {
		if r.Err != nil {
			continue
		}
		for ns, stats := range r.Value {
			if out[ns] == nil {
				out[ns] = make(map[string]map[string]string)
			}
			out[ns][nodeKey] = stats
		}
	}
	return out
}
