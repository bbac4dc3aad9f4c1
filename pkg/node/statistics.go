package node

import (
	"context"
	"fmt"

	"github.com/aerocluster/asadm/pkg/codec"
)

// Statistics returns the node's service-level statistics.
func (n *Node) Statistics(ctx context.Context) (map[string]string, error) {
	reply, err := n.call(ctx, "statistics")
	if err != nil {
		return nil, err
	}
	return codec.ToDict(reply).ToMap(), nil
}

// Namespaces returns the list of namespace names configured on this node.
func (n *Node) Namespaces(ctx context.Context) ([]string, error) {
	reply, err := n.call(ctx, "namespaces")
	if err != nil {
		return nil, err
	}
	return codec.ToList(reply, ";"), nil
}

// NamespaceStatistics returns statistics for one namespace.
func (n *Node) NamespaceStatistics(ctx context.Context, namespace string) (map[string]string, error) {
	reply, err := n.call(ctx, fmt.Sprintf("namespace/%s", namespace))
	if err != nil {
		return nil, err
	}
	return codec.ToDict(reply).ToMap(), nil
}

// AllNamespaceStatistics fans out NamespaceStatistics over every namespace
// this node reports, never aborting on an individual namespace failure.
func (n *Node) AllNamespaceStatistics(ctx context.Context) (map[string]map[string]string, error) {
	namespaces, err := n.Namespaces(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]map[string]string, len(namespaces))
	for _, ns := range namespaces {
		stats, err := n.NamespaceStatistics(ctx, ns)
		if err != nil {
			out[ns] = map[string]string{}
			continue
		}
		out[ns] = stats
	}
	return out, nil
}

// SetStatistics returns per-(namespace,set) statistics, keyed
// "namespace/set".
func (n *Node) SetStatistics(ctx context.Context) (map[string]map[string]string, error) {
	reply, err := n.call(ctx, "sets")
	if err != nil {
		return nil, err
	}
	out := make(map[string]map[string]string)
	for _, record := range codec.ToList(reply, ";") {
		fields := codec.ColonToDict(record).ToMap()
		ns := fields["ns"]
		set := fields["set"]
		if ns == "" || set == "" {
			continue
		}
		out[ns+"/"+set] = fields
	}
	return out, nil
}

// BinStatistics returns per-namespace bin-usage statistics.
func (n *Node) BinStatistics(ctx context.Context) (map[string]map[string]string, error) {
	reply, err := n.call(ctx, "bins")
	if err != nil {
		return nil, err
	}
	out := make(map[string]map[string]string)
	for _, record := range codec.ToList(reply, ";") {
		fields := codec.ColonToDict(record)
		ns, ok := fields.Get("ns")
		if !ok {
			continue
		}
		out[ns] = fields.ToMap()
	}
	return out, nil
}

// SindexStatistics returns statistics for one secondary index.
func (n *Node) SindexStatistics(ctx context.Context, namespace, indexName string) (map[string]string, error) {
	reply, err := n.call(ctx, fmt.Sprintf("sindex/%s/%s", namespace, indexName))
	if err != nil {
		return nil, err
	}
	return codec.ToDict(reply).ToMap(), nil
}

// SindexList returns the sindex summary records (name/namespace/set/etc.)
// for every secondary index on this node.
func (n *Node) SindexList(ctx context.Context) ([]map[string]string, error) {
	reply, err := n.call(ctx, "sindex")
	if err != nil {
		return nil, err
	}
	var out []map[string]string
	for _, record := range codec.ToList(reply, ";") {
		out = append(out, codec.ColonToDict(record).ToMap())
	}
	return out, nil
}

// AllSindexStatistics fans SindexStatistics out over every secondary index
// this node reports, keyed "namespace/indexname" like SetStatistics — the
// shape pkg/snapshot needs to nest sindex entries under their owning
// namespace, never aborting on an individual index's failure.
func (n *Node) AllSindexStatistics(ctx context.Context) (map[string]map[string]string, error) {
	list, err := n.SindexList(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]map[string]string, len(list))
	for _, summary := range list {
		ns := summary["ns"]
		name := summary["indexname"]
		if ns == "" || name == "" {
			continue
		}
		key := ns + "/" + name
		stats, err := n.SindexStatistics(ctx, ns, name)
		if err != nil {
			out[key] = map[string]string{}
			continue
		}
		out[key] = stats
	}
	return out, nil
}

// XDRStatistics returns XDR statistics, issued over the main info port
// when the xdr feature is present, falling back to the dedicated XDR
// port otherwise (legacy servers, pre-3.8).
func (n *Node) XDRStatistics(ctx context.Context) (map[string]string, error) {
	feats, err := n.Features(ctx)
	if err == nil && feats["xdr"] {
		reply, err := n.call(ctx, "statistics/xdr")
		if err != nil {
			return nil, err
		}
		return codec.ToDict(reply).ToMap(), nil
	}
	reply, err := n.xdrCall(ctx, "statistics")
	if err != nil {
		return nil, err
	}
	return codec.ToDict(reply).ToMap(), nil
}

// DCList returns the datacenter names this node replicates to.
func (n *Node) DCList(ctx context.Context) ([]string, error) {
	feats, err := n.Features(ctx)
	if err == nil && feats["xdr"] {
		reply, err := n.call(ctx, "dcs")
		if err != nil {
			return nil, err
		}
		return codec.ToList(reply, ";"), nil
	}
	reply, err := n.xdrCall(ctx, "dcs")
	if err != nil {
		return nil, err
	}
	return codec.ToList(reply, ";"), nil
}

// DCStatistics returns statistics for a single datacenter.
func (n *Node) DCStatistics(ctx context.Context, dc string) (map[string]string, error) {
	feats, err := n.Features(ctx)
	if err == nil && feats["xdr"] {
		reply, err := n.call(ctx, fmt.Sprintf("dc/%s", dc))
		if err != nil {
			return nil, err
		}
		return codec.ToDict(reply).ToMap(), nil
	}
	reply, err := n.xdrCall(ctx, fmt.Sprintf("dc/%s", dc))
	if err != nil {
		return nil, err
	}
	return codec.ToDict(reply).ToMap(), nil
}

// AllDCStatistics fans DCStatistics out over every datacenter this node
// replicates to, keyed by dc name, never aborting on an individual
// datacenter's failure.
func (n *Node) AllDCStatistics(ctx context.Context) (map[string]map[string]string, error) {
	dcs, err := n.DCList(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]map[string]string, len(dcs))
	for _, dc := range dcs {
		stats, err := n.DCStatistics(ctx, dc)
		if err != nil {
			out[dc] = map[string]string{}
			continue
		}
		out[dc] = stats
	}
	return out, nil
}

// UDFList returns the registered UDF modules keyed by filename.
func (n *Node) UDFList(ctx context.Context) (map[string]map[string]string, error) {
	reply, err := n.call(ctx, "udf-list")
	if err != nil {
		return nil, err
	}
	m := codec.ToDictMultiLevel(reply, "filename")
	out := make(map[string]map[string]string, m.Len())
	for _, k := range m.Keys() {
		fields, _ := m.Get(k)
		out[k] = fields.ToMap()
	}
	return out, nil
}

// xdrCall issues command against the node's dedicated XDR port instead of
// its main info port — used by legacy servers (pre-3.8) that expose XDR
// stats/config on a separate listener (xdr_port, default 3004).
func (n *Node) xdrCall(ctx context.Context, command string) (string, error) {
	// The XDR port shares the node's pool discipline but is a distinct
	// listener; route through the same call path using a second pool,
	// created on first use and kept on the node, bound to xdrPort, mirroring how the main pool is keyed by
	// (NodeKey, Port) per spec.md §5.
	return n.callOnPort(ctx, n.xdrPort, command)
}
