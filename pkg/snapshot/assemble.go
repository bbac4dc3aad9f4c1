package snapshot

// Input carries every per-entity collection result an Assemble call
// needs. Maps whose value type is itself `map[NodeKey]map[string]string`
// are entity-keyed first (namespace name, set key, dc name, …) — the
// natural shape of "fan a query out per entity, across every node" — and
// get flipped to node-keyed before assembly. Maps already keyed directly
// by node (ServiceStatistics, ServiceConfig, Build, …) need no flip.
//
// Input carries no errors: a node whose collection failed is simply
// absent from the corresponding map, and Assemble treats its contribution
// to that entry as an empty map, so one node's failure never aborts the
// collection.
type Input struct {
	ClusterName string

	ServiceStatistics map[string]map[string]string // node -> stat dict
	ServiceConfig     map[string]map[string]string // node -> config dict

	NamespaceStatistics map[string]map[string]map[string]string // ns -> node -> dict
	NamespaceConfig     map[string]map[string]map[string]string // ns -> node -> dict
	SetStatistics       map[string]map[string]map[string]string // "ns/set" -> node -> dict
	BinStatistics       map[string]map[string]map[string]string // node -> ns -> dict (already node-keyed)
	SindexStatistics    map[string]map[string]map[string]string // "ns/indexname" -> node -> dict

	XDRStatistics map[string]map[string]string            // node -> dict
	XDRConfig     map[string]map[string]string            // node -> dict
	DCStatistics  map[string]map[string]map[string]string // dc -> node -> dict
	DCConfig      map[string]map[string]map[string]string // dc -> node -> dict

	NetworkConfig map[string]map[string]string // node -> dict

	Build    map[string]string                       // node -> build string
	XDRBuild map[string]string                       // node -> xdr build string
	UDF      map[string]map[string]map[string]string  // node -> filename -> fields

	SysStats map[string]map[string]string // node -> sidecar fields
}

// flip swaps the outer/inner keys of an entity-keyed-first map so the
// result is keyed by the inner (node) key first: {entity -> {node -> v}}
// becomes {node -> {entity -> v}}.
func flip[V any](in map[string]map[string]V) map[string]map[string]V {
	out := make(map[string]map[string]V)
	for entity, byNode := range in {
		for node, v := range byNode {
			if out[node] == nil {
				out[node] = make(map[string]V)
			}
			out[node][entity] = v
		}
	}
	return out
}

// Assemble collects and restructures in into a Snapshot. nodeKeys is the
// full set of nodes the snapshot covers — a node absent from every map
// in in (e.g. it failed every collection call) still gets an empty
// as_stat/sys_stat entry, keeping the JSON uniformly shaped.
func Assemble(nodeKeys []string, in Input, bundleID string) *Snapshot {
	nsStats := flip(in.NamespaceStatistics)
	nsConfig := flip(in.NamespaceConfig)
	setStats := flip(in.SetStatistics)
	sindexStats := flip(in.SindexStatistics)
	dcStats := flip(in.DCStatistics)
	dcConfig := flip(in.DCConfig)

	nodes := make(map[string]NodeSnapshot, len(nodeKeys))
	for _, key := range nodeKeys {
		asStat := map[string]any{
			"statistics": emptyIfNil(in.ServiceStatistics[key]),
			"config":     emptyIfNil(in.ServiceConfig[key]),
			"namespace":  assembleNamespaces(nsStats[key], nsConfig[key], setStats[key], sindexStats[key], in.BinStatistics[key]),
			"xdr":        assembleXDR(key, in, dcStats, dcConfig),
			"udf":        emptyNestedIfNil(in.UDF[key]),
			"metadata": map[string]string{
				"build":     in.Build[key],
				"xdr_build": in.XDRBuild[key],
			},
		}
		nodes[key] = NodeSnapshot{
			AsStat:  asStat,
			SysStat: emptyIfNil(in.SysStats[key]),
		}
	}

	return &Snapshot{BundleID: bundleID, ClusterName: in.ClusterName, Nodes: nodes}
}

// assembleNamespaces restructures this node's per-namespace sections:
// namespace-level stats/config are promoted into an inner "service"
// bucket, with set/bin/sindex nested alongside.
func assembleNamespaces(
	nsStats, nsConfig, setStats, sindexStats map[string]map[string]string,
	binStats map[string]map[string]string,
) map[string]any {
	names := make(map[string]bool)
	for ns := range nsStats {
		names[ns] = true
	}
	for ns := range nsConfig {
		names[ns] = true
	}
	for ns := range binStats {
		names[ns] = true
	}

	out := make(map[string]any, len(names))
	for ns := range names {
		out[ns] = map[string]any{
			"service": map[string]any{
				"statistics": emptyIfNil(nsStats[ns]),
				"config":     emptyIfNil(nsConfig[ns]),
			},
			"bin":    emptyIfNil(binStats[ns]),
			"set":    entriesForNamespace(ns, setStats),
			"sindex": entriesForNamespace(ns, sindexStats),
		}
	}
	return out
}

// entriesForNamespace narrows a node's flipped, "ns/entity"-keyed
// statistics (sets, secondary indexes) down to the entities owned by ns.
func entriesForNamespace(ns string, stats map[string]map[string]string) map[string]map[string]string {
	out := make(map[string]map[string]string)
	prefix := ns + "/"
	for key, v := range stats {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			out[key[len(prefix):]] = v
		}
	}
	return out
}

func assembleXDR(nodeKey string, in Input, dcStats, dcConfig map[string]map[string]string) map[string]any {
	return map[string]any{
		"statistics": emptyIfNil(in.XDRStatistics[nodeKey]),
		"config":     emptyIfNil(in.XDRConfig[nodeKey]),
		"dc":         emptyIfNil(dcStats[nodeKey]),
		"dc_config":  emptyIfNil(dcConfig[nodeKey]),
	}
}

func emptyIfNil(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func emptyNestedIfNil(m map[string]map[string]string) map[string]map[string]string {
	if m == nil {
		return map[string]map[string]string{}
	}
	return m
}
