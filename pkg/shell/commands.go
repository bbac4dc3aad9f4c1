package shell

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/aerocluster/asadm/pkg/cluster"
	"github.com/aerocluster/asadm/pkg/health"
	"github.com/aerocluster/asadm/pkg/node"
	"github.com/aerocluster/asadm/pkg/partition"
	"github.com/aerocluster/asadm/pkg/snapshot"
	"github.com/aerocluster/asadm/pkg/sysstats"
	"github.com/aerocluster/asadm/pkg/view"
)

func (s *Shell) cmdShow(ctx context.Context, w io.Writer, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("show: usage: show <nodes|namespaces>")
	}
	switch args[0] {
	case "nodes":
		return s.showNodes(ctx, w)
	case "namespaces":
		return s.showNamespaces(ctx, w)
	default:
		return fmt.Errorf("show: unknown target %q", args[0])
	}
}

func (s *Shell) showNodes(ctx context.Context, w io.Writer) error {
	nodes := s.cluster.Nodes()
	ids := cluster.InfoAll(ctx, s.cluster, func(ctx context.Context, n *node.Node) (string, error) {
		return n.NodeID(ctx)
	})
	principal, _ := s.cluster.Principal(ctx)

	renderNodeTable(w, buildNodeRows(nodes, ids, principal))
	return nil
}

func (s *Shell) showNamespaces(ctx context.Context, w io.Writer) error {
	results := cluster.InfoAll(ctx, s.cluster, func(ctx context.Context, n *node.Node) (map[string]map[string]string, error) {
		return n.AllNamespaceStatistics(ctx)
	})
	perNS := flipNodeNamespace(results)

	names := make([]string, 0, len(perNS))
	for ns := range perNS {
		names = append(names, ns)
	}
	sort.Strings(names)

	t := view.NewTable("NAMESPACE", "REPL-FACTOR", "AVG-MASTER", "AVG-REPLICA").WithWriter(w)
	for _, ns := range names {
		avg := partition.ComputeNamespaceAverages(perNS[ns])
		t.Row(
			ns,
			strconv.Itoa(avg.ReplFactor),
			strconv.FormatFloat(avg.AvgMaster, 'f', 1, 64),
			strconv.FormatFloat(avg.AvgReplica, 'f', 1, 64),
		)
	}
	t.Flush()
	return nil
}

func (s *Shell) cmdInfo(ctx context.Context, w io.Writer, args []string) error {
	results := cluster.InfoAll(ctx, s.cluster, func(ctx context.Context, n *node.Node) (map[string]string, error) {
		return n.Statistics(ctx)
	})

	keys := make([]string, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := view.NewTable("NODE", "CLUSTER-SIZE", "CLUSTER-KEY", "UPTIME").WithWriter(w)
	for _, key := range keys {
		res := results[key]
		if res.Err != nil {
			t.Row(key, "-", "-", "-")
			continue
		}
		t.Row(key, dash(res.Value["cluster_size"]), dash(res.Value["cluster_key"]), dash(res.Value["uptime"]))
	}
	t.Flush()
	return nil
}

func (s *Shell) cmdAsinfo(ctx context.Context, w io.Writer, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("asinfo: usage: asinfo -v <command>")
	}
	rest := args
	if rest[0] == "-v" {
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return fmt.Errorf("asinfo: missing command")
	}
	command := strings.Join(rest, " ")

	results := cluster.InfoAll(ctx, s.cluster, func(ctx context.Context, n *node.Node) (string, error) {
		return n.Info(ctx, command)
	})

	keys := make([]string, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		res := results[key]
		fmt.Fprintf(w, "%s :\n", key)
		if res.Err != nil {
			fmt.Fprintf(w, "\terror: %v\n", res.Err)
			continue
		}
		fmt.Fprintf(w, "\t%s\n", res.Value)
	}
	return nil
}

func (s *Shell) cmdSummary(ctx context.Context, w io.Writer, args []string) error {
	nodes := s.cluster.Nodes()
	alive := s.cluster.AliveNodes()
	principal, ok := s.cluster.Principal(ctx)
	if !ok {
		principal = "-"
	}
	fmt.Fprintf(w, "Nodes: %d (%d alive), Principal: %s\n", len(nodes), len(alive), principal)
	return nil
}

func (s *Shell) cmdHealth(ctx context.Context, w io.Writer, args []string) error {
	snap, partReports, averages := s.collect(ctx)
	in := health.Input{Snapshot: snap, PartitionReports: partReports, NamespaceAverages: averages}
	checker := health.NewChecker()

	if len(args) > 0 {
		result, ok := checker.RunCheck(in, args[0])
		if !ok {
			return fmt.Errorf("health: unknown check %q", args[0])
		}
		renderHealthResult(w, *result)
		return nil
	}

	renderHealthReport(w, checker.Run(in))
	return nil
}

func (s *Shell) cmdCollectinfo(ctx context.Context, w io.Writer, args []string) error {
	outDir := "."
	if len(args) >= 2 && args[0] == "-o" {
		outDir = args[1]
	}

	snap, _, _ := s.collect(ctx)

	data, err := snap.Encode()
	if err != nil {
		return fmt.Errorf("collectinfo: encoding snapshot: %w", err)
	}

	path := filepath.Join(outDir, fmt.Sprintf("collectinfo_%s.json", snap.BundleID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("collectinfo: writing %s: %w", path, err)
	}

	fmt.Fprintf(w, "wrote %s\n", path)
	return nil
}

// collect fans every source a full snapshot/health evaluation needs out
// across the cluster once, and returns the three independent shapes
// cmdHealth and cmdCollectinfo each consume differently — assembled
// snapshot, per-node partition-coverage reports, and the namespace
// averages the coverage check and the analyzer both need.
func (s *Shell) collect(ctx context.Context) (*snapshot.Snapshot, map[string]map[string]partition.Report, map[string]partition.NamespaceAverages) {
	serviceStats := toPlainMap(cluster.InfoAll(ctx, s.cluster, func(ctx context.Context, n *node.Node) (map[string]string, error) {
		return n.Statistics(ctx)
	}))
	nsStatsEntity := flipNodeNamespace(cluster.InfoAll(ctx, s.cluster, func(ctx context.Context, n *node.Node) (map[string]map[string]string, error) {
		return n.AllNamespaceStatistics(ctx)
	}))
	partitionReplies := toPlainMap(cluster.InfoAll(ctx, s.cluster, func(ctx context.Context, n *node.Node) (string, error) {
		return n.PartitionInfo(ctx)
	}))
	versions := toPlainMap(cluster.InfoAll(ctx, s.cluster, func(ctx context.Context, n *node.Node) (string, error) {
		return n.Build(ctx)
	}))

	serviceConfig := toPlainMap(cluster.InfoAll(ctx, s.cluster, func(ctx context.Context, n *node.Node) (map[string]string, error) {
		return n.ServiceConfig(ctx)
	}))
	networkConfig := toPlainMap(cluster.InfoAll(ctx, s.cluster, func(ctx context.Context, n *node.Node) (map[string]string, error) {
		return n.NetworkConfig(ctx)
	}))
	nsConfigEntity := flipNodeNamespace(cluster.InfoAll(ctx, s.cluster, func(ctx context.Context, n *node.Node) (map[string]map[string]string, error) {
		return n.GetConfig(ctx, "namespace", "")
	}))
	setStatsEntity := flipNodeNamespace(cluster.InfoAll(ctx, s.cluster, func(ctx context.Context, n *node.Node) (map[string]map[string]string, error) {
		return n.SetStatistics(ctx)
	}))
	sindexStatsEntity := flipNodeNamespace(cluster.InfoAll(ctx, s.cluster, func(ctx context.Context, n *node.Node) (map[string]map[string]string, error) {
		return n.AllSindexStatistics(ctx)
	}))
	binStats := toPlainMap(cluster.InfoAll(ctx, s.cluster, func(ctx context.Context, n *node.Node) (map[string]map[string]string, error) {
		return n.BinStatistics(ctx)
	}))

	xdrStats := toPlainMap(cluster.InfoAll(ctx, s.cluster, func(ctx context.Context, n *node.Node) (map[string]string, error) {
		return n.XDRStatistics(ctx)
	}))
	xdrConfig := toPlainMap(cluster.InfoAll(ctx, s.cluster, func(ctx context.Context, n *node.Node) (map[string]string, error) {
		return n.XDRConfig(ctx)
	}))
	xdrBuild := toPlainMap(cluster.InfoAll(ctx, s.cluster, func(ctx context.Context, n *node.Node) (string, error) {
		return n.XDRBuild(ctx)
	}))
	dcStatsEntity := flipNodeNamespace(cluster.InfoAll(ctx, s.cluster, func(ctx context.Context, n *node.Node) (map[string]map[string]string, error) {
		return n.AllDCStatistics(ctx)
	}))
	dcConfigEntity := flipNodeNamespace(cluster.InfoAll(ctx, s.cluster, func(ctx context.Context, n *node.Node) (map[string]map[string]string, error) {
		return n.DCConfig(ctx)
	}))

	udf := toPlainMap(cluster.InfoAll(ctx, s.cluster, func(ctx context.Context, n *node.Node) (map[string]map[string]string, error) {
		return n.UDFList(ctx)
	}))

	sysStats := map[string]map[string]string{}
	if s.SSHUser != "" {
		sysStats = toPlainMap(cluster.InfoAll(ctx, s.cluster, func(ctx context.Context, n *node.Node) (map[string]string, error) {
			collector := sysstats.NewCollector(n.Host(), s.SSHUser, s.SSHPassword, s.SSHPort)
			return collector.Collect()
		}))
	}

	averages := make(map[string]partition.NamespaceAverages, len(nsStatsEntity))
	for ns, byNode := range nsStatsEntity {
		averages[ns] = partition.ComputeNamespaceAverages(byNode)
	}

	partReports := partition.Analyze(versions, partitionReplies, averages)

	registry := s.cluster.Nodes()
	nodeKeys := make([]string, 0, len(registry))
	for k := range registry {
		nodeKeys = append(nodeKeys, k)
	}

	in := snapshot.Input{
		ClusterName: s.clusterName(ctx),

		ServiceStatistics: serviceStats,
		ServiceConfig:     serviceConfig,

		NamespaceStatistics: nsStatsEntity,
		NamespaceConfig:     nsConfigEntity,
		SetStatistics:       setStatsEntity,
		BinStatistics:       binStats,
		SindexStatistics:    sindexStatsEntity,

		XDRStatistics: xdrStats,
		XDRConfig:     xdrConfig,
		DCStatistics:  dcStatsEntity,
		DCConfig:      dcConfigEntity,

		NetworkConfig: networkConfig,

		Build:    versions,
		XDRBuild: xdrBuild,
		UDF:      udf,

		SysStats: sysStats,
	}
	snap := snapshot.Assemble(nodeKeys, in, snapshot.NewBundleID())

	return snap, partReports, averages
}

// clusterName reads the first alive node's configured cluster-name, if
// any node is new enough to carry one. Older builds have no such field,
// in which case the snapshot falls back to its sentinel cluster name.
func (s *Shell) clusterName(ctx context.Context) string {
	for _, n := range s.cluster.AliveNodes() {
		stats, err := n.Statistics(ctx)
		if err != nil {
			continue
		}
		if name, ok := stats["cluster-name"]; ok && name != "" && name != "null" {
			return name
		}
	}
	return ""
}

func renderHealthReport(w io.Writer, report *health.Report) {
	fmt.Fprintf(w, "\nHealth Report for %s\n\n", dash(report.ClusterName))
	t := view.NewTable("CHECK", "STATUS", "MESSAGE").WithWriter(w)
	for _, result := range report.Results {
		t.Row(result.Check, formatHealthStatus(result.Status), result.Message)
	}
	t.Flush()
	fmt.Fprintf(w, "\nOverall Status: %s\n", formatHealthStatus(report.Overall))
}

func renderHealthResult(w io.Writer, result health.Result) {
	fmt.Fprintf(w, "\nHealth Check: %s\n", result.Check)
	fmt.Fprintf(w, "Status: %s\n", formatHealthStatus(result.Status))
	fmt.Fprintf(w, "Message: %s\n", result.Message)
	if result.Details != nil {
		fmt.Fprintf(w, "Details: %v\n", result.Details)
	}
}
