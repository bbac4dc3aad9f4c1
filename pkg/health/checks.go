package health

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// statisticsOf returns a node's service-statistics dict from its
// assembled as_stat tree, or nil if the node never reported one.
func statisticsOf(in Input, nodeKey string) map[string]string {
	if in.Snapshot == nil {
		return nil
	}
	ns, ok := in.Snapshot.Nodes[nodeKey]
	if !ok {
		return nil
	}
	stats, _ := ns.AsStat["statistics"].(map[string]string)
	return stats
}

// namespaceConfigs walks every node's as_stat["namespace"] tree and
// returns, per namespace name, the set of distinct values observed for
// configKey across reporting nodes.
func namespaceConfigs(in Input, configKey string) map[string]map[string]bool {
	out := make(map[string]map[string]bool)
	if in.Snapshot == nil {
		return out
	}

	for _, nodeSnap := range in.Snapshot.Nodes {
		namespaces, ok := nodeSnap.AsStat["namespace"].(map[string]any)
		if !ok {
			continue
		}
		for name, raw := range namespaces {
			entry, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			svc, ok := entry["service"].(map[string]any)
			if !ok {
				continue
			}
			cfg, ok := svc["config"].(map[string]string)
			if !ok {
				continue
			}
			v, ok := cfg[configKey]
			if !ok || v == "" {
				continue
			}
			if out[name] == nil {
				out[name] = make(map[string]bool)
			}
			out[name][v] = true
		}
	}
	return out
}

// PrincipalCheck verifies every reporting node agrees on paxos_principal.
type PrincipalCheck struct{}

func (c *PrincipalCheck) Name() string { return "principal" }

func (c *PrincipalCheck) Run(in Input) Result {
	votes := make(map[string]int)
	reporting := 0

	if in.Snapshot != nil {
		for key := range in.Snapshot.Nodes {
			stats := statisticsOf(in, key)
			v, ok := stats["paxos_principal"]
			if !ok || v == "" {
				continue
			}
			reporting++
			votes[v]++
		}
	}

	if reporting == 0 {
		return Result{Check: c.Name(), Status: StatusUnknown, Message: "no node reported paxos_principal"}
	}

	best, bestCount := "", 0
	for v, n := range votes {
		if n > bestCount || (n == bestCount && v > best) {
			best, bestCount = v, n
		}
	}

	if bestCount == reporting {
		return Result{
			Check:   c.Name(),
			Status:  StatusOK,
			Message: fmt.Sprintf("all %d reporting nodes agree on principal %s", reporting, best),
		}
	}
	return Result{
		Check:   c.Name(),
		Status:  StatusCritical,
		Message: fmt.Sprintf("principal disagreement: %d of %d nodes report %s", bestCount, reporting, best),
		Details: votes,
	}
}

// ReplicationFactorCheck verifies every namespace's configured
// replication-factor is consistent across every node that reports it.
type ReplicationFactorCheck struct{}

func (c *ReplicationFactorCheck) Name() string { return "replication_factor" }

func (c *ReplicationFactorCheck) Run(in Input) Result {
	observed := namespaceConfigs(in, "replication-factor")
	if len(observed) == 0 {
		return Result{Check: c.Name(), Status: StatusUnknown, Message: "no namespace configuration reported"}
	}

	var mismatched []string
	for name, values := range observed {
		if len(values) > 1 {
			mismatched = append(mismatched, name)
		}
	}
	sort.Strings(mismatched)

	if len(mismatched) == 0 {
		return Result{
			Check:   c.Name(),
			Status:  StatusOK,
			Message: fmt.Sprintf("replication factor consistent across %d namespaces", len(observed)),
		}
	}
	return Result{
		Check:   c.Name(),
		Status:  StatusWarning,
		Message: fmt.Sprintf("replication factor disagreement in: %s", strings.Join(mismatched, ", ")),
		Details: mismatched,
	}
}

// PartitionCoverageCheck verifies invariant 3 from spec.md §8: for every
// namespace, total primary index across nodes is 4096, total secondary
// index is 4096*(R-1), and no node reports a non-empty missing_part.
type PartitionCoverageCheck struct{}

func (c *PartitionCoverageCheck) Name() string { return "partition_coverage" }

const totalPartitions = 4096

func (c *PartitionCoverageCheck) Run(in Input) Result {
	if len(in.PartitionReports) == 0 {
		return Result{Check: c.Name(), Status: StatusUnknown, Message: "no partition-info collected"}
	}

	type totals struct {
		pri, sec int
	}
	byNamespace := make(map[string]*totals)
	var missingOn []string

	for nodeKey, nsReports := range in.PartitionReports {
		for ns, r := range nsReports {
			t := byNamespace[ns]
			if t == nil {
				t = &totals{}
				byNamespace[ns] = t
			}
			t.pri += r.PriIndex
			t.sec += r.SecIndex
			if r.MissingPart != "" {
				missingOn = append(missingOn, nodeKey+"/"+ns)
			}
		}
	}
	sort.Strings(missingOn)

	var bad []string
	for ns, t := range byNamespace {
		avg, ok := in.NamespaceAverages[ns]
		if !ok {
			continue
		}
		wantSec := totalPartitions * (avg.ReplFactor - 1)
		if t.pri != totalPartitions || t.sec != wantSec {
			bad = append(bad, fmt.Sprintf("%s (pri=%d want %d, sec=%d want %d)", ns, t.pri, totalPartitions, t.sec, wantSec))
		}
	}
	sort.Strings(bad)

	if len(missingOn) == 0 && len(bad) == 0 {
		return Result{
			Check:   c.Name(),
			Status:  StatusOK,
			Message: fmt.Sprintf("%d namespaces fully covered", len(byNamespace)),
		}
	}

	details := map[string]any{}
	if len(missingOn) > 0 {
		details["missing_part"] = missingOn
	}
	if len(bad) > 0 {
		details["index_totals"] = bad
	}
	return Result{
		Check:   c.Name(),
		Status:  StatusCritical,
		Message: fmt.Sprintf("%d node/namespace pairs missing coverage, %d namespaces with bad index totals", len(missingOn), len(bad)),
		Details: details,
	}
}

// ClockSkewCheck flags nodes whose reported clock skew from the cluster
// exceeds a fixed threshold. cluster_clock_skew_ms is reported in
// milliseconds by nodes new enough to track cluster-clock.
type ClockSkewCheck struct{}

func (c *ClockSkewCheck) Name() string { return "clock_skew" }

const (
	clockSkewWarnMS     = 100
	clockSkewCriticalMS = 1000
)

func (c *ClockSkewCheck) Run(in Input) Result {
	if in.Snapshot == nil {
		return Result{Check: c.Name(), Status: StatusUnknown, Message: "no snapshot to evaluate"}
	}

	var worst int64
	var worstNode string
	reporting := 0

	for key := range in.Snapshot.Nodes {
		stats := statisticsOf(in, key)
		raw, ok := stats["cluster_clock_skew_ms"]
		if !ok || raw == "" {
			continue
		}
		skew, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		reporting++
		if skew < 0 {
			skew = -skew
		}
		if skew > worst {
			worst, worstNode = skew, key
		}
	}

	if reporting == 0 {
		return Result{Check: c.Name(), Status: StatusUnknown, Message: "no node reported cluster_clock_skew_ms"}
	}

	switch {
	case worst >= clockSkewCriticalMS:
		return Result{
			Check:   c.Name(),
			Status:  StatusCritical,
			Message: fmt.Sprintf("node %s clock skew %dms exceeds %dms", worstNode, worst, clockSkewCriticalMS),
		}
	case worst >= clockSkewWarnMS:
		return Result{
			Check:   c.Name(),
			Status:  StatusWarning,
			Message: fmt.Sprintf("node %s clock skew %dms exceeds %dms", worstNode, worst, clockSkewWarnMS),
		}
	default:
		return Result{
			Check:   c.Name(),
			Status:  StatusOK,
			Message: fmt.Sprintf("max clock skew %dms across %d nodes", worst, reporting),
		}
	}
}
