// Package partition reconstructs per-namespace replication correctness
// from raw per-node partition-info replies: how many partitions each node
// holds as primary/secondary, which partitions have an object-count
// discrepancy from the namespace average, and which (partition, replica)
// slots no node reported at all.
package partition

import (
	"sort"
	"strconv"
	"strings"

	"github.com/aerocluster/asadm/pkg/util"
)

// pidRange is the fixed partition-id space every namespace is divided
// into.
const pidRange = 4096

// minDiscrepancyTolerance is the floor applied to the computed
// object-count tolerance, regardless of how small the namespace average
// is.
const minDiscrepancyTolerance = 1024

// NamespaceAverages holds the cluster-wide aggregates a namespace's
// discrepancy tolerance is computed from.
type NamespaceAverages struct {
	AvgMaster   float64
	AvgReplica  float64
	ReplFactor  int
	DiffMaster  float64
	DiffReplica float64
}

// ComputeNamespaceAverages aggregates per-node namespace statistics
// (fields "master-objects"/"master_objects", "prole-objects"/
// "prole_objects", "repl-factor") into the averages and tolerances used
// by Analyze. perNode maps NodeKey to that node's namespace-statistics
// dict; entries for nodes that failed to report must already be omitted
// by the caller.
func ComputeNamespaceAverages(perNode map[string]map[string]string) NamespaceAverages {
	var masterTotal, replicaTotal int64
	var replFactor int

	for _, stats := range perNode {
		masterTotal += firstIntField(stats, "master-objects", "master_objects")
		replicaTotal += firstIntField(stats, "prole-objects", "prole_objects")
		if rf := int(firstIntField(stats, "repl-factor", "repl_factor")); rf > replFactor {
			replFactor = rf
		}
	}

	avgMaster := float64(masterTotal) / pidRange
	avgReplica := float64(replicaTotal) / pidRange

	return NamespaceAverages{
		AvgMaster:   avgMaster,
		AvgReplica:  avgReplica,
		ReplFactor:  replFactor,
		DiffMaster:  tolerance(avgMaster),
		DiffReplica: tolerance(avgReplica),
	}
}

func tolerance(avg float64) float64 {
	d := avg * 0.01
	if d < minDiscrepancyTolerance {
		return minDiscrepancyTolerance
	}
	return d
}

func firstIntField(stats map[string]string, keys ...string) int64 {
	for _, k := range keys {
		if v, ok := stats[k]; ok {
			n, err := strconv.ParseInt(v, 10, 64)
			if err == nil {
				return n
			}
		}
	}
	return 0
}

// Report is one (node, namespace) partition-coverage record.
type Report struct {
	PriIndex         int
	SecIndex         int
	MasterDiscPart   []int
	ReplicaDiscPart  []int
	MissingPart      string // "pid:S:ridx,…", ascending by (pid, ridx)
}

// replicaSlot identifies one (partition, replica-index) coverage slot.
type replicaSlot struct {
	pid   int
	ridx  int
}

// Analyze parses every node's partition-info reply and returns a
// (node, namespace) report for each. nodeVersions supplies each node's
// server build (used only to pick the positional records-column index);
// nsAverages supplies the discrepancy tolerances, keyed by namespace —
// compute it with ComputeNamespaceAverages first.
func Analyze(nodeVersions map[string]string, partitionReplies map[string]string, nsAverages map[string]NamespaceAverages) map[string]map[string]Report {
	out := make(map[string]map[string]Report)
	missing := make(map[string]map[replicaSlot]bool) // namespace -> slot -> still missing

	type accum struct {
		priIndex, secIndex           int
		masterDisc, replicaDisc      []int
	}
	perNodeNS := make(map[string]map[string]*accum)

	for nodeKey, reply := range partitionReplies {
		rows, err := parsePartitionInfo(reply, nodeVersions[nodeKey])
		if err != nil {
			continue
		}
		nsAccum := make(map[string]*accum)
		perNodeNS[nodeKey] = nsAccum

		for _, row := range rows {
			if row.Partition < 0 || row.Partition >= pidRange {
				util.WithNode(nodeKey).Warnf("partition-info: ignoring out-of-range partition id %d", row.Partition)
				continue
			}
			if row.State != "S" {
				continue
			}
			avg, ok := nsAverages[row.Namespace]
			if !ok {
				continue
			}

			if missing[row.Namespace] == nil {
				missing[row.Namespace] = make(map[replicaSlot]bool, pidRange*avg.ReplFactor)
				for pid := 0; pid < pidRange; pid++ {
					for r := 0; r < avg.ReplFactor; r++ {
						missing[row.Namespace][replicaSlot{pid, r}] = true
					}
				}
			}

			a := nsAccum[row.Namespace]
			if a == nil {
				a = &accum{}
				nsAccum[row.Namespace] = a
			}

			switch {
			case row.Replica == 0:
				a.priIndex++
				if avg.AvgMaster != 0 || row.Records != 0 {
					if diffExceeds(avg.AvgMaster, float64(row.Records), avg.DiffMaster) {
						a.masterDisc = append(a.masterDisc, row.Partition)
					}
				}
			case row.Replica > 0 && row.Replica < avg.ReplFactor:
				a.secIndex++
				if avg.AvgReplica != 0 || row.Records != 0 {
					if diffExceeds(avg.AvgReplica, float64(row.Records), avg.DiffReplica) {
						a.replicaDisc = append(a.replicaDisc, row.Partition)
					}
				}
			}

			delete(missing[row.Namespace], replicaSlot{row.Partition, row.Replica})
		}
	}

	missingPartStrings := make(map[string]string, len(missing))
	for ns, slots := range missing {
		remaining := make([]replicaSlot, 0, len(slots))
		for s := range slots {
			remaining = append(remaining, s)
		}
		sort.Slice(remaining, func(i, j int) bool {
			if remaining[i].pid != remaining[j].pid {
				return remaining[i].pid < remaining[j].pid
			}
			return remaining[i].ridx < remaining[j].ridx
		})
		var sb strings.Builder
		for i, s := range remaining {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Itoa(s.pid))
			sb.WriteString(":S:")
			sb.WriteString(strconv.Itoa(s.ridx))
		}
		missingPartStrings[ns] = sb.String()
	}

	for nodeKey, nsAccum := range perNodeNS {
		nodeReports := make(map[string]Report, len(nsAccum))
		for ns, a := range nsAccum {
			sort.Ints(a.masterDisc)
			sort.Ints(a.replicaDisc)
			nodeReports[ns] = Report{
				PriIndex:        a.priIndex,
				SecIndex:        a.secIndex,
				MasterDiscPart:  a.masterDisc,
				ReplicaDiscPart: a.replicaDisc,
				MissingPart:     missingPartStrings[ns],
			}
		}
		out[nodeKey] = nodeReports
	}
	return out
}

func diffExceeds(expected, actual, diff float64) bool {
	d := expected - actual
	if d < 0 {
		d = -d
	}
	return d > diff
}
