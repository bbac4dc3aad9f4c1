// Package health evaluates cluster-wide health rules over an assembled
// snapshot, producing a worst-status-wins report.
package health

import (
	"github.com/aerocluster/asadm/pkg/partition"
	"github.com/aerocluster/asadm/pkg/snapshot"
)

// Status is the severity of one check's outcome.
type Status string

const (
	StatusOK       Status = "ok"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
	StatusUnknown  Status = "unknown"
)

var statusRank = map[Status]int{
	StatusOK:       0,
	StatusUnknown:  1,
	StatusWarning:  2,
	StatusCritical: 3,
}

func worseOf(a, b Status) Status {
	if statusRank[b] > statusRank[a] {
		return b
	}
	return a
}

// Result is one check's outcome.
type Result struct {
	Check   string `json:"check"`
	Status  Status `json:"status"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Report is every check's outcome for one cluster, plus the aggregate.
type Report struct {
	ClusterName string   `json:"cluster_name"`
	Overall     Status   `json:"overall"`
	Results     []Result `json:"results"`
}

// Input bundles the assembled snapshot with the partition-analysis
// results a coverage check needs — partition reports are produced by
// pkg/partition.Analyze independently of snapshot assembly, since a
// snapshot's "as_stat" tree has no partition-info section of its own.
type Input struct {
	Snapshot          *snapshot.Snapshot
	PartitionReports  map[string]map[string]partition.Report
	NamespaceAverages map[string]partition.NamespaceAverages
}

// Check is one health rule.
type Check interface {
	Name() string
	Run(in Input) Result
}

// Checker runs an ordered set of checks and aggregates their results.
type Checker struct {
	checks []Check
}

// NewChecker builds a Checker. With no checks given, it runs the default
// set: principal agreement, replication-factor consistency, partition
// coverage, clock skew.
func NewChecker(checks ...Check) *Checker {
	if len(checks) == 0 {
		checks = []Check{
			&PrincipalCheck{},
			&ReplicationFactorCheck{},
			&PartitionCoverageCheck{},
			&ClockSkewCheck{},
		}
	}
	return &Checker{checks: checks}
}

// Run executes every check against in and returns the aggregate report.
func (c *Checker) Run(in Input) *Report {
	clusterName := ""
	if in.Snapshot != nil {
		clusterName = in.Snapshot.ClusterName
	}

	report := &Report{
		ClusterName: clusterName,
		Overall:     StatusOK,
		Results:     make([]Result, 0, len(c.checks)),
	}

	for _, check := range c.checks {
		result := check.Run(in)
		report.Results = append(report.Results, result)
		report.Overall = worseOf(report.Overall, result.Status)
	}

	return report
}

// RunCheck runs a single named check by name, for `health <check>` style
// invocations that don't want the full default set.
func (c *Checker) RunCheck(in Input, name string) (*Result, bool) {
	for _, check := range c.checks {
		if check.Name() == name {
			result := check.Run(in)
			return &result, true
		}
	}
	return nil, false
}
