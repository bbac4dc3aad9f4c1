package health

import (
	"testing"

	"github.com/aerocluster/asadm/pkg/partition"
	"github.com/aerocluster/asadm/pkg/snapshot"
)

func snapshotWithStatistics(byNode map[string]map[string]string) *snapshot.Snapshot {
	in := snapshot.Input{ServiceStatistics: byNode}
	keys := make([]string, 0, len(byNode))
	for k := range byNode {
		keys = append(keys, k)
	}
	return snapshot.Assemble(keys, in, "bundle-test")
}

func TestPrincipalCheckAgreement(t *testing.T) {
	snap := snapshotWithStatistics(map[string]map[string]string{
		"A": {"paxos_principal": "ABCD"},
		"B": {"paxos_principal": "ABCD"},
	})
	result := (&PrincipalCheck{}).Run(Input{Snapshot: snap})
	if result.Status != StatusOK {
		t.Errorf("status = %v, want ok: %s", result.Status, result.Message)
	}
}

func TestPrincipalCheckDisagreement(t *testing.T) {
	snap := snapshotWithStatistics(map[string]map[string]string{
		"A": {"paxos_principal": "ABCD"},
		"B": {"paxos_principal": "FFFF"},
	})
	result := (&PrincipalCheck{}).Run(Input{Snapshot: snap})
	if result.Status != StatusCritical {
		t.Errorf("status = %v, want critical", result.Status)
	}
}

func TestPrincipalCheckUnknownWhenNoneReport(t *testing.T) {
	snap := snapshotWithStatistics(map[string]map[string]string{"A": {}})
	result := (&PrincipalCheck{}).Run(Input{Snapshot: snap})
	if result.Status != StatusUnknown {
		t.Errorf("status = %v, want unknown", result.Status)
	}
}

func TestReplicationFactorCheckConsistent(t *testing.T) {
	in := snapshot.Input{
		NamespaceConfig: map[string]map[string]map[string]string{
			"test": {
				"A": {"replication-factor": "2"},
				"B": {"replication-factor": "2"},
			},
		},
	}
	snap := snapshot.Assemble([]string{"A", "B"}, in, "bundle")
	result := (&ReplicationFactorCheck{}).Run(Input{Snapshot: snap})
	if result.Status != StatusOK {
		t.Errorf("status = %v, want ok: %s", result.Status, result.Message)
	}
}

func TestReplicationFactorCheckMismatch(t *testing.T) {
	in := snapshot.Input{
		NamespaceConfig: map[string]map[string]map[string]string{
			"test": {
				"A": {"replication-factor": "2"},
				"B": {"replication-factor": "3"},
			},
		},
	}
	snap := snapshot.Assemble([]string{"A", "B"}, in, "bundle")
	result := (&ReplicationFactorCheck{}).Run(Input{Snapshot: snap})
	if result.Status != StatusWarning {
		t.Errorf("status = %v, want warning", result.Status)
	}
}

func TestPartitionCoverageCheckHealthy(t *testing.T) {
	reports := map[string]map[string]partition.Report{
		"A": {"test": {PriIndex: 4096, SecIndex: 4096, MissingPart: ""}},
		"B": {"test": {PriIndex: 0, SecIndex: 0, MissingPart: ""}},
	}
	averages := map[string]partition.NamespaceAverages{"test": {ReplFactor: 2}}
	result := (&PartitionCoverageCheck{}).Run(Input{PartitionReports: reports, NamespaceAverages: averages})
	if result.Status != StatusOK {
		t.Errorf("status = %v, want ok: %s", result.Status, result.Message)
	}
}

func TestPartitionCoverageCheckMissingPart(t *testing.T) {
	reports := map[string]map[string]partition.Report{
		"A": {"test": {PriIndex: 4096, SecIndex: 4096, MissingPart: "17:S:1"}},
	}
	averages := map[string]partition.NamespaceAverages{"test": {ReplFactor: 2}}
	result := (&PartitionCoverageCheck{}).Run(Input{PartitionReports: reports, NamespaceAverages: averages})
	if result.Status != StatusCritical {
		t.Errorf("status = %v, want critical", result.Status)
	}
}

func TestPartitionCoverageCheckBadTotals(t *testing.T) {
	reports := map[string]map[string]partition.Report{
		"A": {"test": {PriIndex: 4000, SecIndex: 4096, MissingPart: ""}},
	}
	averages := map[string]partition.NamespaceAverages{"test": {ReplFactor: 2}}
	result := (&PartitionCoverageCheck{}).Run(Input{PartitionReports: reports, NamespaceAverages: averages})
	if result.Status != StatusCritical {
		t.Errorf("status = %v, want critical", result.Status)
	}
}

func TestClockSkewCheckWithinTolerance(t *testing.T) {
	snap := snapshotWithStatistics(map[string]map[string]string{
		"A": {"cluster_clock_skew_ms": "5"},
	})
	result := (&ClockSkewCheck{}).Run(Input{Snapshot: snap})
	if result.Status != StatusOK {
		t.Errorf("status = %v, want ok: %s", result.Status, result.Message)
	}
}

func TestClockSkewCheckCritical(t *testing.T) {
	snap := snapshotWithStatistics(map[string]map[string]string{
		"A": {"cluster_clock_skew_ms": "5000"},
	})
	result := (&ClockSkewCheck{}).Run(Input{Snapshot: snap})
	if result.Status != StatusCritical {
		t.Errorf("status = %v, want critical", result.Status)
	}
}

func TestCheckerRunAggregatesWorstStatus(t *testing.T) {
	snap := snapshotWithStatistics(map[string]map[string]string{
		"A": {"paxos_principal": "AAAA", "cluster_clock_skew_ms": "5000"},
		"B": {"paxos_principal": "AAAA", "cluster_clock_skew_ms": "1"},
	})
	checker := NewChecker(&PrincipalCheck{}, &ClockSkewCheck{})
	report := checker.Run(Input{Snapshot: snap})
	if report.Overall != StatusCritical {
		t.Errorf("overall = %v, want critical", report.Overall)
	}
	if len(report.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(report.Results))
	}
}

func TestCheckerRunCheckByName(t *testing.T) {
	snap := snapshotWithStatistics(map[string]map[string]string{"A": {"paxos_principal": "AAAA"}})
	checker := NewChecker()
	result, ok := checker.RunCheck(Input{Snapshot: snap}, "principal")
	if !ok {
		t.Fatalf("RunCheck did not find principal check")
	}
	if result.Status != StatusOK {
		t.Errorf("status = %v, want ok", result.Status)
	}

	if _, ok := checker.RunCheck(Input{Snapshot: snap}, "nonexistent"); ok {
		t.Errorf("RunCheck found a check that should not exist")
	}
}
