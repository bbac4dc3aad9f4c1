package partition

import (
	"strconv"
	"strings"
	"testing"
)

func buildPositionalRecord(ns string, pid int, state string, replica int, recordsIdx, records int) string {
	fields := make([]string, recordsIdx+1)
	fields[0] = ns
	fields[1] = strconv.Itoa(pid)
	fields[2] = state
	fields[3] = strconv.Itoa(replica)
	for i := 4; i < len(fields); i++ {
		fields[i] = "0"
	}
	fields[recordsIdx] = strconv.Itoa(records)
	return strings.Join(fields, ":")
}

// TestMissingPartitionDetection is scenario S3 from spec.md §8: two
// nodes, repl_factor=2, 4096 partitions; node A reports replica 0 for
// every pid and replica 1 for pids 0..2047, node B reports replica 1 for
// pids 2048..4095. Expected: both nodes report empty missing_part, total
// primary 4096, total secondary 4096.
func TestMissingPartitionDetection(t *testing.T) {
	var aRecords, bRecords []string
	for pid := 0; pid < pidRange; pid++ {
		aRecords = append(aRecords, buildPositionalRecord("ns1", pid, "S", 0, 8, 1000))
		if pid < 2048 {
			aRecords = append(aRecords, buildPositionalRecord("ns1", pid, "S", 1, 8, 1000))
		} else {
			bRecords = append(bRecords, buildPositionalRecord("ns1", pid, "S", 1, 8, 1000))
		}
	}
	replies := map[string]string{
		"A": strings.Join(aRecords, ";"),
		"B": strings.Join(bRecords, ";"),
	}
	versions := map[string]string{"A": "4.0.0", "B": "4.0.0"}
	nsAverages := map[string]NamespaceAverages{
		"ns1": {AvgMaster: 1000, AvgReplica: 1000, ReplFactor: 2, DiffMaster: 1024, DiffReplica: 1024},
	}

	reports := Analyze(versions, replies, nsAverages)

	a := reports["A"]["ns1"]
	b := reports["B"]["ns1"]
	if a.MissingPart != "" {
		t.Errorf("node A missing_part = %q, want empty", a.MissingPart)
	}
	if b.MissingPart != "" {
		t.Errorf("node B missing_part = %q, want empty", b.MissingPart)
	}
	if a.PriIndex+b.PriIndex != 4096 {
		t.Errorf("total primary = %d, want 4096", a.PriIndex+b.PriIndex)
	}
	if a.SecIndex+b.SecIndex != 4096 {
		t.Errorf("total secondary = %d, want 4096", a.SecIndex+b.SecIndex)
	}
}

// TestMasterDiscrepancy is scenario S4: namespace ns1, avg_master =
// 1,000,000, diff_master = 10,000; node X has pid 42 with 1,200,000
// objects at replica 0. Expected: master_disc_part on X contains 42 and
// no other pid.
func TestMasterDiscrepancy(t *testing.T) {
	reply := buildPositionalRecord("ns1", 42, "S", 0, 8, 1200000)
	replies := map[string]string{"X": reply}
	versions := map[string]string{"X": "4.0.0"}
	nsAverages := map[string]NamespaceAverages{
		"ns1": {AvgMaster: 1000000, DiffMaster: 10000, ReplFactor: 2, AvgReplica: 1000000, DiffReplica: 10000},
	}

	reports := Analyze(versions, replies, nsAverages)
	x := reports["X"]["ns1"]
	if len(x.MasterDiscPart) != 1 || x.MasterDiscPart[0] != 42 {
		t.Errorf("got master_disc_part %v, want [42]", x.MasterDiscPart)
	}
}

func TestHeaderedFormatParsing(t *testing.T) {
	reply := "namespace:partition:state:replica:records;" +
		buildHeaderedRecord("ns1", 7, "S", 0, 555)
	rows, err := parsePartitionInfo(reply, "4.0.0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	r := rows[0]
	if r.Namespace != "ns1" || r.Partition != 7 || r.State != "S" || r.Replica != 0 || r.Records != 555 {
		t.Errorf("got %+v", r)
	}
}

func buildHeaderedRecord(ns string, pid int, state string, replica, records int) string {
	return ns + ":" + strconv.Itoa(pid) + ":" + state + ":" + strconv.Itoa(replica) + ":" + strconv.Itoa(records)
}

func TestPositionalRecordsIndexPre361(t *testing.T) {
	reply := buildPositionalRecord("ns1", 3, "S", 0, 9, 42)
	rows, err := parsePartitionInfo(reply, "3.5.9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].Records != 42 {
		t.Errorf("got %+v", rows)
	}
}

func TestPositionalRecordsIndexAtLeast361(t *testing.T) {
	reply := buildPositionalRecord("ns1", 3, "S", 0, 8, 42)
	rows, err := parsePartitionInfo(reply, "3.6.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].Records != 42 {
		t.Errorf("got %+v", rows)
	}
}

func TestComputeNamespaceAverages(t *testing.T) {
	perNode := map[string]map[string]string{
		"A": {"master-objects": "2048000", "prole-objects": "2048000", "repl-factor": "2"},
		"B": {"master-objects": "2048000", "prole-objects": "2048000", "repl-factor": "2"},
	}
	avg := ComputeNamespaceAverages(perNode)
	if avg.AvgMaster != 1000.0 {
		t.Errorf("got avg_master %v, want 1000", avg.AvgMaster)
	}
	if avg.ReplFactor != 2 {
		t.Errorf("got repl_factor %d, want 2", avg.ReplFactor)
	}
	if avg.DiffMaster != minDiscrepancyTolerance {
		t.Errorf("got diff_master %v, want floor %v", avg.DiffMaster, minDiscrepancyTolerance)
	}
}
