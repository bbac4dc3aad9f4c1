package node

import "testing"

// TestLatencyWeightedAggregate is scenario S5 from spec.md §8: histogram
// "read", namespace ns1 row (ops=100, >1ms=10%), namespace ns2 row
// (ops=300, >1ms=20%). Expected total row: ops=400, >1ms=17.50%.
func TestLatencyWeightedAggregate(t *testing.T) {
	reply := "{ns1}-read:10:00:00-GMT,ops/sec,>1ms;10:00:10,100,10.00;" +
		"{ns2}-read:10:00:00-GMT,ops/sec,>1ms;10:00:10,300,20.00;"

	data := parseLatency(reply)

	readHist, ok := data["read"]
	if !ok {
		t.Fatalf("expected 'read' histogram in result")
	}

	total, ok := readHist[LatencyKey{Histogram: "read", Scope: totalScope}]
	if !ok {
		t.Fatalf("expected total series")
	}
	if len(total.Rows) != 1 {
		t.Fatalf("expected 1 total row, got %d", len(total.Rows))
	}
	row := total.Rows[0]
	if row.OpsSec != 400 {
		t.Errorf("got ops=%v, want 400", row.OpsSec)
	}
	if len(row.Values) != 1 || row.Values[0] != 17.50 {
		t.Errorf("got values=%v, want [17.50]", row.Values)
	}
}

func TestLatencyPerNamespaceRowsPreserved(t *testing.T) {
	reply := "{ns1}-read:10:00:00-GMT,ops/sec,>1ms;10:00:10,100,10.00;"
	data := parseLatency(reply)

	ns1Series, ok := data["read"][LatencyKey{Histogram: "read", Scope: "ns1"}]
	if !ok {
		t.Fatalf("expected ns1 series")
	}
	if len(ns1Series.Rows) != 1 || ns1Series.Rows[0].OpsSec != 100 {
		t.Errorf("got %+v", ns1Series.Rows)
	}
}

func TestUpdateTotalLatencyZeroOpsRowDoesNotContribute(t *testing.T) {
	rows := []LatencyRow{{TimeSpan: "a->b", OpsSec: 100, Values: []float64{10}}}
	updated := updateTotalLatency(rows, LatencyRow{TimeSpan: "a->b", OpsSec: 0, Values: []float64{50}})
	if updated[0].OpsSec != 100 || updated[0].Values[0] != 10 {
		t.Errorf("zero-ops row should not change total: got %+v", updated[0])
	}
}

func TestUpdateTotalLatencyNewTimeSpanAppends(t *testing.T) {
	rows := []LatencyRow{{TimeSpan: "a->b", OpsSec: 100, Values: []float64{10}}}
	updated := updateTotalLatency(rows, LatencyRow{TimeSpan: "b->c", OpsSec: 50, Values: []float64{5}})
	if len(updated) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(updated))
	}
}

func TestBuildLatencyCommand(t *testing.T) {
	got := buildLatencyCommand(60, 120, 10)
	want := "latency:back=60;duration=120;slice=10"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildLatencyCommandNoOptions(t *testing.T) {
	got := buildLatencyCommand(-1, -1, -1)
	if got != "latency:" {
		t.Errorf("got %q, want %q", got, "latency:")
	}
}
