package partition

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aerocluster/asadm/pkg/util"
)

// row is one parsed partition-info line.
type row struct {
	Namespace string
	Partition int
	State     string
	Replica   int
	Records   int64
}

// requiredColumns names the five fields Analyze needs, in the order the
// headered format declares them.
var requiredColumns = []string{"namespace", "partition", "state", "replica", "records"}

// parsePartitionInfo parses one node's "partition-info" reply
// (semicolon-separated records, colon-delimited fields). The first
// record is a header naming columns when the server is new enough to
// send one; otherwise every record is positional, with the records
// column at index 8 for servers >= 3.6.1 and index 9 before that.
func parsePartitionInfo(reply, version string) ([]row, error) {
	records := strings.Split(reply, ";")

	var indices map[string]int
	var rows []row
	indexed := false

	for _, record := range records {
		record = strings.TrimSpace(record)
		if record == "" {
			continue
		}
		fields := strings.Split(record, ":")

		if !indexed {
			indexed = true
			if hdr, ok := headerIndices(fields); ok {
				indices = hdr
				continue // header record carries no data
			}
			indices = positionalIndices(version)
		}

		r, ok := buildRow(fields, indices)
		if !ok {
			continue
		}
		rows = append(rows, r)
	}

	if !indexed {
		return nil, fmt.Errorf("%w: empty partition-info reply", util.ErrInvalidResponse)
	}
	return rows, nil
}

// headerIndices reports the column positions if fields is a header
// record — one naming every column in requiredColumns.
func headerIndices(fields []string) (map[string]int, bool) {
	pos := make(map[string]int, len(fields))
	for i, f := range fields {
		pos[f] = i
	}
	for _, name := range requiredColumns {
		if _, ok := pos[name]; !ok {
			return nil, false
		}
	}
	return map[string]int{
		"namespace": pos["namespace"],
		"partition": pos["partition"],
		"state":     pos["state"],
		"replica":   pos["replica"],
		"records":   pos["records"],
	}, true
}

// positionalIndices returns the fixed column layout for servers that
// don't send a header record. The records column moved from index 9 to
// index 8 in server 3.6.1.
func positionalIndices(version string) map[string]int {
	recordsIdx := 9
	if versionAtLeast(version, "3.6.1") {
		recordsIdx = 8
	}
	return map[string]int{
		"namespace": 0,
		"partition": 1,
		"state":     2,
		"replica":   3,
		"records":   recordsIdx,
	}
}

func buildRow(fields []string, indices map[string]int) (row, bool) {
	maxIdx := 0
	for _, i := range indices {
		if i > maxIdx {
			maxIdx = i
		}
	}
	if len(fields) <= maxIdx {
		return row{}, false
	}

	pid, err := strconv.Atoi(strings.TrimSpace(fields[indices["partition"]]))
	if err != nil {
		return row{}, false
	}
	replica, err := strconv.Atoi(strings.TrimSpace(fields[indices["replica"]]))
	if err != nil {
		return row{}, false
	}
	records, err := strconv.ParseInt(strings.TrimSpace(fields[indices["records"]]), 10, 64)
	if err != nil {
		return row{}, false
	}

	return row{
		Namespace: strings.TrimSpace(fields[indices["namespace"]]),
		Partition: pid,
		State:     strings.TrimSpace(fields[indices["state"]]),
		Replica:   replica,
		Records:   records,
	}, true
}

// versionAtLeast compares dot-separated numeric version strings
// component-wise (e.g. "3.10.0" >= "3.6.1"), treating a missing
// trailing component as 0. Not a full semver comparator — this domain
// only ever compares server build strings of that shape.
func versionAtLeast(version, floor string) bool {
	v := versionComponents(version)
	f := versionComponents(floor)
	for i := 0; i < len(v) || i < len(f); i++ {
		var a, b int
		if i < len(v) {
			a = v[i]
		}
		if i < len(f) {
			b = f[i]
		}
		if a != b {
			return a > b
		}
	}
	return true
}

func versionComponents(s string) []int {
	parts := strings.Split(s, ".")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			n = 0
		}
		out = append(out, n)
	}
	return out
}
