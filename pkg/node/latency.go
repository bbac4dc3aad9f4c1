package node

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// totalScope is the sentinel scope name for the cross-namespace aggregate
// row of a latency histogram (spec.md §4.3 "scope is either a namespace
// name or a sentinel total").
const totalScope = "total"

// LatencyRow is one time-bucket row of a latency histogram: ops/sec plus
// the percentile columns named by Columns (e.g. ">1ms", ">8ms", ">64ms").
type LatencyRow struct {
	TimeSpan string
	OpsSec   float64
	Values   []float64 // parallel to Columns
}

// LatencySeries is one (histogram, scope) series: its column names and
// its rows, keyed and ordered by TimeSpan as first observed.
type LatencySeries struct {
	Columns []string
	Rows    []LatencyRow
}

// LatencyKey identifies one series within a Latency() result: a
// histogram name plus the namespace scope ("total" for the aggregate).
type LatencyKey struct {
	Histogram string
	Scope     string
}

var nsHistPattern = regexp.MustCompile(`\{([A-Za-z_\d-]+)\}-([A-Za-z_-]+)`)

// Latency parses the paged latency report (spec.md §4.3/§4.3.1) into
// {hist_name -> {(scope, kind) -> series}}. For every histogram, the
// total row is the weighted average of namespace rows, weighted by
// ops/sec.
func (n *Node) Latency(ctx context.Context, back, duration, slice int) (map[string]map[LatencyKey]*LatencySeries, error) {
	cmd := buildLatencyCommand(back, duration, slice)
	reply, err := n.call(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return parseLatency(reply), nil
}

func buildLatencyCommand(back, duration, slice int) string {
	var b strings.Builder
	b.WriteString("latency:")
	if back >= 0 {
		fmt.Fprintf(&b, "back=%d;", back)
	}
	if duration >= 0 {
		fmt.Fprintf(&b, "duration=%d;", duration)
	}
	if slice >= 0 {
		fmt.Fprintf(&b, "slice=%d", slice)
	}
	return b.String()
}

// parseLatency implements the §4.3/§4.3.1 record format: a stream of
// either a header record ("{ns}-hist:start-GMT,col1,col2,…") or a data
// record ("end-GMT,ops,val1,val2,…"), sharing the most recent header's
// column names and namespace until the next header appears.
func parseLatency(reply string) map[string]map[LatencyKey]*LatencySeries {
	data := make(map[string]map[LatencyKey]*LatencySeries)

	var histName, ns, startTime string
	var columns []string

	records := strings.Split(reply, ";")
	for i := 0; i < len(records); i++ {
		record := records[i]
		if record == "" {
			continue
		}
		fields := strings.Split(record, ",")
		if len(fields) < 2 {
			continue
		}

		head := fields[0]
		sepIdx := strings.Index(head, ":")
		if sepIdx < 0 {
			continue
		}
		s1, s2 := head[:sepIdx], head[sepIdx+1:]

		if _, err := strconv.Atoi(s1); err != nil {
			// Header record: s1 is "{ns}-hist" or bare "hist".
			if m := nsHistPattern.FindStringSubmatch(s1); m != nil {
				ns = m[1]
				histName = m[2]
			} else {
				ns = ""
				histName = s1
			}
			// fields[1] is always the literal "ops/sec" column name;
			// Columns holds only the percentile column names, parallel to
			// LatencyRow.Values (OpsSec is tracked on the row separately).
			if len(fields) > 2 {
				columns = append([]string{}, fields[2:]...)
			} else {
				columns = nil
			}
			startTime = strings.TrimSuffix(s2, "-GMT")
			continue
		}

		if histName == "" || startTime == "" {
			continue
		}

		endTime := strings.TrimSuffix(head, "-GMT")
		values := make([]float64, 0, len(fields)-1)
		for _, v := range fields[1:] {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				values = nil
				break
			}
			values = append(values, f)
		}
		if values == nil || len(values) == 0 {
			startTime = endTime
			continue
		}

		row := LatencyRow{
			TimeSpan: fmt.Sprintf("%s->%s", startTime, endTime),
			OpsSec:   values[0],
			Values:   values[1:],
		}

		if _, ok := data[histName]; !ok {
			data[histName] = make(map[LatencyKey]*LatencySeries)
		}

		if ns != "" {
			key := LatencyKey{Histogram: histName, Scope: ns}
			series, ok := data[histName][key]
			if !ok {
				series = &LatencySeries{Columns: columns}
				data[histName][key] = series
			}
			series.Rows = append(series.Rows, row)
		}

		totalKey := LatencyKey{Histogram: histName, Scope: totalScope}
		totalSeries, ok := data[histName][totalKey]
		if !ok {
			totalSeries = &LatencySeries{Columns: columns}
			data[histName][totalKey] = totalSeries
		}
		totalSeries.Rows = updateTotalLatency(totalSeries.Rows, row)

		startTime = endTime
	}

	return data
}

// updateTotalLatency folds row into rows, matching by TimeSpan and
// combining percentile columns as a weighted average by ops/sec (spec.md
// §4.3.1):
//
//	new_total_pi = ((old_sum*old_pi) + (ops_sec*pi))*100/(old_sum+ops_sec)/100
//	new_sum = old_sum + ops_sec
//
// A zero-ops row does not contribute (division by zero is avoided by
// skipping the update entirely, leaving the existing total row intact).
func updateTotalLatency(rows []LatencyRow, row LatencyRow) []LatencyRow {
	for i := range rows {
		if rows[i].TimeSpan != row.TimeSpan {
			continue
		}
		if row.OpsSec <= 0 {
			return rows
		}
		oldSum := rows[i].OpsSec
		newSum := row.OpsSec
		combined := make([]float64, len(rows[i].Values))
		for j := range rows[i].Values {
			var pj float64
			if j < len(row.Values) {
				pj = row.Values[j]
			}
			oldT := oldSum * rows[i].Values[j] / 100.0
			newT := newSum * pj / 100.0
			combined[j] = round2(((oldT + newT) * 100) / (oldSum + newSum))
		}
		rows[i].Values = combined
		rows[i].OpsSec = round2(oldSum + newSum)
		return rows
	}
	return append(rows, row)
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
