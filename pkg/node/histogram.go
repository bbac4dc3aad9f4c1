package node

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// HistogramData is one namespace's parsed hist-dump reply.
type HistogramData struct {
	Histogram string
	Width     int
	Data      []int64
}

// Histogram parses "hist-dump:ns=…;hist=…" for every namespace this node
// reports, skipping any namespace whose dump fails or is malformed.
func (n *Node) Histogram(ctx context.Context, histogram string) (map[string]HistogramData, error) {
	namespaces, err := n.Namespaces(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]HistogramData)
	for _, ns := range namespaces {
		reply, err := n.call(ctx, fmt.Sprintf("hist-dump:ns=%s;hist=%s", ns, histogram))
		if err != nil {
			continue
		}
		hd, ok := parseHistogramDump(reply, histogram)
		if !ok {
			continue
		}
		out[ns] = hd
	}
	return out, nil
}

// parseHistogramDump parses "ns,hist,width,b0,b1,…;" — the leading ns and
// hist fields are positional and discarded; any trailing ";"-delimited
// junk on the last bucket is stripped.
func parseHistogramDump(reply, histogram string) (HistogramData, bool) {
	fields := strings.Split(reply, ",")
	if len(fields) < 3 {
		return HistogramData{}, false
	}
	fields = fields[2:] // drop ns, hist name

	width, err := strconv.Atoi(fields[0])
	if err != nil {
		return HistogramData{}, false
	}
	buckets := fields[1:]
	if len(buckets) == 0 {
		return HistogramData{}, false
	}
	buckets[len(buckets)-1] = strings.SplitN(buckets[len(buckets)-1], ";", 2)[0]

	data := make([]int64, 0, len(buckets))
	for _, b := range buckets {
		v, err := strconv.ParseInt(strings.TrimSpace(b), 10, 64)
		if err != nil {
			return HistogramData{}, false
		}
		data = append(data, v)
	}

	return HistogramData{Histogram: histogram, Width: width, Data: data}, true
}
