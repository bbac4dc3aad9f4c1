// Package snapshot assembles a cluster-wide point-in-time capture of
// statistics, config, and metadata into canonical JSON, suitable for
// offline health evaluation or archival.
package snapshot

import (
	"encoding/json"

	"github.com/google/uuid"
)

// sentinelClusterName is used when no node reports a cluster-name field.
const sentinelClusterName = "null"

// NodeSnapshot is one node's captured view: its own statistics/config
// tree, plus the raw system-stats sidecar if one was collected.
type NodeSnapshot struct {
	AsStat  map[string]any    `json:"as_stat"`
	SysStat map[string]string `json:"sys_stat"`
}

// Snapshot is the assembled, serializable result of one collection run.
// It is built once and never mutated afterward.
type Snapshot struct {
	BundleID    string                  `json:"bundle_id"`
	ClusterName string                  `json:"-"`
	Nodes       map[string]NodeSnapshot `json:"-"`
}

// MarshalJSON wraps Nodes under the discovered cluster name, per
// spec.md §4.6, alongside the bundle id.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	clusterName := s.ClusterName
	if clusterName == "" {
		clusterName = sentinelClusterName
	}
	return json.Marshal(struct {
		BundleID string                             `json:"bundle_id"`
		Clusters map[string]map[string]NodeSnapshot `json:"clusters"`
	}{
		BundleID: s.BundleID,
		Clusters: map[string]map[string]NodeSnapshot{clusterName: s.Nodes},
	})
}

// Encode renders the snapshot as 4-space indented canonical JSON.
func (s *Snapshot) Encode() ([]byte, error) {
	return json.MarshalIndent(s, "", "    ")
}

// NewBundleID generates a fresh per-invocation bundle identifier.
func NewBundleID() string {
	return uuid.NewString()
}
