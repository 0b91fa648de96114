// Package metrics summarizes a graph snapshot for monitoring consumers.
// Pure read access; no core logic.
package metrics

import (
	"github.com/rotalabs/rotalabs-graph/internal/trustgraph"
)

// GraphMetrics is a point-in-time summary of a trust graph.
type GraphMetrics struct {
	NumNodes         int            `json:"num_nodes"`
	NumEdges         int            `json:"num_edges"`
	AvgBaseTrust     float64        `json:"avg_base_trust"`
	AvgEdgeWeight    float64        `json:"avg_edge_weight"`
	MaxOutDegree     int            `json:"max_out_degree"`
	MaxInDegree      int            `json:"max_in_degree"`
	OutDegreeBuckets map[int]int    `json:"out_degree_buckets"`
	InDegreeBuckets  map[int]int    `json:"in_degree_buckets"`
	NodesByType      map[string]int `json:"nodes_by_type"`
}

// Collect computes the summary from a snapshot.
func Collect(snap *trustgraph.Snapshot) GraphMetrics {
	m := GraphMetrics{
		NumNodes:         snap.NumNodes(),
		NumEdges:         snap.NumEdges(),
		OutDegreeBuckets: make(map[int]int),
		InDegreeBuckets:  make(map[int]int),
		NodesByType:      make(map[string]int),
	}

	var trustSum, weightSum float64
	for _, id := range snap.NodeIDs() {
		node, _ := snap.Node(id)
		trustSum += node.BaseTrust
		m.NodesByType[string(node.Type)]++

		out := len(snap.Outgoing(id))
		in := len(snap.Incoming(id))
		m.OutDegreeBuckets[out]++
		m.InDegreeBuckets[in]++
		if out > m.MaxOutDegree {
			m.MaxOutDegree = out
		}
		if in > m.MaxInDegree {
			m.MaxInDegree = in
		}
		for _, e := range snap.Outgoing(id) {
			weightSum += e.Weight
		}
	}

	if m.NumNodes > 0 {
		m.AvgBaseTrust = trustSum / float64(m.NumNodes)
	}
	if m.NumEdges > 0 {
		m.AvgEdgeWeight = weightSum / float64(m.NumEdges)
	}
	return m
}
