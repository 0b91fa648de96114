package trustgraph

import (
	"sort"

	"github.com/rotalabs/rotalabs-graph/api/schemas"
)

// Snapshot is an immutable copy of the graph's nodes and edges captured in a
// single read section. Propagation and anomaly detection run against a
// Snapshot, so a mutation racing with a long computation can never be
// observed mid-update. Edge slices are sorted by (target, source, type) to
// make iteration order, and therefore floating-point summation order,
// deterministic.
type Snapshot struct {
	nodes   map[string]schemas.TrustNode
	ids     []string
	out     map[string][]schemas.TrustEdge
	in      map[string][]schemas.TrustEdge
	edgeCnt int
}

// Snapshot captures the current graph state.
func (g *TrustGraph) Snapshot() *Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	s := &Snapshot{
		nodes:   make(map[string]schemas.TrustNode, len(g.nodes)),
		ids:     make([]string, 0, len(g.nodes)),
		out:     make(map[string][]schemas.TrustEdge, len(g.outgoing)),
		in:      make(map[string][]schemas.TrustEdge, len(g.incoming)),
		edgeCnt: g.edgeCount,
	}
	for id, node := range g.nodes {
		s.nodes[id] = node
		s.ids = append(s.ids, id)
	}
	sort.Strings(s.ids)

	for id, bucket := range g.outgoing {
		edges := make([]schemas.TrustEdge, 0, len(bucket))
		for _, e := range bucket {
			edges = append(edges, e)
		}
		sortEdges(edges)
		s.out[id] = edges
	}
	for id, bucket := range g.incoming {
		edges := make([]schemas.TrustEdge, 0, len(bucket))
		for _, e := range bucket {
			edges = append(edges, e)
		}
		sortEdges(edges)
		s.in[id] = edges
	}
	return s
}

func sortEdges(edges []schemas.TrustEdge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].SourceID != edges[j].SourceID {
			return edges[i].SourceID < edges[j].SourceID
		}
		if edges[i].TargetID != edges[j].TargetID {
			return edges[i].TargetID < edges[j].TargetID
		}
		return edges[i].Type < edges[j].Type
	})
}

// NodeIDs returns all node IDs in ascending order.
func (s *Snapshot) NodeIDs() []string {
	ids := make([]string, len(s.ids))
	copy(ids, s.ids)
	return ids
}

// Node returns the node with the given ID and whether it exists.
func (s *Snapshot) Node(id string) (schemas.TrustNode, bool) {
	node, ok := s.nodes[id]
	return node, ok
}

// Outgoing returns the edges leaving the given node.
func (s *Snapshot) Outgoing(id string) []schemas.TrustEdge {
	return s.out[id]
}

// Incoming returns the edges arriving at the given node.
func (s *Snapshot) Incoming(id string) []schemas.TrustEdge {
	return s.in[id]
}

// NumNodes returns the node count at capture time.
func (s *Snapshot) NumNodes() int { return len(s.ids) }

// NumEdges returns the edge count at capture time.
func (s *Snapshot) NumEdges() int { return s.edgeCnt }

// WeightedOutDegree sums the weights of the node's outgoing edges.
func (s *Snapshot) WeightedOutDegree(id string) float64 {
	var sum float64
	for _, e := range s.out[id] {
		sum += e.Weight
	}
	return sum
}

// WeightedInDegree sums the weights of the node's incoming edges.
func (s *Snapshot) WeightedInDegree(id string) float64 {
	var sum float64
	for _, e := range s.in[id] {
		sum += e.Weight
	}
	return sum
}

// EdgeTriples returns the read-only (source, target, weight) view consumed by
// external partitioning tools. Order follows the sorted outgoing indexes.
func (s *Snapshot) EdgeTriples() []schemas.EdgeTriple {
	triples := make([]schemas.EdgeTriple, 0, s.edgeCnt)
	for _, id := range s.ids {
		for _, e := range s.out[id] {
			triples = append(triples, schemas.EdgeTriple{
				SourceID: e.SourceID,
				TargetID: e.TargetID,
				Weight:   e.Weight,
			})
		}
	}
	return triples
}
