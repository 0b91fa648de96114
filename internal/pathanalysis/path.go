// Package pathanalysis computes trust paths over a graph snapshot. It sits
// outside the core computation contract and depends only on the snapshot's
// read API.
package pathanalysis

import (
	"container/heap"
	"fmt"

	"github.com/rotalabs/rotalabs-graph/api/schemas"
	"github.com/rotalabs/rotalabs-graph/internal/trustgraph"
)

// edgeWeight returns the strongest edge weight from u to v, across edge
// types, and whether any edge exists.
func edgeWeight(snap *trustgraph.Snapshot, u, v string) (float64, bool) {
	best, found := 0.0, false
	for _, e := range snap.Outgoing(u) {
		if e.TargetID == v && (!found || e.Weight > best) {
			best, found = e.Weight, true
		}
	}
	return best, found
}

// Evaluate walks an explicit node sequence and returns its TrustPath:
// path trust is the product of traversed edge weights, bottleneck the
// minimum. Parallel edges between a hop pair contribute their strongest
// weight. Fails with schemas.ErrUnknownNode for an absent node and
// schemas.ErrNotFound for a missing hop.
func Evaluate(snap *trustgraph.Snapshot, nodeIDs []string) (schemas.TrustPath, error) {
	if len(nodeIDs) == 0 {
		return schemas.TrustPath{}, fmt.Errorf("empty path: %w", schemas.ErrInvalidParams)
	}
	for _, id := range nodeIDs {
		if _, ok := snap.Node(id); !ok {
			return schemas.TrustPath{}, fmt.Errorf("path node %q: %w", id, schemas.ErrUnknownNode)
		}
	}

	path := schemas.TrustPath{Nodes: nodeIDs, PathTrust: 1, Bottleneck: 1}
	for i := 0; i+1 < len(nodeIDs); i++ {
		w, ok := edgeWeight(snap, nodeIDs[i], nodeIDs[i+1])
		if !ok {
			return schemas.TrustPath{}, fmt.Errorf("no edge %s -> %s: %w", nodeIDs[i], nodeIDs[i+1], schemas.ErrNotFound)
		}
		path.PathTrust *= w
		if w < path.Bottleneck {
			path.Bottleneck = w
		}
	}
	return path, nil
}

// pqItem is a max-heap entry for the best-path search.
type pqItem struct {
	id    string
	trust float64
	prev  *pqItem
}

type maxHeap []*pqItem

func (h maxHeap) Len() int            { return len(h) }
func (h maxHeap) Less(i, j int) bool  { return h[i].trust > h[j].trust }
func (h maxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x interface{}) { *h = append(*h, x.(*pqItem)) }
func (h *maxHeap) Pop() interface{} {
	old := *h
	item := old[len(old)-1]
	*h = old[:len(old)-1]
	return item
}

// BestPath finds the maximum-product trust path from source to target, the
// multiplicative analogue of Dijkstra. Edge weights in [0,1] never increase
// a product, so the greedy extraction argument carries over unchanged.
// Returns schemas.ErrNotFound when the target is unreachable.
func BestPath(snap *trustgraph.Snapshot, sourceID, targetID string) (schemas.TrustPath, error) {
	for _, id := range []string{sourceID, targetID} {
		if _, ok := snap.Node(id); !ok {
			return schemas.TrustPath{}, fmt.Errorf("path endpoint %q: %w", id, schemas.ErrUnknownNode)
		}
	}

	settled := make(map[string]bool)
	h := &maxHeap{{id: sourceID, trust: 1}}
	heap.Init(h)

	for h.Len() > 0 {
		item := heap.Pop(h).(*pqItem)
		if settled[item.id] {
			continue
		}
		settled[item.id] = true

		if item.id == targetID {
			return Evaluate(snap, assembleNodes(item))
		}

		for _, e := range snap.Outgoing(item.id) {
			if settled[e.TargetID] || e.Weight == 0 {
				continue
			}
			heap.Push(h, &pqItem{id: e.TargetID, trust: item.trust * e.Weight, prev: item})
		}
	}
	return schemas.TrustPath{}, fmt.Errorf("no path %s -> %s: %w", sourceID, targetID, schemas.ErrNotFound)
}

func assembleNodes(end *pqItem) []string {
	var reversed []string
	for item := end; item != nil; item = item.prev {
		reversed = append(reversed, item.id)
	}
	nodes := make([]string, len(reversed))
	for i, id := range reversed {
		nodes[len(reversed)-1-i] = id
	}
	return nodes
}
