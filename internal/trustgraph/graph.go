package trustgraph

import (
	"fmt"
	"sync"
	"time"

	"github.com/rotalabs/rotalabs-graph/api/schemas"
	"go.uber.org/zap"
)

// edgeKey addresses one edge inside an adjacency bucket. The outgoing index
// keys by (target, type); the incoming index keys by (source, type).
type edgeKey struct {
	other string
	etype schemas.EdgeType
}

// TrustGraph owns the node mapping and both adjacency indexes for a weighted
// directed trust graph. All mutations are serialized under a single writer
// lock and update both indexes in the same critical section, so readers never
// observe a half-applied operation.
type TrustGraph struct {
	mu        sync.RWMutex
	nodes     map[string]schemas.TrustNode
	outgoing  map[string]map[edgeKey]schemas.TrustEdge
	incoming  map[string]map[edgeKey]schemas.TrustEdge
	edgeCount int
	clock     func() time.Time
	log       *zap.Logger
}

// Option customizes a TrustGraph at construction.
type Option func(*TrustGraph)

// WithClock injects the wall-clock source used for node and edge timestamps.
// Tests use this to keep timestamps deterministic.
func WithClock(clock func() time.Time) Option {
	return func(g *TrustGraph) { g.clock = clock }
}

// New creates an empty trust graph.
func New(logger *zap.Logger, opts ...Option) *TrustGraph {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &TrustGraph{
		nodes:    make(map[string]schemas.TrustNode),
		outgoing: make(map[string]map[edgeKey]schemas.TrustEdge),
		incoming: make(map[string]map[edgeKey]schemas.TrustEdge),
		clock:    time.Now,
		log:      logger.Named("trustgraph"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AddNode inserts a new node. It fails with schemas.ErrDuplicateNode if the
// ID is already present and schemas.ErrInvalidWeight if the base trust lies
// outside [0,1]. Rejection, not clamping, is the policy for nodes built as
// raw struct literals; callers wanting clamp semantics go through
// schemas.NewTrustNode.
func (g *TrustGraph) AddNode(node schemas.TrustNode) error {
	if !schemas.InUnit(node.BaseTrust) {
		return fmt.Errorf("node %q base_trust %v: %w", node.ID, node.BaseTrust, schemas.ErrInvalidWeight)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[node.ID]; exists {
		return fmt.Errorf("node %q: %w", node.ID, schemas.ErrDuplicateNode)
	}

	// Zero timestamps are stamped with the store clock; populated ones (a
	// persistence replay, for instance) pass through untouched.
	now := g.clock()
	if node.CreatedAt.IsZero() {
		node.CreatedAt = now
	}
	if node.UpdatedAt.IsZero() {
		node.UpdatedAt = now
	}
	g.nodes[node.ID] = node

	g.log.Debug("node added", zap.String("id", node.ID), zap.String("type", string(node.Type)))
	return nil
}

// Node returns the node with the given ID, or schemas.ErrNotFound.
func (g *TrustGraph) Node(id string) (schemas.TrustNode, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	node, ok := g.nodes[id]
	if !ok {
		return schemas.TrustNode{}, fmt.Errorf("node %q: %w", id, schemas.ErrNotFound)
	}
	return node, nil
}

// AddEdge inserts a directed edge. Both endpoints must already exist
// (schemas.ErrUnknownNode otherwise) and the weight must lie in [0,1]
// (schemas.ErrInvalidWeight). Re-inserting an existing (source, target, type)
// triple updates the stored weight in place and touches UpdatedAt instead of
// creating a parallel edge: last write wins.
func (g *TrustGraph) AddEdge(edge schemas.TrustEdge) error {
	if !schemas.InUnit(edge.Weight) {
		return fmt.Errorf("edge %s->%s weight %v: %w", edge.SourceID, edge.TargetID, edge.Weight, schemas.ErrInvalidWeight)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[edge.SourceID]; !ok {
		return fmt.Errorf("edge source %q: %w", edge.SourceID, schemas.ErrUnknownNode)
	}
	if _, ok := g.nodes[edge.TargetID]; !ok {
		return fmt.Errorf("edge target %q: %w", edge.TargetID, schemas.ErrUnknownNode)
	}

	outKey := edgeKey{other: edge.TargetID, etype: edge.Type}
	inKey := edgeKey{other: edge.SourceID, etype: edge.Type}
	now := g.clock()

	if existing, ok := g.outgoing[edge.SourceID][outKey]; ok {
		existing.Weight = edge.Weight
		existing.UpdatedAt = now
		g.outgoing[edge.SourceID][outKey] = existing
		g.incoming[edge.TargetID][inKey] = existing
		g.log.Debug("edge weight updated",
			zap.String("source", edge.SourceID),
			zap.String("target", edge.TargetID),
			zap.String("type", string(edge.Type)),
			zap.Float64("weight", edge.Weight))
		return nil
	}

	if edge.CreatedAt.IsZero() {
		edge.CreatedAt = now
	}
	if edge.UpdatedAt.IsZero() {
		edge.UpdatedAt = now
	}
	if g.outgoing[edge.SourceID] == nil {
		g.outgoing[edge.SourceID] = make(map[edgeKey]schemas.TrustEdge)
	}
	if g.incoming[edge.TargetID] == nil {
		g.incoming[edge.TargetID] = make(map[edgeKey]schemas.TrustEdge)
	}
	g.outgoing[edge.SourceID][outKey] = edge
	g.incoming[edge.TargetID][inKey] = edge
	g.edgeCount++

	g.log.Debug("edge added",
		zap.String("source", edge.SourceID),
		zap.String("target", edge.TargetID),
		zap.String("type", string(edge.Type)),
		zap.Float64("weight", edge.Weight))
	return nil
}

// RemoveNode deletes a node and cascades removal of every edge where it is
// source or target, keeping the referential invariant that each edge's
// endpoints exist. Fails with schemas.ErrNotFound if the ID is absent.
func (g *TrustGraph) RemoveNode(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[id]; !ok {
		return fmt.Errorf("node %q: %w", id, schemas.ErrNotFound)
	}

	for key := range g.outgoing[id] {
		delete(g.incoming[key.other], edgeKey{other: id, etype: key.etype})
		g.edgeCount--
	}
	delete(g.outgoing, id)

	for key := range g.incoming[id] {
		delete(g.outgoing[key.other], edgeKey{other: id, etype: key.etype})
		g.edgeCount--
	}
	delete(g.incoming, id)

	delete(g.nodes, id)
	g.log.Debug("node removed with incident edges", zap.String("id", id))
	return nil
}

// RemoveEdge deletes the edge identified by its (source, target, type)
// triple, or fails with schemas.ErrNotFound.
func (g *TrustGraph) RemoveEdge(sourceID, targetID string, etype schemas.EdgeType) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	outKey := edgeKey{other: targetID, etype: etype}
	if _, ok := g.outgoing[sourceID][outKey]; !ok {
		return fmt.Errorf("edge %s->%s (%s): %w", sourceID, targetID, etype, schemas.ErrNotFound)
	}
	delete(g.outgoing[sourceID], outKey)
	delete(g.incoming[targetID], edgeKey{other: sourceID, etype: etype})
	g.edgeCount--
	return nil
}

// Neighbors returns the edges incident to a node in the requested direction.
// Runs in O(degree). Fails with schemas.ErrNotFound for an unknown node and
// schemas.ErrInvalidParams for an unrecognized direction.
func (g *TrustGraph) Neighbors(id string, direction schemas.Direction) ([]schemas.TrustEdge, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.nodes[id]; !ok {
		return nil, fmt.Errorf("node %q: %w", id, schemas.ErrNotFound)
	}

	var bucket map[edgeKey]schemas.TrustEdge
	switch direction {
	case schemas.DirectionOutgoing:
		bucket = g.outgoing[id]
	case schemas.DirectionIncoming:
		bucket = g.incoming[id]
	default:
		return nil, fmt.Errorf("direction %q: %w", direction, schemas.ErrInvalidParams)
	}

	edges := make([]schemas.TrustEdge, 0, len(bucket))
	for _, e := range bucket {
		edges = append(edges, e)
	}
	return edges, nil
}

// NumNodes returns the node count. O(1).
func (g *TrustGraph) NumNodes() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// NumEdges returns the edge count. O(1); maintained incrementally.
func (g *TrustGraph) NumEdges() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edgeCount
}
