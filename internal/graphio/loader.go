// Package graphio reads graph descriptions for the CLI. The JSON layout here
// is a convenience input format, not a core wire protocol.
package graphio

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rotalabs/rotalabs-graph/api/schemas"
	"github.com/rotalabs/rotalabs-graph/internal/trustgraph"
	"go.uber.org/zap"
)

// Document is the on-disk graph description.
type Document struct {
	Nodes []NodeSpec `json:"nodes"`
	Edges []EdgeSpec `json:"edges"`
}

// NodeSpec describes one node of the input document.
type NodeSpec struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	BaseTrust float64 `json:"base_trust"`
}

// EdgeSpec describes one edge of the input document.
type EdgeSpec struct {
	SourceID string  `json:"source_id"`
	TargetID string  `json:"target_id"`
	Type     string  `json:"type"`
	Weight   float64 `json:"weight"`
}

// Load decodes a document and builds a graph through the store's public
// operations, so the usual invariants reject malformed input.
func Load(r io.Reader, logger *zap.Logger) (*trustgraph.TrustGraph, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode graph document: %w", err)
	}

	g := trustgraph.New(logger)
	for _, n := range doc.Nodes {
		nodeType := schemas.NodeType(n.Type)
		if !nodeType.Valid() {
			return nil, fmt.Errorf("node %q has unknown type %q", n.ID, n.Type)
		}
		if err := g.AddNode(schemas.TrustNode{
			ID: n.ID, Name: n.Name, Type: nodeType, BaseTrust: n.BaseTrust,
		}); err != nil {
			return nil, fmt.Errorf("node %q rejected: %w", n.ID, err)
		}
	}
	for _, e := range doc.Edges {
		edgeType := schemas.EdgeType(e.Type)
		if !edgeType.Valid() {
			return nil, fmt.Errorf("edge %s->%s has unknown type %q", e.SourceID, e.TargetID, e.Type)
		}
		if err := g.AddEdge(schemas.TrustEdge{
			SourceID: e.SourceID, TargetID: e.TargetID, Type: edgeType, Weight: e.Weight,
		}); err != nil {
			return nil, fmt.Errorf("edge %s->%s rejected: %w", e.SourceID, e.TargetID, err)
		}
	}
	return g, nil
}

// LoadFile opens path and delegates to Load.
func LoadFile(path string, logger *zap.Logger) (*trustgraph.TrustGraph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open graph file: %w", err)
	}
	defer f.Close()
	return Load(f, logger)
}
