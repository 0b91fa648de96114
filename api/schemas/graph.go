package schemas

import "time"

// -- Core Graph Models --
// These types represent the fully-formed entities as they exist in the trust graph.

// NodeType defines the categories of AI-system components tracked in the graph.
type NodeType string

const (
	NodeTypeModel      NodeType = "MODEL"
	NodeTypeAgent      NodeType = "AGENT"
	NodeTypeUser       NodeType = "USER"
	NodeTypeDataSource NodeType = "DATA_SOURCE"
	NodeTypeTool       NodeType = "TOOL"
	NodeTypeService    NodeType = "SERVICE"
)

// Valid reports whether t is one of the defined node types.
func (t NodeType) Valid() bool {
	switch t {
	case NodeTypeModel, NodeTypeAgent, NodeTypeUser, NodeTypeDataSource, NodeTypeTool, NodeTypeService:
		return true
	}
	return false
}

// EdgeType defines the nature of the trust relationship between two nodes.
type EdgeType string

const (
	EdgeTypeTrusts    EdgeType = "TRUSTS"
	EdgeTypeDelegates EdgeType = "DELEGATES"
	EdgeTypeVerifies  EdgeType = "VERIFIES"
	EdgeTypeValidates EdgeType = "VALIDATES"
	EdgeTypeDependsOn EdgeType = "DEPENDS_ON"
	EdgeTypeCalls     EdgeType = "CALLS"
	EdgeTypeOwns      EdgeType = "OWNS"
)

// Valid reports whether t is one of the defined edge types.
func (t EdgeType) Valid() bool {
	switch t {
	case EdgeTypeTrusts, EdgeTypeDelegates, EdgeTypeVerifies, EdgeTypeValidates,
		EdgeTypeDependsOn, EdgeTypeCalls, EdgeTypeOwns:
		return true
	}
	return false
}

// Direction selects which adjacency index a neighbor query reads.
type Direction string

const (
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
)

// TrustNode represents an AI-system component participating in trust relationships.
// The ID is immutable once the node has been added to a graph.
type TrustNode struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      NodeType  `json:"type"`
	BaseTrust float64   `json:"base_trust"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TrustEdge represents a directed, weighted trust relation between two nodes.
// At most one edge exists per (SourceID, TargetID, Type) triple; re-inserting
// the same triple updates the weight in place (last-write-wins).
type TrustEdge struct {
	SourceID  string    `json:"source_id"`
	TargetID  string    `json:"target_id"`
	Type      EdgeType  `json:"type"`
	Weight    float64   `json:"weight"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EdgeTriple is the read-only (source, target, weight) view handed to
// partitioning and other external graph consumers.
type EdgeTriple struct {
	SourceID string  `json:"source_id"`
	TargetID string  `json:"target_id"`
	Weight   float64 `json:"weight"`
}

// ClampUnit forces v into the [0,1] interval.
func ClampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// InUnit reports whether v lies in the closed [0,1] interval.
func InUnit(v float64) bool {
	return v >= 0 && v <= 1
}

// NewTrustNode builds a TrustNode with its base trust clamped to [0,1].
// Clamping here is the documented construction policy; nodes built directly
// as struct literals are validated at insertion time instead.
func NewTrustNode(id, name string, nodeType NodeType, baseTrust float64, now time.Time) TrustNode {
	return TrustNode{
		ID:        id,
		Name:      name,
		Type:      nodeType,
		BaseTrust: ClampUnit(baseTrust),
		CreatedAt: now,
		UpdatedAt: now,
	}
}
