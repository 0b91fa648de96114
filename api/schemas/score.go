package schemas

// -- Propagation Result Models --

// TrustScore is the per-node result of one propagation run. Scores are
// produced fresh on every call and never mutate the graph they were
// computed from.
type TrustScore struct {
	NodeID     string  `json:"node_id"`
	Value      float64 `json:"value"`
	Algorithm  string  `json:"algorithm"`
	Iterations int     `json:"iterations"`
	Converged  bool    `json:"converged"`
	// TimedOut marks a best-effort result produced after the propagator hit
	// its wall-clock budget rather than its convergence criterion.
	TimedOut bool `json:"timed_out,omitempty"`
}

// ScoreSet maps node IDs to their computed trust scores.
type ScoreSet map[string]TrustScore

// TrustPath is an ordered walk through the graph with its aggregate trust.
// PathTrust is the product of traversed edge weights; Bottleneck is the
// minimum traversed edge weight, the edge that bounds the path's effective
// trust.
type TrustPath struct {
	Nodes      []string `json:"nodes"`
	PathTrust  float64  `json:"path_trust"`
	Bottleneck float64  `json:"bottleneck"`
}
