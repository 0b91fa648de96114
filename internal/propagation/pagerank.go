package propagation

import (
	"context"
	"fmt"
	"math"

	"github.com/rotalabs/rotalabs-graph/api/schemas"
	"github.com/rotalabs/rotalabs-graph/internal/trustgraph"
)

// AlgorithmPageRank names the random-surfer propagator.
const AlgorithmPageRank = "pagerank"

// PageRank implements the classic random-surfer model over edge weights.
// Each iteration a surfer at node u follows edge (u,v) with probability
// weight(u,v) / weightedOutDegree(u), damped by d, or teleports uniformly
// with probability 1-d. Dangling nodes (zero weighted outdegree) hand their
// entire mass back to the graph uniformly each iteration; that redistribution
// is a deliberate policy, not a division guard.
type PageRank struct{}

// NewPageRank returns the built-in PageRank propagator.
func NewPageRank() *PageRank { return &PageRank{} }

// Name implements Propagator.
func (p *PageRank) Name() string { return AlgorithmPageRank }

func (p *PageRank) validate(params Params) error {
	if params.Damping <= 0 || params.Damping >= 1 {
		return fmt.Errorf("damping %v not in (0,1): %w", params.Damping, schemas.ErrInvalidParams)
	}
	if params.Epsilon <= 0 {
		return fmt.Errorf("epsilon %v must be positive: %w", params.Epsilon, schemas.ErrInvalidParams)
	}
	if params.MaxIterations <= 0 {
		return fmt.Errorf("max iterations %d must be positive: %w", params.MaxIterations, schemas.ErrInvalidParams)
	}
	return nil
}

// Compute implements Propagator. Scores over all nodes sum to 1 within
// floating error for every valid damping factor.
func (p *PageRank) Compute(ctx context.Context, snap *trustgraph.Snapshot, params Params) (schemas.ScoreSet, error) {
	if err := p.validate(params); err != nil {
		return nil, err
	}

	ids := snap.NodeIDs()
	n := len(ids)
	if n == 0 {
		return schemas.ScoreSet{}, nil
	}

	idx := make(map[string]int, n)
	for i, id := range ids {
		idx[id] = i
	}

	// Precompute weighted outdegrees and the dangling set once.
	outWeight := make([]float64, n)
	dangling := make([]bool, n)
	for i, id := range ids {
		outWeight[i] = snap.WeightedOutDegree(id)
		dangling[i] = outWeight[i] == 0
	}

	d := params.Damping
	invN := 1.0 / float64(n)
	curr := make([]float64, n)
	next := make([]float64, n)
	for i := range curr {
		curr[i] = invN
	}

	iterations := 0
	converged := false
	for iterations < params.MaxIterations {
		if deadlineExpired(ctx) {
			return markTimedOut(p.toScores(ids, curr, iterations, false)),
				fmt.Errorf("pagerank after %d iterations: %w", iterations, schemas.ErrTimeoutExceeded)
		}

		// Dangling nodes redistribute their mass uniformly.
		var danglingMass float64
		for i := range curr {
			if dangling[i] {
				danglingMass += curr[i]
			}
		}

		base := (1-d)*invN + d*danglingMass*invN
		parallelOver(n, func(i int) {
			sum := 0.0
			for _, e := range snap.Incoming(ids[i]) {
				j := idx[e.SourceID]
				if outWeight[j] > 0 {
					sum += curr[j] * e.Weight / outWeight[j]
				}
			}
			next[i] = base + d*sum
		})
		iterations++

		maxDelta := 0.0
		for i := range next {
			if delta := math.Abs(next[i] - curr[i]); delta > maxDelta {
				maxDelta = delta
			}
		}
		curr, next = next, curr
		if maxDelta < params.Epsilon {
			converged = true
			break
		}
	}

	return p.toScores(ids, curr, iterations, converged), nil
}

func (p *PageRank) toScores(ids []string, values []float64, iterations int, converged bool) schemas.ScoreSet {
	scores := make(schemas.ScoreSet, len(ids))
	for i, id := range ids {
		scores[id] = schemas.TrustScore{
			NodeID:     id,
			Value:      values[i],
			Algorithm:  AlgorithmPageRank,
			Iterations: iterations,
			Converged:  converged,
		}
	}
	return scores
}
