package propagation

import (
	"context"
	"fmt"
	"math"

	"github.com/rotalabs/rotalabs-graph/api/schemas"
	"github.com/rotalabs/rotalabs-graph/internal/trustgraph"
)

// AlgorithmEigenTrust names the stationary-distribution propagator.
const AlgorithmEigenTrust = "eigentrust"

// EigenTrust power-iterates the row-normalized trust transition matrix toward
// its stationary distribution, mixing a pre-trust vector derived from node
// base trust into every step, following Kamvar et al. (2003):
//
//	t(k+1) = (1-a) * C^T t(k) + a * p
//
// The mixing factor a bounds how far colluding low-trust nodes can drag the
// distribution away from the pre-trusted seed. Nodes with no outgoing weight
// defer to the pre-trust vector, so each transition row still sums to 1 and
// the score vector remains a probability distribution.
type EigenTrust struct{}

// NewEigenTrust returns the built-in EigenTrust propagator.
func NewEigenTrust() *EigenTrust { return &EigenTrust{} }

// Name implements Propagator.
func (p *EigenTrust) Name() string { return AlgorithmEigenTrust }

func (p *EigenTrust) validate(params Params) error {
	if params.MixingFactor <= 0 || params.MixingFactor >= 1 {
		return fmt.Errorf("mixing factor %v not in (0,1): %w", params.MixingFactor, schemas.ErrInvalidParams)
	}
	if params.Epsilon <= 0 {
		return fmt.Errorf("epsilon %v must be positive: %w", params.Epsilon, schemas.ErrInvalidParams)
	}
	if params.MaxIterations <= 0 {
		return fmt.Errorf("max iterations %d must be positive: %w", params.MaxIterations, schemas.ErrInvalidParams)
	}
	return nil
}

// Compute implements Propagator. Scores are non-negative and sum to 1 within
// floating error.
func (p *EigenTrust) Compute(ctx context.Context, snap *trustgraph.Snapshot, params Params) (schemas.ScoreSet, error) {
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

	// Pre-trust vector: base trust normalized to a distribution, uniform when
	// every node carries zero base trust.
	pre := make([]float64, n)
	var preSum float64
	for i, id := range ids {
		node, _ := snap.Node(id)
		pre[i] = node.BaseTrust
		preSum += node.BaseTrust
	}
	if preSum == 0 {
		for i := range pre {
			pre[i] = 1.0 / float64(n)
		}
	} else {
		for i := range pre {
			pre[i] /= preSum
		}
	}

	outWeight := make([]float64, n)
	for i, id := range ids {
		outWeight[i] = snap.WeightedOutDegree(id)
	}

	a := params.MixingFactor
	curr := make([]float64, n)
	next := make([]float64, n)
	copy(curr, pre)

	iterations := 0
	converged := false
	for iterations < params.MaxIterations {
		if deadlineExpired(ctx) {
			return markTimedOut(p.toScores(ids, curr, iterations, false)),
				fmt.Errorf("eigentrust after %d iterations: %w", iterations, schemas.ErrTimeoutExceeded)
		}

		// Mass held by nodes with no outgoing trust flows to the pre-trust
		// distribution instead of vanishing.
		var deferred float64
		for i := range curr {
			if outWeight[i] == 0 {
				deferred += curr[i]
			}
		}

		parallelOver(n, func(i int) {
			sum := 0.0
			for _, e := range snap.Incoming(ids[i]) {
				j := idx[e.SourceID]
				if outWeight[j] > 0 {
					sum += curr[j] * e.Weight / outWeight[j]
				}
			}
			next[i] = (1-a)*(sum+deferred*pre[i]) + a*pre[i]
		})
		iterations++

		// L1 norm of the step delta.
		var l1 float64
		for i := range next {
			l1 += math.Abs(next[i] - curr[i])
		}
		curr, next = next, curr
		if l1 < params.Epsilon {
			converged = true
			break
		}
	}

	return p.toScores(ids, curr, iterations, converged), nil
}

func (p *EigenTrust) toScores(ids []string, values []float64, iterations int, converged bool) schemas.ScoreSet {
	scores := make(schemas.ScoreSet, len(ids))
	for i, id := range ids {
		scores[id] = schemas.TrustScore{
			NodeID:     id,
			Value:      values[i],
			Algorithm:  AlgorithmEigenTrust,
			Iterations: iterations,
			Converged:  converged,
		}
	}
	return scores
}
