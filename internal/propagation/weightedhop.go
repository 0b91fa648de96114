package propagation

import (
	"context"
	"fmt"
	"sort"

	"github.com/rotalabs/rotalabs-graph/api/schemas"
	"github.com/rotalabs/rotalabs-graph/internal/trustgraph"
)

// AlgorithmWeightedHop names the hop-decayed traversal propagator.
const AlgorithmWeightedHop = "weighted_hop"

// WeightedHop runs a breadth traversal from one or more seed nodes. Trust
// arriving at a node over a single path after k hops is
//
//	seedTrust * product(edge weights) * r^k
//
// for decay factor r. When several paths reach the same node the node keeps
// the maximum over paths; path contributions are never summed, so parallel
// routes cannot accumulate trust past 1. Branches are pruned once their
// accumulated trust falls below epsilon, and traversal halts at MaxHops.
type WeightedHop struct{}

// NewWeightedHop returns the built-in weighted-hop propagator.
func NewWeightedHop() *WeightedHop { return &WeightedHop{} }

// Name implements Propagator.
func (p *WeightedHop) Name() string { return AlgorithmWeightedHop }

func (p *WeightedHop) validate(snap *trustgraph.Snapshot, params Params) error {
	if params.HopDecay <= 0 || params.HopDecay >= 1 {
		return fmt.Errorf("hop decay %v not in (0,1): %w", params.HopDecay, schemas.ErrInvalidParams)
	}
	if params.Epsilon <= 0 {
		return fmt.Errorf("epsilon %v must be positive: %w", params.Epsilon, schemas.ErrInvalidParams)
	}
	if params.MaxHops <= 0 {
		return fmt.Errorf("max hops %d must be positive: %w", params.MaxHops, schemas.ErrInvalidParams)
	}
	if len(params.Seeds) == 0 {
		return fmt.Errorf("weighted hop requires at least one seed: %w", schemas.ErrInvalidParams)
	}
	for _, seed := range params.Seeds {
		if _, ok := snap.Node(seed); !ok {
			return fmt.Errorf("seed %q: %w", seed, schemas.ErrUnknownNode)
		}
	}
	return nil
}

// Compute implements Propagator. A seed node's own score equals its base
// trust exactly (zero hops, no decay); unreached nodes score 0.
func (p *WeightedHop) Compute(ctx context.Context, snap *trustgraph.Snapshot, params Params) (schemas.ScoreSet, error) {
	if err := p.validate(snap, params); err != nil {
		return nil, err
	}

	best := make(map[string]float64, snap.NumNodes())
	frontier := make(map[string]float64, len(params.Seeds))
	for _, seed := range params.Seeds {
		node, _ := snap.Node(seed)
		if node.BaseTrust > best[seed] {
			best[seed] = node.BaseTrust
			frontier[seed] = node.BaseTrust
		}
	}

	hops := 0
	for hops < params.MaxHops && len(frontier) > 0 {
		if deadlineExpired(ctx) {
			return markTimedOut(p.toScores(snap, best, hops)),
				fmt.Errorf("weighted hop after %d hops: %w", hops, schemas.ErrTimeoutExceeded)
		}

		// Sorted expansion keeps traversal order, and with it any logging or
		// tie handling, reproducible.
		ids := make([]string, 0, len(frontier))
		for id := range frontier {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		nextFrontier := make(map[string]float64)
		for _, id := range ids {
			carried := frontier[id]
			for _, e := range snap.Outgoing(id) {
				candidate := carried * e.Weight * params.HopDecay
				if candidate < params.Epsilon {
					continue // branch pruned
				}
				if candidate > best[e.TargetID] {
					best[e.TargetID] = candidate
					if candidate > nextFrontier[e.TargetID] {
						nextFrontier[e.TargetID] = candidate
					}
				}
			}
		}
		frontier = nextFrontier
		hops++
	}

	return p.toScores(snap, best, hops), nil
}

func (p *WeightedHop) toScores(snap *trustgraph.Snapshot, best map[string]float64, hops int) schemas.ScoreSet {
	scores := make(schemas.ScoreSet, snap.NumNodes())
	for _, id := range snap.NodeIDs() {
		scores[id] = schemas.TrustScore{
			NodeID:     id,
			Value:      best[id],
			Algorithm:  AlgorithmWeightedHop,
			Iterations: hops,
			Converged:  true,
		}
	}
	return scores
}
