package propagation

import (
	"context"
	"testing"

	"github.com/rotalabs/rotalabs-graph/api/schemas"
	"github.com/rotalabs/rotalabs-graph/internal/trustgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// buildSnapshot assembles a snapshot from shorthand node and edge specs.
func buildSnapshot(t *testing.T, nodes map[string]float64, edges [][3]interface{}) *trustgraph.Snapshot {
	t.Helper()

	g := trustgraph.New(zap.NewNop())
	for id, trust := range nodes {
		require.NoError(t, g.AddNode(schemas.TrustNode{
			ID: id, Name: id, Type: schemas.NodeTypeAgent, BaseTrust: trust,
		}))
	}
	for _, e := range edges {
		require.NoError(t, g.AddEdge(schemas.TrustEdge{
			SourceID: e[0].(string),
			TargetID: e[1].(string),
			Type:     schemas.EdgeTypeTrusts,
			Weight:   e[2].(float64),
		}))
	}
	return g.Snapshot()
}

func defaultParams() Params {
	return Params{
		Damping:       0.85,
		Epsilon:       1e-9,
		MaxIterations: 200,
		MixingFactor:  0.15,
		HopDecay:      0.9,
		MaxHops:       10,
	}
}

func sumScores(scores schemas.ScoreSet) float64 {
	var sum float64
	for _, s := range scores {
		sum += s.Value
	}
	return sum
}

// chainSnapshot is the three-node pipeline A -0.9-> B -0.8-> C used across
// several tests.
func chainSnapshot(t *testing.T) *trustgraph.Snapshot {
	return buildSnapshot(t,
		map[string]float64{"A": 1.0, "B": 0.9, "C": 0.8},
		[][3]interface{}{{"A", "B", 0.9}, {"B", "C", 0.8}},
	)
}

func TestPageRank(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("scores sum to one for any damping", func(t *testing.T) {
		t.Parallel()
		snap := chainSnapshot(t)
		for _, d := range []float64{0.1, 0.5, 0.85, 0.99} {
			params := defaultParams()
			params.Damping = d
			scores, err := NewPageRank().Compute(ctx, snap, params)
			require.NoError(t, err)
			assert.InDelta(t, 1.0, sumScores(scores), 1e-6, "damping %v", d)
		}
	})

	t.Run("dangling node mass is redistributed, not lost", func(t *testing.T) {
		t.Parallel()
		// C has no outgoing edges; without redistribution the total would
		// leak below 1.
		snap := buildSnapshot(t,
			map[string]float64{"A": 0.5, "B": 0.5, "C": 0.5},
			[][3]interface{}{{"A", "B", 1.0}, {"B", "C", 1.0}},
		)
		scores, err := NewPageRank().Compute(ctx, snap, defaultParams())
		require.NoError(t, err)
		assert.InDelta(t, 1.0, sumScores(scores), 1e-6)
		assert.True(t, scores["C"].Converged)
	})

	t.Run("empty graph yields empty set", func(t *testing.T) {
		t.Parallel()
		snap := trustgraph.New(zap.NewNop()).Snapshot()
		scores, err := NewPageRank().Compute(ctx, snap, defaultParams())
		require.NoError(t, err)
		assert.Empty(t, scores)
	})

	t.Run("iteration cap reports non-converged", func(t *testing.T) {
		t.Parallel()
		snap := chainSnapshot(t)
		params := defaultParams()
		params.MaxIterations = 1
		scores, err := NewPageRank().Compute(ctx, snap, params)
		require.NoError(t, err)
		for _, s := range scores {
			assert.False(t, s.Converged)
			assert.Equal(t, 1, s.Iterations)
		}
	})

	t.Run("rejects damping outside open interval", func(t *testing.T) {
		t.Parallel()
		snap := chainSnapshot(t)
		for _, d := range []float64{0, 1, -0.5, 1.5} {
			params := defaultParams()
			params.Damping = d
			_, err := NewPageRank().Compute(ctx, snap, params)
			require.ErrorIs(t, err, schemas.ErrInvalidParams, "damping %v", d)
		}
	})

	t.Run("idempotent on an unmutated snapshot", func(t *testing.T) {
		t.Parallel()
		snap := chainSnapshot(t)
		first, err := NewPageRank().Compute(ctx, snap, defaultParams())
		require.NoError(t, err)
		second, err := NewPageRank().Compute(ctx, snap, defaultParams())
		require.NoError(t, err)
		for id := range first {
			assert.InDelta(t, first[id].Value, second[id].Value, 1e-12)
		}
	})
}

func TestEigenTrust(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("scores form a distribution", func(t *testing.T) {
		t.Parallel()
		snap := chainSnapshot(t)
		scores, err := NewEigenTrust().Compute(ctx, snap, defaultParams())
		require.NoError(t, err)
		assert.InDelta(t, 1.0, sumScores(scores), 1e-6)
		for id, s := range scores {
			assert.GreaterOrEqual(t, s.Value, 0.0, "node %s", id)
			assert.True(t, s.Converged)
		}
	})

	t.Run("uniform pre-trust when all base trust is zero", func(t *testing.T) {
		t.Parallel()
		snap := buildSnapshot(t,
			map[string]float64{"A": 0, "B": 0},
			[][3]interface{}{{"A", "B", 1.0}},
		)
		scores, err := NewEigenTrust().Compute(ctx, snap, defaultParams())
		require.NoError(t, err)
		assert.InDelta(t, 1.0, sumScores(scores), 1e-6)
	})

	t.Run("pre-trusted node outranks a colluding clique", func(t *testing.T) {
		t.Parallel()
		// Two zero-trust nodes vouch for each other; the pre-trusted node
		// must keep a substantial share of the distribution.
		snap := buildSnapshot(t,
			map[string]float64{"good": 1.0, "x": 0.0, "y": 0.0},
			[][3]interface{}{{"x", "y", 1.0}, {"y", "x", 1.0}},
		)
		scores, err := NewEigenTrust().Compute(ctx, snap, defaultParams())
		require.NoError(t, err)
		assert.Greater(t, scores["good"].Value, 0.1)
	})

	t.Run("rejects mixing factor outside open interval", func(t *testing.T) {
		t.Parallel()
		snap := chainSnapshot(t)
		params := defaultParams()
		params.MixingFactor = 0
		_, err := NewEigenTrust().Compute(ctx, snap, params)
		require.ErrorIs(t, err, schemas.ErrInvalidParams)
	})
}

func TestWeightedHop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("seed scores its own base trust exactly", func(t *testing.T) {
		t.Parallel()
		snap := chainSnapshot(t)
		params := defaultParams()
		params.Seeds = []string{"A"}
		scores, err := NewWeightedHop().Compute(ctx, snap, params)
		require.NoError(t, err)
		assert.Equal(t, 1.0, scores["A"].Value)
	})

	t.Run("chain decay matches the closed form", func(t *testing.T) {
		t.Parallel()
		// score(C) = 1.0 * 0.9 * 0.8 * 0.9^2
		snap := chainSnapshot(t)
		params := defaultParams()
		params.Seeds = []string{"A"}
		scores, err := NewWeightedHop().Compute(ctx, snap, params)
		require.NoError(t, err)
		assert.InDelta(t, 0.81, scores["B"].Value, 1e-9)
		assert.InDelta(t, 0.5832, scores["C"].Value, 1e-9)
	})

	t.Run("parallel paths take the maximum, never the sum", func(t *testing.T) {
		t.Parallel()
		snap := buildSnapshot(t,
			map[string]float64{"S": 1.0, "L": 1.0, "R": 1.0, "T": 0.0},
			[][3]interface{}{
				{"S", "L", 1.0}, {"S", "R", 1.0},
				{"L", "T", 1.0}, {"R", "T", 0.5},
			},
		)
		params := defaultParams()
		params.Seeds = []string{"S"}
		scores, err := NewWeightedHop().Compute(ctx, snap, params)
		require.NoError(t, err)
		// Best path S->L->T: 1.0 * 1.0 * 1.0 * 0.9^2 = 0.81; the S->R->T
		// contribution must not be added on top.
		assert.InDelta(t, 0.81, scores["T"].Value, 1e-9)
	})

	t.Run("unreached nodes score zero", func(t *testing.T) {
		t.Parallel()
		snap := buildSnapshot(t,
			map[string]float64{"A": 1.0, "B": 0.5, "island": 0.9},
			[][3]interface{}{{"A", "B", 0.8}},
		)
		params := defaultParams()
		params.Seeds = []string{"A"}
		scores, err := NewWeightedHop().Compute(ctx, snap, params)
		require.NoError(t, err)
		assert.Zero(t, scores["island"].Value)
	})

	t.Run("epsilon prunes weak branches", func(t *testing.T) {
		t.Parallel()
		snap := chainSnapshot(t)
		params := defaultParams()
		params.Seeds = []string{"A"}
		params.Epsilon = 0.7 // above every candidate after the first hop
		scores, err := NewWeightedHop().Compute(ctx, snap, params)
		require.NoError(t, err)
		assert.InDelta(t, 0.81, scores["B"].Value, 1e-9)
		assert.Zero(t, scores["C"].Value)
	})

	t.Run("requires seeds", func(t *testing.T) {
		t.Parallel()
		snap := chainSnapshot(t)
		_, err := NewWeightedHop().Compute(ctx, snap, defaultParams())
		require.ErrorIs(t, err, schemas.ErrInvalidParams)
	})

	t.Run("rejects unknown seed", func(t *testing.T) {
		t.Parallel()
		snap := chainSnapshot(t)
		params := defaultParams()
		params.Seeds = []string{"ghost"}
		_, err := NewWeightedHop().Compute(ctx, snap, params)
		require.ErrorIs(t, err, schemas.ErrUnknownNode)
	})
}

// stubPropagator stands in for an externally injected implementation, such
// as a learned propagator running outside the core.
type stubPropagator struct{ calls int }

func (s *stubPropagator) Name() string { return "stub" }

func (s *stubPropagator) Compute(_ context.Context, snap *trustgraph.Snapshot, _ Params) (schemas.ScoreSet, error) {
	s.calls++
	scores := make(schemas.ScoreSet)
	for _, id := range snap.NodeIDs() {
		scores[id] = schemas.TrustScore{NodeID: id, Value: 0.5, Algorithm: "stub", Converged: true}
	}
	return scores, nil
}

func TestEngine(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("built-ins registered", func(t *testing.T) {
		t.Parallel()
		e := NewEngine(zap.NewNop())
		assert.Equal(t, []string{AlgorithmEigenTrust, AlgorithmPageRank, AlgorithmWeightedHop}, e.Names())
	})

	t.Run("external propagator substitutes without core changes", func(t *testing.T) {
		t.Parallel()
		e := NewEngine(zap.NewNop())
		stub := &stubPropagator{}
		require.NoError(t, e.Register(stub))

		snap := chainSnapshot(t)
		scores, err := e.Compute(ctx, "stub", snap, Params{})
		require.NoError(t, err)
		assert.Equal(t, 1, stub.calls)
		assert.Equal(t, 0.5, scores["A"].Value)
	})

	t.Run("unknown algorithm", func(t *testing.T) {
		t.Parallel()
		e := NewEngine(zap.NewNop())
		_, err := e.Compute(ctx, "nope", chainSnapshot(t), defaultParams())
		require.ErrorIs(t, err, schemas.ErrNotFound)
	})

	t.Run("rejects nil registration", func(t *testing.T) {
		t.Parallel()
		e := NewEngine(zap.NewNop())
		require.ErrorIs(t, e.Register(nil), schemas.ErrInvalidParams)
	})
}

func TestWallClockBudget(t *testing.T) {
	t.Parallel()

	// An already-expired context forces the budget path deterministically.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	snap := chainSnapshot(t)
	params := defaultParams()
	params.Seeds = []string{"A"}

	for _, p := range []Propagator{NewPageRank(), NewEigenTrust(), NewWeightedHop()} {
		scores, err := p.Compute(ctx, snap, params)
		require.ErrorIs(t, err, schemas.ErrTimeoutExceeded, p.Name())
		require.NotNil(t, scores, "partial scores must accompany the timeout")
		for _, s := range scores {
			assert.True(t, s.TimedOut, p.Name())
			assert.False(t, s.Converged, p.Name())
		}
	}
}
