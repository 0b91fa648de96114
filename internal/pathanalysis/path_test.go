package pathanalysis

import (
	"testing"

	"github.com/rotalabs/rotalabs-graph/api/schemas"
	"github.com/rotalabs/rotalabs-graph/internal/trustgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func diamondSnapshot(t *testing.T) *trustgraph.Snapshot {
	t.Helper()
	g := trustgraph.New(zap.NewNop())
	for _, id := range []string{"S", "L", "R", "T", "island"} {
		require.NoError(t, g.AddNode(schemas.TrustNode{
			ID: id, Name: id, Type: schemas.NodeTypeAgent, BaseTrust: 0.5,
		}))
	}
	edges := []schemas.TrustEdge{
		{SourceID: "S", TargetID: "L", Type: schemas.EdgeTypeTrusts, Weight: 0.9},
		{SourceID: "S", TargetID: "R", Type: schemas.EdgeTypeTrusts, Weight: 0.6},
		{SourceID: "L", TargetID: "T", Type: schemas.EdgeTypeTrusts, Weight: 0.5},
		{SourceID: "R", TargetID: "T", Type: schemas.EdgeTypeTrusts, Weight: 0.9},
	}
	for _, e := range edges {
		require.NoError(t, g.AddEdge(e))
	}
	return g.Snapshot()
}

func TestEvaluate(t *testing.T) {
	t.Parallel()
	snap := diamondSnapshot(t)

	t.Run("product and bottleneck", func(t *testing.T) {
		t.Parallel()
		path, err := Evaluate(snap, []string{"S", "L", "T"})
		require.NoError(t, err)
		assert.InDelta(t, 0.45, path.PathTrust, 1e-9)
		assert.InDelta(t, 0.5, path.Bottleneck, 1e-9)
	})

	t.Run("single node path is trivially full trust", func(t *testing.T) {
		t.Parallel()
		path, err := Evaluate(snap, []string{"S"})
		require.NoError(t, err)
		assert.Equal(t, 1.0, path.PathTrust)
		assert.Equal(t, 1.0, path.Bottleneck)
	})

	t.Run("missing hop", func(t *testing.T) {
		t.Parallel()
		_, err := Evaluate(snap, []string{"S", "T"})
		require.ErrorIs(t, err, schemas.ErrNotFound)
	})

	t.Run("unknown node", func(t *testing.T) {
		t.Parallel()
		_, err := Evaluate(snap, []string{"S", "ghost"})
		require.ErrorIs(t, err, schemas.ErrUnknownNode)
	})

	t.Run("empty path rejected", func(t *testing.T) {
		t.Parallel()
		_, err := Evaluate(snap, nil)
		require.ErrorIs(t, err, schemas.ErrInvalidParams)
	})
}

func TestBestPath(t *testing.T) {
	t.Parallel()
	snap := diamondSnapshot(t)

	t.Run("picks the maximum-product route", func(t *testing.T) {
		t.Parallel()
		// S->R->T scores 0.54, beating S->L->T at 0.45.
		path, err := BestPath(snap, "S", "T")
		require.NoError(t, err)
		assert.Equal(t, []string{"S", "R", "T"}, path.Nodes)
		assert.InDelta(t, 0.54, path.PathTrust, 1e-9)
		assert.InDelta(t, 0.6, path.Bottleneck, 1e-9)
	})

	t.Run("unreachable target", func(t *testing.T) {
		t.Parallel()
		_, err := BestPath(snap, "S", "island")
		require.ErrorIs(t, err, schemas.ErrNotFound)
	})

	t.Run("unknown endpoint", func(t *testing.T) {
		t.Parallel()
		_, err := BestPath(snap, "ghost", "T")
		require.ErrorIs(t, err, schemas.ErrUnknownNode)
	})
}
