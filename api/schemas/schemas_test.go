package schemas_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rotalabs/rotalabs-graph/api/schemas"
)

// getTestTime provides a fixed, reproducible timestamp.
func getTestTime(t *testing.T) time.Time {
	ts, err := time.Parse(time.RFC3339, "2025-06-01T10:00:00Z")
	require.NoError(t, err, "Test setup failed: unable to parse fixed timestamp")
	return ts
}

func TestVariantValidity(t *testing.T) {
	t.Parallel()

	t.Run("node types", func(t *testing.T) {
		t.Parallel()
		for _, nt := range []schemas.NodeType{
			schemas.NodeTypeModel, schemas.NodeTypeAgent, schemas.NodeTypeUser,
			schemas.NodeTypeDataSource, schemas.NodeTypeTool, schemas.NodeTypeService,
		} {
			assert.True(t, nt.Valid(), string(nt))
		}
		assert.False(t, schemas.NodeType("ROBOT").Valid())
		assert.False(t, schemas.NodeType("").Valid())
	})

	t.Run("edge types", func(t *testing.T) {
		t.Parallel()
		for _, et := range []schemas.EdgeType{
			schemas.EdgeTypeTrusts, schemas.EdgeTypeDelegates, schemas.EdgeTypeVerifies,
			schemas.EdgeTypeValidates, schemas.EdgeTypeDependsOn, schemas.EdgeTypeCalls,
			schemas.EdgeTypeOwns,
		} {
			assert.True(t, et.Valid(), string(et))
		}
		assert.False(t, schemas.EdgeType("LIKES").Valid())
	})

	t.Run("anomaly types", func(t *testing.T) {
		t.Parallel()
		for _, at := range []schemas.AnomalyType{
			schemas.AnomalyCircularTrust, schemas.AnomalyTrustIsland,
			schemas.AnomalySuspiciousConcentration, schemas.AnomalyTrustCliff,
			schemas.AnomalyOrphanNode,
		} {
			assert.True(t, at.Valid(), string(at))
		}
		assert.False(t, schemas.AnomalyType("WEIRD").Valid())
	})
}

func TestClampUnit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, schemas.ClampUnit(-0.5))
	assert.Equal(t, 1.0, schemas.ClampUnit(1.5))
	assert.Equal(t, 0.42, schemas.ClampUnit(0.42))

	assert.True(t, schemas.InUnit(0))
	assert.True(t, schemas.InUnit(1))
	assert.False(t, schemas.InUnit(1.0000001))
	assert.False(t, schemas.InUnit(-0.0000001))
}

func TestNewTrustNode(t *testing.T) {
	t.Parallel()
	now := getTestTime(t)

	node := schemas.NewTrustNode("model-1", "LLM", schemas.NodeTypeModel, 1.7, now)
	assert.Equal(t, 1.0, node.BaseTrust, "construction clamps, never rejects")
	assert.Equal(t, now, node.CreatedAt)
	assert.Equal(t, now, node.UpdatedAt)
}

func TestAnomalyDedupKey(t *testing.T) {
	t.Parallel()

	a := schemas.Anomaly{Type: schemas.AnomalyCircularTrust, Involved: []string{"B", "A"}}
	b := schemas.Anomaly{Type: schemas.AnomalyCircularTrust, Involved: []string{"A", "B"}}
	c := schemas.Anomaly{Type: schemas.AnomalyTrustIsland, Involved: []string{"A", "B"}}

	assert.Equal(t, a.DedupKey(), b.DedupKey(), "involved order must not matter")
	assert.NotEqual(t, a.DedupKey(), c.DedupKey(), "type is part of the identity")

	// DedupKey must not reorder the anomaly's own slice.
	assert.Equal(t, []string{"B", "A"}, a.Involved)
}
