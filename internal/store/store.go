// Package store persists trust graph and temporal state to PostgreSQL. It is
// a surrounding serialization layer: everything it writes and reads travels
// through the public operations of the in-memory stores, and the core never
// depends on it.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotalabs/rotalabs-graph/api/schemas"
	"github.com/rotalabs/rotalabs-graph/internal/temporal"
	"github.com/rotalabs/rotalabs-graph/internal/trustgraph"
	"go.uber.org/zap"
)

// DBPool abstracts the pgxpool.Pool methods the store needs, which lets the
// tests swap in a mock pool.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store provides the PostgreSQL persistence implementation.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// New creates a store and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{pool: pool, log: logger.Named("store")}, nil
}

const upsertNodeSQL = `
	INSERT INTO trust_nodes (id, name, type, base_trust, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		type = EXCLUDED.type,
		base_trust = EXCLUDED.base_trust,
		updated_at = EXCLUDED.updated_at;
`

const upsertEdgeSQL = `
	INSERT INTO trust_edges (source_id, target_id, type, weight, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (source_id, target_id, type) DO UPDATE SET
		weight = EXCLUDED.weight,
		updated_at = EXCLUDED.updated_at;
`

// SaveSnapshot writes every node and edge of the snapshot in one
// transaction. Upsert semantics mirror the in-memory last-write-wins policy
// for duplicate edge triples.
func (s *Store) SaveSnapshot(ctx context.Context, snap *trustgraph.Snapshot) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && rollbackErr != pgx.ErrTxClosed {
			s.log.Error("failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	for _, id := range snap.NodeIDs() {
		node, _ := snap.Node(id)
		if _, err := tx.Exec(ctx, upsertNodeSQL,
			node.ID, node.Name, string(node.Type), node.BaseTrust, node.CreatedAt, node.UpdatedAt); err != nil {
			return fmt.Errorf("failed to upsert node %q: %w", node.ID, err)
		}
	}
	for _, id := range snap.NodeIDs() {
		for _, e := range snap.Outgoing(id) {
			if _, err := tx.Exec(ctx, upsertEdgeSQL,
				e.SourceID, e.TargetID, string(e.Type), e.Weight, e.CreatedAt, e.UpdatedAt); err != nil {
				return fmt.Errorf("failed to upsert edge %s->%s: %w", e.SourceID, e.TargetID, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.log.Debug("snapshot persisted",
		zap.Int("nodes", snap.NumNodes()),
		zap.Int("edges", snap.NumEdges()))
	return nil
}

// LoadGraph rebuilds an in-memory graph by replaying stored rows through the
// public AddNode/AddEdge operations, so every invariant is re-checked on the
// way in.
func (s *Store) LoadGraph(ctx context.Context, logger *zap.Logger) (*trustgraph.TrustGraph, error) {
	g := trustgraph.New(logger)

	rows, err := s.pool.Query(ctx, `
		SELECT id, name, type, base_trust, created_at, updated_at
		FROM trust_nodes ORDER BY id;
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var node schemas.TrustNode
		var nodeType string
		if err := rows.Scan(&node.ID, &node.Name, &nodeType, &node.BaseTrust, &node.CreatedAt, &node.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan node row: %w", err)
		}
		node.Type = schemas.NodeType(nodeType)
		if err := g.AddNode(node); err != nil {
			return nil, fmt.Errorf("failed to replay node %q: %w", node.ID, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("node row iteration failed: %w", err)
	}

	edgeRows, err := s.pool.Query(ctx, `
		SELECT source_id, target_id, type, weight, created_at, updated_at
		FROM trust_edges ORDER BY source_id, target_id, type;
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer edgeRows.Close()
	for edgeRows.Next() {
		var edge schemas.TrustEdge
		var edgeType string
		if err := edgeRows.Scan(&edge.SourceID, &edge.TargetID, &edgeType, &edge.Weight, &edge.CreatedAt, &edge.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan edge row: %w", err)
		}
		edge.Type = schemas.EdgeType(edgeType)
		if err := g.AddEdge(edge); err != nil {
			return nil, fmt.Errorf("failed to replay edge %s->%s: %w", edge.SourceID, edge.TargetID, err)
		}
	}
	if err := edgeRows.Err(); err != nil {
		return nil, fmt.Errorf("edge row iteration failed: %w", err)
	}

	return g, nil
}

// AppendEvents persists temporal history events for a node. The table is
// insert-only, matching the append-only contract of the in-memory log.
func (s *Store) AppendEvents(ctx context.Context, nodeID string, events []temporal.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && rollbackErr != pgx.ErrTxClosed {
			s.log.Error("failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	for _, ev := range events {
		if _, err := tx.Exec(ctx, `
			INSERT INTO trust_events (node_id, observed_at, trust, reason)
			VALUES ($1, $2, $3, $4);
		`, nodeID, ev.At, ev.Trust, ev.Reason); err != nil {
			return fmt.Errorf("failed to insert event for %q: %w", nodeID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LoadEvents reads a node's persisted history in insertion order.
func (s *Store) LoadEvents(ctx context.Context, nodeID string) ([]temporal.Event, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT observed_at, trust, reason
		FROM trust_events WHERE node_id = $1 ORDER BY id;
	`, nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []temporal.Event
	for rows.Next() {
		var ev temporal.Event
		if err := rows.Scan(&ev.At, &ev.Trust, &ev.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("event row iteration failed: %w", err)
	}
	return events, nil
}
