// File: cmd/report.go
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rotalabs/rotalabs-graph/api/schemas"
	"github.com/rotalabs/rotalabs-graph/internal/anomaly"
	"github.com/rotalabs/rotalabs-graph/internal/config"
	"github.com/rotalabs/rotalabs-graph/internal/metrics"
	"github.com/rotalabs/rotalabs-graph/internal/observability"
	"github.com/rotalabs/rotalabs-graph/internal/store"
)

func newReportCmd() *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Generate an anomaly and metrics report from the persisted graph",
		Long:  `Loads the trust graph from PostgreSQL, replays it through the in-memory store, and writes a JSON report combining anomaly findings with graph metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			cfg := config.Get()

			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres.url must be configured for report generation")
			}

			pool, err := pgxpool.New(ctx, cfg.Postgres.URL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer pool.Close()

			storeService, err := store.New(ctx, pool, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize store service: %w", err)
			}

			graph, err := storeService.LoadGraph(ctx, logger)
			if err != nil {
				logger.Error("Failed to load persisted graph", zap.Error(err))
				return err
			}
			snap := graph.Snapshot()

			detector := anomaly.New(cfg.Anomaly, logger)
			report := struct {
				Anomalies []schemas.Anomaly    `json:"anomalies"`
				Metrics   metrics.GraphMetrics `json:"metrics"`
			}{
				Anomalies: detector.DetectAll(snap, nil),
				Metrics:   metrics.Collect(snap),
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	return reportCmd
}
