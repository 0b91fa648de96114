// File: cmd/analyze.go
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rotalabs/rotalabs-graph/api/schemas"
	"github.com/rotalabs/rotalabs-graph/internal/anomaly"
	"github.com/rotalabs/rotalabs-graph/internal/config"
	"github.com/rotalabs/rotalabs-graph/internal/graphio"
	"github.com/rotalabs/rotalabs-graph/internal/metrics"
	"github.com/rotalabs/rotalabs-graph/internal/observability"
	"github.com/rotalabs/rotalabs-graph/internal/propagation"
)

// analysisReport is the JSON document the analyze command emits.
type analysisReport struct {
	Algorithm string               `json:"algorithm"`
	Scores    []schemas.TrustScore `json:"scores"`
	Anomalies []schemas.Anomaly    `json:"anomalies"`
	Metrics   metrics.GraphMetrics `json:"metrics"`
}

func newAnalyzeCmd() *cobra.Command {
	var (
		inputPath string
		algorithm string
		seeds     []string
		output    string
	)

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Score a trust graph and scan it for anomalies",
		Long:  `Loads a graph description from a JSON file, runs the selected propagation algorithm, scans for structural anomalies, and writes a combined JSON report.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputPath == "" {
				return fmt.Errorf("an --input graph file must be provided")
			}

			ctx := cmd.Context()
			logger := observability.GetLogger()
			cfg := config.Get()

			graph, err := graphio.LoadFile(inputPath, logger)
			if err != nil {
				return fmt.Errorf("failed to load graph: %w", err)
			}
			snap := graph.Snapshot()
			logger.Info("Graph loaded",
				zap.Int("nodes", snap.NumNodes()),
				zap.Int("edges", snap.NumEdges()))

			params := propagation.ParamsFromConfig(cfg.Propagation)
			params.Seeds = seeds

			engine := propagation.NewEngine(logger)
			scores, err := engine.Compute(ctx, algorithm, snap, params)
			if err != nil {
				if scores == nil {
					return fmt.Errorf("propagation failed: %w", err)
				}
				// Partial timeout results are still worth reporting.
				logger.Warn("Propagation returned partial scores", zap.Error(err))
			}

			detector := anomaly.New(cfg.Anomaly, logger)
			report := analysisReport{
				Algorithm: algorithm,
				Scores:    orderedScores(scores),
				Anomalies: detector.DetectAll(snap, scores),
				Metrics:   metrics.Collect(snap),
			}

			out := os.Stdout
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				out = f
			}

			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
			return nil
		},
	}

	analyzeCmd.Flags().StringVarP(&inputPath, "input", "i", "", "path to the graph JSON file")
	analyzeCmd.Flags().StringVarP(&algorithm, "algorithm", "a", propagation.AlgorithmPageRank, "propagation algorithm (pagerank, eigentrust, weighted_hop)")
	analyzeCmd.Flags().StringSliceVar(&seeds, "seed", nil, "seed node id for weighted_hop (repeatable)")
	analyzeCmd.Flags().StringVarP(&output, "output", "o", "", "write the report to a file instead of stdout")
	return analyzeCmd
}

// orderedScores flattens a score set into a deterministic slice sorted by
// value descending, then node ID.
func orderedScores(scores schemas.ScoreSet) []schemas.TrustScore {
	out := make([]schemas.TrustScore, 0, len(scores))
	for _, s := range scores {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].NodeID < out[j].NodeID
	})
	return out
}
