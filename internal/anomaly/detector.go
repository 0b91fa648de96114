// Package anomaly scans a trust graph snapshot for structurally or
// numerically suspicious patterns. Every sub-detector is a pure function of
// the snapshot (and optionally a score set); none of them mutates the graph.
package anomaly

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rotalabs/rotalabs-graph/api/schemas"
	"github.com/rotalabs/rotalabs-graph/internal/config"
	"github.com/rotalabs/rotalabs-graph/internal/trustgraph"
	"go.uber.org/zap"
)

// Detector runs the independent sub-detectors and merges their findings.
// Thresholds come from configuration; the shipped defaults are tuning
// placeholders, not fixed constants.
type Detector struct {
	cfg config.AnomalyConfig
	log *zap.Logger
}

// New creates a detector with the given thresholds.
func New(cfg config.AnomalyConfig, logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{cfg: cfg, log: logger.Named("anomaly")}
}

// DetectAll runs every sub-detector over the snapshot. The optional score
// set sharpens severity for concentration findings; passing nil skips that
// refinement. Results are deduplicated by (type, sorted involved IDs) keeping
// the most severe duplicate, and ordered by severity descending, then by
// lowest involved node ID ascending.
func (d *Detector) DetectAll(snap *trustgraph.Snapshot, scores schemas.ScoreSet) []schemas.Anomaly {
	var findings []schemas.Anomaly
	findings = append(findings, d.scanCircularTrust(snap)...)
	findings = append(findings, d.scanIslandsAndOrphans(snap)...)
	findings = append(findings, d.scanConcentration(snap, scores)...)
	findings = append(findings, d.scanTrustCliffs(snap)...)

	findings = dedupe(findings)
	sortFindings(findings)

	d.log.Debug("detection pass complete",
		zap.Int("nodes", snap.NumNodes()),
		zap.Int("anomalies", len(findings)))
	return findings
}

func newAnomaly(atype schemas.AnomalyType, severity float64, involved []string, format string, args ...interface{}) schemas.Anomaly {
	return schemas.Anomaly{
		ID:          uuid.NewString(),
		Type:        atype,
		Description: fmt.Sprintf(format, args...),
		Severity:    schemas.ClampUnit(severity),
		Involved:    involved,
	}
}

// dedupe collapses findings sharing a DedupKey, keeping the most severe one.
// Parallel edge types between the same nodes can raise the same finding at
// different severities; the highest is the one worth reporting.
func dedupe(findings []schemas.Anomaly) []schemas.Anomaly {
	kept := make(map[string]int, len(findings))
	out := findings[:0]
	for _, f := range findings {
		key := f.DedupKey()
		if i, dup := kept[key]; dup {
			if f.Severity > out[i].Severity {
				out[i] = f
			}
			continue
		}
		kept[key] = len(out)
		out = append(out, f)
	}
	return out
}

func sortFindings(findings []schemas.Anomaly) {
	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Severity != findings[j].Severity {
			return findings[i].Severity > findings[j].Severity
		}
		li, lj := lowestInvolved(findings[i]), lowestInvolved(findings[j])
		if li != lj {
			return li < lj
		}
		return findings[i].Type < findings[j].Type
	})
}

func lowestInvolved(a schemas.Anomaly) string {
	if len(a.Involved) == 0 {
		return ""
	}
	lowest := a.Involved[0]
	for _, id := range a.Involved[1:] {
		if id < lowest {
			lowest = id
		}
	}
	return lowest
}
