package anomaly

import (
	"math"
	"sort"

	"github.com/rotalabs/rotalabs-graph/api/schemas"
	"github.com/rotalabs/rotalabs-graph/internal/trustgraph"
)

// scanIslandsAndOrphans walks the undirected projection of the graph and
// classifies its connected components. A component disconnected from the rest
// of the graph is a trust island once it reaches the minimum size; a node
// with no edges at all is an orphan, reported separately and never doubled as
// an island.
func (d *Detector) scanIslandsAndOrphans(snap *trustgraph.Snapshot) []schemas.Anomaly {
	var findings []schemas.Anomaly
	total := snap.NumNodes()
	visited := make(map[string]bool, total)

	for _, start := range snap.NodeIDs() {
		if visited[start] {
			continue
		}

		// BFS over both edge directions.
		component := []string{start}
		visited[start] = true
		for queue := []string{start}; len(queue) > 0; {
			u := queue[0]
			queue = queue[1:]
			for _, e := range snap.Outgoing(u) {
				if !visited[e.TargetID] {
					visited[e.TargetID] = true
					component = append(component, e.TargetID)
					queue = append(queue, e.TargetID)
				}
			}
			for _, e := range snap.Incoming(u) {
				if !visited[e.SourceID] {
					visited[e.SourceID] = true
					component = append(component, e.SourceID)
					queue = append(queue, e.SourceID)
				}
			}
		}

		if len(component) == 1 {
			id := component[0]
			if len(snap.Outgoing(id)) == 0 && len(snap.Incoming(id)) == 0 {
				findings = append(findings, newAnomaly(
					schemas.AnomalyOrphanNode, 0.2, []string{id},
					"node %q has no trust relationships in either direction", id,
				))
			}
			continue
		}

		// A component spanning the whole graph has no remainder to be
		// disconnected from.
		if len(component) >= d.cfg.MinIslandSize && len(component) < total {
			sort.Strings(component)
			findings = append(findings, newAnomaly(
				schemas.AnomalyTrustIsland,
				0.3+0.05*float64(len(component)),
				component,
				"isolated trust island of %d nodes with no connection to the remaining %d nodes",
				len(component), total-len(component),
			))
		}
	}
	return findings
}

// scanConcentration flags nodes whose weighted indegree exceeds
// mean + k*stddev of the indegree distribution. When propagation scores are
// supplied, a high computed score raises the finding's severity: trust
// concentrating on an already dominant node is the riskier pattern.
func (d *Detector) scanConcentration(snap *trustgraph.Snapshot, scores schemas.ScoreSet) []schemas.Anomaly {
	ids := snap.NodeIDs()
	n := len(ids)
	if n < 2 {
		return nil
	}

	indegree := make([]float64, n)
	var mean float64
	for i, id := range ids {
		indegree[i] = snap.WeightedInDegree(id)
		mean += indegree[i]
	}
	mean /= float64(n)

	var variance float64
	for _, v := range indegree {
		variance += (v - mean) * (v - mean)
	}
	stddev := math.Sqrt(variance / float64(n))
	if stddev == 0 {
		return nil
	}

	threshold := mean + d.cfg.ConcentrationK*stddev
	var findings []schemas.Anomaly
	for i, id := range ids {
		if indegree[i] <= threshold {
			continue
		}
		z := (indegree[i] - mean) / stddev
		severity := 0.5 + (z-d.cfg.ConcentrationK)/10
		if s, ok := scores[id]; ok {
			severity += 0.2 * s.Value
		}
		findings = append(findings, newAnomaly(
			schemas.AnomalySuspiciousConcentration, severity, []string{id},
			"node %q concentrates weighted indegree %.3f against a distribution mean of %.3f (z=%.2f)",
			id, indegree[i], mean, z,
		))
	}
	return findings
}

// scanTrustCliffs looks at every adjacent hop pair u -> v -> w and flags the
// second edge when the accumulated path trust falls by more than the
// configured delta across it. A cliff marks a spot where trust laundered
// through v decays abruptly, which usually means v should not be relaying it
// at all.
func (d *Detector) scanTrustCliffs(snap *trustgraph.Snapshot) []schemas.Anomaly {
	var findings []schemas.Anomaly
	for _, u := range snap.NodeIDs() {
		for _, first := range snap.Outgoing(u) {
			v := first.TargetID
			for _, second := range snap.Outgoing(v) {
				w := second.TargetID
				if w == u {
					continue
				}
				before := first.Weight
				after := before * second.Weight
				drop := before - after
				if drop <= d.cfg.CliffDelta {
					continue
				}
				findings = append(findings, newAnomaly(
					schemas.AnomalyTrustCliff, drop, []string{u, v, w},
					"path trust collapses from %.3f to %.3f across %s -> %s", before, after, v, w,
				))
			}
		}
	}
	return findings
}
