package anomaly

import (
	"strings"

	"github.com/rotalabs/rotalabs-graph/api/schemas"
	"github.com/rotalabs/rotalabs-graph/internal/trustgraph"
)

// scanCircularTrust enumerates simple directed cycles up to the configured
// hop cap. Enumeration is canonicalized by only starting a cycle at its
// lexicographically smallest node, so each cycle is found exactly once.
// Shorter cycles score higher: a two-node mutual-trust loop is the tightest
// possible collusion structure.
func (d *Detector) scanCircularTrust(snap *trustgraph.Snapshot) []schemas.Anomaly {
	var findings []schemas.Anomaly

	for _, start := range snap.NodeIDs() {
		path := []string{start}
		onStack := map[string]bool{start: true}

		var dfs func(u string)
		dfs = func(u string) {
			for _, e := range snap.Outgoing(u) {
				v := e.TargetID
				if v == start {
					cycle := make([]string, len(path))
					copy(cycle, path)
					findings = append(findings, newAnomaly(
						schemas.AnomalyCircularTrust,
						2.0/float64(len(cycle)),
						cycle,
						"circular trust loop of length %d: %s", len(cycle), strings.Join(cycle, " -> "),
					))
					continue
				}
				// Restricting the walk to IDs above the start node is what
				// keeps each cycle from being reported once per member.
				if v <= start || onStack[v] || len(path) >= d.cfg.CycleCap {
					continue
				}
				path = append(path, v)
				onStack[v] = true
				dfs(v)
				path = path[:len(path)-1]
				delete(onStack, v)
			}
		}
		dfs(start)
	}
	return findings
}
