package schemas

import (
	"sort"
	"strings"
)

// AnomalyType classifies the structural or numeric pattern a detector flagged.
type AnomalyType string

const (
	AnomalyCircularTrust           AnomalyType = "CIRCULAR_TRUST"
	AnomalyTrustIsland             AnomalyType = "TRUST_ISLAND"
	AnomalySuspiciousConcentration AnomalyType = "SUSPICIOUS_CONCENTRATION"
	AnomalyTrustCliff              AnomalyType = "TRUST_CLIFF"
	AnomalyOrphanNode              AnomalyType = "ORPHAN_NODE"
)

// Valid reports whether t is one of the defined anomaly types.
func (t AnomalyType) Valid() bool {
	switch t {
	case AnomalyCircularTrust, AnomalyTrustIsland, AnomalySuspiciousConcentration,
		AnomalyTrustCliff, AnomalyOrphanNode:
		return true
	}
	return false
}

// Anomaly is a single suspicious pattern found by the detector. Immutable
// once produced; Involved holds the node (or edge endpoint) IDs in a stable
// order.
type Anomaly struct {
	ID          string      `json:"id"`
	Type        AnomalyType `json:"type"`
	Description string      `json:"description"`
	Severity    float64     `json:"severity"`
	Involved    []string    `json:"involved"`
}

// DedupKey identifies an anomaly by its type and the sorted set of involved
// IDs, ignoring instance ID and description. Two detector hits with the same
// key are the same finding.
func (a Anomaly) DedupKey() string {
	ids := make([]string, len(a.Involved))
	copy(ids, a.Involved)
	sort.Strings(ids)
	return string(a.Type) + "|" + strings.Join(ids, ",")
}
