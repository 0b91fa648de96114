// Package temporal tracks decaying trust for a restricted set of entities.
// It is a separate store from the main trust graph: it may reference the
// same node IDs but owns its own state, and its event history is strictly
// append-only. Decay is computed at read time from the most recent baseline
// and never rewrites stored values.
package temporal

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rotalabs/rotalabs-graph/api/schemas"
	"github.com/rotalabs/rotalabs-graph/internal/config"
	"go.uber.org/zap"
)

// DecayKind selects the decay curve applied between events.
type DecayKind string

const (
	// DecayExponential halves the baseline every half-life.
	DecayExponential DecayKind = "EXPONENTIAL"
	// DecayLinear falls to zero over two half-lives, crossing half the
	// baseline at exactly one half-life to match the exponential model's
	// defining property.
	DecayLinear DecayKind = "LINEAR"
	// DecayStep holds the baseline and halves it at each whole half-life
	// boundary.
	DecayStep DecayKind = "STEP"
)

// Valid reports whether k is one of the defined decay kinds.
func (k DecayKind) Valid() bool {
	switch k {
	case DecayExponential, DecayLinear, DecayStep:
		return true
	}
	return false
}

// Event is one append-only history record: the trust value asserted for a
// node at a point in time, and why.
type Event struct {
	At     time.Time `json:"at"`
	Trust  float64   `json:"trust"`
	Reason string    `json:"reason"`
}

// entry is the per-node decay state. baselineAt/baseline always mirror the
// latest event; history grows in insertion order and is never rewritten.
type entry struct {
	decay      DecayKind
	halfLife   time.Duration
	baselineAt time.Time
	baseline   float64
	history    []Event
}

// TemporalTrustGraph maps node IDs to decaying trust baselines with an
// append-only event history per node. Mutations for the same node are
// serialized under the store lock, preserving event order.
type TemporalTrustGraph struct {
	mu           sync.RWMutex
	entries      map[string]*entry
	clock        Clock
	trackHistory bool
	log          *zap.Logger
}

// New creates an empty temporal store. A nil clock falls back to the system
// clock.
func New(cfg config.TemporalConfig, clock Clock, logger *zap.Logger) *TemporalTrustGraph {
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemporalTrustGraph{
		entries:      make(map[string]*entry),
		clock:        clock,
		trackHistory: cfg.TrackHistory,
		log:          logger.Named("temporal"),
	}
}

// AddNode registers a node's decay baseline. A zero `at` means now; a
// non-positive half-life is rejected. When history tracking is enabled the
// registration itself becomes the first history event.
func (t *TemporalTrustGraph) AddNode(id string, initialTrust float64, decay DecayKind, halfLife time.Duration, at time.Time) error {
	if !schemas.InUnit(initialTrust) {
		return fmt.Errorf("node %q initial trust %v: %w", id, initialTrust, schemas.ErrInvalidWeight)
	}
	if !decay.Valid() {
		return fmt.Errorf("node %q decay kind %q: %w", id, decay, schemas.ErrInvalidParams)
	}
	if halfLife <= 0 {
		return fmt.Errorf("node %q half-life %v: %w", id, halfLife, schemas.ErrInvalidParams)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.entries[id]; exists {
		return fmt.Errorf("temporal node %q: %w", id, schemas.ErrDuplicateNode)
	}
	if at.IsZero() {
		at = t.clock.Now()
	}

	e := &entry{
		decay:      decay,
		halfLife:   halfLife,
		baselineAt: at,
		baseline:   initialTrust,
	}
	if t.trackHistory {
		e.history = append(e.history, Event{At: at, Trust: initialTrust, Reason: "registered"})
	}
	t.entries[id] = e

	t.log.Debug("temporal node registered",
		zap.String("id", id),
		zap.Float64("initial_trust", initialTrust),
		zap.String("decay", string(decay)))
	return nil
}

// RecordEvent appends a trust observation and resets the decay baseline to
// (at, newTrust). Fails with schemas.ErrUnknownNode for an unregistered ID.
func (t *TemporalTrustGraph) RecordEvent(id string, newTrust float64, reason string, at time.Time) error {
	if !schemas.InUnit(newTrust) {
		return fmt.Errorf("node %q trust %v: %w", id, newTrust, schemas.ErrInvalidWeight)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[id]
	if !ok {
		return fmt.Errorf("temporal node %q: %w", id, schemas.ErrUnknownNode)
	}
	if at.IsZero() {
		at = t.clock.Now()
	}

	if t.trackHistory {
		e.history = append(e.history, Event{At: at, Trust: newTrust, Reason: reason})
	}
	e.baselineAt = at
	e.baseline = newTrust
	return nil
}

// GetCurrentTrust computes the decayed trust at the given instant (zero
// means now) from the most recent baseline. It is a pure function of elapsed
// time; nothing in the store changes.
func (t *TemporalTrustGraph) GetCurrentTrust(id string, at time.Time) (float64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.entries[id]
	if !ok {
		return 0, fmt.Errorf("temporal node %q: %w", id, schemas.ErrUnknownNode)
	}
	if at.IsZero() {
		at = t.clock.Now()
	}

	elapsed := at.Sub(e.baselineAt)
	if elapsed <= 0 {
		return e.baseline, nil
	}
	return decayValue(e.decay, e.baseline, elapsed, e.halfLife), nil
}

// decayValue applies the decay curve. The switch is exhaustive over
// DecayKind; AddNode rejects anything else up front.
func decayValue(kind DecayKind, baseline float64, elapsed, halfLife time.Duration) float64 {
	ratio := float64(elapsed) / float64(halfLife)
	switch kind {
	case DecayExponential:
		return baseline * math.Pow(0.5, ratio)
	case DecayLinear:
		remaining := 1 - ratio/2
		if remaining < 0 {
			remaining = 0
		}
		return baseline * remaining
	case DecayStep:
		return baseline * math.Pow(0.5, math.Floor(ratio))
	default:
		return baseline
	}
}

// History returns a copy of the node's event log in insertion order.
func (t *TemporalTrustGraph) History(id string) ([]Event, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.entries[id]
	if !ok {
		return nil, fmt.Errorf("temporal node %q: %w", id, schemas.ErrUnknownNode)
	}
	history := make([]Event, len(e.history))
	copy(history, e.history)
	return history, nil
}

// NodeIDs returns the registered IDs in ascending order.
func (t *TemporalTrustGraph) NodeIDs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]string, 0, len(t.entries))
	for id := range t.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
