// Package propagation derives per-node trust scores from a graph snapshot.
//
// Three deterministic algorithms ship with the engine: a PageRank-style
// random surfer, an EigenTrust-style stationary distribution, and a
// hop-decayed weighted traversal. All of them satisfy the Propagator
// contract, and external implementations (a learned GNN propagator, for
// example) plug into the Engine through the same interface with no compile
// time dependency from this package onto any inference runtime.
package propagation

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/rotalabs/rotalabs-graph/api/schemas"
	"github.com/rotalabs/rotalabs-graph/internal/config"
	"github.com/rotalabs/rotalabs-graph/internal/trustgraph"
	"go.uber.org/zap"
)

// Params is the shared parameter set for the built-in propagators. Each
// algorithm validates only the fields it consumes and fails fast with
// schemas.ErrInvalidParams before running a single iteration.
type Params struct {
	// Damping is the PageRank continuation probability, in (0,1).
	Damping float64
	// Epsilon is the convergence threshold (and the pruning floor for the
	// weighted-hop traversal). Must be positive.
	Epsilon float64
	// MaxIterations caps power iterations. A run that hits the cap reports
	// Converged=false on every score rather than failing.
	MaxIterations int
	// MixingFactor blends the EigenTrust pre-trust vector into every
	// iteration to bound collusion among low-trust nodes. In (0,1).
	MixingFactor float64
	// Seeds are the starting node IDs for the weighted-hop traversal.
	Seeds []string
	// HopDecay is the per-hop attenuation r applied by the weighted-hop
	// traversal, in (0,1).
	HopDecay float64
	// MaxHops bounds the weighted-hop traversal depth.
	MaxHops int
	// Timeout, when positive, is the wall-clock budget for one Compute call.
	// Exceeding it yields partial scores tagged TimedOut, not a crash.
	Timeout time.Duration
}

// ParamsFromConfig lifts the configured defaults into a Params value.
func ParamsFromConfig(cfg config.PropagationConfig) Params {
	return Params{
		Damping:       cfg.Damping,
		Epsilon:       cfg.Epsilon,
		MaxIterations: cfg.MaxIterations,
		MixingFactor:  cfg.MixingFactor,
		HopDecay:      cfg.HopDecay,
		MaxHops:       cfg.MaxHops,
		Timeout:       cfg.Timeout,
	}
}

// Propagator computes a trust score for every node of a snapshot. Identical
// snapshot and parameters must yield identical scores (within floating
// epsilon) regardless of call order or scheduling; the built-ins guarantee
// this, externally injected implementations may not.
type Propagator interface {
	Name() string
	Compute(ctx context.Context, snap *trustgraph.Snapshot, params Params) (schemas.ScoreSet, error)
}

// Engine is the dependency-injection surface for propagators. The three
// built-ins are registered at construction; callers can register additional
// implementations under new names.
type Engine struct {
	mu          sync.RWMutex
	propagators map[string]Propagator
	log         *zap.Logger
}

// NewEngine creates an engine with the built-in algorithms registered.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		propagators: make(map[string]Propagator),
		log:         logger.Named("propagation"),
	}
	for _, p := range []Propagator{NewPageRank(), NewEigenTrust(), NewWeightedHop()} {
		e.propagators[p.Name()] = p
	}
	return e
}

// Register adds or replaces a propagator under its own name.
func (e *Engine) Register(p Propagator) error {
	if p == nil || p.Name() == "" {
		return fmt.Errorf("register propagator: %w", schemas.ErrInvalidParams)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.propagators[p.Name()] = p
	e.log.Info("propagator registered", zap.String("algorithm", p.Name()))
	return nil
}

// Names lists the registered algorithms in ascending order.
func (e *Engine) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.propagators))
	for name := range e.propagators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Compute dispatches to the named propagator, applying the Params.Timeout
// wall-clock budget. When the budget is exceeded the partial score set is
// returned alongside schemas.ErrTimeoutExceeded so callers can use or discard
// it.
func (e *Engine) Compute(ctx context.Context, algorithm string, snap *trustgraph.Snapshot, params Params) (schemas.ScoreSet, error) {
	e.mu.RLock()
	p, ok := e.propagators[algorithm]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown algorithm %q: %w", algorithm, schemas.ErrNotFound)
	}

	if params.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, params.Timeout)
		defer cancel()
	}

	start := time.Now()
	scores, err := p.Compute(ctx, snap, params)
	e.log.Debug("propagation finished",
		zap.String("algorithm", algorithm),
		zap.Int("nodes", snap.NumNodes()),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err))
	return scores, err
}

// deadlineExpired reports whether the context budget is spent.
func deadlineExpired(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// markTimedOut tags every score in the set as a partial, non-converged
// timeout result.
func markTimedOut(scores schemas.ScoreSet) schemas.ScoreSet {
	for id, s := range scores {
		s.Converged = false
		s.TimedOut = true
		scores[id] = s
	}
	return scores
}

// parallelOver splits the index range [0,n) across workers and applies fn to
// every index. fn must only read shared previous-iteration state and write
// its own index (Jacobi discipline), which keeps the result independent of
// scheduling.
func parallelOver(n int, fn func(i int)) {
	workers := runtime.NumCPU()
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunk := (n + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo, hi := w*chunk, (w+1)*chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				fn(i)
			}
		}(lo, hi)
	}
	wg.Wait()
}
