package schemas

import "errors"

// Sentinel errors shared by every layer of the trust engine. Callers match
// them with errors.Is after unwrapping whatever context was added by the
// failing operation.
var (
	// ErrDuplicateNode is returned when adding a node whose ID already exists.
	ErrDuplicateNode = errors.New("duplicate node id")

	// ErrUnknownNode is returned when an operation references a node ID that
	// is not present in the relevant store.
	ErrUnknownNode = errors.New("unknown node id")

	// ErrInvalidWeight is returned when an edge weight or base trust falls
	// outside the [0,1] interval.
	ErrInvalidWeight = errors.New("weight outside [0,1]")

	// ErrNotFound is returned by removals and lookups on absent entities.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidParams is returned when propagation parameters fail
	// validation before any iteration runs.
	ErrInvalidParams = errors.New("invalid propagation parameters")

	// ErrTimeoutExceeded marks a propagation run that hit its wall-clock
	// budget. The accompanying scores are partial and tagged non-converged;
	// this error is advisory, not fatal.
	ErrTimeoutExceeded = errors.New("propagation wall-clock budget exceeded")
)
