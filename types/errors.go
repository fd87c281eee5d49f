package types

import "errors"

// Error taxonomy from spec §7. Every error surfaced by the core wraps one
// of these sentinels with fmt.Errorf's %w, matching the synapse package's
// sentinel-error style (ErrSynapseInactive and friends) rather than a
// wrapping-framework dependency — no such dependency appears anywhere in
// the retrieved example corpus.
var (
	// ErrInvalidParameter is returned for negative n/k/beta, p outside
	// [0,1], or an empty merge.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrUnknownPart is returned when an edge names a brain part that was
	// never registered with the brain.
	ErrUnknownPart = errors.New("unknown brain part")

	// ErrMissingConnection is returned when lazy initialization is
	// disabled and a referenced connection has never been created.
	ErrMissingConnection = errors.New("missing connection")

	// ErrDimensionMismatch is returned when a winner index names a neuron
	// outside its area's range — always a logic error upstream.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrScopeMisuse is returned when a binding scope is exited out of
	// LIFO order, or when nested scopes conflict in a way that cannot be
	// resolved.
	ErrScopeMisuse = errors.New("scope misuse")

	// ErrReadBelowThreshold is returned by assembly.Read when no
	// candidate assembly's identification clears the confidence
	// threshold — reported as "no match", not a hard failure.
	ErrReadBelowThreshold = errors.New("read below confidence threshold")
)
