package analysis

import "errors"

// Sentinel errors surfaced at construction and binding time. Sampling
// calls never return errors: in any state other than Ready they degrade
// to empty results so a per-frame polling loop cannot crash over a
// setup/teardown timing race.
var (
	// ErrConfig marks an invalid configuration value supplied at
	// construction. Fatal to that construction attempt; not retryable
	// without correcting the value.
	ErrConfig = errors.New("analysis: invalid configuration")

	// ErrInitialization marks a failed capability acquisition (source
	// unusable, capability unavailable). Non-fatal: the analyzer falls
	// back to Uninitialized and the caller may retry.
	ErrInitialization = errors.New("analysis: initialization failed")

	// ErrAlreadyBound marks a double-binding: either a second analyzer
	// claiming a source that is already live, or re-initializing a
	// Ready analyzer with a different source. Programmer error.
	ErrAlreadyBound = errors.New("analysis: already bound")
)
