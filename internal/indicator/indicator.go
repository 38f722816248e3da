// Package indicator provides streaming technical indicators over per-instrument
// price observations.
//
// Every indicator updates in O(1) amortized time per observation and exposes a
// readiness flag; values must not be trusted until Ready returns true. Ready
// becomes true once and never reverts.
package indicator

import "volarbv1/internal/model"

// Indicator is the readiness capability shared by all indicator variants.
// The decision layer gates on Ready rather than special-casing each type.
type Indicator interface {
	// Name returns the indicator name (e.g., "BANDS", "MOMENTUM").
	Name() string

	// Update feeds a new observation and recalculates.
	Update(obs model.Observation)

	// Ready returns true when enough history has been accumulated.
	Ready() bool
}
