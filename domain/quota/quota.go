// Package quota provides pure functions for admission decisions.
// All functions are deterministic with no side effects.
package quota

import (
	"time"

	"github.com/rankgate/rankgate/domain/plan"
)

// Window is the trailing interval over which calls are counted.
// The window is rolling, so the reset hint is a constant rather than
// a computed boundary.
const (
	Window       = 24 * time.Hour
	ResetSeconds = 86400
)

// Decision is the outcome of evaluating a count against a ceiling
// (ephemeral value type, computed fresh per request, never cached).
type Decision struct {
	Tier      plan.Tier
	Ceiling   int64
	Used      int64
	Remaining int64
	Admitted  bool
}

// Evaluate computes the admission decision for a tier given the call
// count in the trailing window BEFORE the current request is recorded.
// A request that brings the count up to the ceiling is the last one
// admitted; the request arriving with count == ceiling is rejected.
func Evaluate(ceilings plan.Ceilings, tier plan.Tier, used int64) Decision {
	ceiling := ceilings.For(tier)
	remaining := ceiling - used
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Tier:      tier,
		Ceiling:   ceiling,
		Used:      used,
		Remaining: remaining,
		Admitted:  remaining > 0,
	}
}

// RemainingAfter returns the remaining allowance once the current
// (admitted) request is counted, floored at zero.
func (d Decision) RemainingAfter() int64 {
	if d.Remaining <= 0 {
		return 0
	}
	return d.Remaining - 1
}
