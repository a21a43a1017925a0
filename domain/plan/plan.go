// Package plan provides plan tier value types and pure functions.
package plan

// Tier is a subscription level. It is a closed enumeration: every
// credential carries exactly one of the four tiers below, and anything
// else collapses to TierFree when parsed.
type Tier string

const (
	TierFree       Tier = "free"
	TierStarter    Tier = "starter"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

// Tiers lists all valid tiers in ascending order of ceiling.
var Tiers = []Tier{TierFree, TierStarter, TierPro, TierEnterprise}

// Default daily request ceilings per tier.
const (
	DefaultCeilingFree       = 10
	DefaultCeilingStarter    = 500
	DefaultCeilingPro        = 5000
	DefaultCeilingEnterprise = 999999
)

// ParseTier maps a stored string to a Tier. Unknown values map to
// TierFree so that a corrupt or stale tier never grants more quota
// than the most restrictive plan (fail closed).
func ParseTier(s string) Tier {
	switch Tier(s) {
	case TierFree, TierStarter, TierPro, TierEnterprise:
		return Tier(s)
	default:
		return TierFree
	}
}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierFree, TierStarter, TierPro, TierEnterprise:
		return true
	}
	return false
}

// String returns the tier name.
func (t Tier) String() string {
	return string(t)
}

// Ceilings maps each tier to its daily request ceiling (value type).
type Ceilings struct {
	Free       int64
	Starter    int64
	Pro        int64
	Enterprise int64
}

// DefaultCeilings returns the built-in ceiling table.
func DefaultCeilings() Ceilings {
	return Ceilings{
		Free:       DefaultCeilingFree,
		Starter:    DefaultCeilingStarter,
		Pro:        DefaultCeilingPro,
		Enterprise: DefaultCeilingEnterprise,
	}
}

// For returns the ceiling for a tier. The switch is exhaustive over
// the enumeration; an unknown tier gets the free ceiling.
func (c Ceilings) For(t Tier) int64 {
	switch t {
	case TierStarter:
		return c.Starter
	case TierPro:
		return c.Pro
	case TierEnterprise:
		return c.Enterprise
	case TierFree:
		return c.Free
	default:
		return c.Free
	}
}
