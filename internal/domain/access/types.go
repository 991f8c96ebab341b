package access

import "time"

type Tier string

const (
	TierFree  Tier = "free"
	TierPro   Tier = "pro"
	TierAdmin Tier = "admin"
)

// Privileged tiers bypass every gate.
func (t Tier) Privileged() bool {
	return t == TierPro || t == TierAdmin
}

type VerdictKind string

const (
	Open       VerdictKind = "open"
	TierLocked VerdictKind = "tier_locked"
	TimeLocked VerdictKind = "time_locked"
)

// Verdict is the gating decision for one (viewer, product, position).
// Remaining is only set for TimeLocked.
type Verdict struct {
	Kind      VerdictKind
	Remaining time.Duration
}

func (v Verdict) IsOpen() bool { return v.Kind == Open }

// Policy holds the gating constants.
type Policy struct {
	// PageSize is the number of items per listing page.
	PageSize int
	// FreeWindowMultiplier is how many pages stay visible to the free tier
	// before position-based auto-lock engages.
	FreeWindowMultiplier int
	// TopProductExemptCount is K, the number of top slots permanently
	// locked for the free tier.
	TopProductExemptCount int
}

const (
	DefaultPageSize              = 10
	DefaultFreeWindowMultiplier  = 2
	DefaultTopProductExemptCount = 6
)

func DefaultPolicy() Policy {
	return Policy{
		PageSize:              DefaultPageSize,
		FreeWindowMultiplier:  DefaultFreeWindowMultiplier,
		TopProductExemptCount: DefaultTopProductExemptCount,
	}
}

// FreeWindowSize is the number of most-recent items visible to the free
// tier before position-based auto-lock engages.
func (p Policy) FreeWindowSize() int {
	size, mult := p.PageSize, p.FreeWindowMultiplier
	if size <= 0 {
		size = DefaultPageSize
	}
	if mult < 0 {
		mult = DefaultFreeWindowMultiplier
	}
	return size * mult
}
