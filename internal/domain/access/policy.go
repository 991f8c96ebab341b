package access

import (
	"time"

	"storefront-app/internal/domain/products"
)

// Evaluate computes the verdict for one product. It reads nothing ambient:
// the tier, the position lock and the clock reading are all passed in.
//
// A future release wins over every tier-lock signal so a countdown can be
// shown; once it elapses the explicit/top/position signals apply again.
func Evaluate(tier Tier, p products.Product, positionLocked bool, now time.Time) Verdict {
	if tier.Privileged() {
		return Verdict{Kind: Open}
	}

	if rem, ok := Remaining(p.ReleaseAt, now); ok {
		return Verdict{Kind: TimeLocked, Remaining: rem}
	}

	if p.IsLocked || p.IsTopProduct || positionLocked {
		return Verdict{Kind: TierLocked}
	}
	return Verdict{Kind: Open}
}
