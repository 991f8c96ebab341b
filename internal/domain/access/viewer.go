package access

import (
	"time"

	"storefront-app/internal/domain/plans"
	"storefront-app/internal/domain/users"
	"storefront-app/internal/infra/stripe"
)

// ResolveTier decides a customer's tier from their account state.
func ResolveTier(now time.Time, u users.User) Tier {
	if u.Role == users.RoleAdmin {
		return TierAdmin
	}

	if u.SubscriptionId == nil || *u.SubscriptionId == "" {
		return TierFree
	}

	switch stripe.NormalizeStripeStatus(u.StripeSubscriptionStatus) {
	case "active", "trialing":
		return tierForPlan(u.Plan)

	case "canceled":
		// paid-through access until the period ends
		if u.CurrentPeriodEnd != nil && now.Before(*u.CurrentPeriodEnd) {
			return tierForPlan(u.Plan)
		}
		return TierFree

	default:
		return TierFree
	}
}

func tierForPlan(p *plans.Plan) Tier {
	if plans.PlanTier(p) == plans.TierPro {
		return TierPro
	}
	return TierFree
}

// ParseTier maps a stored tier string; unknown values are free.
func ParseTier(s string) Tier {
	switch Tier(s) {
	case TierPro:
		return TierPro
	case TierAdmin:
		return TierAdmin
	}
	return TierFree
}
