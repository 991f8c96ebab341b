package users

import (
	"time"

	"storefront-app/internal/domain/plans"
	"storefront-app/internal/domain/users"
	"storefront-app/internal/infra/stripe"
)

func BuildPlanDTO(p *plans.Plan) *PlanDTO {
	if p == nil {
		return nil
	}
	return &PlanDTO{
		ID:            p.ID,
		Name:          p.Name,
		Interval:      p.Interval,
		PriceUSD:      p.PriceUSD,
		Tier:          plans.PlanTier(p),
		StripePriceID: p.StripePriceID,
	}
}

func BuildSubscriptionDTO(now time.Time, u users.User) *SubscriptionDTO {
	if u.SubscriptionId == nil || *u.SubscriptionId == "" {
		return nil
	}
	return &SubscriptionDTO{
		Status:               stripe.NormalizeStripeStatus(u.StripeSubscriptionStatus),
		StartsAt:             u.SubscriptionStart,
		CurrentPeriodEnd:     u.CurrentPeriodEnd,
		DaysLeft:             daysLeft(now, u.CurrentPeriodEnd),
		StripeSubscriptionID: u.SubscriptionId,
	}
}

func daysLeft(now time.Time, end *time.Time) *int {
	if end == nil {
		return nil
	}
	d := 0
	if now.Before(*end) {
		d = int(end.Sub(now).Hours() / 24)
	}
	return &d
}
