package stripewebhooks

import (
	"time"

	"storefront-app/database"
	"storefront-app/internal/domain/users"

	"github.com/stripe/stripe-go/v75"
)

// handleSubscriptionDeleted keeps the plan and period end: a canceled
// subscriber stays pro until current_period_end passes.
func handleSubscriptionDeleted(sub *stripe.Subscription) error {
	if sub.ID == "" {
		return nil
	}

	user, err := findSubscriber(sub)
	if err != nil || user == nil {
		return err
	}

	updates := map[string]interface{}{
		"stripe_subscription_status": string(stripe.SubscriptionStatusCanceled),
	}
	if sub.CurrentPeriodEnd > 0 {
		updates["current_period_end"] = time.Unix(sub.CurrentPeriodEnd, 0).UTC()
	}

	return database.DB.Model(&users.User{}).
		Where("id = ?", user.ID).
		Updates(updates).Error
}
