package stripewebhooks

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"storefront-app/database"
	"storefront-app/internal/domain/plans"
	"storefront-app/internal/domain/users"

	"github.com/stripe/stripe-go/v75"
	"gorm.io/gorm"
)

// findSubscriber resolves the user a subscription event belongs to. A
// missing user is not an error; the event is acknowledged and dropped.
func findSubscriber(sub *stripe.Subscription) (*users.User, error) {
	var user users.User

	q := database.DB.Where("subscription_id = ?", sub.ID)
	if id := userIDFromMetadata(sub.Metadata); id != 0 {
		q = database.DB.Where("id = ?", id)
	}

	err := q.First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func handleSubscriptionUpdated(sub *stripe.Subscription) error {
	if sub.ID == "" || sub.Items == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0].Price == nil {
		return fmt.Errorf("subscription missing id/items/price")
	}

	user, err := findSubscriber(sub)
	if err != nil || user == nil {
		return err
	}

	updates := map[string]interface{}{
		"subscription_id":            sub.ID,
		"current_period_end":         time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
		"stripe_subscription_status": string(sub.Status),
	}

	var plan plans.Plan
	priceID := sub.Items.Data[0].Price.ID
	if err := database.DB.Where("stripe_price_id = ?", priceID).First(&plan).Error; err == nil {
		updates["plan_id"] = plan.ID
	}

	return database.DB.Model(&users.User{}).
		Where("id = ?", user.ID).
		Updates(updates).Error
}

func userIDFromMetadata(md map[string]string) uint {
	if md == nil {
		return 0
	}
	s := md["user_id"]
	if s == "" {
		return 0
	}
	uid, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return uint(uid)
}
