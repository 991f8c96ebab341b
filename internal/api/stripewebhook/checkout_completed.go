package stripewebhooks

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"storefront-app/database"
	"storefront-app/internal/domain/billing"
	"storefront-app/internal/domain/plans"
	"storefront-app/internal/domain/users"

	"github.com/stripe/stripe-go/v75"
	checkoutsession "github.com/stripe/stripe-go/v75/checkout/session"
	"github.com/stripe/stripe-go/v75/subscription"
	"gorm.io/gorm"
)

func handleCheckoutSessionCompleted(session *stripe.CheckoutSession) error {
	fullSession, err := checkoutsession.Get(session.ID, &stripe.CheckoutSessionParams{
		Params: stripe.Params{
			Expand: []*string{
				stripe.String("subscription"),
				stripe.String("customer"),
				stripe.String("invoice"),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to fetch expanded checkout session: %w", err)
	}
	if fullSession.Subscription == nil || fullSession.Subscription.ID == "" {
		return errors.New("checkout session missing subscription")
	}

	subData, err := subscription.Get(fullSession.Subscription.ID, nil)
	if err != nil {
		return fmt.Errorf("failed to fetch subscription: %w", err)
	}

	userID, err := userIDFromSubscriptionOrRef(subData, fullSession.ClientReferenceID)
	if err != nil {
		return err
	}

	// replace an older subscription instead of billing twice
	var user users.User
	if err := database.DB.First(&user, userID).Error; err == nil &&
		user.SubscriptionId != nil && *user.SubscriptionId != "" && *user.SubscriptionId != subData.ID {
		_, _ = subscription.Cancel(*user.SubscriptionId, nil)
	}

	return applyCheckout(database.DB, userID, fullSession, subData, time.Now())
}

// applyCheckout activates the user's subscription and records the payment.
// Replayed events find the payment by session id and leave it alone.
func applyCheckout(db *gorm.DB, userID uint, session *stripe.CheckoutSession, sub *stripe.Subscription, now time.Time) error {
	if sub == nil || sub.Items == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0].Price == nil {
		return errors.New("subscription missing items/price")
	}
	priceID := sub.Items.Data[0].Price.ID

	return db.Transaction(func(tx *gorm.DB) error {
		var user users.User
		if err := tx.First(&user, userID).Error; err != nil {
			return fmt.Errorf("user not found: %w", err)
		}

		var plan plans.Plan
		if err := tx.Where("stripe_price_id = ?", priceID).First(&plan).Error; err != nil {
			return fmt.Errorf("plan not found for stripe price_id=%s: %w", priceID, err)
		}

		periodEnd := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		updates := map[string]interface{}{
			"plan_id":                    plan.ID,
			"subscription_id":            sub.ID,
			"subscription_start":         now,
			"current_period_end":         periodEnd,
			"stripe_subscription_status": string(sub.Status),
		}
		if session.Customer != nil && session.Customer.ID != "" {
			updates["stripe_customer_id"] = session.Customer.ID
		}
		if err := tx.Model(&users.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update user after checkout: %w", err)
		}

		payment := billing.Payment{
			UserID:               user.ID,
			PlanID:               &plan.ID,
			StripeSessionID:      session.ID,
			StripeSubscriptionID: stripe.String(sub.ID),
			AmountUSD:            float64(session.AmountTotal) / 100.0,
			Status:               string(session.PaymentStatus),
			CreatedAt:            now,
		}
		if session.Invoice != nil && session.Invoice.ID != "" {
			payment.InvoiceID = stripe.String(session.Invoice.ID)
			if session.Invoice.HostedInvoiceURL != "" {
				payment.ReceiptURL = stripe.String(session.Invoice.HostedInvoiceURL)
			}
		}

		return tx.Omit("User", "Plan").
			Where(billing.Payment{StripeSessionID: session.ID}).
			FirstOrCreate(&payment).Error
	})
}

func userIDFromSubscriptionOrRef(sub *stripe.Subscription, clientRef string) (uint, error) {
	userIDStr := ""
	if sub.Metadata != nil {
		userIDStr = sub.Metadata["user_id"]
	}
	if userIDStr == "" {
		userIDStr = clientRef
	}
	if userIDStr == "" {
		return 0, errors.New("missing user_id (metadata.user_id or client_reference_id)")
	}

	uid64, err := strconv.ParseUint(userIDStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user_id %q: %w", userIDStr, err)
	}
	return uint(uid64), nil
}
