package plans

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"storefront-app/config"
	"storefront-app/database"
	"storefront-app/internal/domain/plans"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/price"
	"gorm.io/gorm"
)

type syncResult struct {
	Synced  int `json:"synced"`
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// SyncPlansFromStripe mirrors the active recurring USD prices of the
// storefront's Stripe product into the plans table.
func SyncPlansFromStripe(c *gin.Context) {
	if config.STRIPE_SECRET_KEY == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Stripe key not configured"})
		return
	}
	stripe.Key = config.STRIPE_SECRET_KEY

	params := &stripe.PriceListParams{}
	params.Active = stripe.Bool(true)
	params.Type = stripe.String("recurring")
	params.AddExpand("data.product")

	var res syncResult
	it := price.List(params)
	for it.Next() {
		created, ok, err := upsertPlan(database.DB, it.Price(), config.STRIPE_PRODUCT_ID)
		if err != nil {
			slog.Error("plan sync failed", "price_id", it.Price().ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store plan"})
			return
		}
		switch {
		case !ok:
			res.Skipped++
			continue
		case created:
			res.Created++
		default:
			res.Updated++
		}
		res.Synced++
	}
	if err := it.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch Stripe prices"})
		return
	}

	c.JSON(http.StatusOK, res)
}

// upsertPlan stores one Stripe price. ok is false when the price is not
// sellable here: inactive, one-off, not USD, another product, or hidden
// through metadata visible=false.
func upsertPlan(db *gorm.DB, p *stripe.Price, productID string) (created, ok bool, err error) {
	if p == nil || !p.Active || p.Recurring == nil || p.Product == nil || !p.Product.Active {
		return false, false, nil
	}
	if productID != "" && p.Product.ID != productID {
		return false, false, nil
	}
	if p.Currency != stripe.CurrencyUSD {
		return false, false, nil
	}
	if p.Metadata["visible"] == "false" {
		return false, false, nil
	}

	name := p.Product.Name
	if v := p.Metadata["plan"]; v != "" {
		name = v
	}
	tier := strings.ToLower(p.Metadata["tier"])
	if tier == "" {
		tier = plans.TierPro
	}

	var existing plans.Plan
	err = db.Where("stripe_price_id = ?", p.ID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		plan := plans.Plan{
			Name:          name,
			PriceUSD:      float64(p.UnitAmount) / 100.0,
			StripePriceID: p.ID,
			StripeProduct: p.Product.ID,
			Interval:      string(p.Recurring.Interval),
			Tier:          tier,
		}
		return true, true, db.Create(&plan).Error
	}
	if err != nil {
		return false, false, err
	}

	existing.Name = name
	existing.PriceUSD = float64(p.UnitAmount) / 100.0
	existing.StripeProduct = p.Product.ID
	existing.Interval = string(p.Recurring.Interval)
	existing.Tier = tier
	return false, true, db.Save(&existing).Error
}

func ListPlans(c *gin.Context) {
	var plansList []plans.Plan
	q := database.DB.Model(&plans.Plan{})
	if config.STRIPE_PRODUCT_ID != "" {
		q = q.Where("stripe_product_id = ?", config.STRIPE_PRODUCT_ID)
	}

	if err := q.Order("price_usd ASC").Find(&plansList).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load plans"})
		return
	}

	c.JSON(http.StatusOK, plansList)
}
