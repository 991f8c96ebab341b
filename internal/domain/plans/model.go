package plans

type Plan struct {
	ID            uint `gorm:"primaryKey"`
	Name          string
	PriceUSD      float64 `gorm:"column:price_usd"`
	StripePriceID string  `gorm:"column:stripe_price_id;not null;uniqueIndex:idx_plans_stripe_price_id"`
	StripeProduct string  `gorm:"column:stripe_product_id"`
	Interval      string
	Tier          string `gorm:"column:tier"` // "pro"
}
