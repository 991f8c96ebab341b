package admin

import (
	"net/http"
	"time"

	"storefront-app/database"
	"storefront-app/internal/domain/access"
	"storefront-app/internal/domain/billing"
	"storefront-app/internal/domain/products"
	"storefront-app/internal/domain/users"
	"storefront-app/internal/infra/stripe"
	"storefront-app/internal/pkg/clock"

	"github.com/gin-gonic/gin"
)

type AdminUser struct {
	ID                 uint       `json:"id"`
	FullName           string     `json:"full_name"`
	Email              string     `json:"email"`
	Role               string     `json:"role"`
	AuthProvider       string     `json:"auth_provider"`
	Tier               string     `json:"tier"`
	PlanName           *string    `json:"plan_name,omitempty"`
	SubscriptionStatus string     `json:"subscription_status"`
	StripeCustomerID   *string    `json:"stripe_customer_id,omitempty"`
	StripeSubID        *string    `json:"stripe_subscription_id,omitempty"`
	SubscriptionStart  *time.Time `json:"subscription_start,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

type AdminPayment struct {
	ID         uint    `json:"id"`
	Email      string  `json:"email"`
	PlanName   *string `json:"plan_name,omitempty"`
	AmountUSD  float64 `json:"amount_usd"`
	Status     string  `json:"status"`
	InvoiceID  *string `json:"invoice_id,omitempty"`
	ReceiptURL *string `json:"receipt_url,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

type AdminStats struct {
	TotalUsers      int            `json:"total_users"`
	UsersPerTier    map[string]int `json:"users_per_tier"`
	TotalRevenue    float64        `json:"total_revenue"`
	RecentRevenue   float64        `json:"recent_revenue"`
	TotalProducts   int64          `json:"total_products"`
	LockedProducts  int64          `json:"locked_products"`
	PendingReleases int64          `json:"pending_releases"`
}

func toAdminUser(now time.Time, u users.User) AdminUser {
	var planName *string
	if u.Plan != nil {
		planName = &u.Plan.Name
	}
	return AdminUser{
		ID:                 u.ID,
		FullName:           u.FullName,
		Email:              u.Email,
		Role:               u.Role,
		AuthProvider:       u.AuthProvider,
		Tier:               string(access.ResolveTier(now, u)),
		PlanName:           planName,
		SubscriptionStatus: stripe.NormalizeStripeStatus(u.StripeSubscriptionStatus),
		StripeCustomerID:   u.StripeCustomerID,
		StripeSubID:        u.SubscriptionId,
		SubscriptionStart:  u.SubscriptionStart,
		CurrentPeriodEnd:   u.CurrentPeriodEnd,
		CreatedAt:          u.CreatedAt,
	}
}

func ListAllUsers(clk clock.Clock) gin.HandlerFunc {
	return func(c *gin.Context) {
		var list []users.User
		if err := database.DB.Preload("Plan").Order("created_at DESC").Find(&list).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load users"})
			return
		}

		now := clk.Now()
		out := make([]AdminUser, 0, len(list))
		for _, u := range list {
			out = append(out, toAdminUser(now, u))
		}
		c.JSON(http.StatusOK, out)
	}
}

func GetUserDetails(clk clock.Clock) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("id")

		var user users.User
		if err := database.DB.Preload("Plan").First(&user, "id = ?", userID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		var payments []billing.Payment
		if err := database.DB.Preload("Plan").Where("user_id = ?", user.ID).Order("created_at DESC").Find(&payments).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payments"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"user":     toAdminUser(clk.Now(), user),
			"payments": payments,
		})
	}
}

func ListAllPayments(c *gin.Context) {
	var payments []billing.Payment
	err := database.DB.Preload("User").Preload("Plan").Order("created_at DESC").Find(&payments).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load payments"})
		return
	}

	result := make([]AdminPayment, 0, len(payments))
	for _, p := range payments {
		var planName *string
		if p.Plan != nil {
			planName = &p.Plan.Name
		}
		result = append(result, AdminPayment{
			ID:         p.ID,
			Email:      p.User.Email,
			PlanName:   planName,
			AmountUSD:  p.AmountUSD,
			Status:     p.Status,
			InvoiceID:  p.InvoiceID,
			ReceiptURL: p.ReceiptURL,
			CreatedAt:  p.CreatedAt.Format("2006-01-02 15:04"),
		})
	}

	c.JSON(http.StatusOK, result)
}

func GetAdminStats(clk clock.Clock) gin.HandlerFunc {
	return func(c *gin.Context) {
		now := clk.Now()
		stats := AdminStats{UsersPerTier: map[string]int{}}

		var list []users.User
		if err := database.DB.Preload("Plan").Find(&list).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats"})
			return
		}
		stats.TotalUsers = len(list)
		for _, u := range list {
			stats.UsersPerTier[string(access.ResolveTier(now, u))]++
		}

		database.DB.Model(&billing.Payment{}).
			Where("status = ?", "paid").
			Select("COALESCE(SUM(amount_usd), 0)").Scan(&stats.TotalRevenue)
		database.DB.Model(&billing.Payment{}).
			Where("status = ? AND created_at >= ?", "paid", now.AddDate(0, 0, -30)).
			Select("COALESCE(SUM(amount_usd), 0)").Scan(&stats.RecentRevenue)

		database.DB.Model(&products.Product{}).Count(&stats.TotalProducts)
		database.DB.Model(&products.Product{}).Where("is_locked = ?", true).Count(&stats.LockedProducts)
		database.DB.Model(&products.Product{}).Where("release_at > ?", now.UTC()).Count(&stats.PendingReleases)

		c.JSON(http.StatusOK, stats)
	}
}
