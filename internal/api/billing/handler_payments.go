package billing

import (
	"net/http"
	"time"

	"storefront-app/database"
	"storefront-app/internal/domain/billing"

	"github.com/gin-gonic/gin"
)

// PaymentDTO is a customer's view of one completed checkout.
type PaymentDTO struct {
	ID         uint      `json:"id"`
	PlanName   string    `json:"plan_name,omitempty"`
	PlanTier   string    `json:"plan_tier,omitempty"`
	SessionID  string    `json:"stripe_session_id"`
	AmountUSD  float64   `json:"amount_usd"`
	Status     string    `json:"status"`
	InvoiceID  *string   `json:"invoice_id,omitempty"`
	ReceiptURL *string   `json:"receipt_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func toPaymentDTO(p billing.Payment) PaymentDTO {
	dto := PaymentDTO{
		ID:         p.ID,
		SessionID:  p.StripeSessionID,
		AmountUSD:  p.AmountUSD,
		Status:     p.Status,
		InvoiceID:  p.InvoiceID,
		ReceiptURL: p.ReceiptURL,
		CreatedAt:  p.CreatedAt,
	}
	if p.Plan != nil {
		dto.PlanName = p.Plan.Name
		dto.PlanTier = p.Plan.Tier
	}
	return dto
}

// GetPaymentHistory lists the caller's payments, newest first.
func GetPaymentHistory(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var payments []billing.Payment
	err := database.DB.
		Preload("Plan").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&payments).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load payments"})
		return
	}

	out := make([]PaymentDTO, 0, len(payments))
	for _, p := range payments {
		out = append(out, toPaymentDTO(p))
	}
	c.JSON(http.StatusOK, out)
}
