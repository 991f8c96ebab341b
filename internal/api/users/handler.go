package users

import (
	"context"
	"net/http"

	"storefront-app/database"
	"storefront-app/internal/app/http/middleware"
	"storefront-app/internal/domain/access"
	"storefront-app/internal/domain/users"
	"storefront-app/internal/pkg/clock"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// TierResolver loads the user with their plan and derives the viewer tier.
func TierResolver(db *gorm.DB, clk clock.Clock) middleware.TierResolver {
	return func(ctx context.Context, userID uint) (access.Tier, error) {
		var user users.User
		if err := db.WithContext(ctx).Preload("Plan").First(&user, userID).Error; err != nil {
			return access.TierFree, err
		}
		return access.ResolveTier(clk.Now(), user), nil
	}
}

func GetCurrentUser(clk clock.Clock) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("user_id")
		if userID == 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		var user users.User
		if err := database.DB.
			Preload("Plan").
			First(&user, userID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		now := clk.Now()
		tier := access.ResolveTier(now, user)

		resp := MeResponse{
			User: UserDTO{
				ID:           user.ID,
				Email:        user.Email,
				FullName:     user.FullName,
				Role:         user.Role,
				AuthProvider: user.AuthProvider,
			},
			Billing: BillingDTO{
				Plan:         BuildPlanDTO(user.Plan),
				Subscription: BuildSubscriptionDTO(now, user),
			},
			Access: AccessDTO{
				Tier:        string(tier),
				FullCatalog: tier.Privileged(),
			},
		}

		c.JSON(http.StatusOK, resp)
	}
}
