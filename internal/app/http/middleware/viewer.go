package middleware

import (
	"context"
	"log/slog"

	"storefront-app/internal/domain/access"

	"github.com/gin-gonic/gin"
)

const tierKey = "viewer_tier"

// TierResolver looks up the tier of an authenticated user.
type TierResolver func(ctx context.Context, userID uint) (access.Tier, error)

// ResolveViewer resolves the request's tier once and stores it on the
// context. Anonymous viewers and failed lookups are free.
func ResolveViewer(resolve TierResolver, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tier := access.TierFree

		if userID := c.GetUint("user_id"); userID != 0 {
			t, err := resolve(c.Request.Context(), userID)
			if err != nil {
				log.Warn("viewer resolution failed, using free tier", "user_id", userID, "error", err)
			} else {
				tier = t
			}
		}

		c.Set(tierKey, tier)
		c.Next()
	}
}

// ViewerTier returns the tier ResolveViewer stored, or free.
func ViewerTier(c *gin.Context) access.Tier {
	if v, ok := c.Get(tierKey); ok {
		if t, ok := v.(access.Tier); ok {
			return t
		}
	}
	return access.TierFree
}
