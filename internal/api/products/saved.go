package products

import (
	"errors"
	"net/http"

	"storefront-app/internal/app/catalog"
	"storefront-app/internal/app/http/middleware"

	"github.com/gin-gonic/gin"
)

func mustUserID(c *gin.Context) (uint, bool) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return 0, false
	}
	return userID, true
}

// ------------------------------
// GET /saved
// ------------------------------
//
// Saved products go through the detail path one by one, so each carries
// the same verdict it has in the listing.
func (h *Handler) ListSaved(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	tier := middleware.ViewerTier(c)

	ids, err := h.store.SavedProductIDs(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load saved products"})
		return
	}

	out := make([]ProductDTO, 0, len(ids))
	for _, id := range ids {
		ap, err := h.assembler.AssembleDetail(ctx, id, tier)
		if errors.Is(err, catalog.ErrProductNotFound) {
			continue
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load saved products"})
			return
		}
		out = append(out, ToProductDTO(ap))
	}
	c.JSON(http.StatusOK, out)
}

// ------------------------------
// POST /products/:id/save
// ------------------------------
func (h *Handler) SaveProduct(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	if err := h.store.Save(c.Request.Context(), userID, c.Param("id")); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

// ------------------------------
// DELETE /products/:id/save
// ------------------------------
func (h *Handler) UnsaveProduct(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	if err := h.store.Unsave(c.Request.Context(), userID, c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove saved product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}
