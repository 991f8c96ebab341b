package products

import (
	"net/http"

	"storefront-app/internal/app/catalog"
	"storefront-app/internal/app/http/middleware"
	"storefront-app/internal/domain/access"

	"github.com/gin-gonic/gin"
)

// ------------------------------
// GET /products/countdown  (server-sent events)
// ------------------------------
//
// Streams "tick" events for every time-locked product on the requested
// page, with the same filters as GET /products. When a product's release
// passes, that product alone is re-evaluated and sent as a "verdict" event;
// it may still be tier-locked. The stream ends with "done" once no timer is
// left, and every timer is torn down when the client goes away.
func (h *Handler) StreamCountdown(c *gin.Context) {
	tier := middleware.ViewerTier(c)
	f, err := h.filterParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page, size := h.pageParams(c)
	ctx := c.Request.Context()

	items, _, err := h.listPage(ctx, f, page, size, tier)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load products"})
		return
	}

	timers := catalog.NewCountdowns(h.clock, h.TickInterval)
	defer timers.CancelAll()

	ticks := make(chan catalog.Tick)
	pending := 0
	for _, ap := range items {
		if ap.Verdict.Kind == access.TimeLocked && ap.Product.ReleaseAt != nil {
			timers.Start(ctx, ap.Product.ID, *ap.Product.ReleaseAt, ticks)
			pending++
		}
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	for pending > 0 {
		select {
		case <-ctx.Done():
			return
		case tk := <-ticks:
			if !tk.Elapsed {
				c.SSEvent("tick", toTickDTO(tk))
				c.Writer.Flush()
				continue
			}

			pending--
			ap, err := h.assembler.Reevaluate(ctx, tk.ProductID, tier)
			if err != nil {
				h.log.Warn("re-evaluation after release failed", "product_id", tk.ProductID, "error", err)
				c.SSEvent("gone", gin.H{"product_id": tk.ProductID})
			} else {
				c.SSEvent("verdict", ToProductDTO(ap))
			}
			c.Writer.Flush()
		}
	}

	c.SSEvent("done", gin.H{"page": page})
	c.Writer.Flush()
}
