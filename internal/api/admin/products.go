package admin

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"storefront-app/internal/app/catalog"
	"storefront-app/internal/domain/access"
	"storefront-app/internal/domain/products"
	"storefront-app/internal/pkg/clock"

	"github.com/gin-gonic/gin"
)

// ProductHandler is the admin side of the catalog.
type ProductHandler struct {
	store *catalog.GormStore
	top   access.TopQueue
	clock clock.Clock
	log   *slog.Logger
}

func NewProductHandler(store *catalog.GormStore, policy access.Policy, clk clock.Clock, log *slog.Logger) *ProductHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ProductHandler{
		store: store,
		top:   access.TopQueue{ExemptCount: policy.TopProductExemptCount},
		clock: clk,
		log:   log,
	}
}

// productInput is the admin payload. Priority arrives as a number or a
// numeric string; release_at as one of the accepted date-time layouts.
type productInput struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Images       []string `json:"images"`
	SellingPrice float64  `json:"selling_price"`
	ProductCost  float64  `json:"product_cost"`
	ProfitMargin float64  `json:"profit_margin"`
	SupplierURL  string   `json:"supplier_url"`
	VideoURL     string   `json:"video_url"`
	IsLocked     bool     `json:"is_locked"`
	IsTopProduct bool     `json:"is_top_product"`
	Priority     any      `json:"priority"`
	ReleaseAt    *string  `json:"release_at"`
	Categories   []string `json:"categories"`
}

// apply copies the input onto p. A malformed release time is dropped and a
// malformed priority becomes zero; neither rejects the request. The explicit
// lock is only what the admin sent.
func (in productInput) apply(p *products.Product) {
	p.Name = in.Name
	p.Description = in.Description
	p.Images = in.Images
	p.SellingPrice = in.SellingPrice
	p.ProductCost = in.ProductCost
	p.ProfitMargin = in.ProfitMargin
	p.SupplierURL = in.SupplierURL
	p.VideoURL = in.VideoURL
	p.IsLocked = in.IsLocked
	p.IsTopProduct = in.IsTopProduct
	p.Priority = access.NormalizePriority(in.Priority)

	p.ReleaseAt = nil
	if in.ReleaseAt != nil {
		p.ReleaseAt = access.ParseReleaseAt(*in.ReleaseAt)
	}
}

func bindProduct(c *gin.Context) (productInput, bool) {
	var in productInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product payload"})
		return in, false
	}
	if in.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required"})
		return in, false
	}
	links := append([]string{in.SupplierURL, in.VideoURL}, in.Images...)
	for _, l := range links {
		if l != "" && !isWebURL(l) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Links must be http(s) URLs"})
			return in, false
		}
	}
	return in, true
}

func isWebURL(s string) bool {
	u, err := url.ParseRequestURI(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (h *ProductHandler) respondProduct(c *gin.Context, status int, id string) {
	p, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reload product"})
		return
	}
	c.JSON(status, p)
}

// POST /admin/products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	in, ok := bindProduct(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var p products.Product
	in.apply(&p)
	p.CreatedAt = h.clock.Now()

	if err := h.store.Create(ctx, &p); err != nil {
		h.log.Error("product create failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}
	if err := h.store.SetCategories(ctx, p.ID, in.Categories); err != nil {
		h.log.Error("product categories failed", "product_id", p.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store categories"})
		return
	}

	h.log.Info("product created", "product_id", p.ID, "release_at", p.ReleaseAt)
	h.respondProduct(c, http.StatusCreated, p.ID)
}

// PUT /admin/products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	in, ok := bindProduct(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	p := products.Product{ID: c.Param("id")}
	in.apply(&p)
	p.UpdatedAt = h.clock.Now()

	if err := h.store.Update(ctx, &p); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		h.log.Error("product update failed", "product_id", p.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}
	if err := h.store.SetCategories(ctx, p.ID, in.Categories); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store categories"})
		return
	}

	h.respondProduct(c, http.StatusOK, p.ID)
}

// DELETE /admin/products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		h.log.Error("product delete failed", "product_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// POST /admin/products/:id/lock  {"locked": bool}
func (h *ProductHandler) SetProductLock(c *gin.Context) {
	var body struct {
		Locked *bool `json:"locked"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Locked == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing locked flag"})
		return
	}

	id := c.Param("id")
	if err := h.store.SetLocked(c.Request.Context(), id, *body.Locked); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update lock"})
		return
	}
	h.respondProduct(c, http.StatusOK, id)
}

type TopAuditEntry struct {
	Rank       int               `json:"rank"`
	Exempt     bool              `json:"exempt"`
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Priority   int               `json:"priority"`
	CreatedAt  time.Time         `json:"created_at"`
	ReleaseAt  *time.Time        `json:"release_at,omitempty"`
	FreeState  string            `json:"free_state"`
	Countdown  *access.Countdown `json:"countdown,omitempty"`
	IsLocked   bool              `json:"is_locked"`
	IsReleased bool              `json:"is_released"`
}

// GET /admin/top-products
//
// The queue as a free viewer meets it: rank, whether the slot is one of the
// permanently locked top K, and the verdict.
func (h *ProductHandler) AuditTopProducts(c *gin.Context) {
	ps, err := h.store.ListTop(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load top products"})
		return
	}

	now := h.clock.Now()
	entries := h.top.Audit(ps, access.TierFree, now)
	out := make([]TopAuditEntry, 0, len(entries))
	for _, e := range entries {
		_, pending := access.Remaining(e.Product.ReleaseAt, now)
		entry := TopAuditEntry{
			Rank:       e.Rank,
			Exempt:     e.Exempt,
			ID:         e.Product.ID,
			Name:       e.Product.Name,
			Priority:   e.Product.Priority,
			CreatedAt:  e.Product.CreatedAt,
			ReleaseAt:  e.Product.ReleaseAt,
			FreeState:  string(e.Verdict.Kind),
			IsLocked:   e.Product.IsLocked,
			IsReleased: !pending,
		}
		if e.Verdict.Kind == access.TimeLocked {
			cd := access.FormatCountdown(e.Verdict.Remaining)
			entry.Countdown = &cd
		}
		out = append(out, entry)
	}
	c.JSON(http.StatusOK, gin.H{
		"exempt_count": h.top.ExemptCount,
		"entries":      out,
	})
}
