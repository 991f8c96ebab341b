package products

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"storefront-app/internal/app/catalog"
	"storefront-app/internal/app/http/middleware"
	"storefront-app/internal/domain/access"
	"storefront-app/internal/pkg/clock"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	store     *catalog.GormStore
	assembler *catalog.Assembler
	top       access.TopQueue
	clock     clock.Clock
	log       *slog.Logger

	MaxPageSize  int
	TickInterval time.Duration
}

func NewHandler(store *catalog.GormStore, policy access.Policy, clk clock.Clock, log *slog.Logger) *Handler {
	if clk == nil {
		clk = clock.Real()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		store:        store,
		assembler:    catalog.NewAssembler(store, policy, clk, log),
		top:          access.TopQueue{ExemptCount: policy.TopProductExemptCount},
		clock:        clk,
		log:          log,
		MaxPageSize:  50,
		TickInterval: time.Second,
	}
}

func (h *Handler) pageParams(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err := strconv.Atoi(c.Query("page_size"))
	if err != nil || size < 1 {
		size = h.assembler.Policy().PageSize
	}
	if size < 1 {
		size = access.DefaultPageSize
	}
	if h.MaxPageSize > 0 && size > h.MaxPageSize {
		size = h.MaxPageSize
	}
	return page, size
}

// filterParams reads q, category, since and sort.
func (h *Handler) filterParams(c *gin.Context) (catalog.Filter, error) {
	sort, err := catalog.ParseSort(c.Query("sort"))
	if err != nil {
		return catalog.Filter{}, err
	}
	since, err := catalog.Since(c.Query("since"), h.clock.Now())
	if err != nil {
		return catalog.Filter{}, err
	}
	return catalog.Filter{
		Search:     c.Query("q"),
		CategoryID: c.Query("category"),
		Since:      since,
		Sort:       sort,
	}, nil
}

// listPage loads and annotates one page. The plain listing takes positions
// from its offset; any other view resolves them per row.
func (h *Handler) listPage(ctx context.Context, f catalog.Filter, page, size int, tier access.Tier) ([]catalog.AnnotatedProduct, int64, error) {
	if f.Unfiltered() {
		items, err := h.assembler.AssembleListing(ctx, page, size, tier)
		if err != nil {
			return nil, 0, err
		}
		total, err := h.store.Count(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("count products: %w", err)
		}
		return items, total, nil
	}

	rows, err := h.store.ListFiltered(ctx, f, (page-1)*size, size)
	if err != nil {
		return nil, 0, fmt.Errorf("list filtered products: %w", err)
	}
	total, err := h.store.CountFiltered(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("count filtered products: %w", err)
	}
	return h.assembler.AssembleRows(ctx, rows, tier), total, nil
}

// ------------------------------
// GET /products
// ------------------------------
func (h *Handler) ListProducts(c *gin.Context) {
	f, err := h.filterParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page, size := h.pageParams(c)

	items, total, err := h.listPage(c.Request.Context(), f, page, size, middleware.ViewerTier(c))
	if err != nil {
		h.log.Error("listing failed", "page", page, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load products"})
		return
	}

	out := ListResponse{
		Page:       page,
		PageSize:   size,
		Total:      total,
		TotalPages: int((total + int64(size) - 1) / int64(size)),
		Products:   make([]ProductDTO, 0, len(items)),
	}
	for _, ap := range items {
		out.Products = append(out.Products, ToProductDTO(ap))
	}
	c.JSON(http.StatusOK, out)
}

// ------------------------------
// GET /categories
// ------------------------------
func (h *Handler) ListCategories(c *gin.Context) {
	cats, err := h.store.ListCategories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load categories"})
		return
	}
	out := make([]CategoryDTO, 0, len(cats))
	for _, cat := range cats {
		out = append(out, CategoryDTO{ID: cat.ID, Name: cat.Name})
	}
	c.JSON(http.StatusOK, out)
}

// ------------------------------
// GET /products/:id
// ------------------------------
func (h *Handler) GetProduct(c *gin.Context) {
	ap, err := h.assembler.AssembleDetail(c.Request.Context(), c.Param("id"), middleware.ViewerTier(c))
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		h.log.Error("detail failed", "product_id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load product"})
		return
	}
	if err := h.store.RecordView(c.Request.Context(), ap.Product.ID); err != nil {
		h.log.Warn("record view failed", "product_id", ap.Product.ID, "error", err)
	}
	c.JSON(http.StatusOK, ToProductDTO(ap))
}

// ------------------------------
// GET /products/next-release
// ------------------------------
func (h *Handler) NextRelease(c *gin.Context) {
	now := h.clock.Now()
	next, err := h.store.NextRelease(c.Request.Context(), now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load next release"})
		return
	}

	scheduled := next != nil
	if !scheduled {
		midnight := nextMidnightUTC(now)
		next = &midnight
	}
	rem, _ := access.Remaining(next, now)

	c.JSON(http.StatusOK, gin.H{
		"release_at":   next,
		"scheduled":    scheduled,
		"remaining_ms": rem.Milliseconds(),
		"countdown":    access.FormatCountdown(rem),
	})
}

func nextMidnightUTC(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}

// ------------------------------
// GET /top-products
// ------------------------------
func (h *Handler) ListTopProducts(c *gin.Context) {
	ps, err := h.store.ListTop(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load top products"})
		return
	}

	entries := h.top.Audit(ps, middleware.ViewerTier(c), h.clock.Now())
	out := make([]TopProductDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, TopProductDTO{
			Rank: e.Rank,
			Product: ToProductDTO(catalog.AnnotatedProduct{
				Product: e.Product,
				Index:   -1,
				Verdict: e.Verdict,
			}),
		})
	}
	c.JSON(http.StatusOK, out)
}
