package products

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront-app/internal/app/catalog"
	"storefront-app/internal/app/http/middleware"
	"storefront-app/internal/domain/access"
	"storefront-app/internal/domain/products"
	"storefront-app/internal/pkg/clock"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	router  *gin.Engine
	store   *catalog.GormStore
	clock   *clock.MockClock
	handler *Handler
}

// newTestEnv wires the handler behind the real viewer middleware. The
// X-Test-User header stands in for a verified token; tiers maps user ids to
// the tier the resolver reports.
func newTestEnv(t *testing.T, tiers map[uint]access.Tier) *testEnv {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&products.Product{}, &products.Category{}, &products.SavedProduct{}))

	store := catalog.NewGormStore(db)
	clk := clock.NewMock(t0)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(store, access.DefaultPolicy(), clk, log)
	h.TickInterval = 5 * time.Millisecond

	resolve := func(_ context.Context, userID uint) (access.Tier, error) {
		if tier, ok := tiers[userID]; ok {
			return tier, nil
		}
		return access.TierFree, nil
	}

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if v := c.GetHeader("X-Test-User"); v != "" {
			id, _ := strconv.Atoi(v)
			c.Set("user_id", uint(id))
		}
		c.Next()
	})
	r.Use(middleware.ResolveViewer(resolve, log))

	r.GET("/products", h.ListProducts)
	r.GET("/categories", h.ListCategories)
	r.GET("/products/countdown", h.StreamCountdown)
	r.GET("/products/next-release", h.NextRelease)
	r.GET("/products/:id", h.GetProduct)
	r.GET("/top-products", h.ListTopProducts)
	r.GET("/saved", h.ListSaved)
	r.POST("/products/:id/save", h.SaveProduct)
	r.DELETE("/products/:id/save", h.UnsaveProduct)

	return &testEnv{router: r, store: store, clock: clk, handler: h}
}

func (e *testEnv) seed(t *testing.T, n int, mutate func(i int, p *products.Product)) []products.Product {
	ps := make([]products.Product, n)
	for i := range ps {
		ps[i] = products.Product{
			ID:           fmt.Sprintf("prod-%03d", i),
			Name:         fmt.Sprintf("Product %d", i),
			SellingPrice: 29.99,
			ProductCost:  7.5,
			ProfitMargin: 22.49,
			SupplierURL:  "https://supplier.example/p?id=1&ref=x",
			VideoURL:     "https://video.example/v",
			CreatedAt:    t0.Add(-time.Duration(i) * time.Hour),
		}
		if mutate != nil {
			mutate(i, &ps[i])
		}
		require.NoError(t, e.store.Create(context.Background(), &ps[i]))
	}
	return ps
}

func (e *testEnv) get(t *testing.T, path, user string) *httptest.ResponseRecorder {
	return e.do(t, http.MethodGet, path, user)
}

func (e *testEnv) do(t *testing.T, method, path, user string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestListProducts_FreeWindow(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t, 25, nil)

	w := env.get(t, "/products?page=2&page_size=10", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp ListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Page)
	assert.Equal(t, int64(25), resp.Total)
	assert.Equal(t, 3, resp.TotalPages)
	require.Len(t, resp.Products, 10)

	// page 2 holds indices 10..19; the free window ends at 20
	for i, p := range resp.Products {
		require.NotNil(t, p.Position)
		assert.Equal(t, 10+i, *p.Position)
		assert.Equal(t, "open", p.Access.State)
		assert.False(t, p.AutoLocked)
		require.NotNil(t, p.SupplierURL)
		assert.Equal(t, "https://supplier.example/p?id=1&ref=x", *p.SupplierURL)
	}

	w = env.get(t, "/products?page=3&page_size=10", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "supplier.example")

	var last ListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &last))
	require.Len(t, last.Products, 5)
	for _, p := range last.Products {
		assert.Equal(t, "tier_locked", p.Access.State)
		assert.True(t, p.AutoLocked)
		assert.Nil(t, p.ProductCost)
		assert.Nil(t, p.ProfitMargin)
		assert.Nil(t, p.SupplierURL)
		assert.Nil(t, p.VideoURL)
	}
}

func TestListProducts_PageSizeIsClamped(t *testing.T) {
	env := newTestEnv(t, nil)
	env.handler.MaxPageSize = 5
	env.seed(t, 8, nil)

	w := env.get(t, "/products?page_size=100", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp ListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 5, resp.PageSize)
	assert.Len(t, resp.Products, 5)
}

func TestListProducts_ProSeesEverything(t *testing.T) {
	env := newTestEnv(t, map[uint]access.Tier{7: access.TierPro})
	release := t0.Add(time.Hour)
	env.seed(t, 25, func(i int, p *products.Product) {
		switch i {
		case 0:
			p.ReleaseAt = &release
		case 1:
			p.IsLocked = true
		}
	})

	for page := 1; page <= 3; page++ {
		w := env.get(t, fmt.Sprintf("/products?page=%d", page), "7")
		require.Equal(t, http.StatusOK, w.Code)

		var resp ListResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		for _, p := range resp.Products {
			assert.Equal(t, "open", p.Access.State, p.ID)
			assert.False(t, p.AutoLocked, p.ID)
			assert.NotNil(t, p.ProductCost, p.ID)
		}
	}
}

func TestGetProduct_MatchesListing(t *testing.T) {
	env := newTestEnv(t, nil)
	release := t0.Add(90 * time.Minute)
	env.seed(t, 25, func(i int, p *products.Product) {
		if i == 3 {
			p.ReleaseAt = &release
		}
		if i == 5 {
			p.IsTopProduct = true
		}
	})

	listed := map[string]ProductDTO{}
	for page := 1; page <= 3; page++ {
		w := env.get(t, fmt.Sprintf("/products?page=%d", page), "")
		var resp ListResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		for _, p := range resp.Products {
			listed[p.ID] = p
		}
	}
	require.Len(t, listed, 25)

	for id, want := range listed {
		w := env.get(t, "/products/"+id, "")
		require.Equal(t, http.StatusOK, w.Code)

		var got ProductDTO
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, want.Access.State, got.Access.State, id)
		assert.Equal(t, want.AutoLocked, got.AutoLocked, id)
		assert.Equal(t, *want.Position, *got.Position, id)
	}

	assert.Equal(t, "time_locked", listed["prod-003"].Access.State)
	assert.Equal(t, int64(90*60*1000), listed["prod-003"].Access.RemainingMS)
	require.NotNil(t, listed["prod-003"].Access.Countdown)
	assert.Equal(t, access.Countdown{Hours: 1, Minutes: 30}, *listed["prod-003"].Access.Countdown)
	assert.Equal(t, "tier_locked", listed["prod-005"].Access.State)
}

func TestGetProduct_NotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.get(t, "/products/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNextRelease(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.get(t, "/products/next-release", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		ReleaseAt   time.Time        `json:"release_at"`
		Scheduled   bool             `json:"scheduled"`
		RemainingMS int64            `json:"remaining_ms"`
		Countdown   access.Countdown `json:"countdown"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Scheduled)
	assert.True(t, resp.ReleaseAt.Equal(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, access.Countdown{Hours: 12}, resp.Countdown)

	soon := t0.Add(45 * time.Minute)
	later := t0.Add(3 * time.Hour)
	env.seed(t, 2, func(i int, p *products.Product) {
		if i == 0 {
			p.ReleaseAt = &later
		} else {
			p.ReleaseAt = &soon
		}
	})

	w = env.get(t, "/products/next-release", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Scheduled)
	assert.True(t, resp.ReleaseAt.Equal(soon))
	assert.Equal(t, int64(45*60*1000), resp.RemainingMS)
}

func TestListTopProducts(t *testing.T) {
	env := newTestEnv(t, map[uint]access.Tier{9: access.TierAdmin})
	env.seed(t, 4, func(i int, p *products.Product) {
		p.IsTopProduct = i != 3
		p.Priority = i
	})

	var got []TopProductDTO
	w := env.get(t, "/top-products", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 3)
	assert.Equal(t, "prod-002", got[0].Product.ID)
	assert.Equal(t, 1, got[0].Rank)
	for _, e := range got {
		assert.Equal(t, "tier_locked", e.Product.Access.State)
	}

	w = env.get(t, "/top-products", "9")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	for _, e := range got {
		assert.Equal(t, "open", e.Product.Access.State)
	}
}

func TestSavedProducts(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t, 25, nil)

	w := env.do(t, http.MethodPost, "/products/prod-001/save", "3")
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodPost, "/products/prod-022/save", "3")
	require.Equal(t, http.StatusOK, w.Code)
	// saving twice is a no-op
	w = env.do(t, http.MethodPost, "/products/prod-001/save", "3")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/products/nope/save", "3")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.get(t, "/saved", "3")
	require.Equal(t, http.StatusOK, w.Code)
	var saved []ProductDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &saved))
	require.Len(t, saved, 2)

	states := map[string]string{}
	for _, p := range saved {
		states[p.ID] = p.Access.State
	}
	assert.Equal(t, "open", states["prod-001"])
	assert.Equal(t, "tier_locked", states["prod-022"])

	w = env.do(t, http.MethodDelete, "/products/prod-022/save", "3")
	require.Equal(t, http.StatusOK, w.Code)
	w = env.get(t, "/saved", "3")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &saved))
	assert.Len(t, saved, 1)

	w = env.get(t, "/saved", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStreamCountdown_ReleaseFlipsVerdict(t *testing.T) {
	env := newTestEnv(t, nil)
	release := t0.Add(time.Second)
	env.seed(t, 3, func(i int, p *products.Product) {
		if i == 1 {
			p.ReleaseAt = &release
		}
	})

	done := make(chan *httptest.ResponseRecorder)
	go func() {
		done <- env.get(t, "/products/countdown", "")
	}()

	time.Sleep(30 * time.Millisecond)
	env.clock.Advance(2 * time.Second)

	var w *httptest.ResponseRecorder
	select {
	case w = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not finish after release")
	}

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/event-stream"), w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))

	body := w.Body.String()
	assert.Contains(t, body, "event:tick")
	assert.Contains(t, body, `"product_id":"prod-001"`)
	assert.Contains(t, body, "event:verdict")
	assert.Contains(t, body, "event:done")

	verdict := body[strings.Index(body, "event:verdict"):]
	assert.Contains(t, verdict, `"state":"open"`)
	assert.Contains(t, verdict, `"supplier_url"`)
}

func TestStreamCountdown_NothingPending(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t, 3, nil)

	w := env.get(t, "/products/countdown", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/event-stream"))
	assert.NotContains(t, w.Body.String(), "event:tick")
	assert.Contains(t, w.Body.String(), "event:done")
}

// listAll collects the plain listing, keyed by product id.
func (e *testEnv) listAll(t *testing.T, user string) map[string]ProductDTO {
	out := map[string]ProductDTO{}
	for page := 1; ; page++ {
		w := e.get(t, fmt.Sprintf("/products?page=%d", page), user)
		require.Equal(t, http.StatusOK, w.Code)

		var resp ListResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		for _, p := range resp.Products {
			out[p.ID] = p
		}
		if page >= resp.TotalPages {
			return out
		}
	}
}

func (e *testEnv) list(t *testing.T, path, user string) ListResponse {
	w := e.get(t, path, user)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestListProducts_SearchKeepsCatalogPosition(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t, 25, nil)
	plain := env.listAll(t, "")

	resp := env.list(t, "/products?q=product+2", "")
	assert.Equal(t, int64(6), resp.Total)
	assert.Equal(t, 1, resp.TotalPages)
	require.Len(t, resp.Products, 6)

	got := map[string]string{}
	for _, p := range resp.Products {
		want := plain[p.ID]
		require.NotNil(t, p.Position, p.ID)
		assert.Equal(t, *want.Position, *p.Position, p.ID)
		assert.Equal(t, want.Access.State, p.Access.State, p.ID)
		assert.Equal(t, want.AutoLocked, p.AutoLocked, p.ID)
		got[p.ID] = p.Access.State
	}
	assert.Equal(t, map[string]string{
		"prod-002": "open",
		"prod-020": "tier_locked",
		"prod-021": "tier_locked",
		"prod-022": "tier_locked",
		"prod-023": "tier_locked",
		"prod-024": "tier_locked",
	}, got)
	// only the one open product exposes its supplier link
	body := env.get(t, "/products?q=product+2", "").Body.String()
	assert.Equal(t, 1, strings.Count(body, "supplier.example"))

	empty := env.list(t, "/products?q=%25", "")
	assert.Equal(t, int64(0), empty.Total)
	assert.Empty(t, empty.Products)
}

func TestListProducts_CategoryAndSortKeepVerdicts(t *testing.T) {
	env := newTestEnv(t, map[uint]access.Tier{7: access.TierPro})
	env.seed(t, 25, func(i int, p *products.Product) {
		if i == 24 {
			p.ProfitMargin = 99
		}
	})
	ctx := context.Background()
	require.NoError(t, env.store.SetCategories(ctx, "prod-001", []string{"Gadgets"}))
	require.NoError(t, env.store.SetCategories(ctx, "prod-024", []string{"Gadgets", "Home"}))

	w := env.get(t, "/categories", "")
	require.Equal(t, http.StatusOK, w.Code)
	var cats []CategoryDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cats))
	require.Len(t, cats, 2)
	assert.Equal(t, "Gadgets", cats[0].Name)
	assert.Equal(t, "Home", cats[1].Name)

	byCategory := env.list(t, "/products?category="+cats[0].ID, "")
	require.Len(t, byCategory.Products, 2)
	assert.Equal(t, "prod-001", byCategory.Products[0].ID)
	assert.Equal(t, "open", byCategory.Products[0].Access.State)
	assert.Equal(t, 1, *byCategory.Products[0].Position)
	assert.Equal(t, "prod-024", byCategory.Products[1].ID)
	assert.Equal(t, "tier_locked", byCategory.Products[1].Access.State)
	assert.Equal(t, 24, *byCategory.Products[1].Position)

	// the oldest product tops the profit sort but stays outside the free window
	byProfit := env.list(t, "/products?sort=profit&page_size=5", "")
	assert.Equal(t, int64(25), byProfit.Total)
	require.Len(t, byProfit.Products, 5)
	top := byProfit.Products[0]
	assert.Equal(t, "prod-024", top.ID)
	assert.Equal(t, "tier_locked", top.Access.State)
	assert.True(t, top.AutoLocked)
	assert.Equal(t, 24, *top.Position)
	assert.Nil(t, top.ProfitMargin)
	assert.Equal(t, "open", byProfit.Products[1].Access.State)

	proView := env.list(t, "/products?sort=profit&page_size=5", "7")
	require.NotEmpty(t, proView.Products)
	assert.Equal(t, "open", proView.Products[0].Access.State)
	require.NotNil(t, proView.Products[0].ProfitMargin)
	assert.Equal(t, 99.0, *proView.Products[0].ProfitMargin)
}

func TestListProducts_SinceFilter(t *testing.T) {
	env := newTestEnv(t, nil)
	// the clock reads 12:00, so products 0..11 were created today
	env.seed(t, 25, func(i int, p *products.Product) {
		p.CreatedAt = t0.Add(-time.Duration(i)*time.Hour - 30*time.Minute)
	})

	today := env.list(t, "/products?since=today", "")
	assert.Equal(t, int64(12), today.Total)
	for i, p := range today.Products {
		assert.Equal(t, fmt.Sprintf("prod-%03d", i), p.ID)
		assert.Equal(t, i, *p.Position)
		assert.Equal(t, "open", p.Access.State)
	}

	week := env.list(t, "/products?since=week", "")
	assert.Equal(t, int64(25), week.Total)
}

func TestListProducts_RejectsUnknownFilters(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t, 2, nil)

	for _, path := range []string{
		"/products?sort=cheapest",
		"/products?since=decade",
		"/products/countdown?sort=cheapest",
	} {
		w := env.get(t, path, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestGetProduct_CountsViewsForTrending(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t, 4, nil)

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, env.get(t, "/products/prod-003", "").Code)
	}
	require.Equal(t, http.StatusOK, env.get(t, "/products/prod-002", "").Code)

	resp := env.list(t, "/products?sort=trending", "")
	require.Len(t, resp.Products, 4)
	assert.Equal(t, "prod-003", resp.Products[0].ID)
	assert.Equal(t, int64(2), resp.Products[0].Views)
	assert.Equal(t, "prod-002", resp.Products[1].ID)
	assert.Equal(t, "prod-000", resp.Products[2].ID)
}
