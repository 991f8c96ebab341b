package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront-app/config"
	"storefront-app/database"
	"storefront-app/internal/domain/plans"
	"storefront-app/internal/domain/products"
	"storefront-app/internal/domain/users"
	"storefront-app/internal/pkg/clock"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	prevDB, prevSecret := database.DB, config.JWT_SECRET
	database.DB = db
	config.JWT_SECRET = "routes-secret"
	config.LoadPolicyEnv()
	t.Cleanup(func() { database.DB, config.JWT_SECRET = prevDB, prevSecret })

	r := gin.New()
	RegisterRoutes(r, db, clock.NewMock(now))
	return r, db
}

func tokenFor(t *testing.T, u users.User) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": u.ID,
		"email":   u.Email,
		"role":    u.Role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte("routes-secret"))
	require.NoError(t, err)
	return s
}

func call(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type listed struct {
	Products []struct {
		ID     string `json:"id"`
		Access struct {
			State string `json:"state"`
		} `json:"access"`
	} `json:"products"`
}

func TestRoutes_TierFlowsIntoCatalog(t *testing.T) {
	r, db := setupRouter(t)

	for i := 0; i < 25; i++ {
		p := products.Product{ID: fmt.Sprintf("p-%02d", i), Name: "item", CreatedAt: now.Add(-time.Duration(i) * time.Minute)}
		require.NoError(t, db.Create(&p).Error)
	}

	plan := plans.Plan{Name: "Pro", StripePriceID: "price_pro", Tier: "pro"}
	require.NoError(t, db.Create(&plan).Error)
	sub, status := "sub_1", "active"
	pro := users.User{Email: "pro@example.com", Role: users.RoleCustomer, PlanID: &plan.ID, SubscriptionId: &sub, StripeSubscriptionStatus: &status}
	require.NoError(t, db.Create(&pro).Error)

	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/health", "", nil).Code)

	var page listed
	w := call(r, http.MethodGet, "/products?page=3", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.NotEmpty(t, page.Products)
	for _, p := range page.Products {
		assert.Equal(t, "tier_locked", p.Access.State, p.ID)
	}

	w = call(r, http.MethodGet, "/products?page=3", tokenFor(t, pro), nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	for _, p := range page.Products {
		assert.Equal(t, "open", p.Access.State, p.ID)
	}

	// a bad token on a browse route degrades to the free view
	w = call(r, http.MethodGet, "/products/p-24", "garbage", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"tier_locked"`)

	w = call(r, http.MethodGet, "/me", tokenFor(t, pro), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"tier":"pro"`)

	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodGet, "/saved", "", nil).Code)
}

func TestRoutes_AdminGuardAndSanitising(t *testing.T) {
	r, db := setupRouter(t)

	customer := users.User{Email: "c@example.com", Role: users.RoleCustomer}
	admin := users.User{Email: "a@example.com", Role: users.RoleAdmin}
	require.NoError(t, db.Create(&customer).Error)
	require.NoError(t, db.Create(&admin).Error)

	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodGet, "/admin/users", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, call(r, http.MethodGet, "/admin/users", tokenFor(t, customer), nil).Code)
	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/admin/users", tokenFor(t, admin), nil).Code)

	w := call(r, http.MethodPost, "/admin/products", tokenFor(t, admin), gin.H{
		"name":         "<b>Neck fan</b><script>alert(1)</script>",
		"supplier_url": "https://supplier.example/p?id=1&ref=ad",
		"priority":     4,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var p products.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, "Neck fan", p.Name)
	assert.Equal(t, "https://supplier.example/p?id=1&ref=ad", p.SupplierURL)
	assert.Equal(t, 4, p.Priority)
}
