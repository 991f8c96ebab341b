package routes

import (
	"net/http"

	"storefront-app/config"
	adminapi "storefront-app/internal/api/admin"
	authapi "storefront-app/internal/api/auth"
	"storefront-app/internal/api/billing"
	"storefront-app/internal/api/plans"
	productsapi "storefront-app/internal/api/products"
	stripewebhooks "storefront-app/internal/api/stripewebhook"
	"storefront-app/internal/api/users"
	"storefront-app/internal/app/catalog"
	"storefront-app/internal/app/http/middleware"
	domainusers "storefront-app/internal/domain/users"
	"storefront-app/internal/infra/logger"
	"storefront-app/internal/infra/mailer"
	"storefront-app/internal/pkg/clock"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, clk clock.Clock) {
	log := logger.Get()
	policy := config.CatalogPolicy()
	store := catalog.NewGormStore(db)

	catalogAPI := productsapi.NewHandler(store, policy, clk, log)
	catalogAPI.MaxPageSize = config.MAX_PAGE_SIZE
	adminProducts := adminapi.NewProductHandler(store, policy, clk, log)

	var welcome authapi.WelcomeSender
	if cfg := config.Mailer(); cfg.Enabled() {
		welcome = mailer.New(cfg)
	}

	viewer := middleware.ResolveViewer(users.TierResolver(db, clk), log)

	r.POST("/webhook", stripewebhooks.StripeWebhook)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Catalog: anonymous viewers are free, a valid token upgrades the tier
	browse := r.Group("/")
	browse.Use(middleware.OptionalAuth(), viewer)
	browse.GET("/products", catalogAPI.ListProducts)
	browse.GET("/products/countdown", catalogAPI.StreamCountdown)
	browse.GET("/products/next-release", catalogAPI.NextRelease)
	browse.GET("/products/:id", catalogAPI.GetProduct)
	browse.GET("/top-products", catalogAPI.ListTopProducts)
	browse.GET("/categories", catalogAPI.ListCategories)

	public := r.Group("/")
	public.Use(middleware.SanitizeAndCleanInputMiddleware())
	public.POST("/register", authapi.Register(welcome))
	public.POST("/login", authapi.Login)
	public.GET("/plans", plans.ListPlans)
	public.GET("/auth/google", authapi.GoogleStart)
	public.GET("/auth/google/callback", authapi.GoogleCallback)

	// Authenticated
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware(), viewer)
	auth.GET("/me", users.GetCurrentUser(clk))
	auth.GET("/saved", catalogAPI.ListSaved)
	auth.POST("/products/:id/save", catalogAPI.SaveProduct)
	auth.DELETE("/products/:id/save", catalogAPI.UnsaveProduct)
	auth.GET("/payments", billing.GetPaymentHistory)
	auth.POST("/create-checkout-session", billing.CreateCheckoutSession)
	auth.POST("/billing-portal", billing.CreateBillingPortal)
	auth.POST("/change-password", authapi.ChangePassword)

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.RequireRole(domainusers.RoleAdmin))
	admin.GET("/users", adminapi.ListAllUsers(clk))
	admin.GET("/users/:id", adminapi.GetUserDetails(clk))
	admin.GET("/payments", adminapi.ListAllPayments)
	admin.GET("/stats", adminapi.GetAdminStats(clk))
	admin.GET("/top-products", adminProducts.AuditTopProducts)
	admin.POST("/sync-plans", plans.SyncPlansFromStripe)

	adminWrite := admin.Group("/")
	adminWrite.Use(middleware.SanitizeAndCleanInputMiddleware())
	adminWrite.POST("/products", adminProducts.CreateProduct)
	adminWrite.PUT("/products/:id", adminProducts.UpdateProduct)
	adminWrite.DELETE("/products/:id", adminProducts.DeleteProduct)
	adminWrite.POST("/products/:id/lock", adminProducts.SetProductLock)
}
