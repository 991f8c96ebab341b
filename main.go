package main

import (
	"log/slog"
	"os"
	"time"

	"storefront-app/config"
	"storefront-app/database"
	routes "storefront-app/internal/app/http"
	"storefront-app/internal/infra/logger"
	"storefront-app/internal/pkg/clock"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// gin.SetMode(gin.ReleaseMode) uncomment only in production
	config.LoadEnv()
	logger.Init(config.LOG_LEVEL, config.LOG_FORMAT)
	database.InitDB(config.DB_URL)

	r := gin.Default()

	// CORS goes in before any route
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{config.CORS_ORIGIN},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, database.DB, clock.Real())

	policy := config.CatalogPolicy()
	slog.Info("storefront starting",
		"port", config.PORT,
		"page_size", policy.PageSize,
		"free_window", policy.FreeWindowSize(),
		"top_exempt", policy.TopProductExemptCount,
	)
	if err := r.Run(":" + config.PORT); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
