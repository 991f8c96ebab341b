package database

import (
	"log/slog"
	"os"

	"storefront-app/internal/domain/billing"
	"storefront-app/internal/domain/plans"
	"storefront-app/internal/domain/products"
	"storefront-app/internal/domain/users"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB(dsn string) {
	if dsn == "" {
		slog.Error("DB_URL not set")
		os.Exit(1)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	DB = db

	if err := Migrate(DB); err != nil {
		slog.Error("auto-migrate failed", "error", err)
		os.Exit(1)
	}

	slog.Info("connected and migrated")
}

// Migrate creates or updates every table the storefront owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// accounts
		&plans.Plan{},
		&users.User{},
		&billing.Payment{},

		// catalog
		&products.Category{},
		&products.Product{},
		&products.SavedProduct{},
	)
}
