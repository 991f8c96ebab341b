package config

import (
	"log"
	"os"
	"strconv"

	"storefront-app/internal/domain/access"
	"storefront-app/internal/infra/mailer"

	"github.com/joho/godotenv"
)

var (
	PORT        string
	DB_URL      string
	JWT_SECRET  string
	CORS_ORIGIN string
	APP_URL     string

	GOOGLE_CLIENT_ID         string
	GOOGLE_CLIENT_SECRET     string
	GOOGLE_REDIRECT_URL      string
	GOOGLE_FRONTEND_REDIRECT string

	STRIPE_SECRET_KEY     string
	STRIPE_WEBHOOK_SECRET string
	STRIPE_PRODUCT_ID     string

	SMTP_HOST     string
	SMTP_PORT     string
	SMTP_USER     string
	SMTP_PASSWORD string
	SMTP_FROM     string

	PAGE_SIZE                int
	FREE_WINDOW_MULTIPLIER   int
	TOP_PRODUCT_EXEMPT_COUNT int
	MAX_PAGE_SIZE            int

	LOG_LEVEL  string
	LOG_FORMAT string
)

func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	PORT = getEnv("PORT", "8080")
	DB_URL = mustEnv("DB_URL")
	JWT_SECRET = mustEnv("JWT_SECRET")
	CORS_ORIGIN = getEnv("CORS_ORIGIN", "http://localhost:5173")
	APP_URL = getEnv("APP_URL", "http://localhost:5173")

	GOOGLE_CLIENT_ID = getEnv("GOOGLE_CLIENT_ID", "")
	GOOGLE_CLIENT_SECRET = getEnv("GOOGLE_CLIENT_SECRET", "")
	GOOGLE_REDIRECT_URL = getEnv("GOOGLE_REDIRECT_URL", "")
	GOOGLE_FRONTEND_REDIRECT = getEnv("GOOGLE_FRONTEND_REDIRECT", "")

	STRIPE_SECRET_KEY = getEnv("STRIPE_SECRET_KEY", "")
	STRIPE_WEBHOOK_SECRET = getEnv("STRIPE_WEBHOOK_SECRET", "")
	STRIPE_PRODUCT_ID = getEnv("STRIPE_PRODUCT_ID", "")

	SMTP_HOST = getEnv("SMTP_HOST", "")
	SMTP_PORT = getEnv("SMTP_PORT", "587")
	SMTP_USER = getEnv("SMTP_USER", "")
	SMTP_PASSWORD = getEnv("SMTP_PASSWORD", "")
	SMTP_FROM = getEnv("SMTP_FROM", "")

	LoadPolicyEnv()

	LOG_LEVEL = getEnv("LOG_LEVEL", "info")
	LOG_FORMAT = getEnv("LOG_FORMAT", "text")
}

// LoadPolicyEnv reads only the gating constants. Malformed or
// out-of-range values fall back to the defaults.
func LoadPolicyEnv() {
	PAGE_SIZE = intEnv("PAGE_SIZE", access.DefaultPageSize, 1)
	FREE_WINDOW_MULTIPLIER = intEnv("FREE_WINDOW_MULTIPLIER", access.DefaultFreeWindowMultiplier, 0)
	TOP_PRODUCT_EXEMPT_COUNT = intEnv("TOP_PRODUCT_EXEMPT_COUNT", access.DefaultTopProductExemptCount, 0)
	MAX_PAGE_SIZE = intEnv("MAX_PAGE_SIZE", 50, 1)
}

func CatalogPolicy() access.Policy {
	return access.Policy{
		PageSize:              PAGE_SIZE,
		FreeWindowMultiplier:  FREE_WINDOW_MULTIPLIER,
		TopProductExemptCount: TOP_PRODUCT_EXEMPT_COUNT,
	}
}

func Mailer() mailer.Config {
	return mailer.Config{
		Host:     SMTP_HOST,
		Port:     SMTP_PORT,
		Username: SMTP_USER,
		Password: SMTP_PASSWORD,
		From:     SMTP_FROM,
	}
}

func mustEnv(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("Missing required environment variable: %s", key)
	}
	return v
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func intEnv(key string, fallback, minimum int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < minimum {
		log.Printf("Ignoring invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}
