package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	HTTPAddr       string
	MigrationsPath string

	// Hosted Postgres convenience:
	// - DATABASE_URL: runtime connection (often PgBouncer/pooler)
	// - DIRECT_URL: direct connection for migrations
	// The submissions ledger is optional; leave both (and DB_HOST) empty to run without a database.
	DatabaseURL string
	DirectURL   string

	// AppURL is the externally reachable URL for this backend. The OAuth redirect URI is derived from it.
	// Example: https://scan-go.example.app
	AppURL string

	DB DBConfig

	Shopify ShopifyConfig

	// RedisURL selects the Redis basket store when set; otherwise baskets live in process memory.
	RedisURL string

	// BasketTTL is how long a parked basket stays retrievable at the till.
	BasketTTL time.Duration

	// AllowedOrigins is a comma-separated allowlist of browser origins allowed to submit orders.
	//   https://scan-go.example.app,https://dev.shopify.com
	AllowedOrigins []string

	// RateLimitPerMinute bounds shopper-facing requests per client IP.
	RateLimitPerMinute int
}

type DBConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

type ShopifyConfig struct {
	// Shop is the single shop host this deployment serves, e.g. my-store.myshopify.com.
	Shop      string
	APIKey    string
	APISecret string
	Scopes    []string

	// AdminToken is the offline Admin API token used for product lookups and order creation.
	// It is configured by the operator after the install flow; it is never stored by this service.
	AdminToken string

	APIVersion string

	TokenExchangeTimeout time.Duration

	// WebhookSecret signs platform webhooks; app webhooks are signed with the API secret when unset.
	WebhookSecret string

	// RegisterWebhooks subscribes orders/paid and app/uninstalled right after install.
	RegisterWebhooks bool

	// RevealAccessToken returns the freshly exchanged access token in the callback response
	// so an operator can copy it into SHOPIFY_ADMIN_TOKEN. Ignored when APP_ENV=prod.
	RevealAccessToken bool
}

// InstallReady reports whether everything the install redirect needs is configured.
func (c Config) InstallReady() bool {
	return c.Shopify.Shop != "" && c.Shopify.APIKey != "" && len(c.Shopify.Scopes) > 0 && c.AppURL != ""
}

// OAuthReady reports whether the callback can verify and exchange.
func (s ShopifyConfig) OAuthReady() bool {
	return s.APIKey != "" && s.APISecret != ""
}

// WebhookSigningSecret is the secret webhook HMACs are checked against.
func (s ShopifyConfig) WebhookSigningSecret() string {
	if s.WebhookSecret != "" {
		return s.WebhookSecret
	}
	return s.APISecret
}

// AdminReady reports whether Admin API calls can be made.
func (s ShopifyConfig) AdminReady() bool {
	return s.Shop != "" && s.AdminToken != ""
}

// RevealsAccessToken applies the token exposure policy.
func (c Config) RevealsAccessToken() bool {
	return c.Shopify.RevealAccessToken && c.AppEnv != "prod"
}

// CallbackURL is the redirect URI registered with the platform.
func (c Config) CallbackURL() string {
	return strings.TrimRight(c.AppURL, "/") + "/v1/auth/callback"
}

// DatabaseConfigured reports whether the submissions ledger should be opened.
func (c Config) DatabaseConfigured() bool {
	return strings.TrimSpace(c.DatabaseURL) != "" || strings.TrimSpace(c.DB.Host) != ""
}

func Load() Config {
	// Convenience for local dev: load variables from .env if present.
	// In production, rely on real environment variables.
	_ = godotenv.Load()

	// Cloud Run sets PORT. Prefer it when HTTP_ADDR isn't explicitly set.
	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			httpAddr = ":" + port
		} else {
			httpAddr = ":8081"
		}
	}

	return Config{
		AppEnv:         env("APP_ENV", "dev"),
		HTTPAddr:       httpAddr,
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DirectURL:      os.Getenv("DIRECT_URL"),
		AppURL:         strings.TrimRight(strings.TrimSpace(os.Getenv("APP_URL")), "/"),
		DB: DBConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     env("DB_PORT", "5432"),
			Name:     env("DB_NAME", "scango"),
			User:     env("DB_USER", "scango"),
			Password: env("DB_PASSWORD", "scango"),
			SSLMode:  env("DB_SSLMODE", "disable"),
		},
		Shopify: ShopifyConfig{
			Shop:                 strings.TrimSpace(os.Getenv("SHOPIFY_SHOP")),
			APIKey:               strings.TrimSpace(os.Getenv("SHOPIFY_API_KEY")),
			APISecret:            strings.TrimSpace(os.Getenv("SHOPIFY_API_SECRET")),
			Scopes:               envList("SHOPIFY_SCOPES", ""),
			AdminToken:           strings.TrimSpace(os.Getenv("SHOPIFY_ADMIN_TOKEN")),
			APIVersion:           env("SHOPIFY_API_VERSION", "2024-10"),
			TokenExchangeTimeout: envDuration("SHOPIFY_TOKEN_EXCHANGE_TIMEOUT", 10*time.Second),
			WebhookSecret:        strings.TrimSpace(os.Getenv("SHOPIFY_WEBHOOK_SECRET")),
			RegisterWebhooks:     envBool("SHOPIFY_REGISTER_WEBHOOKS", false),
			RevealAccessToken:    envBool("SHOPIFY_REVEAL_ACCESS_TOKEN", false),
		},
		RedisURL:           os.Getenv("REDIS_URL"),
		BasketTTL:          envDuration("BASKET_TTL", 60*time.Minute),
		AllowedOrigins:     envList("ALLOWED_ORIGINS", "https://dev.shopify.com"),
		RateLimitPerMinute: envInt("RATE_LIMIT_PER_MINUTE", 120),
	}
}

func env(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envList(key, fallbackCSV string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = fallbackCSV
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
