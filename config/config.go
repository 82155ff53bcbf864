// Package config reads runtime settings from the environment and opens the
// database.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/yeremiapane/table-order-app/models"
)

// AppConfig collects every setting the server needs. Values come from the
// environment (optionally a .env file) with defaults for local development.
type AppConfig struct {
	Port    string
	GinMode string

	DBDriver string
	DBDSN    string

	JWTSecret         string
	AdminUsername     string
	AdminPassword     string
	AdminPasswordHash string
	TokenTTL          time.Duration

	MenuCategories      []string
	JoinCodeMaxAttempts int
	ReconcileInterval   time.Duration
	RateLimit           int

	// Redis fan-out for multi-instance deployments; empty disables it.
	RedisAddr    string
	RedisChannel string

	// Kafka order-event log; empty brokers disables it.
	KafkaBrokers []string
	KafkaTopic   string

	SeedFile       string
	LogLevel       string
	CORSOrigin     string
	CurrencySymbol string
}

// Load reads .env (if present) and the environment, and validates the result.
func Load() (AppConfig, error) {
	_ = godotenv.Load()

	cfg := AppConfig{
		Port:              getEnv("PORT", "8080"),
		GinMode:           getEnv("GIN_MODE", "debug"),
		DBDriver:          strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBDSN:             getEnv("DB_DSN", "table_order.db"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:     getEnv("ADMIN_PASSWORD", ""),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		TokenTTL:          12 * time.Hour,
		MenuCategories:    splitCSV(getEnv("MENU_CATEGORIES", strings.Join(models.DefaultCategories, ","))),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisChannel:      getEnv("REDIS_CHANNEL", "table_order:kds"),
		KafkaBrokers:      splitCSV(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:        getEnv("KAFKA_TOPIC", "table-order-events"),
		SeedFile:          getEnv("SEED_FILE", ""),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		CORSOrigin:        getEnv("CORS_ORIGIN", "*"),
		CurrencySymbol:    getEnv("CURRENCY_SYMBOL", "$"),
	}

	attempts, err := getEnvInt("JOIN_CODE_MAX_ATTEMPTS", 8)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid JOIN_CODE_MAX_ATTEMPTS: %w", err)
	}
	if attempts <= 0 {
		return AppConfig{}, fmt.Errorf("JOIN_CODE_MAX_ATTEMPTS must be > 0")
	}
	cfg.JoinCodeMaxAttempts = attempts

	reconcileSec, err := getEnvInt("RECONCILE_INTERVAL_SEC", 60)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid RECONCILE_INTERVAL_SEC: %w", err)
	}
	if reconcileSec < 0 {
		return AppConfig{}, fmt.Errorf("RECONCILE_INTERVAL_SEC must be >= 0")
	}
	cfg.ReconcileInterval = time.Duration(reconcileSec) * time.Second

	rateLimit, err := getEnvInt("RATE_LIMIT", 50)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid RATE_LIMIT: %w", err)
	}
	if rateLimit <= 0 {
		return AppConfig{}, fmt.Errorf("RATE_LIMIT must be > 0")
	}
	cfg.RateLimit = rateLimit

	switch cfg.DBDriver {
	case "sqlite", "mysql", "postgres":
	default:
		return AppConfig{}, fmt.Errorf("DB_DRIVER must be sqlite, mysql or postgres, got %q", cfg.DBDriver)
	}
	if cfg.DBDSN == "" {
		return AppConfig{}, fmt.Errorf("DB_DSN must not be empty")
	}
	if len(cfg.MenuCategories) == 0 {
		return AppConfig{}, fmt.Errorf("MENU_CATEGORIES must not be empty")
	}
	if cfg.JWTSecret == "" {
		if cfg.GinMode == "release" {
			return AppConfig{}, fmt.Errorf("JWT_SECRET must be set in release mode")
		}
		cfg.JWTSecret = "dev-secret-change-me"
	}
	if cfg.AdminPassword == "" && cfg.AdminPasswordHash == "" {
		return AppConfig{}, fmt.Errorf("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH must be set")
	}

	return cfg, nil
}

// getEnv reads a string variable, returning fallback when it is empty.
func getEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func splitCSV(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
