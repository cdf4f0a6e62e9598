package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hongminglow/kodbank-be/internal/models"
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Session stores.
const (
	SessionDatabase = "database"
	SessionRedis    = "redis"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port             string
	StorageDriver    string
	DatabaseURL      string
	JWTSecret        string
	JWTIssuer        string
	JWTTTL           time.Duration
	CORSOrigins      []string
	SessionStore     string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	LockTimeout      time.Duration
	OperationTimeout time.Duration
	AccountPrefix    string
	CurrencySymbol   string
	LogLevel         string
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Port:           fallback(os.Getenv("PORT"), "8080"),
		StorageDriver:  strings.ToLower(fallback(os.Getenv("STORAGE_DRIVER"), StoragePostgres)),
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTSecret:      strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:      fallback(os.Getenv("JWT_ISSUER"), "kodbank"),
		CORSOrigins:    parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
		SessionStore:   strings.ToLower(fallback(os.Getenv("SESSION_STORE"), SessionDatabase)),
		RedisAddr:      fallback(os.Getenv("REDIS_ADDR"), "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		AccountPrefix:  strings.ToUpper(fallback(os.Getenv("ACCOUNT_PREFIX"), models.DefaultAccountPrefix)),
		CurrencySymbol: fallback(os.Getenv("CURRENCY_SYMBOL"), "₹"),
		LogLevel:       fallback(os.Getenv("LOG_LEVEL"), "info"),
	}

	cfg.JWTTTL = time.Duration(positiveInt(os.Getenv("JWT_TTL_MINUTES"), 60)) * time.Minute
	cfg.LockTimeout = time.Duration(positiveInt(os.Getenv("LOCK_TIMEOUT_MS"), 5000)) * time.Millisecond
	cfg.OperationTimeout = time.Duration(positiveInt(os.Getenv("OPERATION_TIMEOUT_SECONDS"), 10)) * time.Second

	if raw := strings.TrimSpace(os.Getenv("REDIS_DB")); raw != "" {
		db, err := strconv.Atoi(raw)
		if err != nil || db < 0 {
			return Config{}, fmt.Errorf("REDIS_DB must be a non-negative integer, got %q", raw)
		}
		cfg.RedisDB = db
	}

	switch cfg.StorageDriver {
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required")
		}
	case StorageMemory:
	default:
		return Config{}, fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StoragePostgres, StorageMemory, cfg.StorageDriver)
	}
	switch cfg.SessionStore {
	case SessionDatabase, SessionRedis:
	default:
		return Config{}, fmt.Errorf("SESSION_STORE must be %q or %q, got %q", SessionDatabase, SessionRedis, cfg.SessionStore)
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func positiveInt(value string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && n > 0 {
		return n
	}
	return def
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
