package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"PORT", "STORAGE_DRIVER", "DATABASE_URL", "JWT_SECRET", "JWT_ISSUER", "JWT_TTL_MINUTES",
	"CORS_ALLOWED_ORIGINS", "SESSION_STORE", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"LOCK_TIMEOUT_MS", "OPERATION_TIMEOUT_SECONDS", "ACCOUNT_PREFIX", "CURRENCY_SYMBOL", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/kodbank")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddress())
	assert.Equal(t, StoragePostgres, cfg.StorageDriver)
	assert.Equal(t, SessionDatabase, cfg.SessionStore)
	assert.Equal(t, "kodbank", cfg.JWTIssuer)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Equal(t, 5*time.Second, cfg.LockTimeout)
	assert.Equal(t, 10*time.Second, cfg.OperationTimeout)
	assert.Equal(t, "KODA", cfg.AccountPrefix)
	assert.Equal(t, "₹", cfg.CurrencySymbol)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_DRIVER", "Memory")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SESSION_STORE", "redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("LOCK_TIMEOUT_MS", "250")
	t.Setenv("JWT_TTL_MINUTES", "not-a-number")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("ACCOUNT_PREFIX", "test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, SessionRedis, cfg.SessionStore)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 250*time.Millisecond, cfg.LockTimeout)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "TEST", cfg.AccountPrefix)
}

func TestLoadRejects(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret":       {"STORAGE_DRIVER": "memory"},
		"missing database url": {"JWT_SECRET": "s"},
		"unknown driver":       {"JWT_SECRET": "s", "STORAGE_DRIVER": "sqlite"},
		"unknown session":      {"JWT_SECRET": "s", "STORAGE_DRIVER": "memory", "SESSION_STORE": "file"},
		"bad redis db":         {"JWT_SECRET": "s", "STORAGE_DRIVER": "memory", "REDIS_DB": "-1"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
