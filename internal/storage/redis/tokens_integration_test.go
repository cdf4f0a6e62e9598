package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTokenStoreIntegration exercises the token lifecycle against a live Redis.
func TestTokenStoreIntegration(t *testing.T) {
	if os.Getenv("RUN_REDIS_INTEGRATION") != "true" {
		t.Skip("set RUN_REDIS_INTEGRATION=true to run this integration test")
	}
	_ = godotenv.Load("../../../.env")
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	ctx := context.Background()
	store, err := NewTokenStore(ctx, addr, os.Getenv("REDIS_PASSWORD"), 0)
	require.NoError(t, err)
	defer store.Close()

	token := fmt.Sprintf("it-token-%d", time.Now().UnixNano())
	require.NoError(t, store.SaveToken(ctx, token, 42, time.Now().Add(time.Minute)))

	ok, err := store.TokenExists(ctx, token)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.DeleteToken(ctx, token))
	require.NoError(t, store.DeleteToken(ctx, token))

	ok, err = store.TokenExists(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok)
}
