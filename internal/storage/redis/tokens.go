// Package redis keeps the active session token set in Redis.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/hongminglow/kodbank-be/internal/storage"
)

var _ storage.TokenStore = (*TokenStore)(nil)

const defaultPrefix = "kodbank:session:"

// TokenStore stores one key per active token; the key expires with the token.
type TokenStore struct {
	client  *goredis.Client
	prefix  string
	timeout time.Duration
	now     func() time.Time
}

// NewTokenStore connects to Redis and verifies the connection.
func NewTokenStore(ctx context.Context, addr, password string, db int) (*TokenStore, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr, Password: password, DB: db})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &TokenStore{
		client:  client,
		prefix:  defaultPrefix,
		timeout: 500 * time.Millisecond,
		now:     time.Now,
	}, nil
}

// SaveToken stores token with a TTL equal to its remaining lifetime.
func (s *TokenStore) SaveToken(ctx context.Context, token string, accountID int64, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.Set(ctx, s.prefix+token, strconv.FormatInt(accountID, 10), ttl).Err(); err != nil {
		return fmt.Errorf("save session token: %w", err)
	}
	return nil
}

// TokenExists reports whether token is still in the active set.
func (s *TokenStore) TokenExists(ctx context.Context, token string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	n, err := s.client.Exists(ctx, s.prefix+token).Result()
	if err != nil {
		return false, fmt.Errorf("lookup session token: %w", err)
	}
	return n > 0, nil
}

// DeleteToken removes token; deleting an unknown token is not an error.
func (s *TokenStore) DeleteToken(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.Del(ctx, s.prefix+token).Err(); err != nil {
		return fmt.Errorf("delete session token: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (s *TokenStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Ping(ctx).Err()
}

// Close releases the Redis client.
func (s *TokenStore) Close() error {
	return s.client.Close()
}
