package postgres

import (
	"context"
	"fmt"
	"time"
)

// SaveToken records token as active for accountID until expiresAt.
func (s *Store) SaveToken(ctx context.Context, token string, accountID int64, expiresAt time.Time) error {
	const query = `INSERT INTO session_tokens (token, account_id, expires_at) VALUES ($1, $2, $3)`
	if _, err := s.pool.Exec(ctx, query, token, accountID, expiresAt); err != nil {
		return fmt.Errorf("save session token: %w", err)
	}
	return nil
}

// TokenExists reports whether token is still in the active set.
func (s *Store) TokenExists(ctx context.Context, token string) (bool, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM session_tokens WHERE token = $1)`, token).Scan(&exists); err != nil {
		return false, fmt.Errorf("lookup session token: %w", err)
	}
	return exists, nil
}

// DeleteToken removes token; deleting an unknown token is not an error.
func (s *Store) DeleteToken(ctx context.Context, token string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM session_tokens WHERE token = $1`, token); err != nil {
		return fmt.Errorf("delete session token: %w", err)
	}
	return nil
}
