package memory

import (
	"context"
	"time"
)

// SaveToken records token as active for accountID until expiresAt.
func (s *Store) SaveToken(ctx context.Context, token string, accountID int64, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = tokenEntry{accountID: accountID, expiresAt: expiresAt}
	return nil
}

// TokenExists reports whether token is still in the active set.
func (s *Store) TokenExists(ctx context.Context, token string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tokens[token]
	return ok, nil
}

// DeleteToken removes token; deleting an unknown token is not an error.
func (s *Store) DeleteToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}
