// Package session issues, validates and revokes bearer tokens.
//
// A token is accepted only when it passes local signature and expiry verification and is
// also present in the active token store. Logout removes it from the store, which makes an
// otherwise valid signature useless.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hongminglow/kodbank-be/internal/auth"
	"github.com/hongminglow/kodbank-be/internal/models"
	"github.com/hongminglow/kodbank-be/internal/storage"
)

// ErrInvalidToken indicates a token that is malformed, expired, tampered with or revoked.
var ErrInvalidToken = errors.New("invalid or revoked session token")

// Session is a freshly issued bearer token.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// Service ties the token signer to the active token store.
type Service struct {
	tokens *auth.TokenManager
	store  storage.TokenStore
}

// NewService constructs a Service.
func NewService(tokens *auth.TokenManager, store storage.TokenStore) *Service {
	return &Service{tokens: tokens, store: store}
}

// Issue signs a token for account and records it as active.
func (s *Service) Issue(ctx context.Context, account models.Account) (Session, error) {
	token, expiresAt, err := s.tokens.Generate(account)
	if err != nil {
		return Session{}, fmt.Errorf("sign token: %w", err)
	}
	if err := s.store.SaveToken(ctx, token, account.ID, expiresAt); err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: expiresAt}, nil
}

// Validate returns the token's claims. Store failures are returned unwrapped from
// ErrInvalidToken so callers can tell an outage from a bad token.
func (s *Service) Validate(ctx context.Context, token string) (*auth.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	active, err := s.store.TokenExists(ctx, token)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, fmt.Errorf("%w: token not active", ErrInvalidToken)
	}
	return claims, nil
}

// Revoke removes token from the active store. Revoking an unknown token is not an error.
func (s *Service) Revoke(ctx context.Context, token string) error {
	return s.store.DeleteToken(ctx, strings.TrimSpace(token))
}
