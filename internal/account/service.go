// Package account handles registration, login, logout and profile lookups.
package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/hongminglow/kodbank-be/internal/auth"
	"github.com/hongminglow/kodbank-be/internal/models"
	"github.com/hongminglow/kodbank-be/internal/models/dto"
	"github.com/hongminglow/kodbank-be/internal/session"
	"github.com/hongminglow/kodbank-be/internal/storage"
)

// ErrInvalidCredentials is returned for an unknown email or a wrong password alike.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrNotFound indicates the authenticated account no longer exists.
var ErrNotFound = errors.New("account not found")

// dummyHash is compared against when the email is unknown so both paths cost one bcrypt check.
var dummyHash, _ = auth.HashPassword("kodbank-placeholder-password")

// Service owns the credential side of an account.
type Service struct {
	store    storage.AccountStore
	sessions *session.Service
}

// NewService constructs a Service.
func NewService(store storage.AccountStore, sessions *session.Service) *Service {
	return &Service{store: store, sessions: sessions}
}

// Register creates an account with a zero balance. req must already be normalized and validated.
func (s *Service) Register(ctx context.Context, req dto.RegisterRequest) (models.Account, error) {
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return models.Account{}, fmt.Errorf("hash password: %w", err)
	}
	created, err := s.store.CreateAccount(ctx, storage.NewAccount{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hash,
	})
	if err != nil {
		return models.Account{}, err
	}
	return created, nil
}

// Login verifies credentials and issues a new session.
func (s *Service) Login(ctx context.Context, req dto.LoginRequest) (models.Account, session.Session, error) {
	acct, err := s.store.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			_ = auth.ComparePassword(dummyHash, req.Password)
			return models.Account{}, session.Session{}, ErrInvalidCredentials
		}
		return models.Account{}, session.Session{}, fmt.Errorf("find account: %w", err)
	}
	if err := auth.ComparePassword(acct.PasswordHash, req.Password); err != nil {
		return models.Account{}, session.Session{}, ErrInvalidCredentials
	}
	sess, err := s.sessions.Issue(ctx, acct)
	if err != nil {
		return models.Account{}, session.Session{}, fmt.Errorf("issue session: %w", err)
	}
	return acct, sess, nil
}

// Logout revokes token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Revoke(ctx, token)
}

// Profile returns the account for id.
func (s *Service) Profile(ctx context.Context, id int64) (models.Account, error) {
	acct, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Account{}, ErrNotFound
		}
		return models.Account{}, err
	}
	return acct, nil
}
