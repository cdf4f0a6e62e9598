package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/kodbank-be/internal/auth"
	"github.com/hongminglow/kodbank-be/internal/models"
	"github.com/hongminglow/kodbank-be/internal/storage/memory"
)

var account = models.Account{ID: 1, Email: "a@example.com", AccountNumber: "KODA12345678"}

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	return NewService(auth.NewTokenManager("secret", "kodbank", time.Hour), store), store
}

func TestIssueValidateRevoke(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	sess, err := svc.Issue(ctx, account)
	require.NoError(t, err)

	claims, err := svc.Validate(ctx, sess.Token)
	require.NoError(t, err)
	id, _ := claims.AccountID()
	assert.Equal(t, int64(1), id)

	require.NoError(t, svc.Revoke(ctx, sess.Token))
	_, err = svc.Validate(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	assert.NoError(t, svc.Revoke(ctx, sess.Token), "revoke must be idempotent")
}

func TestMultipleSessionsAreIndependent(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	phone, err := svc.Issue(ctx, account)
	require.NoError(t, err)
	laptop, err := svc.Issue(ctx, account)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, phone.Token))
	_, err = svc.Validate(ctx, laptop.Token)
	assert.NoError(t, err)
}

func TestValidSignatureButNotInStore(t *testing.T) {
	svc, _ := newService(t)
	token, _, err := auth.NewTokenManager("secret", "kodbank", time.Hour).Generate(account)
	require.NoError(t, err)

	_, err = svc.Validate(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestStoredButBadSignature(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	require.NoError(t, store.SaveToken(ctx, "not-a-jwt", 1, time.Now().Add(time.Hour)))

	_, err := svc.Validate(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Validate(ctx, "   ")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

type failingStore struct{ memory.Store }

func (*failingStore) TokenExists(context.Context, string) (bool, error) {
	return false, errors.New("connection refused")
}

func TestStoreFailureIsNotInvalidToken(t *testing.T) {
	tm := auth.NewTokenManager("secret", "kodbank", time.Hour)
	svc := NewService(tm, &failingStore{})
	token, _, err := tm.Generate(account)
	require.NoError(t, err)

	_, err = svc.Validate(context.Background(), token)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidToken))
}
