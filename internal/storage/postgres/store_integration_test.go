package postgres

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/kodbank-be/internal/models"
	"github.com/hongminglow/kodbank-be/internal/money"
	"github.com/hongminglow/kodbank-be/internal/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	if os.Getenv("RUN_DB_INTEGRATION") != "true" {
		t.Skip("set RUN_DB_INTEGRATION=true to run this integration test")
	}
	for _, path := range []string{".env", "../.env", "../../.env", "../../../.env"} {
		_ = godotenv.Overload(path)
	}
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Fatal("DATABASE_URL is required")
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := NewStore(context.Background(), dbURL, Options{LockTimeout: 300 * time.Millisecond}, logger)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

func createTestAccount(t *testing.T, store *Store, label string) models.Account {
	t.Helper()
	acct, err := store.CreateAccount(context.Background(), storage.NewAccount{
		Name:         label,
		Email:        fmt.Sprintf("%s_%d@example.com", label, time.Now().UnixNano()),
		PasswordHash: "x",
	})
	require.NoError(t, err)
	return acct
}

func TestStoreIntegration(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	a := createTestAccount(t, store, "pg_a")
	b := createTestAccount(t, store, "pg_b")

	_, err := store.CreateAccount(ctx, storage.NewAccount{Name: "dup", Email: a.Email, PasswordHash: "x"})
	assert.ErrorIs(t, err, storage.ErrDuplicateEmail)

	balance, err := store.AdjustBalance(ctx, a.ID, money.FromMinor(1000))
	require.NoError(t, err)
	assert.Equal(t, money.FromMinor(1000), balance)

	_, err = store.AdjustBalance(ctx, a.ID, money.FromMinor(-1001))
	assert.ErrorIs(t, err, storage.ErrWouldGoNegative)

	t.Run("rollback", func(t *testing.T) {
		err := store.RunInTx(ctx, func(tx storage.Tx) error {
			if _, err := tx.LockAccounts(ctx, a.ID, b.ID); err != nil {
				return err
			}
			if _, err := tx.AdjustBalance(ctx, a.ID, money.FromMinor(-500)); err != nil {
				return err
			}
			return fmt.Errorf("abort")
		})
		require.EqualError(t, err, "abort")
		acct, err := store.FindByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, money.FromMinor(1000), acct.Balance)
	})

	t.Run("lock timeout", func(t *testing.T) {
		held := make(chan struct{})
		release := make(chan struct{})
		go func() {
			_ = store.RunInTx(ctx, func(tx storage.Tx) error {
				if _, err := tx.LockAccounts(ctx, b.ID); err != nil {
					return err
				}
				close(held)
				<-release
				return nil
			})
		}()
		<-held
		_, err := store.AdjustBalance(ctx, b.ID, money.FromMinor(1))
		close(release)
		assert.ErrorIs(t, err, storage.ErrLockTimeout)
	})

	t.Run("opposite transfers", func(t *testing.T) {
		var wg sync.WaitGroup
		move := func(from, to int64) {
			defer wg.Done()
			_ = store.RunInTx(ctx, func(tx storage.Tx) error {
				if _, err := tx.LockAccounts(ctx, from, to); err != nil {
					return err
				}
				if _, err := tx.AdjustBalance(ctx, from, money.FromMinor(-1)); err != nil {
					return err
				}
				_, err := tx.AdjustBalance(ctx, to, money.FromMinor(1))
				return err
			})
		}
		for i := 0; i < 20; i++ {
			wg.Add(2)
			go move(a.ID, b.ID)
			go move(b.ID, a.ID)
		}
		wg.Wait()

		accounts := make([]models.Account, 0, 2)
		for _, id := range []int64{a.ID, b.ID} {
			acct, err := store.FindByID(ctx, id)
			require.NoError(t, err)
			accounts = append(accounts, acct)
		}
		assert.Equal(t, money.FromMinor(1000), accounts[0].Balance+accounts[1].Balance)
	})

	t.Run("tokens", func(t *testing.T) {
		token := fmt.Sprintf("token-%d", time.Now().UnixNano())
		require.NoError(t, store.SaveToken(ctx, token, a.ID, time.Now().Add(time.Hour)))
		ok, err := store.TokenExists(ctx, token)
		require.NoError(t, err)
		assert.True(t, ok)
		require.NoError(t, store.DeleteToken(ctx, token))
		ok, err = store.TokenExists(ctx, token)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
