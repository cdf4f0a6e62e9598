package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hongminglow/kodbank-be/internal/models"
	"github.com/hongminglow/kodbank-be/internal/money"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateEmail indicates an account with the email already exists.
var ErrDuplicateEmail = errors.New("email already registered")

// ErrWouldGoNegative indicates a balance change would leave the balance below zero.
var ErrWouldGoNegative = errors.New("balance would go negative")

// ErrLockTimeout indicates an account lock could not be acquired in time. Callers may retry.
var ErrLockTimeout = errors.New("timed out waiting for account lock")

// ErrAccountNumberExhausted indicates repeated account number collisions.
var ErrAccountNumberExhausted = errors.New("could not allocate a unique account number")

// ErrMalformedAccountNumber indicates the generator produced a number that is not prefix + 8 digits.
var ErrMalformedAccountNumber = errors.New("generated account number is malformed")

// ErrBalanceOverflow indicates a credit would push the balance past the largest storable value.
var ErrBalanceOverflow = errors.New("balance would exceed the storable limit")

// MaxAccountNumberAttempts bounds account number regeneration on collision.
const MaxAccountNumberAttempts = 5

// NewAccount carries the fields supplied at registration.
type NewAccount struct {
	Name         string
	Email        string
	Phone        string
	PasswordHash string
}

// AccountStore captures persistence operations for accounts and the transaction log.
type AccountStore interface {
	CreateAccount(ctx context.Context, account NewAccount) (models.Account, error)
	FindByID(ctx context.Context, id int64) (models.Account, error)
	FindByEmail(ctx context.Context, email string) (models.Account, error)
	FindByAccountNumber(ctx context.Context, accountNumber string) (models.Account, error)
	AdjustBalance(ctx context.Context, id int64, delta money.Amount) (money.Amount, error)
	ListTransactions(ctx context.Context, accountNumber string, limit int) ([]models.Transaction, error)
	RunInTx(ctx context.Context, fn func(Tx) error) error
}

// Tx is an all-or-nothing unit of work over account balances and the transaction log.
// Returning an error from the RunInTx callback discards every change made through Tx.
type Tx interface {
	// LockAccounts takes exclusive locks on the given accounts in ascending id order and
	// returns their current state keyed by id. Lock every account needed in a single call.
	LockAccounts(ctx context.Context, ids ...int64) (map[int64]models.Account, error)
	AdjustBalance(ctx context.Context, id int64, delta money.Amount) (money.Amount, error)
	// AppendTransaction stages record and returns it with ID and CreatedAt assigned.
	AppendTransaction(ctx context.Context, record models.Transaction) (models.Transaction, error)
}

// TokenStore is the server-side list of active session tokens.
type TokenStore interface {
	SaveToken(ctx context.Context, token string, accountID int64, expiresAt time.Time) error
	TokenExists(ctx context.Context, token string) (bool, error)
	DeleteToken(ctx context.Context, token string) error
}
