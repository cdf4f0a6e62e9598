// Package memory is a process-local implementation of the storage interfaces, used for
// local development (STORAGE_DRIVER=memory) and tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/hongminglow/kodbank-be/internal/models"
	"github.com/hongminglow/kodbank-be/internal/money"
	"github.com/hongminglow/kodbank-be/internal/storage"
)

var (
	_ storage.AccountStore = (*Store)(nil)
	_ storage.TokenStore   = (*Store)(nil)
)

// DefaultLockTimeout bounds how long a transaction waits for an account lock.
const DefaultLockTimeout = 5 * time.Second

// Store keeps accounts, the transaction log and session tokens in memory.
// mu guards the maps; per-account semaphores in locks serialize balance changes.
type Store struct {
	mu       sync.RWMutex
	nextID   int64
	nextTxID int64
	accounts map[int64]*models.Account
	byEmail  map[string]int64
	byNumber map[string]int64
	locks    map[int64]chan struct{}
	log      []models.Transaction
	tokens   map[string]tokenEntry

	lockTimeout   time.Duration
	prefix        string
	accountNumber func() (string, error)
	now           func() time.Time
}

type tokenEntry struct {
	accountID int64
	expiresAt time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithLockTimeout overrides DefaultLockTimeout.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// WithAccountPrefix sets the account number prefix.
func WithAccountPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
		s.accountNumber = func() (string, error) { return models.NewAccountNumber(prefix) }
	}
}

// WithAccountNumberGenerator replaces the account number source. Generated numbers must
// still match the store's prefix.
func WithAccountNumberGenerator(gen func() (string, error)) Option {
	return func(s *Store) { s.accountNumber = gen }
}

// WithClock replaces time.Now for created_at stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		accounts:    make(map[int64]*models.Account),
		byEmail:     make(map[string]int64),
		byNumber:    make(map[string]int64),
		locks:       make(map[int64]chan struct{}),
		tokens:      make(map[string]tokenEntry),
		lockTimeout: DefaultLockTimeout,
		prefix:      models.DefaultAccountPrefix,
		accountNumber: func() (string, error) {
			return models.NewAccountNumber(models.DefaultAccountPrefix)
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close is a no-op kept for parity with the Postgres store.
func (s *Store) Close() {}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error { return nil }

// CreateAccount registers a new account with a zero balance.
func (s *Store) CreateAccount(ctx context.Context, in storage.NewAccount) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[in.Email]; exists {
		return models.Account{}, storage.ErrDuplicateEmail
	}

	var number string
	for attempt := 0; ; attempt++ {
		if attempt == storage.MaxAccountNumberAttempts {
			return models.Account{}, storage.ErrAccountNumberExhausted
		}
		candidate, err := s.accountNumber()
		if err != nil {
			return models.Account{}, err
		}
		if !models.ValidAccountNumber(s.prefix, candidate) {
			return models.Account{}, fmt.Errorf("%w: %q", storage.ErrMalformedAccountNumber, candidate)
		}
		if _, taken := s.byNumber[candidate]; !taken {
			number = candidate
			break
		}
	}

	s.nextID++
	acct := &models.Account{
		ID:            s.nextID,
		Name:          in.Name,
		Email:         in.Email,
		Phone:         in.Phone,
		AccountNumber: number,
		PasswordHash:  in.PasswordHash,
		CreatedAt:     s.now().UTC(),
	}
	s.accounts[acct.ID] = acct
	s.byEmail[acct.Email] = acct.ID
	s.byNumber[acct.AccountNumber] = acct.ID
	s.locks[acct.ID] = make(chan struct{}, 1)
	return *acct, nil
}

// FindByID fetches an account by internal id.
func (s *Store) FindByID(ctx context.Context, id int64) (models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.accounts[id]
	if !ok {
		return models.Account{}, storage.ErrNotFound
	}
	return *acct, nil
}

// FindByEmail fetches an account by email address.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.Account, error) {
	s.mu.RLock()
	id, ok := s.byEmail[email]
	s.mu.RUnlock()
	if !ok {
		return models.Account{}, storage.ErrNotFound
	}
	return s.FindByID(ctx, id)
}

// FindByAccountNumber fetches an account by its public number.
func (s *Store) FindByAccountNumber(ctx context.Context, accountNumber string) (models.Account, error) {
	s.mu.RLock()
	id, ok := s.byNumber[accountNumber]
	s.mu.RUnlock()
	if !ok {
		return models.Account{}, storage.ErrNotFound
	}
	return s.FindByID(ctx, id)
}

// AdjustBalance applies delta to one account under its lock.
func (s *Store) AdjustBalance(ctx context.Context, id int64, delta money.Amount) (money.Amount, error) {
	var balance money.Amount
	err := s.RunInTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.LockAccounts(ctx, id); err != nil {
			return err
		}
		var err error
		balance, err = tx.AdjustBalance(ctx, id, delta)
		return err
	})
	return balance, err
}

// ListTransactions returns up to limit records touching accountNumber, newest first.
func (s *Store) ListTransactions(ctx context.Context, accountNumber string, limit int) ([]models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Transaction, 0)
	for i := len(s.log) - 1; i >= 0 && len(out) < limit; i-- {
		if s.log[i].Touches(accountNumber) {
			out = append(out, s.log[i])
		}
	}
	return out, nil
}

// RunInTx runs fn with staged writes that are applied only if fn returns nil.
func (s *Store) RunInTx(ctx context.Context, fn func(storage.Tx) error) error {
	tx := &memTx{store: s, balances: make(map[int64]money.Amount)}
	defer tx.release()
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

type memTx struct {
	store    *Store
	held     []int64
	balances map[int64]money.Amount
	pending  []models.Transaction
}

func (t *memTx) LockAccounts(ctx context.Context, ids ...int64) (map[int64]models.Account, error) {
	s := t.store
	out := make(map[int64]models.Account, len(ids))
	for _, id := range storage.LockOrder(ids) {
		if !slices.Contains(t.held, id) {
			s.mu.RLock()
			sem, ok := s.locks[id]
			s.mu.RUnlock()
			if !ok {
				return nil, storage.ErrNotFound
			}
			if err := acquire(ctx, sem, s.lockTimeout); err != nil {
				return nil, err
			}
			t.held = append(t.held, id)
		}
		acct, err := s.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if staged, ok := t.balances[id]; ok {
			acct.Balance = staged
		}
		out[id] = acct
	}
	return out, nil
}

func (t *memTx) AdjustBalance(ctx context.Context, id int64, delta money.Amount) (money.Amount, error) {
	if !slices.Contains(t.held, id) {
		return 0, fmt.Errorf("adjust balance of account %d: account not locked", id)
	}
	current, ok := t.balances[id]
	if !ok {
		acct, err := t.store.FindByID(ctx, id)
		if err != nil {
			return 0, err
		}
		current = acct.Balance
	}
	next, ok := current.Add(delta)
	if !ok {
		return 0, storage.ErrBalanceOverflow
	}
	if next < 0 {
		return 0, storage.ErrWouldGoNegative
	}
	t.balances[id] = next
	return next, nil
}

// AppendTransaction stamps record like an insert would. Records touching one account are
// appended under that account's lock, so per-account log order matches ID order.
func (t *memTx) AppendTransaction(ctx context.Context, record models.Transaction) (models.Transaction, error) {
	s := t.store
	s.mu.Lock()
	s.nextTxID++
	record.ID = s.nextTxID
	record.CreatedAt = s.now().UTC()
	s.mu.Unlock()
	t.pending = append(t.pending, record)
	return record, nil
}

func (t *memTx) commit() {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, balance := range t.balances {
		s.accounts[id].Balance = balance
	}
	s.log = append(s.log, t.pending...)
}

func (t *memTx) release() {
	s := t.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range t.held {
		<-s.locks[id]
	}
	t.held = nil
}

func acquire(ctx context.Context, sem chan struct{}, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case sem <- struct{}{}:
		return nil
	case <-timer.C:
		return storage.ErrLockTimeout
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return storage.ErrLockTimeout
		}
		return ctx.Err()
	}
}
