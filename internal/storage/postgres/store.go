package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hongminglow/kodbank-be/internal/models"
	"github.com/hongminglow/kodbank-be/internal/money"
	"github.com/hongminglow/kodbank-be/internal/storage"
)

// Ensure Store satisfies the storage interfaces at compile time.
var (
	_ storage.AccountStore = (*Store)(nil)
	_ storage.TokenStore   = (*Store)(nil)
)

// Postgres error codes mapped onto storage errors.
const (
	codeUniqueViolation = "23505"
	codeCheckViolation  = "23514"
	codeOutOfRange      = "22003"
	codeLockNotAvail    = "55P03"
	codeDeadlock        = "40P01"

	constraintEmail         = "accounts_email_unique"
	constraintAccountNumber = "accounts_account_number_unique"
)

const accountColumns = `id, name, email, phone, account_number, balance, password_hash, created_at`

// Options tunes Store behaviour.
type Options struct {
	LockTimeout   time.Duration
	AccountPrefix string
}

// Store provides Postgres-backed persistence for accounts, transactions and session tokens.
type Store struct {
	pool          *pgxpool.Pool
	lockTimeout   time.Duration
	prefix        string
	accountNumber func() (string, error)
}

// NewStore connects to databaseURL and applies migrations.
func NewStore(ctx context.Context, databaseURL string, opts Options, log *slog.Logger) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := newStore(pool, opts)
	if err := s.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	migrator, err := NewMigrator(databaseURL, log)
	if err != nil {
		pool.Close()
		return nil, err
	}
	if err := migrator.Up(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func newStore(pool *pgxpool.Pool, opts Options) *Store {
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = 5 * time.Second
	}
	if opts.AccountPrefix == "" {
		opts.AccountPrefix = models.DefaultAccountPrefix
	}
	prefix := opts.AccountPrefix
	return &Store{
		pool:          pool,
		lockTimeout:   opts.LockTimeout,
		prefix:        prefix,
		accountNumber: func() (string, error) { return models.NewAccountNumber(prefix) },
	}
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// CreateAccount inserts a new account, regenerating the account number on collision.
func (s *Store) CreateAccount(ctx context.Context, in storage.NewAccount) (models.Account, error) {
	const query = `
		INSERT INTO accounts (name, email, phone, account_number, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + accountColumns

	for attempt := 0; attempt < storage.MaxAccountNumberAttempts; attempt++ {
		number, err := s.accountNumber()
		if err != nil {
			return models.Account{}, err
		}
		if !models.ValidAccountNumber(s.prefix, number) {
			return models.Account{}, fmt.Errorf("%w: %q", storage.ErrMalformedAccountNumber, number)
		}
		row := s.pool.QueryRow(ctx, query, in.Name, in.Email, in.Phone, number, in.PasswordHash)
		created, err := scanAccount(row)
		if err == nil {
			return created, nil
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
			switch pgErr.ConstraintName {
			case constraintEmail:
				return models.Account{}, storage.ErrDuplicateEmail
			case constraintAccountNumber:
				continue
			}
		}
		return models.Account{}, fmt.Errorf("insert account: %w", err)
	}
	return models.Account{}, storage.ErrAccountNumberExhausted
}

// FindByID fetches an account by internal id.
func (s *Store) FindByID(ctx context.Context, id int64) (models.Account, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

// FindByEmail fetches an account by email address.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.Account, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	return scanAccount(row)
}

// FindByAccountNumber fetches an account by its public number.
func (s *Store) FindByAccountNumber(ctx context.Context, accountNumber string) (models.Account, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE account_number = $1`, accountNumber)
	return scanAccount(row)
}

// AdjustBalance applies delta to one account inside its own transaction.
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
	const query = `
		SELECT id, type, from_account, to_account, amount, description, from_name, to_name, created_at
		FROM transactions
		WHERE from_account = $1 OR to_account = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`
	rows, err := s.pool.Query(ctx, query, accountNumber, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]models.Transaction, 0)
	for rows.Next() {
		var (
			t      models.Transaction
			kind   string
			amount int64
		)
		if err := rows.Scan(&t.ID, &kind, &t.FromAccount, &t.ToAccount, &amount, &t.Description, &t.FromName, &t.ToName, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Type = models.TransactionType(kind)
		t.Amount = money.FromMinor(amount)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

// RunInTx executes fn inside a database transaction with a bounded lock wait.
func (s *Store) RunInTx(ctx context.Context, fn func(storage.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	timeout := fmt.Sprintf("%dms", s.lockTimeout.Milliseconds())
	if _, err := tx.Exec(ctx, `SELECT set_config('lock_timeout', $1, true)`, timeout); err != nil {
		return fmt.Errorf("set lock timeout: %w", err)
	}

	if err := fn(pgTx{tx: tx}); err != nil {
		return translate(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return translate(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t pgTx) LockAccounts(ctx context.Context, ids ...int64) (map[int64]models.Account, error) {
	ordered := storage.LockOrder(ids)
	rows, err := t.tx.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ordered)
	if err != nil {
		return nil, translate(fmt.Errorf("lock accounts: %w", err))
	}
	defer rows.Close()

	out := make(map[int64]models.Account, len(ordered))
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, translate(err)
		}
		out[acct.ID] = acct
	}
	if err := rows.Err(); err != nil {
		return nil, translate(fmt.Errorf("lock accounts: %w", err))
	}
	if len(out) != len(ordered) {
		return nil, storage.ErrNotFound
	}
	return out, nil
}

func (t pgTx) AdjustBalance(ctx context.Context, id int64, delta money.Amount) (money.Amount, error) {
	const query = `
		UPDATE accounts SET balance = balance + $2
		WHERE id = $1 AND balance + $2 >= 0
		RETURNING balance`
	var balance int64
	if err := t.tx.QueryRow(ctx, query, id, delta.Minor()).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, storage.ErrWouldGoNegative
		}
		return 0, translate(fmt.Errorf("adjust balance: %w", err))
	}
	return money.FromMinor(balance), nil
}

func (t pgTx) AppendTransaction(ctx context.Context, record models.Transaction) (models.Transaction, error) {
	const query = `
		INSERT INTO transactions (type, from_account, to_account, amount, description, from_name, to_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`
	row := t.tx.QueryRow(ctx, query, string(record.Type), record.FromAccount, record.ToAccount,
		record.Amount.Minor(), record.Description, record.FromName, record.ToName)
	if err := row.Scan(&record.ID, &record.CreatedAt); err != nil {
		return models.Transaction{}, translate(fmt.Errorf("append transaction: %w", err))
	}
	return record, nil
}

func scanAccount(row pgx.Row) (models.Account, error) {
	var (
		acct    models.Account
		balance int64
	)
	if err := row.Scan(&acct.ID, &acct.Name, &acct.Email, &acct.Phone, &acct.AccountNumber, &balance, &acct.PasswordHash, &acct.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, storage.ErrNotFound
		}
		return models.Account{}, err
	}
	acct.Balance = money.FromMinor(balance)
	return acct, nil
}

// translate maps lock and constraint failures onto storage errors.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeLockNotAvail, codeDeadlock:
		return fmt.Errorf("%w: %s", storage.ErrLockTimeout, pgErr.Message)
	case codeCheckViolation:
		return storage.ErrWouldGoNegative
	case codeOutOfRange:
		return storage.ErrBalanceOverflow
	}
	return err
}
