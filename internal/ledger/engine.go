// Package ledger moves money between balances and records every movement.
//
// Each operation validates its input, then runs one storage transaction that locks the
// accounts involved, re-checks funds under the lock, applies the balance changes and
// appends the transaction record. Nothing is visible unless all of it commits.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hongminglow/kodbank-be/internal/models"
	"github.com/hongminglow/kodbank-be/internal/money"
	"github.com/hongminglow/kodbank-be/internal/storage"
)

// HistoryLimit caps the number of records returned by History.
const HistoryLimit = 50

// DefaultOperationTimeout bounds a single mutation once it has started.
const DefaultOperationTimeout = 10 * time.Second

// Operation names used for logging and metrics.
const (
	OpDeposit  = "deposit"
	OpWithdraw = "withdraw"
	OpTransfer = "transfer"
)

// Recorder observes the outcome of each mutation.
type Recorder interface {
	ObserveLedgerOperation(op string, err error)
}

// Recipient selects a transfer target by account number or email.
type Recipient struct {
	AccountNumber string
	Email         string
}

// Result describes a committed mutation.
type Result struct {
	Balance   money.Amount
	Record    models.Transaction
	Recipient models.Account
}

// Options tunes an Engine.
type Options struct {
	OperationTimeout time.Duration
	Recorder         Recorder
	Logger           *slog.Logger
}

// Engine executes deposits, withdrawals and transfers.
type Engine struct {
	store     storage.AccountStore
	opTimeout time.Duration
	recorder  Recorder
	log       *slog.Logger
}

// NewEngine constructs an Engine over store.
func NewEngine(store storage.AccountStore, opts Options) *Engine {
	if opts.OperationTimeout <= 0 {
		opts.OperationTimeout = DefaultOperationTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Engine{
		store:     store,
		opTimeout: opts.OperationTimeout,
		recorder:  opts.Recorder,
		log:       opts.Logger,
	}
}

// Deposit credits amount to the account as cash entering the bank.
func (e *Engine) Deposit(ctx context.Context, accountID int64, amount money.Amount) (res Result, err error) {
	defer func() { e.observe(OpDeposit, accountID, amount, err) }()
	if amount <= 0 {
		return Result{}, ErrInvalidAmount
	}

	ctx, cancel := e.detach(ctx)
	defer cancel()

	err = e.store.RunInTx(ctx, func(tx storage.Tx) error {
		accounts, err := tx.LockAccounts(ctx, accountID)
		if err != nil {
			return notFoundAs(err, ErrAccountNotFound)
		}
		acct := accounts[accountID]

		balance, err := tx.AdjustBalance(ctx, accountID, amount)
		if err != nil {
			return rejection(err)
		}
		record, err := tx.AppendTransaction(ctx, models.Transaction{
			Type:        models.TransactionDeposit,
			FromAccount: models.ExternalDeposit,
			ToAccount:   acct.AccountNumber,
			Amount:      amount,
			Description: "Cash deposit to account",
			FromName:    acct.Name,
			ToName:      acct.Name,
		})
		if err != nil {
			return err
		}
		res = Result{Balance: balance, Record: record}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// Withdraw debits amount from the account as cash leaving the bank.
func (e *Engine) Withdraw(ctx context.Context, accountID int64, amount money.Amount) (res Result, err error) {
	defer func() { e.observe(OpWithdraw, accountID, amount, err) }()
	if amount <= 0 {
		return Result{}, ErrInvalidAmount
	}

	ctx, cancel := e.detach(ctx)
	defer cancel()

	err = e.store.RunInTx(ctx, func(tx storage.Tx) error {
		accounts, err := tx.LockAccounts(ctx, accountID)
		if err != nil {
			return notFoundAs(err, ErrAccountNotFound)
		}
		acct := accounts[accountID]
		if acct.Balance < amount {
			return ErrInsufficientFunds
		}

		balance, err := tx.AdjustBalance(ctx, accountID, -amount)
		if err != nil {
			return rejection(err)
		}
		record, err := tx.AppendTransaction(ctx, models.Transaction{
			Type:        models.TransactionWithdraw,
			FromAccount: acct.AccountNumber,
			ToAccount:   models.ExternalWithdraw,
			Amount:      amount,
			Description: "Cash withdrawal from account",
			FromName:    acct.Name,
			ToName:      acct.Name,
		})
		if err != nil {
			return err
		}
		res = Result{Balance: balance, Record: record}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// Transfer moves amount from the sender to the recipient in a single transaction.
// Result.Balance is the sender's new balance.
func (e *Engine) Transfer(ctx context.Context, fromID int64, amount money.Amount, to Recipient) (res Result, err error) {
	defer func() { e.observe(OpTransfer, fromID, amount, err) }()
	if amount <= 0 {
		return Result{}, ErrInvalidAmount
	}
	if to.AccountNumber == "" && to.Email == "" {
		return Result{}, ErrMissingRecipient
	}

	ctx, cancel := e.detach(ctx)
	defer cancel()

	recipient, err := e.resolve(ctx, to)
	if err != nil {
		return Result{}, err
	}
	if recipient.ID == fromID {
		return Result{}, ErrSelfTransfer
	}

	err = e.store.RunInTx(ctx, func(tx storage.Tx) error {
		accounts, err := tx.LockAccounts(ctx, fromID, recipient.ID)
		if err != nil {
			return notFoundAs(err, ErrAccountNotFound)
		}
		sender, receiver := accounts[fromID], accounts[recipient.ID]
		if sender.Balance < amount {
			return ErrInsufficientFunds
		}

		balance, err := tx.AdjustBalance(ctx, sender.ID, -amount)
		if err != nil {
			return rejection(err)
		}
		if _, err := tx.AdjustBalance(ctx, receiver.ID, amount); err != nil {
			return rejection(err)
		}
		record, err := tx.AppendTransaction(ctx, models.Transaction{
			Type:        models.TransactionTransfer,
			FromAccount: sender.AccountNumber,
			ToAccount:   receiver.AccountNumber,
			Amount:      amount,
			Description: fmt.Sprintf("Transfer from %s to %s", sender.Name, receiver.Name),
			FromName:    sender.Name,
			ToName:      receiver.Name,
		})
		if err != nil {
			return err
		}
		res = Result{Balance: balance, Record: record, Recipient: receiver}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// Account returns the current state of an account.
func (e *Engine) Account(ctx context.Context, accountID int64) (models.Account, error) {
	acct, err := e.store.FindByID(ctx, accountID)
	if err != nil {
		return models.Account{}, notFoundAs(err, ErrAccountNotFound)
	}
	return acct, nil
}

// History returns the account and up to HistoryLimit records touching it, newest first.
func (e *Engine) History(ctx context.Context, accountID int64) (models.Account, []models.Transaction, error) {
	acct, err := e.Account(ctx, accountID)
	if err != nil {
		return models.Account{}, nil, err
	}
	records, err := e.store.ListTransactions(ctx, acct.AccountNumber, HistoryLimit)
	if err != nil {
		return models.Account{}, nil, err
	}
	return acct, records, nil
}

func (e *Engine) resolve(ctx context.Context, to Recipient) (models.Account, error) {
	var (
		acct models.Account
		err  error
	)
	if to.AccountNumber != "" {
		acct, err = e.store.FindByAccountNumber(ctx, to.AccountNumber)
	} else {
		acct, err = e.store.FindByEmail(ctx, to.Email)
	}
	if err != nil {
		return models.Account{}, notFoundAs(err, ErrRecipientNotFound)
	}
	return acct, nil
}

// detach keeps a started mutation alive when the caller goes away, bounded by opTimeout.
func (e *Engine) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), e.opTimeout)
}

func (e *Engine) observe(op string, accountID int64, amount money.Amount, err error) {
	if e.recorder != nil {
		e.recorder.ObserveLedgerOperation(op, err)
	}
	if err == nil {
		e.log.Info("ledger operation applied", "op", op, "account_id", accountID, "amount", amount.String())
		return
	}
	e.log.Warn("ledger operation rejected", "op", op, "account_id", accountID, "amount", amount.String(), "error", err)
}

func notFoundAs(err, target error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return target
	}
	return err
}

func rejection(err error) error {
	switch {
	case errors.Is(err, storage.ErrWouldGoNegative):
		return ErrInsufficientFunds
	case errors.Is(err, storage.ErrBalanceOverflow):
		return ErrBalanceLimit
	}
	return err
}
