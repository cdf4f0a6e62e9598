package models

import (
	"time"

	"github.com/hongminglow/kodbank-be/internal/money"
)

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TransactionDeposit  TransactionType = "DEPOSIT"
	TransactionWithdraw TransactionType = "WITHDRAW"
	TransactionTransfer TransactionType = "TRANSFER"
)

// Sentinel account numbers for cash entering and leaving the bank.
const (
	ExternalDeposit  = "SELF_DEPOSIT"
	ExternalWithdraw = "SELF_WITHDRAW"
)

// Transaction is an immutable ledger entry. Accounts are referenced by number only.
type Transaction struct {
	ID          int64           `json:"id"`
	Type        TransactionType `json:"type"`
	FromAccount string          `json:"fromAccount"`
	ToAccount   string          `json:"toAccount"`
	Amount      money.Amount    `json:"amount"`
	Description string          `json:"description"`
	FromName    string          `json:"fromName"`
	ToName      string          `json:"toName"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Touches reports whether accountNumber is the source or destination of t.
func (t Transaction) Touches(accountNumber string) bool {
	return t.FromAccount == accountNumber || t.ToAccount == accountNumber
}
