package ledger

import "errors"

var (
	// ErrInvalidAmount indicates a zero or negative amount.
	ErrInvalidAmount = errors.New("amount must be greater than 0")

	// ErrInsufficientFunds indicates the debit exceeds the current balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrRecipientNotFound indicates the transfer target does not resolve to an account.
	ErrRecipientNotFound = errors.New("recipient not found")

	// ErrSelfTransfer indicates sender and recipient are the same account.
	ErrSelfTransfer = errors.New("cannot transfer to yourself")

	// ErrMissingRecipient indicates neither an account number nor an email was supplied.
	ErrMissingRecipient = errors.New("provide recipient account number or email")

	// ErrBalanceLimit indicates a credit would exceed the largest balance an account can hold.
	ErrBalanceLimit = errors.New("balance limit exceeded")

	// ErrAccountNotFound indicates the acting account no longer exists.
	ErrAccountNotFound = errors.New("account not found")
)
