package dto

import (
	"strings"

	"github.com/hongminglow/kodbank-be/internal/models"
	"github.com/hongminglow/kodbank-be/internal/money"
)

// AmountRequest is the body of /deposit and /withdraw.
type AmountRequest struct {
	Amount money.Amount `json:"amount"`
}

func (r AmountRequest) Validate() error {
	if r.Amount <= 0 {
		return invalid("amount must be greater than 0")
	}
	return nil
}

type TransferRequest struct {
	Amount    money.Amount `json:"amount"`
	ToAccount string       `json:"toAccount,omitempty"`
	ToEmail   string       `json:"toEmail,omitempty"`
}

func (r *TransferRequest) Normalize() {
	r.ToAccount = strings.ToUpper(strings.TrimSpace(r.ToAccount))
	r.ToEmail = strings.ToLower(strings.TrimSpace(r.ToEmail))
}

func (r TransferRequest) Validate() error {
	if r.Amount <= 0 {
		return invalid("amount must be greater than 0")
	}
	if r.ToAccount == "" && r.ToEmail == "" {
		return invalid("provide recipient account number or email")
	}
	if r.ToAccount != "" && r.ToEmail != "" {
		return invalid("provide either a recipient account number or an email, not both")
	}
	return nil
}

type BalanceResponse struct {
	Balance           money.Amount `json:"balance"`
	AccountIdentifier string       `json:"accountIdentifier"`
}

type MutationResponse struct {
	Message    string       `json:"message"`
	NewBalance money.Amount `json:"newBalance"`
}

type TransferResponse struct {
	Message          string       `json:"message"`
	RecipientName    string       `json:"recipientName"`
	RecipientAccount string       `json:"recipientAccount"`
	NewBalance       money.Amount `json:"newBalance"`
}

type HistoryResponse struct {
	Transactions []models.Transaction `json:"transactions"`
	UserAccount  string               `json:"userAccount"`
}
