package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hongminglow/kodbank-be/internal/http/respond"
	"github.com/hongminglow/kodbank-be/internal/ledger"
	"github.com/hongminglow/kodbank-be/internal/middleware"
	"github.com/hongminglow/kodbank-be/internal/models/dto"
	"github.com/hongminglow/kodbank-be/internal/money"
)

// BankingHandler serves balance, deposit, withdraw, transfer and history.
type BankingHandler struct {
	engine    *ledger.Engine
	validator middleware.TokenValidator
	currency  string
	logger    *slog.Logger
}

// NewBankingHandler constructs the handler. currency prefixes amounts in messages.
func NewBankingHandler(engine *ledger.Engine, validator middleware.TokenValidator, currency string, logger *slog.Logger) *BankingHandler {
	return &BankingHandler{engine: engine, validator: validator, currency: currency, logger: logger}
}

// Register attaches banking routes to the mux. Every route requires a session.
func (h *BankingHandler) Register(mux *http.ServeMux) {
	routes := map[string]http.HandlerFunc{
		"/balance":      h.handleBalance,
		"/deposit":      h.handleDeposit,
		"/withdraw":     h.handleWithdraw,
		"/transfer":     h.handleTransfer,
		"/transactions": h.handleTransactions,
	}
	for path, fn := range routes {
		mux.HandleFunc(path, middleware.RequireAuth(h.validator, h.logger, fn))
	}
}

func (h *BankingHandler) handleBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respond.MethodNotAllowed(w, http.MethodGet)
		return
	}
	info, _ := middleware.AuthFromContext(r.Context())
	acct, err := h.engine.Account(r.Context(), info.AccountID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.BalanceResponse{Balance: acct.Balance, AccountIdentifier: acct.AccountNumber})
}

func (h *BankingHandler) handleDeposit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respond.MethodNotAllowed(w, http.MethodPost)
		return
	}
	var req dto.AmountRequest
	if !h.decode(w, r, &req) {
		return
	}
	info, _ := middleware.AuthFromContext(r.Context())
	res, err := h.engine.Deposit(r.Context(), info.AccountID, req.Amount)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.MutationResponse{
		Message:    fmt.Sprintf("%s deposited successfully", h.format(req.Amount)),
		NewBalance: res.Balance,
	})
}

func (h *BankingHandler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respond.MethodNotAllowed(w, http.MethodPost)
		return
	}
	var req dto.AmountRequest
	if !h.decode(w, r, &req) {
		return
	}
	info, _ := middleware.AuthFromContext(r.Context())
	res, err := h.engine.Withdraw(r.Context(), info.AccountID, req.Amount)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.MutationResponse{
		Message:    fmt.Sprintf("%s withdrawn successfully", h.format(req.Amount)),
		NewBalance: res.Balance,
	})
}

func (h *BankingHandler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respond.MethodNotAllowed(w, http.MethodPost)
		return
	}
	var req dto.TransferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	info, _ := middleware.AuthFromContext(r.Context())
	res, err := h.engine.Transfer(r.Context(), info.AccountID, req.Amount, ledger.Recipient{
		AccountNumber: req.ToAccount,
		Email:         req.ToEmail,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.TransferResponse{
		Message:          fmt.Sprintf("%s sent to %s successfully", h.format(req.Amount), res.Recipient.Name),
		RecipientName:    res.Recipient.Name,
		RecipientAccount: res.Recipient.AccountNumber,
		NewBalance:       res.Balance,
	})
}

func (h *BankingHandler) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respond.MethodNotAllowed(w, http.MethodGet)
		return
	}
	info, _ := middleware.AuthFromContext(r.Context())
	acct, records, err := h.engine.History(r.Context(), info.AccountID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.HistoryResponse{Transactions: records, UserAccount: acct.AccountNumber})
}

func (h *BankingHandler) decode(w http.ResponseWriter, r *http.Request, req *dto.AmountRequest) bool {
	if err := decodeJSON(w, r, req); err != nil {
		writeError(w, r, h.logger, err)
		return false
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, h.logger, err)
		return false
	}
	return true
}

func (h *BankingHandler) format(a money.Amount) string {
	return h.currency + a.String()
}
