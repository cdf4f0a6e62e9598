package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hongminglow/kodbank-be/internal/account"
	"github.com/hongminglow/kodbank-be/internal/http/respond"
	"github.com/hongminglow/kodbank-be/internal/ledger"
	"github.com/hongminglow/kodbank-be/internal/middleware"
	"github.com/hongminglow/kodbank-be/internal/models/dto"
	"github.com/hongminglow/kodbank-be/internal/money"
	"github.com/hongminglow/kodbank-be/internal/session"
	"github.com/hongminglow/kodbank-be/internal/storage"
)

// writeError maps a domain error to its status and code. Unclassified errors are logged and
// reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var verr *dto.ValidationError
	switch {
	case errors.As(err, &verr):
		respond.Error(w, http.StatusBadRequest, respond.CodeValidation, verr.Message)
	case errors.Is(err, money.ErrInvalidAmount), errors.Is(err, ledger.ErrInvalidAmount):
		respond.Error(w, http.StatusBadRequest, respond.CodeValidation, "amount must be a positive number with at most 2 decimal places")
	case errors.Is(err, ledger.ErrMissingRecipient):
		respond.Error(w, http.StatusBadRequest, respond.CodeValidation, "provide recipient account number or email")
	case errors.Is(err, ledger.ErrInsufficientFunds):
		respond.Error(w, http.StatusBadRequest, respond.CodeInsufficient, "insufficient balance")
	case errors.Is(err, ledger.ErrBalanceLimit):
		respond.Error(w, http.StatusBadRequest, respond.CodeBalanceLimit, "balance limit exceeded")
	case errors.Is(err, ledger.ErrSelfTransfer):
		respond.Error(w, http.StatusBadRequest, respond.CodeSelfTransfer, "cannot transfer to yourself")
	case errors.Is(err, ledger.ErrRecipientNotFound):
		respond.Error(w, http.StatusNotFound, respond.CodeRecipientMissing, "recipient not found")
	case errors.Is(err, ledger.ErrAccountNotFound), errors.Is(err, account.ErrNotFound):
		respond.Error(w, http.StatusNotFound, respond.CodeNotFound, "account not found")
	case errors.Is(err, storage.ErrDuplicateEmail):
		respond.Error(w, http.StatusBadRequest, respond.CodeDuplicateEmail, "email already registered")
	case errors.Is(err, account.ErrInvalidCredentials):
		respond.Error(w, http.StatusBadRequest, respond.CodeBadCredentials, "invalid email or password")
	case errors.Is(err, session.ErrInvalidToken):
		respond.Error(w, http.StatusForbidden, respond.CodeForbidden, "invalid or expired token")
	case errors.Is(err, storage.ErrLockTimeout):
		w.Header().Set("Retry-After", "1")
		respond.Error(w, http.StatusServiceUnavailable, respond.CodeLockTimeout, "account is busy, retry shortly")
	default:
		logger.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.RequestIDFromContext(r.Context()),
		)
		respond.Error(w, http.StatusInternalServerError, respond.CodeInternal, "internal server error")
	}
}
