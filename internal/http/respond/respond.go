package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Error codes returned in the code field of error bodies.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeUnauthenticated  = "UNAUTHENTICATED"
	CodeForbidden        = "FORBIDDEN"
	CodeInsufficient     = "INSUFFICIENT_FUNDS"
	CodeBalanceLimit     = "BALANCE_LIMIT_EXCEEDED"
	CodeRecipientMissing = "RECIPIENT_NOT_FOUND"
	CodeSelfTransfer     = "SELF_TRANSFER_NOT_ALLOWED"
	CodeDuplicateEmail   = "DUPLICATE_EMAIL"
	CodeBadCredentials   = "INVALID_CREDENTIALS"
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeLockTimeout      = "TRANSIENT_LOCK_TIMEOUT"
	CodeInternal         = "INTERNAL_ERROR"
)

// ErrorBody is the shape of every failed response.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// JSON writes payload with the given status.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("respond: encode payload failed", "error", err)
	}
}

// Error writes an error body.
func Error(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, ErrorBody{Error: message, Code: code})
}

// MethodNotAllowed rejects a request whose method the route does not serve.
func MethodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	Error(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
}
