package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hongminglow/kodbank-be/internal/account"
	"github.com/hongminglow/kodbank-be/internal/http/respond"
	"github.com/hongminglow/kodbank-be/internal/middleware"
	"github.com/hongminglow/kodbank-be/internal/models/dto"
)

// AuthHandler owns the register, login, logout and profile endpoints.
type AuthHandler struct {
	accounts  *account.Service
	validator middleware.TokenValidator
	logger    *slog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(accounts *account.Service, validator middleware.TokenValidator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, validator: validator, logger: logger}
}

// Register attaches auth routes to the mux.
func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/register", h.handleRegister)
	mux.HandleFunc("/login", h.handleLogin)
	mux.HandleFunc("/logout", middleware.RequireAuth(h.validator, h.logger, h.handleLogout))
	mux.HandleFunc("/profile", middleware.RequireAuth(h.validator, h.logger, h.handleProfile))
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respond.MethodNotAllowed(w, http.MethodPost)
		return
	}
	var req dto.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	created, err := h.accounts.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.logger.Info("account registered", "account_id", created.ID, "account_number", created.AccountNumber)
	respond.JSON(w, http.StatusCreated, dto.RegisterResponse{
		ID:                created.ID,
		AccountIdentifier: created.AccountNumber,
		Message:           "Account created successfully! Your account number is: " + created.AccountNumber,
	})
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respond.MethodNotAllowed(w, http.MethodPost)
		return
	}
	var req dto.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	acct, sess, err := h.accounts.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.LoginResponse{Token: sess.Token, ExpiresAt: sess.ExpiresAt, User: acct})
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respond.MethodNotAllowed(w, http.MethodPost)
		return
	}
	info, _ := middleware.AuthFromContext(r.Context())
	// Revocation must land even if the client hangs up.
	if err := h.accounts.Logout(context.WithoutCancel(r.Context()), info.Token); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.MessageResponse{Message: "Logged out successfully"})
}

func (h *AuthHandler) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respond.MethodNotAllowed(w, http.MethodGet)
		return
	}
	info, _ := middleware.AuthFromContext(r.Context())
	acct, err := h.accounts.Profile(r.Context(), info.AccountID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, acct)
}
