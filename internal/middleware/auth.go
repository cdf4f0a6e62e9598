package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hongminglow/kodbank-be/internal/auth"
	"github.com/hongminglow/kodbank-be/internal/http/respond"
	"github.com/hongminglow/kodbank-be/internal/session"
)

// TokenValidator checks a bearer token and returns its claims.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*auth.Claims, error)
}

// AuthInfo identifies the caller of an authenticated request.
type AuthInfo struct {
	AccountID     int64
	AccountNumber string
	Token         string
}

type authKey struct{}

type contextSetter interface {
	SetContext(context.Context)
}

// AuthFromContext returns the caller attached by RequireAuth.
func AuthFromContext(ctx context.Context) (AuthInfo, bool) {
	info, ok := ctx.Value(authKey{}).(AuthInfo)
	return info, ok
}

// WithAuth attaches info to ctx.
func WithAuth(ctx context.Context, info AuthInfo) context.Context {
	return context.WithValue(ctx, authKey{}, info)
}

// RequireAuth rejects requests without a valid bearer token: 401 when the header is
// missing or malformed, 403 when the token is invalid or revoked.
func RequireAuth(validator TokenValidator, logger *slog.Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := BearerToken(r.Header.Get("Authorization"))
		if err != nil {
			logger.Warn("authorization header invalid", "error", err, "path", r.URL.Path)
			respond.Error(w, http.StatusUnauthorized, respond.CodeUnauthenticated, "authentication required")
			return
		}
		claims, err := validator.Validate(r.Context(), token)
		if err != nil {
			if errors.Is(err, session.ErrInvalidToken) {
				logger.Warn("token validation failed", "error", err, "path", r.URL.Path)
				respond.Error(w, http.StatusForbidden, respond.CodeForbidden, "invalid or expired token")
				return
			}
			logger.Error("token lookup failed", "error", err, "path", r.URL.Path)
			respond.Error(w, http.StatusInternalServerError, respond.CodeInternal, "internal server error")
			return
		}
		accountID, err := claims.AccountID()
		if err != nil {
			logger.Warn("token subject invalid", "error", err, "path", r.URL.Path)
			respond.Error(w, http.StatusForbidden, respond.CodeForbidden, "invalid or expired token")
			return
		}

		ctx := WithAuth(r.Context(), AuthInfo{
			AccountID:     accountID,
			AccountNumber: claims.AccountNumber,
			Token:         token,
		})
		if setter, ok := w.(contextSetter); ok {
			setter.SetContext(ctx)
		}
		next(w, r.WithContext(ctx))
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header format")
	}
	return parts[1], nil
}
