package models

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/hongminglow/kodbank-be/internal/money"
)

// DefaultAccountPrefix precedes the numeric part of every account number.
const DefaultAccountPrefix = "KODA"

// accountDigits is the fixed width of the numeric suffix.
const accountDigits = 8

// Account is a customer record together with its balance.
type Account struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	Email         string       `json:"email"`
	Phone         string       `json:"phone"`
	AccountNumber string       `json:"accountIdentifier"`
	Balance       money.Amount `json:"balance"`
	PasswordHash  string       `json:"-"`
	CreatedAt     time.Time    `json:"createdAt"`
}

// NewAccountNumber returns prefix followed by 8 random digits, never starting with zero.
func NewAccountNumber(prefix string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(90_000_000))
	if err != nil {
		return "", fmt.Errorf("generate account number: %w", err)
	}
	return fmt.Sprintf("%s%d", prefix, n.Int64()+10_000_000), nil
}

// ValidAccountNumber reports whether s is prefix followed by exactly 8 digits.
func ValidAccountNumber(prefix, s string) bool {
	suffix, ok := strings.CutPrefix(s, prefix)
	if !ok || len(suffix) != accountDigits {
		return false
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
