package dto

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hongminglow/kodbank-be/internal/models"
)

// ValidationError reports a malformed or incomplete request body.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

func invalid(msg string) error { return &ValidationError{Message: msg} }

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

// Normalize trims every field and lower-cases the email.
func (r *RegisterRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Phone = strings.TrimSpace(r.Phone)
}

func (r RegisterRequest) Validate() error {
	if r.Name == "" || r.Email == "" || r.Password == "" {
		return invalid("name, email, and password are required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return invalid("email is not valid")
	}
	if len(strings.TrimSpace(r.Password)) < 8 || !utf8.ValidString(r.Password) {
		return invalid("password must be at least 8 characters")
	}
	if len(r.Password) > MaxPasswordBytes {
		return invalid("password must be at most 72 bytes")
	}
	return nil
}

type RegisterResponse struct {
	ID                int64  `json:"id"`
	AccountIdentifier string `json:"accountIdentifier"`
	Message           string `json:"message"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r LoginRequest) Validate() error {
	if r.Email == "" || strings.TrimSpace(r.Password) == "" {
		return invalid("email and password are required")
	}
	return nil
}

type LoginResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	User      models.Account `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
