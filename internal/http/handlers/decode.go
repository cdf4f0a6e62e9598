package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/hongminglow/kodbank-be/internal/models/dto"
	"github.com/hongminglow/kodbank-be/internal/money"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads exactly one JSON object into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, money.ErrInvalidAmount) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return &dto.ValidationError{Message: "request body is required"}
		}
		return &dto.ValidationError{Message: "invalid JSON payload"}
	}
	if dec.More() {
		return &dto.ValidationError{Message: "request body must contain a single JSON object"}
	}
	return nil
}
