package dto

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterValidate(t *testing.T) {
	req := RegisterRequest{Name: " Asha ", Email: " Asha@Example.com ", Password: "longenough"}
	req.Normalize()
	assert.NoError(t, req.Validate())
	assert.Equal(t, "asha@example.com", req.Email)
	assert.Equal(t, "Asha", req.Name)

	var vErr *ValidationError
	err := RegisterRequest{Email: "a@b.c", Password: "longenough"}.Validate()
	assert.True(t, errors.As(err, &vErr))

	err = RegisterRequest{Name: "x", Email: "not-an-email", Password: "longenough"}.Validate()
	assert.True(t, errors.As(err, &vErr))

	err = RegisterRequest{Name: "x", Email: "a@b.c", Password: "short"}.Validate()
	assert.True(t, errors.As(err, &vErr))

	err = RegisterRequest{Name: "x", Email: "a@b.c", Password: strings.Repeat("p", MaxPasswordBytes+1)}.Validate()
	assert.True(t, errors.As(err, &vErr))

	// Multi-byte runes count by bytes: 25 x 3 bytes is over the limit.
	err = RegisterRequest{Name: "x", Email: "a@b.c", Password: strings.Repeat("€", 25)}.Validate()
	assert.True(t, errors.As(err, &vErr))

	assert.NoError(t, RegisterRequest{Name: "x", Email: "a@b.c", Password: strings.Repeat("p", MaxPasswordBytes)}.Validate())
}

func TestTransferValidate(t *testing.T) {
	assert.Error(t, TransferRequest{Amount: 100}.Validate())
	assert.Error(t, TransferRequest{Amount: 0, ToAccount: "KODA12345678"}.Validate())
	assert.Error(t, TransferRequest{Amount: 100, ToAccount: "KODA12345678", ToEmail: "a@b.c"}.Validate())
	assert.NoError(t, TransferRequest{Amount: 100, ToEmail: "a@b.c"}.Validate())
}
