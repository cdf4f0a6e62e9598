package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/kodbank-be/internal/account"
	"github.com/hongminglow/kodbank-be/internal/auth"
	"github.com/hongminglow/kodbank-be/internal/ledger"
	"github.com/hongminglow/kodbank-be/internal/session"
	"github.com/hongminglow/kodbank-be/internal/storage/memory"
)

type api struct {
	t   *testing.T
	url string
}

func newAPI(t *testing.T) *api {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	sessions := session.NewService(auth.NewTokenManager("test-secret", "kodbank", time.Hour), store)

	mux := http.NewServeMux()
	NewHealthHandler(time.Now(), map[string]Pinger{"database": store}).Register(mux)
	NewAuthHandler(account.NewService(store, sessions), sessions, logger).Register(mux)
	NewBankingHandler(ledger.NewEngine(store, ledger.Options{Logger: logger}), sessions, "₹", logger).Register(mux)

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return &api{t: t, url: ts.URL}
}

func (a *api) do(method, path, token, body string) (int, map[string]any) {
	a.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, a.url+path, reader)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	require.NoError(a.t, dec.Decode(&out))
	return resp.StatusCode, out
}

func (a *api) register(name, email string) string {
	a.t.Helper()
	status, body := a.do(http.MethodPost, "/register", "",
		`{"name":"`+name+`","email":"`+email+`","password":"correct horse"}`)
	require.Equal(a.t, http.StatusCreated, status, body)
	return body["accountIdentifier"].(string)
}

func (a *api) login(email string) string {
	a.t.Helper()
	status, body := a.do(http.MethodPost, "/login", "", `{"email":"`+email+`","password":"correct horse"}`)
	require.Equal(a.t, http.StatusOK, status, body)
	return body["token"].(string)
}

func TestBankingRoundTrip(t *testing.T) {
	a := newAPI(t)
	ashaAcct := a.register("Asha", "Asha@Example.com ")
	benAcct := a.register("Ben", "ben@example.com")
	assert.Regexp(t, `^KODA\d{8}$`, ashaAcct)

	token := a.login("asha@example.com")

	status, body := a.do(http.MethodGet, "/balance", token, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, json.Number("0.00"), body["balance"])
	assert.Equal(t, ashaAcct, body["accountIdentifier"])

	status, body = a.do(http.MethodPost, "/deposit", token, `{"amount": 100}`)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "₹100.00 deposited successfully", body["message"])
	assert.Equal(t, json.Number("100.00"), body["newBalance"])

	status, body = a.do(http.MethodPost, "/withdraw", token, `{"amount": "40.00"}`)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "₹40.00 withdrawn successfully", body["message"])
	assert.Equal(t, json.Number("60.00"), body["newBalance"])

	status, body = a.do(http.MethodPost, "/transfer", token, `{"amount": 20, "toAccount": "`+strings.ToLower(benAcct)+`"}`)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "₹20.00 sent to Ben successfully", body["message"])
	assert.Equal(t, "Ben", body["recipientName"])
	assert.Equal(t, benAcct, body["recipientAccount"])
	assert.Equal(t, json.Number("40.00"), body["newBalance"])

	benToken := a.login("ben@example.com")
	status, body = a.do(http.MethodGet, "/balance", benToken, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, json.Number("20.00"), body["balance"])

	status, body = a.do(http.MethodGet, "/transactions", token, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, ashaAcct, body["userAccount"])
	records := body["transactions"].([]any)
	require.Len(t, records, 3)
	newest := records[0].(map[string]any)
	assert.Equal(t, "TRANSFER", newest["type"])
	assert.Equal(t, ashaAcct, newest["fromAccount"])
	assert.Equal(t, benAcct, newest["toAccount"])

	status, body = a.do(http.MethodGet, "/profile", token, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "asha@example.com", body["email"])
	assert.NotContains(t, body, "passwordHash")
	assert.NotContains(t, body, "PasswordHash")
}

func TestErrorMapping(t *testing.T) {
	a := newAPI(t)
	ashaAcct := a.register("Asha", "asha@example.com")
	a.register("Ben", "ben@example.com")
	token := a.login("asha@example.com")
	status, _ := a.do(http.MethodPost, "/deposit", token, `{"amount": 10}`)
	require.Equal(t, http.StatusOK, status)

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		body   string
		status int
		code   string
	}{
		{"duplicate email", http.MethodPost, "/register", "", `{"name":"X","email":"ASHA@example.com","password":"correct horse"}`, http.StatusBadRequest, "DUPLICATE_EMAIL"},
		{"short password", http.MethodPost, "/register", "", `{"name":"X","email":"x@example.com","password":"short"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"password over 72 bytes", http.MethodPost, "/register", "", `{"name":"X","email":"x@example.com","password":"` + strings.Repeat("p", 80) + `"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown field", http.MethodPost, "/register", "", `{"name":"X","email":"x@example.com","password":"correct horse","role":"admin"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"wrong password", http.MethodPost, "/login", "", `{"email":"asha@example.com","password":"nope nope"}`, http.StatusBadRequest, "INVALID_CREDENTIALS"},
		{"unknown user", http.MethodPost, "/login", "", `{"email":"who@example.com","password":"correct horse"}`, http.StatusBadRequest, "INVALID_CREDENTIALS"},
		{"zero deposit", http.MethodPost, "/deposit", token, `{"amount": 0}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"sub-cent deposit", http.MethodPost, "/deposit", token, `{"amount": 0.001}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"empty body", http.MethodPost, "/withdraw", token, "", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"overdraw", http.MethodPost, "/withdraw", token, `{"amount": 10.01}`, http.StatusBadRequest, "INSUFFICIENT_FUNDS"},
		{"self transfer", http.MethodPost, "/transfer", token, `{"amount": 1, "toAccount": "` + ashaAcct + `"}`, http.StatusBadRequest, "SELF_TRANSFER_NOT_ALLOWED"},
		{"unknown recipient", http.MethodPost, "/transfer", token, `{"amount": 1, "toEmail": "ghost@example.com"}`, http.StatusNotFound, "RECIPIENT_NOT_FOUND"},
		{"no recipient", http.MethodPost, "/transfer", token, `{"amount": 1}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"transfer overdraw", http.MethodPost, "/transfer", token, `{"amount": 50, "toEmail": "ben@example.com"}`, http.StatusBadRequest, "INSUFFICIENT_FUNDS"},
		{"missing token", http.MethodGet, "/balance", "", "", http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"garbage token", http.MethodGet, "/balance", "not-a-jwt", "", http.StatusForbidden, "FORBIDDEN"},
		{"wrong method", http.MethodGet, "/deposit", token, "", http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := a.do(tc.method, tc.path, tc.token, tc.body)
			assert.Equal(t, tc.status, status, body)
			assert.Equal(t, tc.code, body["code"])
			assert.NotEmpty(t, body["error"])
		})
	}

	status, body := a.do(http.MethodGet, "/balance", token, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, json.Number("10.00"), body["balance"])
}

func TestBalanceLimit(t *testing.T) {
	a := newAPI(t)
	a.register("Asha", "asha@example.com")
	token := a.login("asha@example.com")

	status, body := a.do(http.MethodPost, "/deposit", token, `{"amount": "90000000000000000"}`)
	require.Equal(t, http.StatusOK, status, body)

	status, body = a.do(http.MethodPost, "/deposit", token, `{"amount": "90000000000000000"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "BALANCE_LIMIT_EXCEEDED", body["code"])

	status, body = a.do(http.MethodGet, "/balance", token, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, json.Number("90000000000000000.00"), body["balance"])
}

func TestLogoutRevokesToken(t *testing.T) {
	a := newAPI(t)
	a.register("Asha", "asha@example.com")
	first := a.login("asha@example.com")
	second := a.login("asha@example.com")
	require.NotEqual(t, first, second)

	status, body := a.do(http.MethodPost, "/logout", first, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Logged out successfully", body["message"])

	status, body = a.do(http.MethodGet, "/balance", first, "")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", body["code"])

	status, _ = a.do(http.MethodGet, "/balance", second, "")
	assert.Equal(t, http.StatusOK, status)
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	status, body := a.do(http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, map[string]any{"database": "ok"}, body["components"])
}
