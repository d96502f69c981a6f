package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"logistics-backend/internal/apperr"
	"logistics-backend/internal/middleware"
	"logistics-backend/internal/models"
	"logistics-backend/internal/repositories"
	"logistics-backend/internal/services"
)

// stubLedger holds one account and its transactions.
type stubLedger struct {
	account models.Account
	txns    []models.Transaction
}

type stubAccounts struct{ *stubLedger }

func (s stubAccounts) Create(ctx context.Context, a *models.Account) error { return nil }

func (s stubAccounts) GetByID(ctx context.Context, id int) (*models.Account, error) {
	if id != s.account.ID {
		return nil, apperr.NotFound("account %d not found", id)
	}
	a := s.account
	return &a, nil
}

func (s stubAccounts) GetBySlug(ctx context.Context, slug string) (*models.Account, error) {
	if slug != s.account.Slug {
		return nil, apperr.NotFound("account %q not found", slug)
	}
	a := s.account
	return &a, nil
}

func (s stubAccounts) List(ctx context.Context) ([]models.Account, error) {
	return []models.Account{s.account}, nil
}

func (s stubAccounts) Update(ctx context.Context, a *models.Account, initialDelta decimal.Decimal) error {
	return nil
}

func (s stubAccounts) SetActive(ctx context.Context, id int, active bool) error { return nil }

func (s stubAccounts) RecalculateBalance(ctx context.Context, id int) (*models.BalanceCheck, error) {
	return &models.BalanceCheck{AccountID: id}, nil
}

func (s *stubLedger) Create(ctx context.Context, t *models.Transaction) error {
	t.ID = int64(len(s.txns) + 1)
	t.AccountSlug = s.account.Slug
	s.account.CurrentBalance = s.account.CurrentBalance.Add(t.Net())
	s.txns = append(s.txns, *t)
	return nil
}

func (s *stubLedger) List(ctx context.Context, accountID int, rng repositories.TransactionRange) ([]models.Transaction, error) {
	out := []models.Transaction{}
	for _, t := range s.txns {
		if rng.Before != nil && !t.TransactionDate.Before(*rng.Before) {
			continue
		}
		if rng.From != nil && t.TransactionDate.Before(*rng.From) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func newAccountHandler() (*AccountHandler, *stubLedger) {
	store := &stubLedger{account: models.Account{
		ID: 1, Title: "Main Bank", Slug: "main-bank", IsActive: true,
		InitialBalance: decimal.NewFromInt(1000), CurrentBalance: decimal.NewFromInt(1000),
	}}
	log := zap.NewNop()
	return NewAccountHandler(
		services.NewAccountService(stubAccounts{store}, "USD", "$", log),
		services.NewLedgerService(stubAccounts{store}, store, log),
		services.NewReportService(models.Party{Name: "Test Co"}, "$"),
	), store
}

func as(r *http.Request, role string) *http.Request {
	if role == "" {
		return r
	}
	return r.WithContext(middleware.WithSession(r.Context(), &models.Session{UserID: 9, Role: role}))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestListAccountsAccess(t *testing.T) {
	h, _ := newAccountHandler()

	rec := httptest.NewRecorder()
	h.ListAccounts(rec, httptest.NewRequest(http.MethodGet, "/api/accounts", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ListAccounts(rec, as(httptest.NewRequest(http.MethodGet, "/api/accounts", nil), models.RoleUser))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h.ListAccounts(rec, as(httptest.NewRequest(http.MethodGet, "/api/accounts", nil), models.RoleAccountant))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	var accounts []models.Account
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accounts))
	require.Len(t, accounts, 1)
	assert.Equal(t, "main-bank", accounts[0].Slug)
}

func TestCreateTransactionValidationError(t *testing.T) {
	h, store := newAccountHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/transactions",
		strings.NewReader(`{"account_id": 1, "type": "credit", "amount": 0}`))
	rec := httptest.NewRecorder()
	h.CreateTransaction(rec, as(req, models.RoleAccountant))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "amount must be greater than zero", body["error"])
	assert.Empty(t, store.txns)
}

func TestCreateTransactionMalformedBody(t *testing.T) {
	h, _ := newAccountHandler()
	rec := httptest.NewRecorder()
	h.CreateTransaction(rec, httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(`{"amount":`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request body", decodeBody(t, rec)["error"])
}

func TestCreateTransactionThenStatement(t *testing.T) {
	h, store := newAccountHandler()
	today := time.Now().UTC().Format("2006-01-02")

	req := httptest.NewRequest(http.MethodPost, "/api/transactions",
		strings.NewReader(`{"account_id": 1, "type": "transfer", "amount": 250.75, "destination": "Petty cash", "transaction_date": "`+today+`"}`))
	rec := httptest.NewRecorder()
	h.CreateTransaction(rec, as(req, models.RoleAdmin))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, true, decodeBody(t, rec)["success"])
	require.Len(t, store.txns, 1)
	assert.True(t, store.txns[0].Debit.Equal(decimal.RequireFromString("250.75")))

	st := httptest.NewRequest(http.MethodGet, "/api/accounts/main-bank/statement", nil)
	st = mux.SetURLVars(st, map[string]string{"slug": "main-bank"})
	rec = httptest.NewRecorder()
	h.Statement(rec, st)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, 749.25, body["closing_balance"])
	lines := body["transactions"].([]interface{})
	require.Len(t, lines, 1)
	assert.Equal(t, 749.25, lines[0].(map[string]interface{})["calculated_balance"])
}

func TestStatementUnknownAccount(t *testing.T) {
	h, _ := newAccountHandler()
	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/accounts/nope/statement", nil),
		map[string]string{"slug": "nope"})
	rec := httptest.NewRecorder()
	h.Statement(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatementXLSXDownload(t *testing.T) {
	h, _ := newAccountHandler()
	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/accounts/main-bank/statement.xlsx", nil),
		map[string]string{"slug": "main-bank"})
	rec := httptest.NewRecorder()
	h.StatementXLSX(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentTypeXLSX, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "statement-main-bank.xlsx")
}
