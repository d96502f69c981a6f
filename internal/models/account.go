package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Account struct {
	ID              int             `json:"id"`
	Title           string          `json:"title"`
	Slug            string          `json:"slug"`
	Description     string          `json:"description"`
	InitialBalance  decimal.Decimal `json:"initial_balance"`
	CurrentBalance  decimal.Decimal `json:"current_balance"` // initial + credits - debits
	Currency        string          `json:"currency"`
	CurrencySymbol  string          `json:"currency_symbol"`
	IsActive        bool            `json:"is_active"`
	CreatedByUserID *int            `json:"created_by_user_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type CreateAccountRequest struct {
	Title          string          `json:"title"`
	Slug           string          `json:"slug"` // derived from title when empty
	Description    string          `json:"description"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	Currency       string          `json:"currency"`
	CurrencySymbol string          `json:"currency_symbol"`
}

// UpdateAccountRequest changes account metadata. A new InitialBalance shifts
// CurrentBalance by the same delta.
type UpdateAccountRequest struct {
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	InitialBalance *decimal.Decimal `json:"initial_balance,omitempty"`
	Currency       string           `json:"currency"`
	CurrencySymbol string           `json:"currency_symbol"`
}

// BalanceCheck is the result of recomputing an account balance from its log.
type BalanceCheck struct {
	AccountID        int             `json:"account_id"`
	Slug             string          `json:"slug"`
	StoredBalance    decimal.Decimal `json:"stored_balance"`
	ComputedBalance  decimal.Decimal `json:"computed_balance"`
	Drift            decimal.Decimal `json:"drift"`
	TransactionCount int             `json:"transaction_count"`
}
