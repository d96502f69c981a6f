package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeCredit   TransactionType = "credit"
	TransactionTypeDebit    TransactionType = "debit"
	TransactionTypeTransfer TransactionType = "transfer" // debit with a destination
)

// Transaction is one immutable ledger movement. Exactly one of Credit and Debit is non-zero.
type Transaction struct {
	ID              int64           `json:"id"`
	AccountID       int             `json:"account_id"`
	AccountSlug     string          `json:"account_slug"`
	Type            TransactionType `json:"type"`
	Credit          decimal.Decimal `json:"credit"`
	Debit           decimal.Decimal `json:"debit"`
	Details         string          `json:"details"`
	Destination     string          `json:"destination,omitempty"`
	TransactionDate time.Time       `json:"transaction_date"`
	CreatedByUserID *int            `json:"created_by_user_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Net is credit minus debit.
func (t Transaction) Net() decimal.Decimal {
	return t.Credit.Sub(t.Debit)
}

type CreateTransactionRequest struct {
	AccountID       int             `json:"account_id"`
	Type            TransactionType `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	Details         string          `json:"details"`
	Destination     string          `json:"destination"`
	TransactionDate string          `json:"transaction_date"` // YYYY-MM-DD, defaults to today
}

// StatementLine is a transaction annotated with the balance after it.
type StatementLine struct {
	Transaction
	CalculatedBalance decimal.Decimal `json:"calculated_balance"`
}

type StatementFilter struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Search    string `json:"search"`
}

// Statement lines are newest first.
type Statement struct {
	Account        *Account        `json:"account"`
	StartDate      *time.Time      `json:"start_date,omitempty"`
	EndDate        *time.Time      `json:"end_date,omitempty"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	TotalCredit    decimal.Decimal `json:"total_credit"`
	TotalDebit     decimal.Decimal `json:"total_debit"`
	Transactions   []StatementLine `json:"transactions"`
}

type TransactionPage struct {
	Transactions []StatementLine `json:"transactions"`
	Total        int             `json:"total"`
	Page         int             `json:"page"`
	PageSize     int             `json:"page_size"`
}
