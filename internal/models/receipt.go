package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Party is a snapshot of a sender or client identity.
type Party struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	VATNumber string `json:"vat_number"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
}

// Receipt is written once per payment and never updated.
type Receipt struct {
	ID               int             `json:"id"`
	ReceiptNumber    string          `json:"receipt_number"`
	InvoiceID        int             `json:"invoice_id"`
	InvoiceNumber    string          `json:"invoice_number"`
	Sender           Party           `json:"sender"`
	Client           Party           `json:"client"`
	Amount           decimal.Decimal `json:"amount"`
	AmountApplied    decimal.Decimal `json:"amount_applied"`
	ExcessAmount     decimal.Decimal `json:"excess_amount"`
	Method           string          `json:"method"`
	PaymentDate      time.Time       `json:"payment_date"`
	InvoiceTotal     decimal.Decimal `json:"invoice_total"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	Notes            string          `json:"notes"`
	CreatedByUserID  *int            `json:"created_by_user_id,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

type PaymentResult struct {
	Invoice *Invoice `json:"invoice"`
	Receipt *Receipt `json:"receipt"`
}
