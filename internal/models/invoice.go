package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceStatusUnpaid  InvoiceStatus = "unpaid"
	InvoiceStatusPartial InvoiceStatus = "partial"
	InvoiceStatusPaid    InvoiceStatus = "paid"
)

// InvoiceItem is one billed line. Amount = Quantity x Rate.
type InvoiceItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
	Amount      decimal.Decimal `json:"amount"`
}

// Payment is embedded in the invoice document.
type Payment struct {
	Amount           decimal.Decimal `json:"amount"`
	AmountApplied    decimal.Decimal `json:"amount_applied"`
	ExcessAmount     decimal.Decimal `json:"excess_amount"`
	Date             time.Time       `json:"date"`
	Method           string          `json:"method"`
	Notes            string          `json:"notes"`
	ReceiptNumber    string          `json:"receipt_number"`
	RecordedByUserID int             `json:"recorded_by_user_id"`
}

type Invoice struct {
	ID                int             `json:"id"`
	InvoiceNumber     string          `json:"invoice_number"`
	ClientCompanyName string          `json:"client_company_name"`
	ClientAddress     string          `json:"client_address"`
	ClientVATNumber   string          `json:"client_vat_number"`
	IssueDate         time.Time       `json:"issue_date"`
	DueDate           *time.Time      `json:"due_date,omitempty"`
	Items             []InvoiceItem   `json:"items"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	VATRate           decimal.Decimal `json:"vat_rate"` // percent
	VATAmount         decimal.Decimal `json:"vat_amount"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	Payments          []Payment       `json:"payments"`
	Status            InvoiceStatus   `json:"status"`
	Notes             string          `json:"notes"`
	CreatedByUserID   *int            `json:"created_by_user_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// AmountPaid is the sum of AmountApplied over all payments.
func (inv *Invoice) AmountPaid() decimal.Decimal {
	sum := decimal.Zero
	for _, p := range inv.Payments {
		sum = sum.Add(p.AmountApplied)
	}
	return sum
}

// RemainingBalance is TotalAmount minus AmountPaid.
func (inv *Invoice) RemainingBalance() decimal.Decimal {
	return inv.TotalAmount.Sub(inv.AmountPaid())
}

type InvoiceRequest struct {
	ClientCompanyName string           `json:"client_company_name"`
	ClientAddress     string           `json:"client_address"`
	ClientVATNumber   string           `json:"client_vat_number"`
	IssueDate         string           `json:"issue_date"`
	DueDate           string           `json:"due_date"`
	Items             []InvoiceItem    `json:"items"`
	VATRate           *decimal.Decimal `json:"vat_rate,omitempty"`
	Notes             string           `json:"notes"`
}

type PaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Date   string          `json:"date"`
	Method string          `json:"method"`
	Notes  string          `json:"notes"`
}

type InvoiceFilter struct {
	Client string
	Status InvoiceStatus
}
