package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Company struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	VATNumber string    `json:"vat_number"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CompanyRequest struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	VATNumber string `json:"vat_number"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

// CompanyBalance holds unapplied overpayments, keyed by client company name.
type CompanyBalance struct {
	CompanyName   string          `json:"company_name"`
	CreditBalance decimal.Decimal `json:"credit_balance"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type SetCompanyBalanceRequest struct {
	CreditBalance decimal.Decimal `json:"credit_balance"`
}
