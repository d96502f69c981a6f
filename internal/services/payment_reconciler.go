package services

import (
	"github.com/shopspring/decimal"

	"logistics-backend/internal/apperr"
	"logistics-backend/internal/models"
)

// PaymentPolicy controls what happens to an amount above the remaining balance.
type PaymentPolicy struct {
	// AllowOverpayment routes the excess to the client's company credit
	// balance instead of rejecting the payment.
	AllowOverpayment bool
}

// ReconcilePayment splits amount into the part applied to inv and the excess.
// applied never exceeds the remaining balance.
func ReconcilePayment(inv *models.Invoice, amount decimal.Decimal, policy PaymentPolicy) (applied, excess decimal.Decimal, err error) {
	if !amount.IsPositive() {
		return decimal.Zero, decimal.Zero, apperr.Validation("payment amount must be greater than zero")
	}
	remaining := inv.RemainingBalance()
	if !remaining.IsPositive() {
		return decimal.Zero, decimal.Zero, apperr.Validation("invoice %s is already fully paid", inv.InvoiceNumber)
	}
	if amount.GreaterThan(remaining) {
		if !policy.AllowOverpayment {
			return decimal.Zero, decimal.Zero, apperr.Validation(
				"payment of %s exceeds remaining balance of %s", amount.StringFixed(2), remaining.StringFixed(2))
		}
		return remaining, amount.Sub(remaining), nil
	}
	return amount, decimal.Zero, nil
}

// InvoiceStatusFor derives the status from the applied payments.
func InvoiceStatusFor(inv *models.Invoice) models.InvoiceStatus {
	paid := inv.AmountPaid()
	switch {
	case paid.IsZero():
		return models.InvoiceStatusUnpaid
	case paid.GreaterThanOrEqual(inv.TotalAmount):
		return models.InvoiceStatusPaid
	default:
		return models.InvoiceStatusPartial
	}
}

// PriceInvoice computes item amounts, subtotal, VAT and total in place.
func PriceInvoice(inv *models.Invoice) error {
	if len(inv.Items) == 0 {
		return apperr.Validation("invoice needs at least one item")
	}
	hundred := decimal.NewFromInt(100)
	if inv.VATRate.IsNegative() || inv.VATRate.GreaterThan(hundred) {
		return apperr.Validation("VAT rate must be between 0 and 100")
	}

	subtotal := decimal.Zero
	for i := range inv.Items {
		item := &inv.Items[i]
		if item.Description == "" {
			return apperr.Validation("item %d needs a description", i+1)
		}
		if !item.Quantity.IsPositive() {
			return apperr.Validation("item %d quantity must be greater than zero", i+1)
		}
		if item.Rate.IsNegative() {
			return apperr.Validation("item %d rate cannot be negative", i+1)
		}
		item.Amount = item.Quantity.Mul(item.Rate).Round(2)
		subtotal = subtotal.Add(item.Amount)
	}
	if !subtotal.IsPositive() {
		return apperr.Validation("invoice total must be greater than zero")
	}

	inv.Subtotal = subtotal
	inv.VATAmount = subtotal.Mul(inv.VATRate).Div(hundred).Round(2)
	inv.TotalAmount = subtotal.Add(inv.VATAmount)
	return nil
}
