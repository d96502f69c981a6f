package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logistics-backend/internal/apperr"
	"logistics-backend/internal/models"
)

var testSender = models.Party{Name: "Gulf Haulage LLC", Address: "Warehouse 4, Jebel Ali", VATNumber: "100200300400003"}

func newInvoiceFixture(t *testing.T, policy PaymentPolicy) (*InvoiceService, *memInvoices) {
	t.Helper()
	store := newMemInvoices()
	svc := NewInvoiceService(store, receiptStore{store}, store,
		NewReportService(testSender, "$"), testSender, policy, decimal.Zero, testLog)
	return svc, store
}

func oneLineInvoice(client, amount string) *models.InvoiceRequest {
	return &models.InvoiceRequest{
		ClientCompanyName: client,
		IssueDate:         "2024-03-01",
		Items: []models.InvoiceItem{
			{Description: "Car transport Dubai to Riyadh", Quantity: dec("1"), Rate: dec(amount)},
		},
	}
}

func pay(amount, date string) *models.PaymentRequest {
	return &models.PaymentRequest{Amount: dec(amount), Date: date, Method: "bank_transfer"}
}

func TestPriceInvoice(t *testing.T) {
	inv := &models.Invoice{
		VATRate: dec("5"),
		Items: []models.InvoiceItem{
			{Description: "Sedan", Quantity: dec("2"), Rate: dec("150.50")},
			{Description: "Loading", Quantity: dec("1"), Rate: dec("99.99")},
		},
	}
	require.NoError(t, PriceInvoice(inv))

	assert.True(t, inv.Items[0].Amount.Equal(dec("301")))
	assert.True(t, inv.Subtotal.Equal(dec("400.99")))
	assert.True(t, inv.VATAmount.Equal(dec("20.05")), inv.VATAmount.String())
	assert.True(t, inv.TotalAmount.Equal(dec("421.04")))
}

func TestPriceInvoiceRejects(t *testing.T) {
	cases := map[string]*models.Invoice{
		"no items":      {},
		"vat over 100":  {VATRate: dec("101"), Items: []models.InvoiceItem{{Description: "x", Quantity: dec("1"), Rate: dec("1")}}},
		"zero quantity": {Items: []models.InvoiceItem{{Description: "x", Quantity: decimal.Zero, Rate: dec("1")}}},
		"negative rate": {Items: []models.InvoiceItem{{Description: "x", Quantity: dec("1"), Rate: dec("-1")}}},
		"no desc":       {Items: []models.InvoiceItem{{Quantity: dec("1"), Rate: dec("1")}}},
		"zero total":    {Items: []models.InvoiceItem{{Description: "free", Quantity: dec("1"), Rate: decimal.Zero}}},
	}
	for name, inv := range cases {
		err := PriceInvoice(inv)
		assert.True(t, apperr.Is(err, apperr.KindValidation), name)
	}
}

func TestReconcilePayment(t *testing.T) {
	inv := &models.Invoice{
		InvoiceNumber: "INV-000001",
		TotalAmount:   dec("1000"),
		Payments:      []models.Payment{{AmountApplied: dec("400")}},
	}

	applied, excess, err := ReconcilePayment(inv, dec("600"), PaymentPolicy{})
	require.NoError(t, err)
	assert.True(t, applied.Equal(dec("600")))
	assert.True(t, excess.IsZero())

	_, _, err = ReconcilePayment(inv, dec("600.01"), PaymentPolicy{})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	applied, excess, err = ReconcilePayment(inv, dec("750"), PaymentPolicy{AllowOverpayment: true})
	require.NoError(t, err)
	assert.True(t, applied.Equal(dec("600")))
	assert.True(t, excess.Equal(dec("150")))

	inv.Payments = append(inv.Payments, models.Payment{AmountApplied: dec("600")})
	_, _, err = ReconcilePayment(inv, dec("1"), PaymentPolicy{AllowOverpayment: true})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestInvoiceStatusFor(t *testing.T) {
	inv := &models.Invoice{TotalAmount: dec("100")}
	assert.Equal(t, models.InvoiceStatusUnpaid, InvoiceStatusFor(inv))
	inv.Payments = []models.Payment{{AmountApplied: dec("40")}}
	assert.Equal(t, models.InvoiceStatusPartial, InvoiceStatusFor(inv))
	inv.Payments = append(inv.Payments, models.Payment{AmountApplied: dec("60")})
	assert.Equal(t, models.InvoiceStatusPaid, InvoiceStatusFor(inv))
}

func TestCreateInvoiceFillsClientFromDirectory(t *testing.T) {
	svc, store := newInvoiceFixture(t, PaymentPolicy{})
	store.companies["ACME"] = models.Company{Name: "ACME", Address: "Plot 9, Sharjah", VATNumber: "VAT-ACME"}

	inv, err := svc.Create(context.Background(), &models.Session{UserID: 2}, oneLineInvoice("ACME", "1000"))
	require.NoError(t, err)

	assert.Equal(t, "INV-000001", inv.InvoiceNumber)
	assert.Equal(t, "Plot 9, Sharjah", inv.ClientAddress)
	assert.Equal(t, "VAT-ACME", inv.ClientVATNumber)
	assert.Equal(t, models.InvoiceStatusUnpaid, inv.Status)
	assert.True(t, inv.TotalAmount.Equal(dec("1000")))
}

func TestCreateInvoiceValidation(t *testing.T) {
	svc, _ := newInvoiceFixture(t, PaymentPolicy{})

	_, err := svc.Create(context.Background(), nil, oneLineInvoice(" ", "10"))
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	req := oneLineInvoice("ACME", "10")
	req.DueDate = "2024-02-01"
	_, err = svc.Create(context.Background(), nil, req)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestOverpaymentRejectedWithoutSideEffects(t *testing.T) {
	svc, store := newInvoiceFixture(t, PaymentPolicy{})
	inv, err := svc.Create(context.Background(), nil, oneLineInvoice("ACME", "1000.00"))
	require.NoError(t, err)

	_, err = svc.ApplyPayment(context.Background(), nil, inv.ID, pay("1200.00", "2024-03-05"))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), "1000.00")

	stored, err := svc.Get(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Payments)
	assert.Equal(t, models.InvoiceStatusUnpaid, stored.Status)
	assert.Zero(t, store.receiptCount())
	assert.True(t, store.creditOf("ACME").IsZero())
}

func TestOverpaymentPolicyMovesExcessToCredit(t *testing.T) {
	svc, store := newInvoiceFixture(t, PaymentPolicy{AllowOverpayment: true})
	inv, err := svc.Create(context.Background(), nil, oneLineInvoice("ACME", "1000.00"))
	require.NoError(t, err)

	res, err := svc.ApplyPayment(context.Background(), nil, inv.ID, pay("1200.00", "2024-03-05"))
	require.NoError(t, err)

	assert.Equal(t, models.InvoiceStatusPaid, res.Invoice.Status)
	assert.True(t, res.Receipt.AmountApplied.Equal(dec("1000")))
	assert.True(t, res.Receipt.ExcessAmount.Equal(dec("200")))
	assert.True(t, res.Receipt.RemainingBalance.IsZero())
	assert.True(t, store.creditOf("ACME").Equal(dec("200")))
}

func TestPartialPaymentsThenPaid(t *testing.T) {
	svc, store := newInvoiceFixture(t, PaymentPolicy{})
	ctx := context.Background()
	inv, err := svc.Create(ctx, nil, oneLineInvoice("Desert Motors", "1000"))
	require.NoError(t, err)

	first, err := svc.ApplyPayment(ctx, &models.Session{UserID: 5}, inv.ID, pay("400", "2024-03-10"))
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPartial, first.Invoice.Status)
	assert.Equal(t, "RCP-000001", first.Receipt.ReceiptNumber)
	assert.True(t, first.Receipt.RemainingBalance.Equal(dec("600")))
	assert.Equal(t, testSender, first.Receipt.Sender)
	assert.Equal(t, "Desert Motors", first.Receipt.Client.Name)

	second, err := svc.ApplyPayment(ctx, nil, inv.ID, pay("600", "2024-03-20"))
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPaid, second.Invoice.Status)
	assert.Equal(t, "RCP-000002", second.Receipt.ReceiptNumber)
	require.Len(t, second.Invoice.Payments, 2)
	assert.Equal(t, "RCP-000001", second.Invoice.Payments[0].ReceiptNumber)
	assert.Equal(t, 5, second.Invoice.Payments[0].RecordedByUserID)

	_, err = svc.ApplyPayment(ctx, nil, inv.ID, pay("1", "2024-03-21"))
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, 2, store.receiptCount())

	receipts, err := svc.ListReceipts(ctx, inv.ID)
	require.NoError(t, err)
	assert.Len(t, receipts, 2)
}

func TestAppliedNeverExceedsTotal(t *testing.T) {
	svc, _ := newInvoiceFixture(t, PaymentPolicy{AllowOverpayment: true})
	ctx := context.Background()
	inv, err := svc.Create(ctx, nil, oneLineInvoice("ACME", "333.33"))
	require.NoError(t, err)

	for _, amount := range []string{"100", "0.33", "200", "50", "75.25"} {
		_, _ = svc.ApplyPayment(ctx, nil, inv.ID, pay(amount, "2024-04-01"))
		stored, err := svc.Get(ctx, inv.ID)
		require.NoError(t, err)
		assert.True(t, stored.AmountPaid().LessThanOrEqual(stored.TotalAmount))
		for _, p := range stored.Payments {
			assert.True(t, p.Amount.Equal(p.AmountApplied.Add(p.ExcessAmount)))
		}
	}
}

func TestApplyPaymentRejectsBadInput(t *testing.T) {
	svc, _ := newInvoiceFixture(t, PaymentPolicy{})
	ctx := context.Background()
	inv, err := svc.Create(ctx, nil, oneLineInvoice("ACME", "100"))
	require.NoError(t, err)

	for _, req := range []*models.PaymentRequest{
		pay("0", ""),
		pay("-10", ""),
		pay("10.001", ""),
		pay("10", "yesterday"),
	} {
		_, err := svc.ApplyPayment(ctx, nil, inv.ID, req)
		assert.True(t, apperr.Is(err, apperr.KindValidation), req.Amount.String())
	}

	_, err = svc.ApplyPayment(ctx, nil, 999, pay("10", ""))
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUpdateInvoiceBelowPaidRejected(t *testing.T) {
	svc, _ := newInvoiceFixture(t, PaymentPolicy{})
	ctx := context.Background()
	inv, err := svc.Create(ctx, nil, oneLineInvoice("ACME", "1000"))
	require.NoError(t, err)
	_, err = svc.ApplyPayment(ctx, nil, inv.ID, pay("700", "2024-03-05"))
	require.NoError(t, err)

	_, err = svc.Update(ctx, inv.ID, oneLineInvoice("ACME", "500"))
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	updated, err := svc.Update(ctx, inv.ID, oneLineInvoice("ACME", "700"))
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPaid, updated.Status)
	assert.Len(t, updated.Payments, 1)
}

func TestDeleteInvoiceWithPaymentsRejected(t *testing.T) {
	svc, _ := newInvoiceFixture(t, PaymentPolicy{})
	ctx := context.Background()
	paid, err := svc.Create(ctx, nil, oneLineInvoice("ACME", "100"))
	require.NoError(t, err)
	_, err = svc.ApplyPayment(ctx, nil, paid.ID, pay("10", ""))
	require.NoError(t, err)
	assert.True(t, apperr.Is(svc.Delete(ctx, paid.ID), apperr.KindValidation))

	draft, err := svc.Create(ctx, nil, oneLineInvoice("ACME", "100"))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, draft.ID))
	_, err = svc.Get(ctx, draft.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestListInvoicesUnknownStatus(t *testing.T) {
	svc, _ := newInvoiceFixture(t, PaymentPolicy{})
	_, err := svc.List(context.Background(), models.InvoiceFilter{Status: "void"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestReceiptArchivedAndServedFromArchive(t *testing.T) {
	svc, _ := newInvoiceFixture(t, PaymentPolicy{})
	archive := &memArchive{}
	svc.Archive = archive
	ctx := context.Background()

	inv, err := svc.Create(ctx, nil, oneLineInvoice("ACME", "100"))
	require.NoError(t, err)
	res, err := svc.ApplyPayment(ctx, nil, inv.ID, pay("100", "2024-03-15"))
	require.NoError(t, err)

	key := "receipts/2024/03/" + res.Receipt.ReceiptNumber + ".pdf"
	require.Contains(t, archive.docs, key)
	assert.Equal(t, "%PDF", string(archive.docs[key][:4]))

	archive.docs[key] = []byte("archived copy")
	_, pdf, err := svc.ReceiptPDF(ctx, res.Receipt.ReceiptNumber)
	require.NoError(t, err)
	assert.Equal(t, "archived copy", string(pdf))
}

func TestReceiptPDFRendersWithoutArchive(t *testing.T) {
	svc, _ := newInvoiceFixture(t, PaymentPolicy{})
	ctx := context.Background()
	inv, err := svc.Create(ctx, nil, oneLineInvoice("ACME", "100"))
	require.NoError(t, err)
	res, err := svc.ApplyPayment(ctx, nil, inv.ID, pay("40", "2024-03-15"))
	require.NoError(t, err)

	rc, pdf, err := svc.ReceiptPDF(ctx, res.Receipt.ReceiptNumber)
	require.NoError(t, err)
	assert.Equal(t, res.Receipt.ReceiptNumber, rc.ReceiptNumber)
	assert.Equal(t, "%PDF", string(pdf[:4]))

	_, invoicePDF, err := svc.InvoicePDF(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(invoicePDF[:4]))
}
