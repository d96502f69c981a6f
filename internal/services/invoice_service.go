package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"logistics-backend/internal/apperr"
	"logistics-backend/internal/metrics"
	"logistics-backend/internal/models"
	"logistics-backend/internal/repositories"
	"logistics-backend/internal/timeutil"
)

type InvoiceStore interface {
	Create(ctx context.Context, inv *models.Invoice) error
	Get(ctx context.Context, id int) (*models.Invoice, error)
	List(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, error)
	Update(ctx context.Context, id int, apply func(current *models.Invoice) error) (*models.Invoice, error)
	Delete(ctx context.Context, id int) error
	ApplyPayment(ctx context.Context, invoiceID int, decide repositories.PaymentFunc) (*models.Invoice, *models.Receipt, error)
}

type ReceiptStore interface {
	GetByNumber(ctx context.Context, number string) (*models.Receipt, error)
	List(ctx context.Context, invoiceID int) ([]models.Receipt, error)
}

// CompanyDirectory looks up client identity for snapshots.
type CompanyDirectory interface {
	GetByName(ctx context.Context, name string) (*models.Company, error)
}

// DocumentArchive stores generated documents outside the database.
type DocumentArchive interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

type InvoiceService struct {
	Invoices       InvoiceStore
	Receipts       ReceiptStore
	Companies      CompanyDirectory
	Reports        *ReportService
	Archive        DocumentArchive // optional
	Sender         models.Party
	Policy         PaymentPolicy
	DefaultVATRate decimal.Decimal
	log            *zap.Logger
}

func NewInvoiceService(invoices InvoiceStore, receipts ReceiptStore, companies CompanyDirectory,
	reports *ReportService, sender models.Party, policy PaymentPolicy, vat decimal.Decimal, log *zap.Logger) *InvoiceService {
	return &InvoiceService{
		Invoices:       invoices,
		Receipts:       receipts,
		Companies:      companies,
		Reports:        reports,
		Sender:         sender,
		Policy:         policy,
		DefaultVATRate: vat,
		log:            log.Named("invoices"),
	}
}

func (s *InvoiceService) buildInvoice(ctx context.Context, req *models.InvoiceRequest, inv *models.Invoice) error {
	client := strings.TrimSpace(req.ClientCompanyName)
	if client == "" {
		return apperr.Validation("client company name is required")
	}

	issue := timeutil.StartOfDay(timeutil.Now())
	if strings.TrimSpace(req.IssueDate) != "" {
		d, err := timeutil.ParseDate(req.IssueDate)
		if err != nil {
			return apperr.Validation("invalid issue date: %v", err)
		}
		issue = d
	}
	var due *time.Time
	if strings.TrimSpace(req.DueDate) != "" {
		d, err := timeutil.ParseDate(req.DueDate)
		if err != nil {
			return apperr.Validation("invalid due date: %v", err)
		}
		if d.Before(issue) {
			return apperr.Validation("due date is before issue date")
		}
		due = &d
	}

	inv.ClientCompanyName = client
	inv.ClientAddress = strings.TrimSpace(req.ClientAddress)
	inv.ClientVATNumber = strings.TrimSpace(req.ClientVATNumber)
	inv.IssueDate = issue
	inv.DueDate = due
	inv.Notes = strings.TrimSpace(req.Notes)
	inv.Items = append([]models.InvoiceItem(nil), req.Items...)
	inv.VATRate = s.DefaultVATRate
	if req.VATRate != nil {
		inv.VATRate = *req.VATRate
	}

	if inv.ClientAddress == "" || inv.ClientVATNumber == "" {
		if c, err := s.Companies.GetByName(ctx, client); err == nil {
			inv.ClientAddress = firstNonEmpty(inv.ClientAddress, c.Address)
			inv.ClientVATNumber = firstNonEmpty(inv.ClientVATNumber, c.VATNumber)
		} else if !apperr.Is(err, apperr.KindNotFound) {
			return err
		}
	}
	return PriceInvoice(inv)
}

func (s *InvoiceService) Create(ctx context.Context, session *models.Session, req *models.InvoiceRequest) (*models.Invoice, error) {
	inv := &models.Invoice{Status: models.InvoiceStatusUnpaid, Payments: []models.Payment{}}
	if err := s.buildInvoice(ctx, req, inv); err != nil {
		return nil, err
	}
	if session != nil {
		uid := session.UserID
		inv.CreatedByUserID = &uid
	}
	if err := s.Invoices.Create(ctx, inv); err != nil {
		return nil, err
	}
	s.log.Info("invoice created", zap.String("number", inv.InvoiceNumber),
		zap.String("client", inv.ClientCompanyName), zap.String("total", inv.TotalAmount.StringFixed(2)))
	return inv, nil
}

func (s *InvoiceService) Get(ctx context.Context, id int) (*models.Invoice, error) {
	return s.Invoices.Get(ctx, id)
}

func (s *InvoiceService) List(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, error) {
	switch filter.Status {
	case "", models.InvoiceStatusUnpaid, models.InvoiceStatusPartial, models.InvoiceStatusPaid:
	default:
		return nil, apperr.Validation("unknown invoice status %q", filter.Status)
	}
	return s.Invoices.List(ctx, filter)
}

// Update re-prices the invoice. A new total below the amount already applied
// is rejected.
func (s *InvoiceService) Update(ctx context.Context, id int, req *models.InvoiceRequest) (*models.Invoice, error) {
	draft := &models.Invoice{}
	if err := s.buildInvoice(ctx, req, draft); err != nil {
		return nil, err
	}
	return s.Invoices.Update(ctx, id, func(current *models.Invoice) error {
		paid := current.AmountPaid()
		if draft.TotalAmount.LessThan(paid) {
			return apperr.Validation("new total %s is below the %s already paid",
				draft.TotalAmount.StringFixed(2), paid.StringFixed(2))
		}
		current.ClientCompanyName = draft.ClientCompanyName
		current.ClientAddress = draft.ClientAddress
		current.ClientVATNumber = draft.ClientVATNumber
		current.IssueDate = draft.IssueDate
		current.DueDate = draft.DueDate
		current.Items = draft.Items
		current.Subtotal = draft.Subtotal
		current.VATRate = draft.VATRate
		current.VATAmount = draft.VATAmount
		current.TotalAmount = draft.TotalAmount
		current.Notes = draft.Notes
		current.Status = InvoiceStatusFor(current)
		return nil
	})
}

func (s *InvoiceService) Delete(ctx context.Context, id int) error {
	return s.Invoices.Delete(ctx, id)
}

// ApplyPayment records a payment and its receipt. The payment append, any
// company credit and the receipt are written together or not at all.
func (s *InvoiceService) ApplyPayment(ctx context.Context, session *models.Session, invoiceID int, req *models.PaymentRequest) (*models.PaymentResult, error) {
	amount := req.Amount
	if !amount.IsPositive() {
		metrics.InvoicePaymentsTotal.WithLabelValues("rejected").Inc()
		return nil, apperr.Validation("payment amount must be greater than zero")
	}
	if !amount.Equal(amount.Round(2)) {
		metrics.InvoicePaymentsTotal.WithLabelValues("rejected").Inc()
		return nil, apperr.Validation("payment amount cannot have more than two decimal places")
	}
	date := timeutil.Now()
	if strings.TrimSpace(req.Date) != "" {
		d, err := timeutil.ParseDate(req.Date)
		if err != nil {
			metrics.InvoicePaymentsTotal.WithLabelValues("rejected").Inc()
			return nil, apperr.Validation("invalid payment date: %v", err)
		}
		date = d
	}
	method := firstNonEmpty(req.Method, "bank_transfer")
	notes := strings.TrimSpace(req.Notes)
	recordedBy := 0
	if session != nil {
		recordedBy = session.UserID
	}

	inv, receipt, err := s.Invoices.ApplyPayment(ctx, invoiceID, func(inv *models.Invoice) (*models.Receipt, error) {
		applied, excess, err := ReconcilePayment(inv, amount, s.Policy)
		if err != nil {
			return nil, err
		}
		inv.Payments = append(inv.Payments, models.Payment{
			Amount:           amount,
			AmountApplied:    applied,
			ExcessAmount:     excess,
			Date:             date,
			Method:           method,
			Notes:            notes,
			RecordedByUserID: recordedBy,
		})
		inv.Status = InvoiceStatusFor(inv)

		rc := &models.Receipt{
			InvoiceID:        inv.ID,
			InvoiceNumber:    inv.InvoiceNumber,
			Sender:           s.Sender,
			Client:           s.clientParty(ctx, inv),
			Amount:           amount,
			AmountApplied:    applied,
			ExcessAmount:     excess,
			Method:           method,
			PaymentDate:      date,
			InvoiceTotal:     inv.TotalAmount,
			RemainingBalance: inv.RemainingBalance(),
			Notes:            notes,
		}
		if session != nil {
			rc.CreatedByUserID = &recordedBy
		}
		return rc, nil
	})
	if err != nil {
		outcome := "failed"
		if apperr.Is(err, apperr.KindValidation) || apperr.Is(err, apperr.KindNotFound) {
			outcome = "rejected"
		}
		metrics.InvoicePaymentsTotal.WithLabelValues(outcome).Inc()
		return nil, err
	}

	metrics.InvoicePaymentsTotal.WithLabelValues("applied").Inc()
	if receipt.ExcessAmount.IsPositive() {
		f, _ := receipt.ExcessAmount.Float64()
		metrics.CompanyCreditAddedTotal.Add(f)
	}
	s.log.Info("payment applied",
		zap.String("invoice", inv.InvoiceNumber), zap.String("receipt", receipt.ReceiptNumber),
		zap.String("applied", receipt.AmountApplied.StringFixed(2)),
		zap.String("excess", receipt.ExcessAmount.StringFixed(2)),
		zap.String("status", string(inv.Status)))

	s.archiveReceipt(ctx, receipt)
	return &models.PaymentResult{Invoice: inv, Receipt: receipt}, nil
}

// clientParty snapshots the client from the invoice, filling contact details
// from the company directory when present.
func (s *InvoiceService) clientParty(ctx context.Context, inv *models.Invoice) models.Party {
	p := models.Party{
		Name:      inv.ClientCompanyName,
		Address:   inv.ClientAddress,
		VATNumber: inv.ClientVATNumber,
	}
	if c, err := s.Companies.GetByName(ctx, inv.ClientCompanyName); err == nil {
		p.Phone = c.Phone
		p.Email = c.Email
		p.Address = firstNonEmpty(p.Address, c.Address)
		p.VATNumber = firstNonEmpty(p.VATNumber, c.VATNumber)
	}
	return p
}

// archiveReceipt uploads the receipt PDF after commit. Failures are logged only.
func (s *InvoiceService) archiveReceipt(ctx context.Context, rc *models.Receipt) {
	if s.Archive == nil || s.Reports == nil {
		return
	}
	pdf, err := s.Reports.ReceiptPDF(rc)
	if err != nil {
		s.log.Warn("receipt pdf render failed", zap.String("receipt", rc.ReceiptNumber), zap.Error(err))
		return
	}
	key := receiptKey(rc)
	if err := s.Archive.Put(ctx, key, "application/pdf", pdf); err != nil {
		s.log.Warn("receipt archive failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *InvoiceService) ListReceipts(ctx context.Context, invoiceID int) ([]models.Receipt, error) {
	return s.Receipts.List(ctx, invoiceID)
}

func (s *InvoiceService) GetReceipt(ctx context.Context, number string) (*models.Receipt, error) {
	return s.Receipts.GetByNumber(ctx, number)
}

func receiptKey(rc *models.Receipt) string {
	return fmt.Sprintf("receipts/%s/%s.pdf", rc.PaymentDate.Format("2006/01"), rc.ReceiptNumber)
}

// ReceiptPDF serves the archived copy when there is one and renders otherwise.
func (s *InvoiceService) ReceiptPDF(ctx context.Context, number string) (*models.Receipt, []byte, error) {
	rc, err := s.Receipts.GetByNumber(ctx, number)
	if err != nil {
		return nil, nil, err
	}
	if s.Archive != nil {
		if pdf, err := s.Archive.Get(ctx, receiptKey(rc)); err == nil {
			return rc, pdf, nil
		}
	}
	pdf, err := s.Reports.ReceiptPDF(rc)
	if err != nil {
		return nil, nil, err
	}
	return rc, pdf, nil
}

func (s *InvoiceService) InvoicePDF(ctx context.Context, id int) (*models.Invoice, []byte, error) {
	inv, err := s.Invoices.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	pdf, err := s.Reports.InvoicePDF(inv)
	if err != nil {
		return nil, nil, err
	}
	return inv, pdf, nil
}
