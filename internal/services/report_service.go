package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"logistics-backend/internal/models"
	"logistics-backend/internal/timeutil"
)

// ReportService renders statements, invoices and receipts as PDF and XLSX.
// It holds no store; callers pass the loaded documents.
type ReportService struct {
	Business       models.Party
	CurrencySymbol string
}

func NewReportService(business models.Party, currencySymbol string) *ReportService {
	return &ReportService{Business: business, CurrencySymbol: currencySymbol}
}

func (s *ReportService) money(d decimal.Decimal) string {
	return s.CurrencySymbol + " " + d.StringFixed(2)
}

// newPDF starts an A4 page. tr converts UTF-8 text for the cp1252 core fonts.
func newPDF() (*gofpdf.Fpdf, func(string) string) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	return pdf, pdf.UnicodeTranslatorFromDescriptor("")
}

func (s *ReportService) header(pdf *gofpdf.Fpdf, tr func(string) string, title string) {
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, tr(s.Business.Name), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	if s.Business.Address != "" {
		pdf.CellFormat(190, 5, tr(s.Business.Address), "", 1, "C", false, 0, "")
	}
	if s.Business.VATNumber != "" {
		pdf.CellFormat(190, 5, tr("VAT: "+s.Business.VATNumber), "", 1, "C", false, 0, "")
	}
	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(190, 8, tr(title), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(190, 5, fmt.Sprintf("Generated: %s", timeutil.Format(timeutil.Now(), timeutil.DateTimeLayout)), "", 1, "C", false, 0, "")
	pdf.Ln(4)
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// StatementPDF renders an account statement with running balances.
func (s *ReportService) StatementPDF(st *models.Statement) ([]byte, error) {
	pdf, tr := newPDF()
	s.header(pdf, tr, "Account Statement: "+st.Account.Title)

	period := "All transactions"
	if st.StartDate != nil || st.EndDate != nil {
		from, to := "beginning", "today"
		if st.StartDate != nil {
			from = day(*st.StartDate)
		}
		if st.EndDate != nil {
			to = day(*st.EndDate)
		}
		period = fmt.Sprintf("Period: %s to %s", from, to)
	}
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, period, "", 1, "L", false, 0, "")
	pdf.CellFormat(190, 6, "Opening balance: "+s.money(st.OpeningBalance), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(220, 220, 220)
	widths := []float64{24, 66, 32, 32, 36}
	for i, h := range []string{"Date", "Details", "Credit", "Debit", "Balance"} {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, line := range st.Transactions {
		details := line.Details
		if line.Destination != "" {
			details += " -> " + line.Destination
		}
		pdf.CellFormat(widths[0], 6, day(line.TransactionDate), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[1], 6, tr(truncate(details, 45)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 6, amountOrBlank(line.Credit), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, amountOrBlank(line.Debit), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, line.CalculatedBalance.StringFixed(2), "1", 1, "R", false, 0, "")
	}

	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(63, 8, "Credits: "+s.money(st.TotalCredit), "1", 0, "C", false, 0, "")
	pdf.CellFormat(63, 8, "Debits: "+s.money(st.TotalDebit), "1", 0, "C", false, 0, "")
	pdf.CellFormat(64, 8, "Closing: "+s.money(st.ClosingBalance), "1", 1, "C", false, 0, "")
	return output(pdf)
}

// InvoicePDF renders an invoice with its items and recorded payments.
func (s *ReportService) InvoicePDF(inv *models.Invoice) ([]byte, error) {
	pdf, tr := newPDF()
	s.header(pdf, tr, "Invoice "+inv.InvoiceNumber)

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(95, 6, tr("Bill to: "+inv.ClientCompanyName), "", 0, "L", false, 0, "")
	pdf.CellFormat(95, 6, "Issued: "+day(inv.IssueDate), "", 1, "R", false, 0, "")
	pdf.CellFormat(95, 6, tr(inv.ClientAddress), "", 0, "L", false, 0, "")
	due := ""
	if inv.DueDate != nil {
		due = "Due: " + day(*inv.DueDate)
	}
	pdf.CellFormat(95, 6, due, "", 1, "R", false, 0, "")
	if inv.ClientVATNumber != "" {
		pdf.CellFormat(190, 6, tr("VAT: "+inv.ClientVATNumber), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(220, 220, 220)
	pdf.CellFormat(100, 7, "Description", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 7, "Rate", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "Amount", "1", 1, "C", true, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, item := range inv.Items {
		pdf.CellFormat(100, 6, tr(truncate(item.Description, 60)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, item.Quantity.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, item.Rate.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, item.Amount.StringFixed(2), "1", 1, "R", false, 0, "")
	}

	totals := [][2]string{
		{"Subtotal", s.money(inv.Subtotal)},
		{fmt.Sprintf("VAT (%s%%)", inv.VATRate.String()), s.money(inv.VATAmount)},
		{"Total", s.money(inv.TotalAmount)},
		{"Paid", s.money(inv.AmountPaid())},
		{"Balance due", s.money(inv.RemainingBalance())},
	}
	pdf.SetFont("Arial", "B", 10)
	for _, row := range totals {
		pdf.CellFormat(155, 7, row[0], "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, row[1], "1", 1, "R", false, 0, "")
	}

	if len(inv.Payments) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(190, 7, "Payments", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		for _, p := range inv.Payments {
			pdf.CellFormat(35, 6, p.ReceiptNumber, "1", 0, "C", false, 0, "")
			pdf.CellFormat(30, 6, day(p.Date), "1", 0, "C", false, 0, "")
			pdf.CellFormat(40, 6, p.Method, "1", 0, "C", false, 0, "")
			pdf.CellFormat(85, 6, s.money(p.AmountApplied), "1", 1, "R", false, 0, "")
		}
	}
	if inv.Notes != "" {
		pdf.Ln(4)
		pdf.SetFont("Arial", "I", 9)
		pdf.MultiCell(190, 5, tr(inv.Notes), "", "L", false)
	}
	return output(pdf)
}

// ReceiptPDF renders a payment receipt. It uses only the receipt snapshot.
func (s *ReportService) ReceiptPDF(rc *models.Receipt) ([]byte, error) {
	pdf, tr := newPDF()
	s.header(pdf, tr, "Payment Receipt "+rc.ReceiptNumber)

	rows := [][2]string{
		{"Received from", rc.Client.Name},
		{"Invoice", rc.InvoiceNumber},
		{"Payment date", day(rc.PaymentDate)},
		{"Method", rc.Method},
		{"Amount received", s.money(rc.Amount)},
		{"Applied to invoice", s.money(rc.AmountApplied)},
	}
	if rc.ExcessAmount.IsPositive() {
		rows = append(rows, [2]string{"Credited to account", s.money(rc.ExcessAmount)})
	}
	rows = append(rows,
		[2]string{"Invoice total", s.money(rc.InvoiceTotal)},
		[2]string{"Remaining balance", s.money(rc.RemainingBalance)},
	)

	pdf.SetFont("Arial", "", 10)
	for _, row := range rows {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(60, 7, row[0], "1", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(130, 7, tr(row[1]), "1", 1, "L", false, 0, "")
	}
	if rc.Notes != "" {
		pdf.Ln(3)
		pdf.MultiCell(190, 5, tr("Notes: "+rc.Notes), "", "L", false)
	}
	return output(pdf)
}

// StatementXLSX exports a statement sheet with one row per transaction.
func (s *ReportService) StatementXLSX(st *models.Statement) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Statement"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	headers := []string{"Date", "Details", "Destination", "Credit", "Debit", "Balance"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	f.SetCellValue(sheet, "A2", "Opening balance")
	f.SetCellValue(sheet, "F2", st.OpeningBalance.InexactFloat64())

	row := 3
	for _, line := range st.Transactions {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), day(line.TransactionDate))
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), line.Details)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), line.Destination)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), line.Credit.InexactFloat64())
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), line.Debit.InexactFloat64())
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), line.CalculatedBalance.InexactFloat64())
		row++
	}
	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Closing balance")
	f.SetCellValue(sheet, fmt.Sprintf("D%d", row), st.TotalCredit.InexactFloat64())
	f.SetCellValue(sheet, fmt.Sprintf("E%d", row), st.TotalDebit.InexactFloat64())
	f.SetCellValue(sheet, fmt.Sprintf("F%d", row), st.ClosingBalance.InexactFloat64())

	f.SetColWidth(sheet, "A", "A", 12)
	f.SetColWidth(sheet, "B", "C", 30)
	f.SetColWidth(sheet, "D", "F", 14)
	return writeXLSX(f)
}

// ExpensesXLSX exports expenses with a per-category summary sheet.
func (s *ReportService) ExpensesXLSX(title string, expenses []models.Expense) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Expenses"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	f.SetCellValue(sheet, "A1", title)
	for i, h := range []string{"Date", "Category", "Amount", "Liters", "Price/L", "Details", "Synced"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		f.SetCellValue(sheet, cell, h)
	}
	for i, e := range expenses {
		row := i + 3
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), day(e.ExpenseDate))
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), string(e.Category))
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), e.Amount.InexactFloat64())
		if e.Liters.Valid {
			f.SetCellValue(sheet, fmt.Sprintf("D%d", row), e.Liters.Decimal.InexactFloat64())
		}
		if e.PricePerLiter.Valid {
			f.SetCellValue(sheet, fmt.Sprintf("E%d", row), e.PricePerLiter.Decimal.InexactFloat64())
		}
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), e.Details)
		if e.IsMirror() {
			f.SetCellValue(sheet, fmt.Sprintf("G%d", row), "yes")
		}
	}
	f.SetColWidth(sheet, "A", "A", 12)
	f.SetColWidth(sheet, "B", "E", 14)
	f.SetColWidth(sheet, "F", "F", 40)

	const summary = "Summary"
	if _, err := f.NewSheet(summary); err != nil {
		return nil, err
	}
	sum := SummarizeExpenses(expenses)
	f.SetCellValue(summary, "A1", "Category")
	f.SetCellValue(summary, "B1", "Total")
	row := 2
	for _, cat := range models.ExpenseCategories {
		total, ok := sum.ByCategory[cat]
		if !ok {
			continue
		}
		f.SetCellValue(summary, fmt.Sprintf("A%d", row), string(cat))
		f.SetCellValue(summary, fmt.Sprintf("B%d", row), total.InexactFloat64())
		row++
	}
	f.SetCellValue(summary, fmt.Sprintf("A%d", row), "All")
	f.SetCellValue(summary, fmt.Sprintf("B%d", row), sum.Total.InexactFloat64())
	return writeXLSX(f)
}

func writeXLSX(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func day(t time.Time) string {
	return timeutil.Format(t, timeutil.DisplayLayout)
}

func amountOrBlank(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.StringFixed(2)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}
