package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"logistics-backend/internal/apperr"
	"logistics-backend/internal/models"
)

type InvoiceRepository struct {
	DB *pgxpool.Pool
}

func NewInvoiceRepository(db *pgxpool.Pool) *InvoiceRepository {
	return &InvoiceRepository{DB: db}
}

// PaymentFunc decides a payment against a locked invoice. It must append
// exactly one payment to inv.Payments, set inv.Status and return the receipt
// to store. Receipt numbers are assigned by the repository.
type PaymentFunc func(inv *models.Invoice) (*models.Receipt, error)

const invoiceColumns = `id, invoice_number, client_company_name, client_address, client_vat_number,
	issue_date, due_date, items, subtotal, vat_rate, vat_amount, total_amount, payments,
	status, notes, created_by_user_id, created_at, updated_at`

func scanInvoice(row pgx.Row) (*models.Invoice, error) {
	var inv models.Invoice
	err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.ClientCompanyName, &inv.ClientAddress, &inv.ClientVATNumber,
		&inv.IssueDate, &inv.DueDate, &inv.Items, &inv.Subtotal, &inv.VATRate, &inv.VATAmount, &inv.TotalAmount,
		&inv.Payments, &inv.Status, &inv.Notes, &inv.CreatedByUserID, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if inv.Items == nil {
		inv.Items = []models.InvoiceItem{}
	}
	if inv.Payments == nil {
		inv.Payments = []models.Payment{}
	}
	return &inv, nil
}

func nextNumber(ctx context.Context, db DBTX, sequence, prefix string) (string, error) {
	var n int64
	if err := db.QueryRow(ctx, "SELECT nextval('"+sequence+"')").Scan(&n); err != nil {
		return "", fmt.Errorf("failed to get next %s number: %w", prefix, err)
	}
	return fmt.Sprintf("%s-%06d", prefix, n), nil
}

// Create assigns the invoice number from invoice_number_sequence and inserts.
func (r *InvoiceRepository) Create(ctx context.Context, inv *models.Invoice) error {
	number, err := nextNumber(ctx, r.DB, "invoice_number_sequence", "INV")
	if err != nil {
		return mapError(err, "invoice")
	}
	inv.InvoiceNumber = number
	if inv.Payments == nil {
		inv.Payments = []models.Payment{}
	}

	err = r.DB.QueryRow(ctx,
		`INSERT INTO invoices(invoice_number, client_company_name, client_address, client_vat_number,
			issue_date, due_date, items, subtotal, vat_rate, vat_amount, total_amount, payments,
			status, notes, created_by_user_id)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 RETURNING id, created_at, updated_at`,
		inv.InvoiceNumber, inv.ClientCompanyName, inv.ClientAddress, inv.ClientVATNumber,
		inv.IssueDate, inv.DueDate, inv.Items, inv.Subtotal, inv.VATRate, inv.VATAmount, inv.TotalAmount,
		inv.Payments, inv.Status, inv.Notes, inv.CreatedByUserID,
	).Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
	return mapError(err, "invoice %s", inv.InvoiceNumber)
}

func (r *InvoiceRepository) Get(ctx context.Context, id int) (*models.Invoice, error) {
	inv, err := scanInvoice(r.DB.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id=$1`, id))
	if err != nil {
		return nil, readError(err, "invoice %d", id)
	}
	return inv, nil
}

func (r *InvoiceRepository) List(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.Client != "" {
		conditions = append(conditions, fmt.Sprintf("client_company_name ILIKE $%d", argNum))
		args = append(args, "%"+filter.Client+"%")
		argNum++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, filter.Status)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	rows, err := r.DB.Query(ctx,
		`SELECT `+invoiceColumns+` FROM invoices `+whereClause+` ORDER BY issue_date DESC, id DESC`, args...)
	if err != nil {
		return nil, readError(err, "invoices")
	}
	defer rows.Close()

	invoices := []models.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, readError(err, "invoices")
		}
		invoices = append(invoices, *inv)
	}
	return invoices, readError(rows.Err(), "invoices")
}

// Update rewrites the invoice body under a row lock. apply edits the locked
// row in place; an error from it aborts the write.
func (r *InvoiceRepository) Update(ctx context.Context, id int, apply func(current *models.Invoice) error) (*models.Invoice, error) {
	var updated *models.Invoice
	err := pgx.BeginFunc(ctx, r.DB, func(tx pgx.Tx) error {
		inv, err := scanInvoice(tx.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id=$1 FOR UPDATE`, id))
		if err != nil {
			return readError(err, "invoice %d", id)
		}
		if err := apply(inv); err != nil {
			return err
		}
		err = tx.QueryRow(ctx,
			`UPDATE invoices SET client_company_name=$2, client_address=$3, client_vat_number=$4,
				issue_date=$5, due_date=$6, items=$7, subtotal=$8, vat_rate=$9, vat_amount=$10,
				total_amount=$11, status=$12, notes=$13, updated_at=NOW()
			 WHERE id=$1 RETURNING updated_at`,
			inv.ID, inv.ClientCompanyName, inv.ClientAddress, inv.ClientVATNumber,
			inv.IssueDate, inv.DueDate, inv.Items, inv.Subtotal, inv.VATRate, inv.VATAmount,
			inv.TotalAmount, inv.Status, inv.Notes,
		).Scan(&inv.UpdatedAt)
		if err != nil {
			return err
		}
		updated = inv
		return nil
	})
	if err != nil {
		return nil, mapError(err, "invoice %d", id)
	}
	return updated, nil
}

// Delete removes an invoice that has no recorded payments.
func (r *InvoiceRepository) Delete(ctx context.Context, id int) error {
	err := pgx.BeginFunc(ctx, r.DB, func(tx pgx.Tx) error {
		inv, err := scanInvoice(tx.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id=$1 FOR UPDATE`, id))
		if err != nil {
			return readError(err, "invoice %d", id)
		}
		if len(inv.Payments) > 0 {
			return apperr.Validation("invoice %s has recorded payments and cannot be deleted", inv.InvoiceNumber)
		}
		_, err = tx.Exec(ctx, `DELETE FROM invoices WHERE id=$1`, id)
		return err
	})
	return mapError(err, "invoice %d", id)
}

// ApplyPayment locks the invoice, lets decide build the payment and receipt,
// then writes payments, company credit and receipt in one transaction.
func (r *InvoiceRepository) ApplyPayment(ctx context.Context, invoiceID int, decide PaymentFunc) (*models.Invoice, *models.Receipt, error) {
	var (
		invoice *models.Invoice
		receipt *models.Receipt
	)
	err := pgx.BeginFunc(ctx, r.DB, func(tx pgx.Tx) error {
		inv, err := scanInvoice(tx.QueryRow(ctx,
			`SELECT `+invoiceColumns+` FROM invoices WHERE id=$1 FOR UPDATE`, invoiceID))
		if err != nil {
			return readError(err, "invoice %d", invoiceID)
		}

		before := len(inv.Payments)
		rec, err := decide(inv)
		if err != nil {
			return err
		}
		if len(inv.Payments) != before+1 {
			return fmt.Errorf("payment decision appended %d payments", len(inv.Payments)-before)
		}

		number, err := nextNumber(ctx, tx, "receipt_number_sequence", "RCP")
		if err != nil {
			return err
		}
		rec.ReceiptNumber = number
		inv.Payments[len(inv.Payments)-1].ReceiptNumber = number

		if err := tx.QueryRow(ctx,
			`UPDATE invoices SET payments=$2, status=$3, updated_at=NOW() WHERE id=$1 RETURNING updated_at`,
			inv.ID, inv.Payments, inv.Status,
		).Scan(&inv.UpdatedAt); err != nil {
			return err
		}

		if rec.ExcessAmount.IsPositive() {
			if err := addCredit(ctx, tx, inv.ClientCompanyName, rec.ExcessAmount); err != nil {
				return err
			}
		}

		if err := insertReceipt(ctx, tx, rec); err != nil {
			return err
		}
		invoice, receipt = inv, rec
		return nil
	})
	if err != nil {
		return nil, nil, mapError(err, "payment for invoice %d", invoiceID)
	}
	return invoice, receipt, nil
}
