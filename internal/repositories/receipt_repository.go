package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"logistics-backend/internal/models"
)

// ReceiptRepository reads receipts. Receipts are only written by
// InvoiceRepository.ApplyPayment.
type ReceiptRepository struct {
	DB *pgxpool.Pool
}

func NewReceiptRepository(db *pgxpool.Pool) *ReceiptRepository {
	return &ReceiptRepository{DB: db}
}

const receiptColumns = `id, receipt_number, invoice_id, invoice_number, sender, client, amount,
	amount_applied, excess_amount, method, payment_date, invoice_total, remaining_balance, notes,
	created_by_user_id, created_at`

func scanReceipt(row pgx.Row) (*models.Receipt, error) {
	var rc models.Receipt
	err := row.Scan(&rc.ID, &rc.ReceiptNumber, &rc.InvoiceID, &rc.InvoiceNumber, &rc.Sender, &rc.Client,
		&rc.Amount, &rc.AmountApplied, &rc.ExcessAmount, &rc.Method, &rc.PaymentDate, &rc.InvoiceTotal,
		&rc.RemainingBalance, &rc.Notes, &rc.CreatedByUserID, &rc.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rc, nil
}

func insertReceipt(ctx context.Context, db DBTX, rc *models.Receipt) error {
	return db.QueryRow(ctx,
		`INSERT INTO receipts(receipt_number, invoice_id, invoice_number, sender, client, amount,
			amount_applied, excess_amount, method, payment_date, invoice_total, remaining_balance,
			notes, created_by_user_id)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING id, created_at`,
		rc.ReceiptNumber, rc.InvoiceID, rc.InvoiceNumber, rc.Sender, rc.Client, rc.Amount,
		rc.AmountApplied, rc.ExcessAmount, rc.Method, rc.PaymentDate, rc.InvoiceTotal, rc.RemainingBalance,
		rc.Notes, rc.CreatedByUserID,
	).Scan(&rc.ID, &rc.CreatedAt)
}

func (r *ReceiptRepository) GetByNumber(ctx context.Context, number string) (*models.Receipt, error) {
	rc, err := scanReceipt(r.DB.QueryRow(ctx, `SELECT `+receiptColumns+` FROM receipts WHERE receipt_number=$1`, number))
	if err != nil {
		return nil, readError(err, "receipt %s", number)
	}
	return rc, nil
}

// List returns receipts newest first, optionally for one invoice.
func (r *ReceiptRepository) List(ctx context.Context, invoiceID int) ([]models.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts`
	var args []interface{}
	if invoiceID > 0 {
		query += ` WHERE invoice_id=$1`
		args = append(args, invoiceID)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, readError(err, "receipts")
	}
	defer rows.Close()

	receipts := []models.Receipt{}
	for rows.Next() {
		rc, err := scanReceipt(rows)
		if err != nil {
			return nil, readError(err, "receipts")
		}
		receipts = append(receipts, *rc)
	}
	return receipts, readError(rows.Err(), "receipts")
}
