package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"logistics-backend/internal/models"
)

// LedgerRepository owns the transactions table.
type LedgerRepository struct {
	DB *pgxpool.Pool
}

func NewLedgerRepository(db *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{DB: db}
}

// TransactionRange selects transactions by date. Before is exclusive, From and
// To are inclusive. Nil bounds are open.
type TransactionRange struct {
	Before *time.Time
	From   *time.Time
	To     *time.Time
}

const transactionColumns = `id, account_id, account_slug, type, credit, debit, details, destination,
	transaction_date, created_by_user_id, created_at`

// Create moves the account balance by credit - debit and appends the
// transaction in one database transaction.
func (r *LedgerRepository) Create(ctx context.Context, t *models.Transaction) error {
	err := pgx.BeginFunc(ctx, r.DB, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`UPDATE accounts SET current_balance = current_balance + $2 - $3, updated_at=NOW()
			 WHERE id=$1 RETURNING slug`,
			t.AccountID, t.Credit, t.Debit,
		).Scan(&t.AccountSlug)
		if err != nil {
			return readError(err, "account %d", t.AccountID)
		}

		return tx.QueryRow(ctx,
			`INSERT INTO transactions(account_id, account_slug, type, credit, debit, details,
				destination, transaction_date, created_by_user_id)
			 VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 RETURNING id, created_at`,
			t.AccountID, t.AccountSlug, t.Type, t.Credit, t.Debit, t.Details,
			t.Destination, t.TransactionDate, t.CreatedByUserID,
		).Scan(&t.ID, &t.CreatedAt)
	})
	return mapError(err, "transaction")
}

// List returns an account's transactions in ledger order:
// transaction_date, created_at, id ascending.
func (r *LedgerRepository) List(ctx context.Context, accountID int, rng TransactionRange) ([]models.Transaction, error) {
	conditions := []string{"account_id = $1"}
	args := []interface{}{accountID}
	argNum := 2

	if rng.Before != nil {
		conditions = append(conditions, fmt.Sprintf("transaction_date < $%d", argNum))
		args = append(args, *rng.Before)
		argNum++
	}
	if rng.From != nil {
		conditions = append(conditions, fmt.Sprintf("transaction_date >= $%d", argNum))
		args = append(args, *rng.From)
		argNum++
	}
	if rng.To != nil {
		conditions = append(conditions, fmt.Sprintf("transaction_date <= $%d", argNum))
		args = append(args, *rng.To)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` +
		strings.Join(conditions, " AND ") +
		` ORDER BY transaction_date ASC, created_at ASC, id ASC`

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, readError(err, "transactions")
	}
	defer rows.Close()

	txns := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.AccountSlug, &t.Type, &t.Credit, &t.Debit,
			&t.Details, &t.Destination, &t.TransactionDate, &t.CreatedByUserID, &t.CreatedAt); err != nil {
			return nil, readError(err, "transactions")
		}
		txns = append(txns, t)
	}
	return txns, readError(rows.Err(), "transactions")
}
