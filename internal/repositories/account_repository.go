package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"logistics-backend/internal/models"
)

type AccountRepository struct {
	DB *pgxpool.Pool
}

func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{DB: db}
}

const accountColumns = `id, title, slug, description, initial_balance, current_balance,
	currency, currency_symbol, is_active, created_by_user_id, created_at, updated_at`

func scanAccount(row pgx.Row) (*models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.Title, &a.Slug, &a.Description, &a.InitialBalance, &a.CurrentBalance,
		&a.Currency, &a.CurrencySymbol, &a.IsActive, &a.CreatedByUserID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts the account with current_balance = initial_balance.
func (r *AccountRepository) Create(ctx context.Context, a *models.Account) error {
	err := r.DB.QueryRow(ctx,
		`INSERT INTO accounts(title, slug, description, initial_balance, current_balance,
			currency, currency_symbol, is_active, created_by_user_id)
		 VALUES($1, $2, $3, $4, $4, $5, $6, TRUE, $7)
		 RETURNING id, current_balance, is_active, created_at, updated_at`,
		a.Title, a.Slug, a.Description, a.InitialBalance, a.Currency, a.CurrencySymbol, a.CreatedByUserID,
	).Scan(&a.ID, &a.CurrentBalance, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	return mapError(err, "account %q", a.Slug)
}

func (r *AccountRepository) GetByID(ctx context.Context, id int) (*models.Account, error) {
	a, err := scanAccount(r.DB.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id))
	if err != nil {
		return nil, readError(err, "account %d", id)
	}
	return a, nil
}

func (r *AccountRepository) GetBySlug(ctx context.Context, slug string) (*models.Account, error) {
	a, err := scanAccount(r.DB.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE slug=$1`, slug))
	if err != nil {
		return nil, readError(err, "account %q", slug)
	}
	return a, nil
}

func (r *AccountRepository) List(ctx context.Context) ([]models.Account, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY is_active DESC, title`)
	if err != nil {
		return nil, readError(err, "accounts")
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, readError(err, "accounts")
		}
		accounts = append(accounts, *a)
	}
	return accounts, readError(rows.Err(), "accounts")
}

// Update writes metadata. initialDelta is added to both initial and current
// balance in the same statement so the balance invariant holds.
func (r *AccountRepository) Update(ctx context.Context, a *models.Account, initialDelta decimal.Decimal) error {
	err := r.DB.QueryRow(ctx,
		`UPDATE accounts SET title=$2, description=$3, currency=$4, currency_symbol=$5,
			initial_balance = initial_balance + $6,
			current_balance = current_balance + $6,
			updated_at=NOW()
		 WHERE id=$1
		 RETURNING initial_balance, current_balance, updated_at`,
		a.ID, a.Title, a.Description, a.Currency, a.CurrencySymbol, initialDelta,
	).Scan(&a.InitialBalance, &a.CurrentBalance, &a.UpdatedAt)
	return mapError(err, "account %q", a.Slug)
}

func (r *AccountRepository) SetActive(ctx context.Context, id int, active bool) error {
	tag, err := r.DB.Exec(ctx, `UPDATE accounts SET is_active=$2, updated_at=NOW() WHERE id=$1`, id, active)
	if err != nil {
		return mapError(err, "account %d", id)
	}
	if tag.RowsAffected() == 0 {
		return mapError(pgx.ErrNoRows, "account %d", id)
	}
	return nil
}

// RecalculateBalance rewrites current_balance from initial_balance and the
// full transaction log under a row lock.
func (r *AccountRepository) RecalculateBalance(ctx context.Context, id int) (*models.BalanceCheck, error) {
	check := &models.BalanceCheck{AccountID: id}
	err := pgx.BeginFunc(ctx, r.DB, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `SELECT slug, current_balance FROM accounts WHERE id=$1 FOR UPDATE`, id).
			Scan(&check.Slug, &check.StoredBalance)
		if err != nil {
			return err
		}
		return tx.QueryRow(ctx,
			`WITH sums AS (
				SELECT COALESCE(SUM(credit - debit), 0) AS net, COUNT(*) AS n
				FROM transactions WHERE account_id=$1
			)
			UPDATE accounts a SET current_balance = a.initial_balance + sums.net, updated_at=NOW()
			FROM sums WHERE a.id=$1
			RETURNING a.current_balance, sums.n`, id,
		).Scan(&check.ComputedBalance, &check.TransactionCount)
	})
	if err != nil {
		return nil, mapError(err, "account %d", id)
	}
	check.Drift = check.StoredBalance.Sub(check.ComputedBalance)
	return check, nil
}
