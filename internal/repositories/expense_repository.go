package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"logistics-backend/internal/models"
)

const expenseColumns = `id, carrier_id, truck_id, driver_id, category, amount, liters, price_per_liter,
	details, expense_date, synced_from_expense, created_by_user_id, created_at, updated_at`

func scanExpense(row pgx.Row) (*models.Expense, error) {
	var e models.Expense
	err := row.Scan(&e.ID, &e.CarrierID, &e.TruckID, &e.DriverID, &e.Category, &e.Amount, &e.Liters,
		&e.PricePerLiter, &e.Details, &e.ExpenseDate, &e.SyncedFromExpense, &e.CreatedByUserID,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func collectExpenses(rows pgx.Rows) ([]models.Expense, error) {
	defer rows.Close()
	expenses := []models.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, readError(err, "expenses")
		}
		expenses = append(expenses, *e)
	}
	return expenses, readError(rows.Err(), "expenses")
}

func (q *FleetQueries) GetExpense(ctx context.Context, id int64) (*models.Expense, error) {
	e, err := scanExpense(q.db.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id=$1`+q.lock, id))
	if err != nil {
		return nil, readError(err, "expense %d", id)
	}
	return e, nil
}

func ownerColumn(kind models.OwnerKind) (string, error) {
	switch kind {
	case models.OwnerCarrier:
		return "carrier_id", nil
	case models.OwnerTruck:
		return "truck_id", nil
	case models.OwnerDriver:
		return "driver_id", nil
	}
	return "", fmt.Errorf("unknown expense owner %q", kind)
}

// ListExpenses returns the expenses attached to owner, newest first.
func (q *FleetQueries) ListExpenses(ctx context.Context, owner models.ExpenseOwner) ([]models.Expense, error) {
	col, err := ownerColumn(owner.Kind)
	if err != nil {
		return nil, err
	}
	rows, err := q.db.Query(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE `+col+`=$1 ORDER BY expense_date DESC, id DESC`, owner.ID)
	if err != nil {
		return nil, readError(err, "expenses")
	}
	return collectExpenses(rows)
}

// ListMirrorsOf returns every expense synced from one of originIDs.
func (q *FleetQueries) ListMirrorsOf(ctx context.Context, originIDs []int64) ([]models.Expense, error) {
	if len(originIDs) == 0 {
		return []models.Expense{}, nil
	}
	rows, err := q.db.Query(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE synced_from_expense = ANY($1) ORDER BY id`, originIDs)
	if err != nil {
		return nil, readError(err, "expenses")
	}
	return collectExpenses(rows)
}

func (q *FleetQueries) InsertExpense(ctx context.Context, e *models.Expense) error {
	err := q.db.QueryRow(ctx,
		`INSERT INTO expenses(carrier_id, truck_id, driver_id, category, amount, liters, price_per_liter,
			details, expense_date, synced_from_expense, created_by_user_id)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at, updated_at`,
		e.CarrierID, e.TruckID, e.DriverID, e.Category, e.Amount, e.Liters, e.PricePerLiter,
		e.Details, e.ExpenseDate, e.SyncedFromExpense, e.CreatedByUserID,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	return mapError(err, "expense")
}

// UpdateExpense writes the editable fields. Ownership and the mirror link never change.
func (q *FleetQueries) UpdateExpense(ctx context.Context, e *models.Expense) error {
	err := q.db.QueryRow(ctx,
		`UPDATE expenses SET category=$2, amount=$3, liters=$4, price_per_liter=$5, details=$6,
			expense_date=$7, updated_at=NOW()
		 WHERE id=$1 RETURNING updated_at`,
		e.ID, e.Category, e.Amount, e.Liters, e.PricePerLiter, e.Details, e.ExpenseDate,
	).Scan(&e.UpdatedAt)
	return mapError(err, "expense %d", e.ID)
}

func (q *FleetQueries) DeleteExpenses(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := q.db.Exec(ctx, `DELETE FROM expenses WHERE id = ANY($1)`, ids)
	return mapError(err, "expenses")
}
