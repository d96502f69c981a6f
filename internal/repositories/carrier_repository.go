package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"logistics-backend/internal/models"
)

const carrierColumns = `id, owner_user_id, trip_number, name, origin, destination, trip_date,
	truck_id, driver_id, cars, total_amount, total_expense, is_active, created_at, updated_at`

func scanCarrier(row pgx.Row) (*models.Carrier, error) {
	var c models.Carrier
	err := row.Scan(&c.ID, &c.OwnerUserID, &c.TripNumber, &c.Name, &c.Origin, &c.Destination, &c.TripDate,
		&c.TruckID, &c.DriverID, &c.Cars, &c.TotalAmount, &c.TotalExpense, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if c.Cars == nil {
		c.Cars = []models.Car{}
	}
	return &c, nil
}

func (q *FleetQueries) GetCarrier(ctx context.Context, id int) (*models.Carrier, error) {
	c, err := scanCarrier(q.db.QueryRow(ctx, `SELECT `+carrierColumns+` FROM carriers WHERE id=$1`+q.lock, id))
	if err != nil {
		return nil, readError(err, "carrier %d", id)
	}
	return c, nil
}

func (q *FleetQueries) ListCarriers(ctx context.Context, scope models.FleetScope) ([]models.Carrier, error) {
	where, args := scopeClause(scope, nil)
	rows, err := q.db.Query(ctx, `SELECT `+carrierColumns+` FROM carriers`+where+` ORDER BY trip_date DESC, id DESC`, args...)
	if err != nil {
		return nil, readError(err, "carriers")
	}
	defer rows.Close()

	carriers := []models.Carrier{}
	for rows.Next() {
		c, err := scanCarrier(rows)
		if err != nil {
			return nil, readError(err, "carriers")
		}
		carriers = append(carriers, *c)
	}
	return carriers, readError(rows.Err(), "carriers")
}

func (q *FleetQueries) InsertCarrier(ctx context.Context, c *models.Carrier) error {
	if c.Cars == nil {
		c.Cars = []models.Car{}
	}
	err := q.db.QueryRow(ctx,
		`INSERT INTO carriers(owner_user_id, trip_number, name, origin, destination, trip_date,
			truck_id, driver_id, cars, total_amount, total_expense, is_active)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, TRUE)
		 RETURNING id, total_expense, is_active, created_at, updated_at`,
		c.OwnerUserID, c.TripNumber, c.Name, c.Origin, c.Destination, c.TripDate,
		c.TruckID, c.DriverID, c.Cars, c.TotalAmount,
	).Scan(&c.ID, &c.TotalExpense, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return mapError(err, "carrier %q", c.Name)
}

// UpdateCarrier writes everything except total_expense, which only
// SetCarrierTotalExpense maintains.
func (q *FleetQueries) UpdateCarrier(ctx context.Context, c *models.Carrier) error {
	if c.Cars == nil {
		c.Cars = []models.Car{}
	}
	err := q.db.QueryRow(ctx,
		`UPDATE carriers SET trip_number=$2, name=$3, origin=$4, destination=$5, trip_date=$6,
			truck_id=$7, driver_id=$8, cars=$9, total_amount=$10, is_active=$11, updated_at=NOW()
		 WHERE id=$1 RETURNING updated_at`,
		c.ID, c.TripNumber, c.Name, c.Origin, c.Destination, c.TripDate,
		c.TruckID, c.DriverID, c.Cars, c.TotalAmount, c.IsActive,
	).Scan(&c.UpdatedAt)
	return mapError(err, "carrier %d", c.ID)
}

func (q *FleetQueries) SetCarrierTotalExpense(ctx context.Context, id int, total decimal.Decimal) error {
	_, err := q.db.Exec(ctx, `UPDATE carriers SET total_expense=$2, updated_at=NOW() WHERE id=$1`, id, total)
	return mapError(err, "carrier %d", id)
}

func (q *FleetQueries) DeleteCarrier(ctx context.Context, id int) error {
	return deleteByID(ctx, q.db, "carriers", "carrier", id)
}

func deleteByID(ctx context.Context, db DBTX, table, entity string, id int) error {
	tag, err := db.Exec(ctx, `DELETE FROM `+table+` WHERE id=$1`, id)
	if err != nil {
		return mapError(err, "%s %d", entity, id)
	}
	if tag.RowsAffected() == 0 {
		return mapError(pgx.ErrNoRows, "%s %d", entity, id)
	}
	return nil
}
