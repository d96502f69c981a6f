package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"

	"logistics-backend/internal/models"
)

const driverColumns = `id, owner_user_id, name, phone, license_number, is_active, created_at, updated_at`

func scanDriver(row pgx.Row) (*models.Driver, error) {
	var d models.Driver
	if err := row.Scan(&d.ID, &d.OwnerUserID, &d.Name, &d.Phone, &d.LicenseNumber, &d.IsActive, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

func (q *FleetQueries) GetDriver(ctx context.Context, id int) (*models.Driver, error) {
	d, err := scanDriver(q.db.QueryRow(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id=$1`+q.lock, id))
	if err != nil {
		return nil, readError(err, "driver %d", id)
	}
	return d, nil
}

func (q *FleetQueries) ListDrivers(ctx context.Context, scope models.FleetScope) ([]models.Driver, error) {
	where, args := scopeClause(scope, nil)
	rows, err := q.db.Query(ctx, `SELECT `+driverColumns+` FROM drivers`+where+` ORDER BY name`, args...)
	if err != nil {
		return nil, readError(err, "drivers")
	}
	defer rows.Close()

	drivers := []models.Driver{}
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, readError(err, "drivers")
		}
		drivers = append(drivers, *d)
	}
	return drivers, readError(rows.Err(), "drivers")
}

func (q *FleetQueries) InsertDriver(ctx context.Context, d *models.Driver) error {
	err := q.db.QueryRow(ctx,
		`INSERT INTO drivers(owner_user_id, name, phone, license_number, is_active) VALUES($1, $2, $3, $4, TRUE)
		 RETURNING id, is_active, created_at, updated_at`,
		d.OwnerUserID, d.Name, d.Phone, d.LicenseNumber,
	).Scan(&d.ID, &d.IsActive, &d.CreatedAt, &d.UpdatedAt)
	return mapError(err, "driver %q", d.Name)
}

func (q *FleetQueries) UpdateDriver(ctx context.Context, d *models.Driver) error {
	err := q.db.QueryRow(ctx,
		`UPDATE drivers SET name=$2, phone=$3, license_number=$4, is_active=$5, updated_at=NOW()
		 WHERE id=$1 RETURNING updated_at`,
		d.ID, d.Name, d.Phone, d.LicenseNumber, d.IsActive,
	).Scan(&d.UpdatedAt)
	return mapError(err, "driver %q", d.Name)
}

func (q *FleetQueries) DeleteDriver(ctx context.Context, id int) error {
	return deleteByID(ctx, q.db, "drivers", "driver", id)
}
