package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"

	"logistics-backend/internal/models"
)

const truckColumns = `id, owner_user_id, name, model, is_active, created_at, updated_at`

func scanTruck(row pgx.Row) (*models.Truck, error) {
	var t models.Truck
	if err := row.Scan(&t.ID, &t.OwnerUserID, &t.Name, &t.Model, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (q *FleetQueries) GetTruck(ctx context.Context, id int) (*models.Truck, error) {
	t, err := scanTruck(q.db.QueryRow(ctx, `SELECT `+truckColumns+` FROM trucks WHERE id=$1`+q.lock, id))
	if err != nil {
		return nil, readError(err, "truck %d", id)
	}
	return t, nil
}

func (q *FleetQueries) ListTrucks(ctx context.Context, scope models.FleetScope) ([]models.Truck, error) {
	where, args := scopeClause(scope, nil)
	rows, err := q.db.Query(ctx, `SELECT `+truckColumns+` FROM trucks`+where+` ORDER BY name`, args...)
	if err != nil {
		return nil, readError(err, "trucks")
	}
	defer rows.Close()

	trucks := []models.Truck{}
	for rows.Next() {
		t, err := scanTruck(rows)
		if err != nil {
			return nil, readError(err, "trucks")
		}
		trucks = append(trucks, *t)
	}
	return trucks, readError(rows.Err(), "trucks")
}

// InsertTruck fails with a conflict when the owner already has a truck of that name.
func (q *FleetQueries) InsertTruck(ctx context.Context, t *models.Truck) error {
	err := q.db.QueryRow(ctx,
		`INSERT INTO trucks(owner_user_id, name, model, is_active) VALUES($1, $2, $3, TRUE)
		 RETURNING id, is_active, created_at, updated_at`,
		t.OwnerUserID, t.Name, t.Model,
	).Scan(&t.ID, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	return mapError(err, "truck %q", t.Name)
}

func (q *FleetQueries) UpdateTruck(ctx context.Context, t *models.Truck) error {
	err := q.db.QueryRow(ctx,
		`UPDATE trucks SET name=$2, model=$3, is_active=$4, updated_at=NOW() WHERE id=$1 RETURNING updated_at`,
		t.ID, t.Name, t.Model, t.IsActive,
	).Scan(&t.UpdatedAt)
	return mapError(err, "truck %q", t.Name)
}

func (q *FleetQueries) DeleteTruck(ctx context.Context, id int) error {
	return deleteByID(ctx, q.db, "trucks", "truck", id)
}
