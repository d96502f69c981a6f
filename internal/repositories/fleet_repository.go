package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"logistics-backend/internal/models"
)

// FleetTx is the set of carrier, truck, driver and expense operations that
// the expense sync runs inside one database transaction.
type FleetTx interface {
	GetCarrier(ctx context.Context, id int) (*models.Carrier, error)
	ListCarriers(ctx context.Context, scope models.FleetScope) ([]models.Carrier, error)
	InsertCarrier(ctx context.Context, c *models.Carrier) error
	UpdateCarrier(ctx context.Context, c *models.Carrier) error
	SetCarrierTotalExpense(ctx context.Context, id int, total decimal.Decimal) error
	DeleteCarrier(ctx context.Context, id int) error

	GetTruck(ctx context.Context, id int) (*models.Truck, error)
	ListTrucks(ctx context.Context, scope models.FleetScope) ([]models.Truck, error)
	InsertTruck(ctx context.Context, t *models.Truck) error
	UpdateTruck(ctx context.Context, t *models.Truck) error
	DeleteTruck(ctx context.Context, id int) error

	GetDriver(ctx context.Context, id int) (*models.Driver, error)
	ListDrivers(ctx context.Context, scope models.FleetScope) ([]models.Driver, error)
	InsertDriver(ctx context.Context, d *models.Driver) error
	UpdateDriver(ctx context.Context, d *models.Driver) error
	DeleteDriver(ctx context.Context, id int) error

	GetExpense(ctx context.Context, id int64) (*models.Expense, error)
	ListExpenses(ctx context.Context, owner models.ExpenseOwner) ([]models.Expense, error)
	ListMirrorsOf(ctx context.Context, originIDs []int64) ([]models.Expense, error)
	InsertExpense(ctx context.Context, e *models.Expense) error
	UpdateExpense(ctx context.Context, e *models.Expense) error
	DeleteExpenses(ctx context.Context, ids []int64) error
}

// FleetRepository serves fleet reads directly from the pool and runs
// mutations through WithinTx.
type FleetRepository struct {
	*FleetQueries
	DB *pgxpool.Pool
}

func NewFleetRepository(db *pgxpool.Pool) *FleetRepository {
	return &FleetRepository{FleetQueries: &FleetQueries{db: db}, DB: db}
}

// WithinTx runs fn in one database transaction. Row reads inside fn take
// FOR UPDATE locks.
func (r *FleetRepository) WithinTx(ctx context.Context, fn func(tx FleetTx) error) error {
	return pgx.BeginFunc(ctx, r.DB, func(tx pgx.Tx) error {
		return fn(&FleetQueries{db: tx, lock: " FOR UPDATE"})
	})
}

// FleetQueries implements FleetTx over a pool or a transaction.
type FleetQueries struct {
	db   DBTX
	lock string
}

var _ FleetTx = (*FleetQueries)(nil)

func scopeClause(scope models.FleetScope, args []interface{}) (string, []interface{}) {
	if scope.OwnerUserID == 0 {
		return "", args
	}
	args = append(args, scope.OwnerUserID)
	return " WHERE owner_user_id = $1", args
}
