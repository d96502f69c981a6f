package services

import (
	"context"

	"go.uber.org/zap"

	"logistics-backend/internal/apperr"
	"logistics-backend/internal/models"
	"logistics-backend/internal/repositories"
)

// FleetStore serves reads directly and runs mutations in one transaction.
type FleetStore interface {
	repositories.FleetTx
	WithinTx(ctx context.Context, fn func(tx repositories.FleetTx) error) error
}

// FleetService manages carriers, trucks, drivers and their expenses. Records
// are owned by a user; non-admins only see and touch their own.
type FleetService struct {
	Store FleetStore
	log   *zap.Logger
}

func NewFleetService(store FleetStore, log *zap.Logger) *FleetService {
	return &FleetService{Store: store, log: log.Named("fleet")}
}

func isAdmin(session *models.Session) bool {
	return session != nil && session.Role == models.RoleAdmin
}

func scopeFor(session *models.Session) models.FleetScope {
	if isAdmin(session) {
		return models.FleetScope{}
	}
	return models.FleetScope{OwnerUserID: session.UserID}
}

func checkOwner(session *models.Session, ownerUserID int, what string, id int) error {
	if session == nil {
		return apperr.Unauthorized("login required")
	}
	if isAdmin(session) || session.UserID == ownerUserID {
		return nil
	}
	return apperr.Forbidden("you do not have access to %s %d", what, id)
}

// loadOwner fetches the carrier, truck or driver an expense path points at
// and checks access. For carriers the carrier is returned.
func loadOwner(ctx context.Context, tx repositories.FleetTx, session *models.Session, owner models.ExpenseOwner) (*models.Carrier, error) {
	switch owner.Kind {
	case models.OwnerCarrier:
		c, err := tx.GetCarrier(ctx, owner.ID)
		if err != nil {
			return nil, err
		}
		return c, checkOwner(session, c.OwnerUserID, "carrier", c.ID)
	case models.OwnerTruck:
		t, err := tx.GetTruck(ctx, owner.ID)
		if err != nil {
			return nil, err
		}
		return nil, checkOwner(session, t.OwnerUserID, "truck", t.ID)
	case models.OwnerDriver:
		d, err := tx.GetDriver(ctx, owner.ID)
		if err != nil {
			return nil, err
		}
		return nil, checkOwner(session, d.OwnerUserID, "driver", d.ID)
	}
	return nil, apperr.Validation("unknown expense owner %q", owner.Kind)
}

// deleteOwnerExpenses removes everything attached to owner plus every mirror
// of those expenses.
func deleteOwnerExpenses(ctx context.Context, tx repositories.FleetTx, owner models.ExpenseOwner) (int, error) {
	own, err := tx.ListExpenses(ctx, owner)
	if err != nil {
		return 0, err
	}
	ids := expenseIDs(own)
	mirrors, err := tx.ListMirrorsOf(ctx, ids)
	if err != nil {
		return 0, err
	}
	if err := tx.DeleteExpenses(ctx, expenseIDs(mirrors)); err != nil {
		return 0, err
	}
	if err := tx.DeleteExpenses(ctx, ids); err != nil {
		return 0, err
	}
	return len(own) + len(mirrors), nil
}

func expenseIDs(expenses []models.Expense) []int64 {
	ids := make([]int64, 0, len(expenses))
	for _, e := range expenses {
		ids = append(ids, e.ID)
	}
	return ids
}
