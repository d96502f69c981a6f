package services

import (
	"context"

	"github.com/shopspring/decimal"

	"logistics-backend/internal/metrics"
	"logistics-backend/internal/models"
	"logistics-backend/internal/repositories"
)

// mirrorTargets lists where a carrier expense should be mirrored: fuel onto
// the carrier's truck, driver rent onto its driver.
func mirrorTargets(origin *models.Expense, carrier *models.Carrier) []models.ExpenseOwner {
	if origin == nil || carrier == nil {
		return nil
	}
	switch origin.Category {
	case models.ExpenseFuel:
		if carrier.TruckID != nil {
			return []models.ExpenseOwner{{Kind: models.OwnerTruck, ID: *carrier.TruckID}}
		}
	case models.ExpenseDriverRent:
		if carrier.DriverID != nil {
			return []models.ExpenseOwner{{Kind: models.OwnerDriver, ID: *carrier.DriverID}}
		}
	}
	return nil
}

// mirrorOf builds the mirror of origin attached to target.
func mirrorOf(origin *models.Expense, target models.ExpenseOwner) models.Expense {
	id := origin.ID
	m := models.Expense{
		Category:          origin.Category,
		Amount:            origin.Amount,
		Liters:            origin.Liters,
		PricePerLiter:     origin.PricePerLiter,
		Details:           origin.Details,
		ExpenseDate:       origin.ExpenseDate,
		SyncedFromExpense: &id,
		CreatedByUserID:   origin.CreatedByUserID,
	}
	tid := target.ID
	switch target.Kind {
	case models.OwnerTruck:
		m.TruckID = &tid
	case models.OwnerDriver:
		m.DriverID = &tid
	}
	return m
}

func nullDecimalEqual(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Decimal.Equal(b.Decimal)
}

func mirrorMatches(m, want *models.Expense) bool {
	return m.Category == want.Category &&
		m.Amount.Equal(want.Amount) &&
		nullDecimalEqual(m.Liters, want.Liters) &&
		nullDecimalEqual(m.PricePerLiter, want.PricePerLiter) &&
		m.Details == want.Details &&
		m.ExpenseDate.Equal(want.ExpenseDate)
}

// mirrorPlan is the diff between the mirrors an origin should have and the
// mirrors it has.
type mirrorPlan struct {
	Create []models.Expense
	Update []models.Expense
	Delete []int64
}

func (p mirrorPlan) empty() bool {
	return len(p.Create) == 0 && len(p.Update) == 0 && len(p.Delete) == 0
}

// planMirrors reconciles existing mirrors of origin with the desired set.
// A nil origin means the origin is going away and every mirror is deleted.
// At most one mirror is kept per target.
func planMirrors(origin *models.Expense, carrier *models.Carrier, existing []models.Expense) mirrorPlan {
	var plan mirrorPlan

	desired := map[models.ExpenseOwner]models.Expense{}
	for _, target := range mirrorTargets(origin, carrier) {
		desired[target] = mirrorOf(origin, target)
	}

	kept := map[models.ExpenseOwner]bool{}
	for _, m := range existing {
		target := m.Owner()
		want, ok := desired[target]
		if !ok || kept[target] {
			plan.Delete = append(plan.Delete, m.ID)
			continue
		}
		kept[target] = true
		if !mirrorMatches(&m, &want) {
			updated := m
			updated.Category = want.Category
			updated.Amount = want.Amount
			updated.Liters = want.Liters
			updated.PricePerLiter = want.PricePerLiter
			updated.Details = want.Details
			updated.ExpenseDate = want.ExpenseDate
			plan.Update = append(plan.Update, updated)
		}
	}

	for _, target := range mirrorTargets(origin, carrier) {
		if !kept[target] {
			plan.Create = append(plan.Create, desired[target])
		}
	}
	return plan
}

// syncMirrors applies planMirrors for origin. Pass originID with a nil origin
// to remove all mirrors of a deleted expense.
func syncMirrors(ctx context.Context, tx repositories.FleetTx, originID int64, origin *models.Expense, carrier *models.Carrier) error {
	existing, err := tx.ListMirrorsOf(ctx, []int64{originID})
	if err != nil {
		return err
	}
	plan := planMirrors(origin, carrier, existing)
	if plan.empty() {
		return nil
	}

	if err := tx.DeleteExpenses(ctx, plan.Delete); err != nil {
		return err
	}
	for i := range plan.Update {
		if err := tx.UpdateExpense(ctx, &plan.Update[i]); err != nil {
			return err
		}
	}
	for i := range plan.Create {
		if err := tx.InsertExpense(ctx, &plan.Create[i]); err != nil {
			return err
		}
	}

	metrics.ExpenseSyncActionsTotal.WithLabelValues("delete").Add(float64(len(plan.Delete)))
	metrics.ExpenseSyncActionsTotal.WithLabelValues("update").Add(float64(len(plan.Update)))
	metrics.ExpenseSyncActionsTotal.WithLabelValues("create").Add(float64(len(plan.Create)))
	return nil
}

// recomputeCarrierTotal rescans the carrier's own expenses and stores the sum.
func recomputeCarrierTotal(ctx context.Context, tx repositories.FleetTx, carrierID int) (decimal.Decimal, error) {
	expenses, err := tx.ListExpenses(ctx, models.ExpenseOwner{Kind: models.OwnerCarrier, ID: carrierID})
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, e := range expenses {
		if e.IsMirror() {
			continue
		}
		total = total.Add(e.Amount)
	}
	if err := tx.SetCarrierTotalExpense(ctx, carrierID, total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// resyncCarrier re-runs the mirror reconciliation for every expense of a
// carrier, used after its truck or driver link changes.
func resyncCarrier(ctx context.Context, tx repositories.FleetTx, carrier *models.Carrier) error {
	expenses, err := tx.ListExpenses(ctx, models.ExpenseOwner{Kind: models.OwnerCarrier, ID: carrier.ID})
	if err != nil {
		return err
	}
	for i := range expenses {
		if err := syncMirrors(ctx, tx, expenses[i].ID, &expenses[i], carrier); err != nil {
			return err
		}
	}
	return nil
}
