package services

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"logistics-backend/internal/apperr"
	"logistics-backend/internal/models"
	"logistics-backend/internal/repositories"
	"logistics-backend/internal/timeutil"
)

// expenseFields validates a request and returns the normalized editable
// fields. Fuel with liters and price derives the amount; other categories
// never carry liters or price.
func expenseFields(req *models.ExpenseRequest) (*models.Expense, error) {
	if !req.Category.Valid() {
		return nil, apperr.Validation("unknown expense category %q", req.Category)
	}

	e := &models.Expense{
		Category: req.Category,
		Amount:   req.Amount,
		Details:  strings.TrimSpace(req.Details),
	}

	if req.Category == models.ExpenseFuel {
		if (req.Liters.Valid && req.Liters.Decimal.IsNegative()) ||
			(req.PricePerLiter.Valid && req.PricePerLiter.Decimal.IsNegative()) {
			return nil, apperr.Validation("liters and price per liter cannot be negative")
		}
		e.Liters = req.Liters
		e.PricePerLiter = req.PricePerLiter
		if req.Liters.Valid && req.PricePerLiter.Valid {
			e.Amount = req.Liters.Decimal.Mul(req.PricePerLiter.Decimal)
		}
	}
	e.Amount = e.Amount.Round(2)
	if !e.Amount.IsPositive() {
		return nil, apperr.Validation("expense amount must be greater than zero")
	}

	e.ExpenseDate = timeutil.StartOfDay(timeutil.Now())
	if strings.TrimSpace(req.ExpenseDate) != "" {
		d, err := timeutil.ParseDate(req.ExpenseDate)
		if err != nil {
			return nil, apperr.Validation("invalid expense date: %v", err)
		}
		e.ExpenseDate = d
	}
	return e, nil
}

func attach(e *models.Expense, owner models.ExpenseOwner) {
	id := owner.ID
	switch owner.Kind {
	case models.OwnerCarrier:
		e.CarrierID = &id
	case models.OwnerTruck:
		e.TruckID = &id
	case models.OwnerDriver:
		e.DriverID = &id
	}
}

// afterCarrierExpenseChange re-syncs mirrors of one origin and the carrier total.
func afterCarrierExpenseChange(ctx context.Context, tx repositories.FleetTx, carrier *models.Carrier, originID int64, origin *models.Expense) error {
	if carrier == nil {
		return nil
	}
	if err := syncMirrors(ctx, tx, originID, origin, carrier); err != nil {
		return err
	}
	total, err := recomputeCarrierTotal(ctx, tx, carrier.ID)
	if err != nil {
		return err
	}
	carrier.TotalExpense = total
	return nil
}

func (s *FleetService) CreateExpense(ctx context.Context, session *models.Session, owner models.ExpenseOwner, req *models.ExpenseRequest) (*models.Expense, error) {
	e, err := expenseFields(req)
	if err != nil {
		return nil, err
	}
	attach(e, owner)
	if session != nil {
		uid := session.UserID
		e.CreatedByUserID = &uid
	}

	err = s.Store.WithinTx(ctx, func(tx repositories.FleetTx) error {
		carrier, err := loadOwner(ctx, tx, session, owner)
		if err != nil {
			return err
		}
		if err := tx.InsertExpense(ctx, e); err != nil {
			return err
		}
		return afterCarrierExpenseChange(ctx, tx, carrier, e.ID, e)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("expense created", zap.Int64("id", e.ID), zap.String("owner", string(owner.Kind)),
		zap.Int("owner_id", owner.ID), zap.String("category", string(e.Category)))
	return e, nil
}

// ownedExpense loads an expense through its owner path. Mirrors are read-only.
func ownedExpense(ctx context.Context, tx repositories.FleetTx, owner models.ExpenseOwner, id int64) (*models.Expense, error) {
	e, err := tx.GetExpense(ctx, id)
	if err != nil {
		return nil, err
	}
	if !e.BelongsTo(owner) {
		return nil, apperr.Validation("expense %d does not belong to %s %d", id, owner.Kind, owner.ID)
	}
	if e.IsMirror() {
		return nil, apperr.Validation("expense %d is synced from carrier expense %d; change the original instead", id, *e.SyncedFromExpense)
	}
	return e, nil
}

func (s *FleetService) UpdateExpense(ctx context.Context, session *models.Session, owner models.ExpenseOwner, id int64, req *models.ExpenseRequest) (*models.Expense, error) {
	fields, err := expenseFields(req)
	if err != nil {
		return nil, err
	}

	var updated *models.Expense
	err = s.Store.WithinTx(ctx, func(tx repositories.FleetTx) error {
		carrier, err := loadOwner(ctx, tx, session, owner)
		if err != nil {
			return err
		}
		e, err := ownedExpense(ctx, tx, owner, id)
		if err != nil {
			return err
		}

		e.Category = fields.Category
		e.Amount = fields.Amount
		e.Liters = fields.Liters
		e.PricePerLiter = fields.PricePerLiter
		e.Details = fields.Details
		e.ExpenseDate = fields.ExpenseDate
		if err := tx.UpdateExpense(ctx, e); err != nil {
			return err
		}
		updated = e
		return afterCarrierExpenseChange(ctx, tx, carrier, e.ID, e)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *FleetService) DeleteExpense(ctx context.Context, session *models.Session, owner models.ExpenseOwner, id int64) error {
	return s.Store.WithinTx(ctx, func(tx repositories.FleetTx) error {
		carrier, err := loadOwner(ctx, tx, session, owner)
		if err != nil {
			return err
		}
		e, err := ownedExpense(ctx, tx, owner, id)
		if err != nil {
			return err
		}
		// mirrors reference the origin, so they go first
		mirrors, err := tx.ListMirrorsOf(ctx, []int64{e.ID})
		if err != nil {
			return err
		}
		if err := tx.DeleteExpenses(ctx, expenseIDs(mirrors)); err != nil {
			return err
		}
		if err := tx.DeleteExpenses(ctx, []int64{e.ID}); err != nil {
			return err
		}
		if carrier == nil {
			return nil
		}
		total, err := recomputeCarrierTotal(ctx, tx, carrier.ID)
		if err != nil {
			return err
		}
		carrier.TotalExpense = total
		return nil
	})
}

// ListExpenses returns the expenses attached to owner, newest first.
func (s *FleetService) ListExpenses(ctx context.Context, session *models.Session, owner models.ExpenseOwner) ([]models.Expense, error) {
	if _, err := loadOwner(ctx, s.Store, session, owner); err != nil {
		return nil, err
	}
	return s.Store.ListExpenses(ctx, owner)
}

// ExpenseSummary totals an owner's expenses per category.
func (s *FleetService) ExpenseSummary(ctx context.Context, session *models.Session, owner models.ExpenseOwner) (*models.ExpenseSummary, error) {
	expenses, err := s.ListExpenses(ctx, session, owner)
	if err != nil {
		return nil, err
	}
	return SummarizeExpenses(expenses), nil
}

func SummarizeExpenses(expenses []models.Expense) *models.ExpenseSummary {
	sum := &models.ExpenseSummary{
		Total:      decimal.Zero,
		ByCategory: map[models.ExpenseCategory]decimal.Decimal{},
	}
	for _, e := range expenses {
		sum.Count++
		sum.Total = sum.Total.Add(e.Amount)
		sum.ByCategory[e.Category] = sum.ByCategory[e.Category].Add(e.Amount)
	}
	return sum
}
