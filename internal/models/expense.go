package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ExpenseCategory string

const (
	ExpenseFuel        ExpenseCategory = "fuel"
	ExpenseDriverRent  ExpenseCategory = "driver_rent"
	ExpenseTaxes       ExpenseCategory = "taxes"
	ExpenseToolTaxes   ExpenseCategory = "tool_taxes"
	ExpenseOnRoad      ExpenseCategory = "on_road"
	ExpenseMaintenance ExpenseCategory = "maintenance"
	ExpenseTyre        ExpenseCategory = "tyre"
	ExpenseOthers      ExpenseCategory = "others"
)

var ExpenseCategories = []ExpenseCategory{
	ExpenseFuel, ExpenseDriverRent, ExpenseTaxes, ExpenseToolTaxes,
	ExpenseOnRoad, ExpenseMaintenance, ExpenseTyre, ExpenseOthers,
}

func (c ExpenseCategory) Valid() bool {
	for _, known := range ExpenseCategories {
		if c == known {
			return true
		}
	}
	return false
}

// OwnerKind names which fleet record an expense hangs off.
type OwnerKind string

const (
	OwnerCarrier OwnerKind = "carrier"
	OwnerTruck   OwnerKind = "truck"
	OwnerDriver  OwnerKind = "driver"
)

type ExpenseOwner struct {
	Kind OwnerKind
	ID   int
}

// Expense belongs to exactly one of carrier, truck or driver. A non-nil
// SyncedFromExpense marks a mirror of a carrier expense.
type Expense struct {
	ID                int64               `json:"id"`
	CarrierID         *int                `json:"carrier_id,omitempty"`
	TruckID           *int                `json:"truck_id,omitempty"`
	DriverID          *int                `json:"driver_id,omitempty"`
	Category          ExpenseCategory     `json:"category"`
	Amount            decimal.Decimal     `json:"amount"`
	Liters            decimal.NullDecimal `json:"liters"`
	PricePerLiter     decimal.NullDecimal `json:"price_per_liter"`
	Details           string              `json:"details"`
	ExpenseDate       time.Time           `json:"expense_date"`
	SyncedFromExpense *int64              `json:"synced_from_expense,omitempty"`
	CreatedByUserID   *int                `json:"created_by_user_id,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

func (e *Expense) IsMirror() bool {
	return e.SyncedFromExpense != nil
}

// Owner returns the record the expense is attached to.
func (e *Expense) Owner() ExpenseOwner {
	switch {
	case e.CarrierID != nil:
		return ExpenseOwner{Kind: OwnerCarrier, ID: *e.CarrierID}
	case e.TruckID != nil:
		return ExpenseOwner{Kind: OwnerTruck, ID: *e.TruckID}
	case e.DriverID != nil:
		return ExpenseOwner{Kind: OwnerDriver, ID: *e.DriverID}
	}
	return ExpenseOwner{}
}

// BelongsTo reports whether the expense hangs off owner.
func (e *Expense) BelongsTo(owner ExpenseOwner) bool {
	return e.Owner() == owner
}

type ExpenseRequest struct {
	Category      ExpenseCategory     `json:"category"`
	Amount        decimal.Decimal     `json:"amount"`
	Liters        decimal.NullDecimal `json:"liters"`
	PricePerLiter decimal.NullDecimal `json:"price_per_liter"`
	Details       string              `json:"details"`
	ExpenseDate   string              `json:"expense_date"`
}

type ExpenseSummary struct {
	Count      int                                 `json:"count"`
	Total      decimal.Decimal                     `json:"total"`
	ByCategory map[ExpenseCategory]decimal.Decimal `json:"by_category"`
}
