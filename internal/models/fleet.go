package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Car is a line item on a carrier trip.
type Car struct {
	Make   string          `json:"make"`
	Model  string          `json:"model"`
	VIN    string          `json:"vin"`
	Amount decimal.Decimal `json:"amount"`
}

// Carrier is one trip. TotalExpense is the sum of its own (non-mirrored) expenses.
type Carrier struct {
	ID           int             `json:"id"`
	OwnerUserID  int             `json:"owner_user_id"`
	TripNumber   string          `json:"trip_number"`
	Name         string          `json:"name"`
	Origin       string          `json:"origin"`
	Destination  string          `json:"destination"`
	TripDate     time.Time       `json:"trip_date"`
	TruckID      *int            `json:"truck_id,omitempty"`
	DriverID     *int            `json:"driver_id,omitempty"`
	Cars         []Car           `json:"cars"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type CarrierRequest struct {
	TripNumber  string `json:"trip_number"`
	Name        string `json:"name"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	TripDate    string `json:"trip_date"`
	TruckID     *int   `json:"truck_id"`
	DriverID    *int   `json:"driver_id"`
	Cars        []Car  `json:"cars"`
}

type Truck struct {
	ID          int       `json:"id"`
	OwnerUserID int       `json:"owner_user_id"`
	Name        string    `json:"name"` // plate or fleet number
	Model       string    `json:"model"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type TruckRequest struct {
	Name  string `json:"name"`
	Model string `json:"model"`
}

type Driver struct {
	ID            int       `json:"id"`
	OwnerUserID   int       `json:"owner_user_id"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone"`
	LicenseNumber string    `json:"license_number"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type DriverRequest struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	LicenseNumber string `json:"license_number"`
}

// FleetScope restricts fleet reads to an owner. OwnerUserID 0 means all owners.
type FleetScope struct {
	OwnerUserID int
}
