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

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// applyCarrierRequest validates req and copies it onto c.
func applyCarrierRequest(c *models.Carrier, req *models.CarrierRequest) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return apperr.Validation("carrier name is required")
	}
	tripDate := timeutil.StartOfDay(timeutil.Now())
	if strings.TrimSpace(req.TripDate) != "" {
		d, err := timeutil.ParseDate(req.TripDate)
		if err != nil {
			return apperr.Validation("invalid trip date: %v", err)
		}
		tripDate = d
	}

	total := decimal.Zero
	cars := make([]models.Car, 0, len(req.Cars))
	for i, car := range req.Cars {
		if car.Amount.IsNegative() {
			return apperr.Validation("car %d amount cannot be negative", i+1)
		}
		car.Amount = car.Amount.Round(2)
		total = total.Add(car.Amount)
		cars = append(cars, car)
	}

	c.TripNumber = strings.TrimSpace(req.TripNumber)
	c.Name = name
	c.Origin = strings.TrimSpace(req.Origin)
	c.Destination = strings.TrimSpace(req.Destination)
	c.TripDate = tripDate
	c.TruckID = req.TruckID
	c.DriverID = req.DriverID
	c.Cars = cars
	c.TotalAmount = total
	return nil
}

// checkLinks verifies that a carrier's truck and driver exist and share its owner.
func checkLinks(ctx context.Context, tx repositories.FleetTx, c *models.Carrier) error {
	if c.TruckID != nil {
		t, err := tx.GetTruck(ctx, *c.TruckID)
		if err != nil {
			return err
		}
		if t.OwnerUserID != c.OwnerUserID {
			return apperr.Validation("truck %d belongs to a different owner", t.ID)
		}
	}
	if c.DriverID != nil {
		d, err := tx.GetDriver(ctx, *c.DriverID)
		if err != nil {
			return err
		}
		if d.OwnerUserID != c.OwnerUserID {
			return apperr.Validation("driver %d belongs to a different owner", d.ID)
		}
	}
	return nil
}

func (s *FleetService) CreateCarrier(ctx context.Context, session *models.Session, req *models.CarrierRequest) (*models.Carrier, error) {
	if session == nil {
		return nil, apperr.Unauthorized("login required")
	}
	c := &models.Carrier{OwnerUserID: session.UserID}
	if err := applyCarrierRequest(c, req); err != nil {
		return nil, err
	}
	err := s.Store.WithinTx(ctx, func(tx repositories.FleetTx) error {
		if err := checkLinks(ctx, tx, c); err != nil {
			return err
		}
		return tx.InsertCarrier(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("carrier created", zap.Int("id", c.ID), zap.String("name", c.Name))
	return c, nil
}

func (s *FleetService) GetCarrier(ctx context.Context, session *models.Session, id int) (*models.Carrier, error) {
	c, err := s.Store.GetCarrier(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(session, c.OwnerUserID, "carrier", id); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *FleetService) ListCarriers(ctx context.Context, session *models.Session) ([]models.Carrier, error) {
	if session == nil {
		return []models.Carrier{}, nil
	}
	return s.Store.ListCarriers(ctx, scopeFor(session))
}

// UpdateCarrier edits the trip. When the truck or driver link changes every
// expense on the carrier is re-synced against the new targets.
func (s *FleetService) UpdateCarrier(ctx context.Context, session *models.Session, id int, req *models.CarrierRequest) (*models.Carrier, error) {
	var updated *models.Carrier
	err := s.Store.WithinTx(ctx, func(tx repositories.FleetTx) error {
		c, err := tx.GetCarrier(ctx, id)
		if err != nil {
			return err
		}
		if err := checkOwner(session, c.OwnerUserID, "carrier", id); err != nil {
			return err
		}
		prevTruck, prevDriver := c.TruckID, c.DriverID
		if err := applyCarrierRequest(c, req); err != nil {
			return err
		}
		if err := checkLinks(ctx, tx, c); err != nil {
			return err
		}
		if err := tx.UpdateCarrier(ctx, c); err != nil {
			return err
		}
		if !intPtrEqual(prevTruck, c.TruckID) || !intPtrEqual(prevDriver, c.DriverID) {
			if err := resyncCarrier(ctx, tx, c); err != nil {
				return err
			}
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *FleetService) ToggleCarrierActive(ctx context.Context, session *models.Session, id int) (*models.Carrier, error) {
	var updated *models.Carrier
	err := s.Store.WithinTx(ctx, func(tx repositories.FleetTx) error {
		c, err := tx.GetCarrier(ctx, id)
		if err != nil {
			return err
		}
		if err := checkOwner(session, c.OwnerUserID, "carrier", id); err != nil {
			return err
		}
		c.IsActive = !c.IsActive
		if err := tx.UpdateCarrier(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	return updated, err
}

// DeleteCarrier removes the carrier, its expenses and their mirrors.
func (s *FleetService) DeleteCarrier(ctx context.Context, session *models.Session, id int) error {
	return s.Store.WithinTx(ctx, func(tx repositories.FleetTx) error {
		c, err := tx.GetCarrier(ctx, id)
		if err != nil {
			return err
		}
		if err := checkOwner(session, c.OwnerUserID, "carrier", id); err != nil {
			return err
		}
		removed, err := deleteOwnerExpenses(ctx, tx, models.ExpenseOwner{Kind: models.OwnerCarrier, ID: id})
		if err != nil {
			return err
		}
		if err := tx.DeleteCarrier(ctx, id); err != nil {
			return err
		}
		s.log.Info("carrier deleted", zap.Int("id", id), zap.Int("expenses_removed", removed))
		return nil
	})
}
