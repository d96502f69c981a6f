package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"logistics-backend/internal/apperr"
	"logistics-backend/internal/models"
	"logistics-backend/internal/repositories"
)

func (s *FleetService) CreateTruck(ctx context.Context, session *models.Session, req *models.TruckRequest) (*models.Truck, error) {
	if session == nil {
		return nil, apperr.Unauthorized("login required")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.Validation("truck name is required")
	}
	t := &models.Truck{OwnerUserID: session.UserID, Name: name, Model: strings.TrimSpace(req.Model)}
	if err := s.Store.InsertTruck(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *FleetService) GetTruck(ctx context.Context, session *models.Session, id int) (*models.Truck, error) {
	t, err := s.Store.GetTruck(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(session, t.OwnerUserID, "truck", id); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *FleetService) ListTrucks(ctx context.Context, session *models.Session) ([]models.Truck, error) {
	if session == nil {
		return []models.Truck{}, nil
	}
	return s.Store.ListTrucks(ctx, scopeFor(session))
}

func (s *FleetService) UpdateTruck(ctx context.Context, session *models.Session, id int, req *models.TruckRequest) (*models.Truck, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.Validation("truck name is required")
	}
	t, err := s.GetTruck(ctx, session, id)
	if err != nil {
		return nil, err
	}
	t.Name = name
	t.Model = strings.TrimSpace(req.Model)
	if err := s.Store.UpdateTruck(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *FleetService) ToggleTruckActive(ctx context.Context, session *models.Session, id int) (*models.Truck, error) {
	t, err := s.GetTruck(ctx, session, id)
	if err != nil {
		return nil, err
	}
	t.IsActive = !t.IsActive
	if err := s.Store.UpdateTruck(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteTruck removes the truck with its expenses, including mirrors synced
// onto it. Carriers that pointed at it lose the link.
func (s *FleetService) DeleteTruck(ctx context.Context, session *models.Session, id int) error {
	return s.Store.WithinTx(ctx, func(tx repositories.FleetTx) error {
		t, err := tx.GetTruck(ctx, id)
		if err != nil {
			return err
		}
		if err := checkOwner(session, t.OwnerUserID, "truck", id); err != nil {
			return err
		}
		removed, err := deleteOwnerExpenses(ctx, tx, models.ExpenseOwner{Kind: models.OwnerTruck, ID: id})
		if err != nil {
			return err
		}
		if err := tx.DeleteTruck(ctx, id); err != nil {
			return err
		}
		s.log.Info("truck deleted", zap.Int("id", id), zap.Int("expenses_removed", removed))
		return nil
	})
}
