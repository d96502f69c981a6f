package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"logistics-backend/internal/apperr"
	"logistics-backend/internal/models"
	"logistics-backend/internal/repositories"
)

func (s *FleetService) CreateDriver(ctx context.Context, session *models.Session, req *models.DriverRequest) (*models.Driver, error) {
	if session == nil {
		return nil, apperr.Unauthorized("login required")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.Validation("driver name is required")
	}
	d := &models.Driver{
		OwnerUserID:   session.UserID,
		Name:          name,
		Phone:         strings.TrimSpace(req.Phone),
		LicenseNumber: strings.TrimSpace(req.LicenseNumber),
	}
	if err := s.Store.InsertDriver(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *FleetService) GetDriver(ctx context.Context, session *models.Session, id int) (*models.Driver, error) {
	d, err := s.Store.GetDriver(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(session, d.OwnerUserID, "driver", id); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *FleetService) ListDrivers(ctx context.Context, session *models.Session) ([]models.Driver, error) {
	if session == nil {
		return []models.Driver{}, nil
	}
	return s.Store.ListDrivers(ctx, scopeFor(session))
}

func (s *FleetService) UpdateDriver(ctx context.Context, session *models.Session, id int, req *models.DriverRequest) (*models.Driver, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.Validation("driver name is required")
	}
	d, err := s.GetDriver(ctx, session, id)
	if err != nil {
		return nil, err
	}
	d.Name = name
	d.Phone = strings.TrimSpace(req.Phone)
	d.LicenseNumber = strings.TrimSpace(req.LicenseNumber)
	if err := s.Store.UpdateDriver(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *FleetService) ToggleDriverActive(ctx context.Context, session *models.Session, id int) (*models.Driver, error) {
	d, err := s.GetDriver(ctx, session, id)
	if err != nil {
		return nil, err
	}
	d.IsActive = !d.IsActive
	if err := s.Store.UpdateDriver(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// DeleteDriver removes the driver with its expenses and their mirrors.
func (s *FleetService) DeleteDriver(ctx context.Context, session *models.Session, id int) error {
	return s.Store.WithinTx(ctx, func(tx repositories.FleetTx) error {
		d, err := tx.GetDriver(ctx, id)
		if err != nil {
			return err
		}
		if err := checkOwner(session, d.OwnerUserID, "driver", id); err != nil {
			return err
		}
		removed, err := deleteOwnerExpenses(ctx, tx, models.ExpenseOwner{Kind: models.OwnerDriver, ID: id})
		if err != nil {
			return err
		}
		if err := tx.DeleteDriver(ctx, id); err != nil {
			return err
		}
		s.log.Info("driver deleted", zap.Int("id", id), zap.Int("expenses_removed", removed))
		return nil
	})
}
