package services

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"logistics-backend/internal/apperr"
	"logistics-backend/internal/models"
)

type CompanyStore interface {
	Create(ctx context.Context, c *models.Company) error
	Get(ctx context.Context, id int) (*models.Company, error)
	GetByName(ctx context.Context, name string) (*models.Company, error)
	List(ctx context.Context) ([]models.Company, error)
	Update(ctx context.Context, c *models.Company) error
	Delete(ctx context.Context, id int) error
	ListBalances(ctx context.Context) ([]models.CompanyBalance, error)
	GetBalance(ctx context.Context, name string) (*models.CompanyBalance, error)
	SetBalance(ctx context.Context, name string, amount decimal.Decimal) (*models.CompanyBalance, error)
}

type CompanyService struct {
	Repo CompanyStore
	log  *zap.Logger
}

func NewCompanyService(repo CompanyStore, log *zap.Logger) *CompanyService {
	return &CompanyService{Repo: repo, log: log.Named("companies")}
}

func companyFromRequest(req *models.CompanyRequest) (*models.Company, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.Validation("company name is required")
	}
	return &models.Company{
		Name:      name,
		Address:   strings.TrimSpace(req.Address),
		VATNumber: strings.TrimSpace(req.VATNumber),
		Phone:     strings.TrimSpace(req.Phone),
		Email:     strings.TrimSpace(req.Email),
	}, nil
}

func (s *CompanyService) Create(ctx context.Context, req *models.CompanyRequest) (*models.Company, error) {
	c, err := companyFromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CompanyService) Get(ctx context.Context, id int) (*models.Company, error) {
	return s.Repo.Get(ctx, id)
}

func (s *CompanyService) List(ctx context.Context) ([]models.Company, error) {
	return s.Repo.List(ctx)
}

func (s *CompanyService) Update(ctx context.Context, id int, req *models.CompanyRequest) (*models.Company, error) {
	if _, err := s.Repo.Get(ctx, id); err != nil {
		return nil, err
	}
	c, err := companyFromRequest(req)
	if err != nil {
		return nil, err
	}
	c.ID = id
	if err := s.Repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CompanyService) Delete(ctx context.Context, id int) error {
	return s.Repo.Delete(ctx, id)
}

func (s *CompanyService) ListBalances(ctx context.Context) ([]models.CompanyBalance, error) {
	return s.Repo.ListBalances(ctx)
}

// GetBalance returns a zero balance for a company that never had credit.
func (s *CompanyService) GetBalance(ctx context.Context, name string) (*models.CompanyBalance, error) {
	b, err := s.Repo.GetBalance(ctx, name)
	if apperr.Is(err, apperr.KindNotFound) {
		return &models.CompanyBalance{CompanyName: name, CreditBalance: decimal.Zero}, nil
	}
	return b, err
}

// SetBalance overwrites the credit balance. Admin only.
func (s *CompanyService) SetBalance(ctx context.Context, session *models.Session, name string, amount decimal.Decimal) (*models.CompanyBalance, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("company name is required")
	}
	if amount.IsNegative() {
		return nil, apperr.Validation("credit balance cannot be negative")
	}
	b, err := s.Repo.SetBalance(ctx, name, amount.Round(2))
	if err != nil {
		return nil, err
	}
	by := 0
	if session != nil {
		by = session.UserID
	}
	s.log.Info("company credit balance set",
		zap.String("company", name), zap.String("balance", b.CreditBalance.StringFixed(2)), zap.Int("by", by))
	return b, nil
}
