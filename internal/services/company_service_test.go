package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logistics-backend/internal/apperr"
	"logistics-backend/internal/models"
)

type memCompanies struct {
	companies map[int]models.Company
	balances  map[string]models.CompanyBalance
}

var _ CompanyStore = (*memCompanies)(nil)

func (m *memCompanies) Create(ctx context.Context, c *models.Company) error {
	for _, existing := range m.companies {
		if existing.Name == c.Name {
			return apperr.Conflict("company %q already exists", c.Name)
		}
	}
	c.ID = len(m.companies) + 1
	m.companies[c.ID] = *c
	return nil
}

func (m *memCompanies) Get(ctx context.Context, id int) (*models.Company, error) {
	c, ok := m.companies[id]
	if !ok {
		return nil, apperr.NotFound("company %d not found", id)
	}
	return &c, nil
}

func (m *memCompanies) GetByName(ctx context.Context, name string) (*models.Company, error) {
	for _, c := range m.companies {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, apperr.NotFound("company %q not found", name)
}

func (m *memCompanies) List(ctx context.Context) ([]models.Company, error) {
	out := []models.Company{}
	for _, c := range m.companies {
		out = append(out, c)
	}
	return out, nil
}

func (m *memCompanies) Update(ctx context.Context, c *models.Company) error {
	m.companies[c.ID] = *c
	return nil
}

func (m *memCompanies) Delete(ctx context.Context, id int) error {
	if _, ok := m.companies[id]; !ok {
		return apperr.NotFound("company %d not found", id)
	}
	delete(m.companies, id)
	return nil
}

func (m *memCompanies) ListBalances(ctx context.Context) ([]models.CompanyBalance, error) {
	out := []models.CompanyBalance{}
	for _, b := range m.balances {
		out = append(out, b)
	}
	return out, nil
}

func (m *memCompanies) GetBalance(ctx context.Context, name string) (*models.CompanyBalance, error) {
	b, ok := m.balances[name]
	if !ok {
		return nil, apperr.NotFound("no balance for %q", name)
	}
	return &b, nil
}

func (m *memCompanies) SetBalance(ctx context.Context, name string, amount decimal.Decimal) (*models.CompanyBalance, error) {
	b := models.CompanyBalance{CompanyName: name, CreditBalance: amount}
	m.balances[name] = b
	return &b, nil
}

func newCompanyFixture() *CompanyService {
	return NewCompanyService(&memCompanies{
		companies: map[int]models.Company{},
		balances:  map[string]models.CompanyBalance{},
	}, testLog)
}

func TestCompanyCRUD(t *testing.T) {
	svc := newCompanyFixture()
	ctx := context.Background()

	c, err := svc.Create(ctx, &models.CompanyRequest{Name: " ACME Trading ", VATNumber: "100"})
	require.NoError(t, err)
	assert.Equal(t, "ACME Trading", c.Name)

	_, err = svc.Create(ctx, &models.CompanyRequest{Name: "ACME Trading"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	_, err = svc.Create(ctx, &models.CompanyRequest{Name: ""})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	updated, err := svc.Update(ctx, c.ID, &models.CompanyRequest{Name: "ACME Trading", Address: "Deira"})
	require.NoError(t, err)
	assert.Equal(t, "Deira", updated.Address)

	_, err = svc.Update(ctx, 42, &models.CompanyRequest{Name: "Ghost"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	require.NoError(t, svc.Delete(ctx, c.ID))
	_, err = svc.Get(ctx, c.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCompanyBalance(t *testing.T) {
	svc := newCompanyFixture()
	ctx := context.Background()

	b, err := svc.GetBalance(ctx, "ACME")
	require.NoError(t, err)
	assert.True(t, b.CreditBalance.IsZero())

	_, err = svc.SetBalance(ctx, admin, "ACME", dec("-1"))
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	b, err = svc.SetBalance(ctx, admin, "ACME", dec("200.456"))
	require.NoError(t, err)
	assert.True(t, b.CreditBalance.Equal(dec("200.46")))

	b, err = svc.GetBalance(ctx, "ACME")
	require.NoError(t, err)
	assert.True(t, b.CreditBalance.Equal(dec("200.46")))
}
