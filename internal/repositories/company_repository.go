package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"logistics-backend/internal/models"
)

type CompanyRepository struct {
	DB *pgxpool.Pool
}

func NewCompanyRepository(db *pgxpool.Pool) *CompanyRepository {
	return &CompanyRepository{DB: db}
}

const companyColumns = `id, name, address, vat_number, phone, email, created_at, updated_at`

func scanCompany(row pgx.Row) (*models.Company, error) {
	var c models.Company
	if err := row.Scan(&c.ID, &c.Name, &c.Address, &c.VATNumber, &c.Phone, &c.Email, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CompanyRepository) Create(ctx context.Context, c *models.Company) error {
	err := r.DB.QueryRow(ctx,
		`INSERT INTO companies(name, address, vat_number, phone, email)
		 VALUES($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`,
		c.Name, c.Address, c.VATNumber, c.Phone, c.Email,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return mapError(err, "company %q", c.Name)
}

func (r *CompanyRepository) Get(ctx context.Context, id int) (*models.Company, error) {
	c, err := scanCompany(r.DB.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id=$1`, id))
	if err != nil {
		return nil, readError(err, "company %d", id)
	}
	return c, nil
}

func (r *CompanyRepository) GetByName(ctx context.Context, name string) (*models.Company, error) {
	c, err := scanCompany(r.DB.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE name=$1`, name))
	if err != nil {
		return nil, readError(err, "company %q", name)
	}
	return c, nil
}

func (r *CompanyRepository) List(ctx context.Context) ([]models.Company, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+companyColumns+` FROM companies ORDER BY name`)
	if err != nil {
		return nil, readError(err, "companies")
	}
	defer rows.Close()

	companies := []models.Company{}
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, readError(err, "companies")
		}
		companies = append(companies, *c)
	}
	return companies, readError(rows.Err(), "companies")
}

func (r *CompanyRepository) Update(ctx context.Context, c *models.Company) error {
	err := r.DB.QueryRow(ctx,
		`UPDATE companies SET name=$2, address=$3, vat_number=$4, phone=$5, email=$6, updated_at=NOW()
		 WHERE id=$1 RETURNING created_at, updated_at`,
		c.ID, c.Name, c.Address, c.VATNumber, c.Phone, c.Email,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	return mapError(err, "company %q", c.Name)
}

func (r *CompanyRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM companies WHERE id=$1`, id)
	if err != nil {
		return mapError(err, "company %d", id)
	}
	if tag.RowsAffected() == 0 {
		return mapError(pgx.ErrNoRows, "company %d", id)
	}
	return nil
}

// ListBalances returns every company credit balance.
func (r *CompanyRepository) ListBalances(ctx context.Context) ([]models.CompanyBalance, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT company_name, credit_balance, updated_at FROM company_balances ORDER BY company_name`)
	if err != nil {
		return nil, readError(err, "company balances")
	}
	defer rows.Close()

	balances := []models.CompanyBalance{}
	for rows.Next() {
		var b models.CompanyBalance
		if err := rows.Scan(&b.CompanyName, &b.CreditBalance, &b.UpdatedAt); err != nil {
			return nil, readError(err, "company balances")
		}
		balances = append(balances, b)
	}
	return balances, readError(rows.Err(), "company balances")
}

func (r *CompanyRepository) GetBalance(ctx context.Context, name string) (*models.CompanyBalance, error) {
	b := models.CompanyBalance{CompanyName: name}
	err := r.DB.QueryRow(ctx,
		`SELECT credit_balance, updated_at FROM company_balances WHERE company_name=$1`, name,
	).Scan(&b.CreditBalance, &b.UpdatedAt)
	if err != nil {
		return nil, readError(err, "balance for company %q", name)
	}
	return &b, nil
}

// SetBalance overwrites a company's credit balance, creating the row if needed.
func (r *CompanyRepository) SetBalance(ctx context.Context, name string, amount decimal.Decimal) (*models.CompanyBalance, error) {
	b := models.CompanyBalance{CompanyName: name}
	err := r.DB.QueryRow(ctx,
		`INSERT INTO company_balances(company_name, credit_balance) VALUES($1, $2)
		 ON CONFLICT (company_name) DO UPDATE SET credit_balance=EXCLUDED.credit_balance, updated_at=NOW()
		 RETURNING credit_balance, updated_at`,
		name, amount,
	).Scan(&b.CreditBalance, &b.UpdatedAt)
	if err != nil {
		return nil, mapError(err, "balance for company %q", name)
	}
	return &b, nil
}

// addCredit increments a company's credit balance inside tx.
func addCredit(ctx context.Context, db DBTX, name string, amount decimal.Decimal) error {
	_, err := db.Exec(ctx,
		`INSERT INTO company_balances(company_name, credit_balance) VALUES($1, $2)
		 ON CONFLICT (company_name) DO UPDATE
		 SET credit_balance = company_balances.credit_balance + EXCLUDED.credit_balance, updated_at=NOW()`,
		name, amount)
	return err
}
