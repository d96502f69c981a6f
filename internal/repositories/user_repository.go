package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"logistics-backend/internal/models"
)

type UserRepository struct {
	DB *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{DB: db}
}

const userColumns = `id, name, email, password_hash, role, is_active, totp_secret, totp_enabled, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive,
		&u.TOTPSecret, &u.TOTPEnabled, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	err := r.DB.QueryRow(ctx,
		`INSERT INTO users(name, email, password_hash, role, is_active)
		 VALUES($1, $2, $3, $4, TRUE)
		 RETURNING id, is_active, created_at, updated_at`,
		u.Name, u.Email, u.PasswordHash, u.Role,
	).Scan(&u.ID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return mapError(err, "user %s", u.Email)
}

func (r *UserRepository) Get(ctx context.Context, id int) (*models.User, error) {
	u, err := scanUser(r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
	if err != nil {
		return nil, readError(err, "user %d", id)
	}
	return u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email)=LOWER($1)`, email))
	if err != nil {
		return nil, readError(err, "user %s", email)
	}
	return u, nil
}

// List returns all users
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, readError(err, "users")
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, readError(err, "users")
		}
		users = append(users, u)
	}
	return users, readError(rows.Err(), "users")
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, readError(err, "users")
}

// Update writes name, email, role and password hash.
func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	err := r.DB.QueryRow(ctx,
		`UPDATE users SET name=$2, email=$3, role=$4, password_hash=$5, updated_at=NOW()
		 WHERE id=$1 RETURNING updated_at`,
		u.ID, u.Name, u.Email, u.Role, u.PasswordHash,
	).Scan(&u.UpdatedAt)
	return mapError(err, "user %d", u.ID)
}

func (r *UserRepository) SetActive(ctx context.Context, userID int, isActive bool) error {
	tag, err := r.DB.Exec(ctx, `UPDATE users SET is_active=$2, updated_at=NOW() WHERE id=$1`, userID, isActive)
	if err != nil {
		return mapError(err, "user %d", userID)
	}
	if tag.RowsAffected() == 0 {
		return mapError(pgx.ErrNoRows, "user %d", userID)
	}
	return nil
}

// SetTOTPSecret stores a pending secret; 2FA stays off until EnableTOTP.
func (r *UserRepository) SetTOTPSecret(ctx context.Context, userID int, secret string) error {
	_, err := r.DB.Exec(ctx, `UPDATE users SET totp_secret=$2, totp_enabled=FALSE, updated_at=NOW() WHERE id=$1`, userID, secret)
	return mapError(err, "user %d", userID)
}

func (r *UserRepository) EnableTOTP(ctx context.Context, userID int) error {
	_, err := r.DB.Exec(ctx, `UPDATE users SET totp_enabled=TRUE, updated_at=NOW() WHERE id=$1`, userID)
	return mapError(err, "user %d", userID)
}

func (r *UserRepository) DisableTOTP(ctx context.Context, userID int) error {
	_, err := r.DB.Exec(ctx, `UPDATE users SET totp_enabled=FALSE, totp_secret='', updated_at=NOW() WHERE id=$1`, userID)
	return mapError(err, "user %d", userID)
}
