package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"logistics-backend/internal/apperr"
	"logistics-backend/internal/auth"
	"logistics-backend/internal/models"
)

// UserStore is the persistence the user service needs.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	Get(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, u *models.User) error
	SetActive(ctx context.Context, userID int, isActive bool) error
	SetTOTPSecret(ctx context.Context, userID int, secret string) error
	EnableTOTP(ctx context.Context, userID int) error
	DisableTOTP(ctx context.Context, userID int) error
}

var errBadCredentials = apperr.Unauthorized("invalid email or password")

type UserService struct {
	Repo       UserStore
	JWTManager *auth.JWTManager
	TOTP       *TOTPService
	log        *zap.Logger
}

func NewUserService(repo UserStore, jwtManager *auth.JWTManager, totpService *TOTPService, log *zap.Logger) *UserService {
	return &UserService{
		Repo:       repo,
		JWTManager: jwtManager,
		TOTP:       totpService,
		log:        log.Named("users"),
	}
}

// Login checks credentials. When the user has 2FA enabled the result carries
// a temp token instead of a session.
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, *models.LoginStep1Response, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return nil, nil, apperr.Validation("email and password are required")
	}

	user, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, nil, errBadCredentials
		}
		return nil, nil, err
	}
	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		s.log.Warn("login failed", zap.String("email", email))
		return nil, nil, errBadCredentials
	}
	if !user.IsActive {
		return nil, nil, apperr.Forbidden("account is deactivated")
	}

	if user.TOTPEnabled {
		temp, err := s.JWTManager.GenerateTempToken(user)
		if err != nil {
			return nil, nil, err
		}
		return nil, &models.LoginStep1Response{
			Requires2FA: true,
			TempToken:   temp,
			Message:     "enter the code from your authenticator app",
		}, nil
	}

	resp, err := s.issue(user)
	if err != nil {
		return nil, nil, err
	}
	s.log.Info("login", zap.Int("user_id", user.ID), zap.String("role", user.Role))
	return resp, nil, nil
}

// VerifyTwoFactor completes a login started with a 2FA-enabled account.
func (s *UserService) VerifyTwoFactor(ctx context.Context, req *models.TOTPVerifyRequest) (*models.AuthResponse, error) {
	claims, err := s.JWTManager.ValidateTempToken(req.TempToken)
	if err != nil {
		return nil, apperr.Unauthorized("verification expired, log in again")
	}
	user, err := s.Repo.Get(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperr.Forbidden("account is deactivated")
	}
	if !s.TOTP.Check(user, req.Code) {
		return nil, ErrInvalidTOTPCode
	}
	return s.issue(user)
}

func (s *UserService) issue(user *models.User) (*models.AuthResponse, error) {
	token, expiresAt, err := s.JWTManager.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Authenticate turns a bearer token into a session. Role and active state are
// read from the database, not from the token.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.Session, error) {
	claims, err := s.JWTManager.ValidateToken(token)
	if err != nil {
		return nil, apperr.Unauthorized("invalid or expired token")
	}
	user, err := s.Repo.Get(ctx, claims.UserID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Unauthorized("invalid or expired token")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperr.Unauthorized("account is deactivated")
	}
	return &models.Session{UserID: user.ID, Username: user.Name, Email: user.Email, Role: user.Role}, nil
}

func validateUserFields(name, email, role string) error {
	if strings.TrimSpace(name) == "" {
		return apperr.Validation("name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apperr.Validation("invalid email address")
	}
	if !models.ValidRole(role) {
		return apperr.Validation("unknown role %q", role)
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := auth.HashPassword(password)
	if errors.Is(err, auth.ErrPasswordTooShort) {
		return "", apperr.Validation("%s", err.Error())
	}
	return hash, err
}

func (s *UserService) CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	if req.Role == "" {
		req.Role = models.RoleUser
	}
	email := strings.TrimSpace(req.Email)
	if err := validateUserFields(req.Name, email, req.Role); err != nil {
		return nil, err
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         req.Role,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user created", zap.Int("user_id", u.ID), zap.String("role", u.Role))
	return u, nil
}

func (s *UserService) GetUser(ctx context.Context, id int) (*models.User, error) {
	return s.Repo.Get(ctx, id)
}

// ListUsers returns all users
func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.Repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []*models.User{}
	}
	return users, nil
}

// UpdateUser changes name, email and role, and resets the password when one is given.
func (s *UserService) UpdateUser(ctx context.Context, id int, req *models.UpdateUserRequest) (*models.User, error) {
	u, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Role == "" {
		req.Role = u.Role
	}
	email := strings.TrimSpace(req.Email)
	if err := validateUserFields(req.Name, email, req.Role); err != nil {
		return nil, err
	}
	u.Name = strings.TrimSpace(req.Name)
	u.Email = email
	u.Role = req.Role
	if req.Password != "" {
		if u.PasswordHash, err = hashPassword(req.Password); err != nil {
			return nil, err
		}
	}
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ToggleActive flips is_active. Admins cannot deactivate themselves.
func (s *UserService) ToggleActive(ctx context.Context, session *models.Session, id int) (*models.User, error) {
	if session != nil && session.UserID == id {
		return nil, apperr.Validation("you cannot deactivate your own account")
	}
	u, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	u.IsActive = !u.IsActive
	if err := s.Repo.SetActive(ctx, id, u.IsActive); err != nil {
		return nil, err
	}
	s.log.Info("user active toggled", zap.Int("user_id", id), zap.Bool("is_active", u.IsActive))
	return u, nil
}

// EnsureAdmin creates the bootstrap admin when the user table is empty.
// It returns false when users already exist or no credentials are configured.
func (s *UserService) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	n, err := s.Repo.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if email == "" || password == "" {
		s.log.Warn("no users exist and no bootstrap admin is configured")
		return false, nil
	}
	_, err = s.CreateUser(ctx, &models.CreateUserRequest{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     models.RoleAdmin,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
