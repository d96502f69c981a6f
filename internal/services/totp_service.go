package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"image/png"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"logistics-backend/internal/apperr"
	"logistics-backend/internal/auth"
	"logistics-backend/internal/models"
)

var (
	ErrInvalidTOTPCode    = apperr.Unauthorized("invalid verification code")
	ErrNoTOTPSecret       = apperr.Validation("2FA setup has not been started")
	ErrTOTPAlreadyEnabled = apperr.Conflict("2FA is already enabled")
	ErrTOTPNotEnabled     = apperr.Validation("2FA is not enabled")
)

type TOTPService struct {
	userRepo UserStore
	issuer   string
}

func NewTOTPService(userRepo UserStore, issuer string) *TOTPService {
	return &TOTPService{userRepo: userRepo, issuer: issuer}
}

// GenerateSetup creates a new TOTP secret and QR code for a user
func (s *TOTPService) GenerateSetup(ctx context.Context, userID int) (*models.TOTPSetupResponse, error) {
	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.TOTPEnabled {
		return nil, ErrTOTPAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: user.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, err
	}

	// Store the secret (not yet enabled)
	if err := s.userRepo.SetTOTPSecret(ctx, user.ID, key.Secret()); err != nil {
		return nil, err
	}

	qrImage, err := key.Image(200, 200)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, qrImage); err != nil {
		return nil, err
	}

	return &models.TOTPSetupResponse{
		Secret:      key.Secret(),
		QRCode:      "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		Issuer:      s.issuer,
		AccountName: user.Email,
	}, nil
}

// Enable turns 2FA on once the user proves the authenticator is set up.
func (s *TOTPService) Enable(ctx context.Context, userID int, code string) error {
	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if user.TOTPEnabled {
		return ErrTOTPAlreadyEnabled
	}
	if user.TOTPSecret == "" {
		return ErrNoTOTPSecret
	}
	if !totp.Validate(code, user.TOTPSecret) {
		return ErrInvalidTOTPCode
	}
	return s.userRepo.EnableTOTP(ctx, userID)
}

// Disable requires both the password and a current code.
func (s *TOTPService) Disable(ctx context.Context, userID int, req *models.TOTPDisableRequest) error {
	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !user.TOTPEnabled {
		return ErrTOTPNotEnabled
	}
	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return apperr.Unauthorized("invalid password")
	}
	if !totp.Validate(req.Code, user.TOTPSecret) {
		return ErrInvalidTOTPCode
	}
	return s.userRepo.DisableTOTP(ctx, userID)
}

// Check validates a login code for a user with 2FA enabled.
func (s *TOTPService) Check(user *models.User, code string) bool {
	return user.TOTPEnabled && user.TOTPSecret != "" && totp.Validate(code, user.TOTPSecret)
}
