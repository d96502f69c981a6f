package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"logistics-backend/internal/config"
	"logistics-backend/internal/models"
	"logistics-backend/internal/timeutil"
)

const (
	tokenTypeSession = "session"
	tokenType2FA     = "2fa_pending"
	tempTokenTTL     = 5 * time.Minute
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidTokenType = errors.New("invalid token type")
)

type Claims struct {
	UserID int    `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

type JWTManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewJWTManager(cfg *config.Config) *JWTManager {
	return NewJWTManagerWith(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.ExpirationHours)*time.Hour)
}

func NewJWTManagerWith(secret, issuer string, ttl time.Duration) *JWTManager {
	return &JWTManager{secret: []byte(secret), issuer: issuer, ttl: ttl}
}

// GenerateToken signs a session token for user and returns it with its expiry.
func (j *JWTManager) GenerateToken(user *models.User) (string, time.Time, error) {
	return j.sign(user, tokenTypeSession, j.ttl)
}

// GenerateTempToken issues the short-lived token exchanged for a session
// once the TOTP code is verified.
func (j *JWTManager) GenerateTempToken(user *models.User) (string, error) {
	token, _, err := j.sign(user, tokenType2FA, tempTokenTTL)
	return token, err
}

// ValidateToken verifies a session token and returns the claims.
func (j *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	return j.validate(tokenString, tokenTypeSession)
}

func (j *JWTManager) ValidateTempToken(tokenString string) (*Claims, error) {
	return j.validate(tokenString, tokenType2FA)
}

func (j *JWTManager) sign(user *models.User, typ string, ttl time.Duration) (string, time.Time, error) {
	now := timeutil.Now()
	expiresAt := now.Add(ttl)

	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    j.issuer,
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func (j *JWTManager) validate(tokenString, typ string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return j.secret, nil
	}, jwt.WithIssuer(j.issuer))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != typ {
		return nil, ErrInvalidTokenType
	}
	return claims, nil
}
