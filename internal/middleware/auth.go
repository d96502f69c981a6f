package middleware

import (
	"context"
	"net/http"
	"strings"

	"logistics-backend/internal/apperr"
	"logistics-backend/internal/models"
	"logistics-backend/pkg/utils"
)

type contextKey string

const sessionKey contextKey = "session"

// Authenticator resolves a bearer token to the caller's current session.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Session, error)
}

type AuthMiddleware struct {
	auth Authenticator
}

func NewAuthMiddleware(auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// WithSession stores s in ctx. Exposed for handler tests.
func WithSession(ctx context.Context, s *models.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFromContext returns the authenticated session or nil.
func SessionFromContext(ctx context.Context) *models.Session {
	s, _ := ctx.Value(sessionKey).(*models.Session)
	return s
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	// Extract token from "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Authenticate rejects requests without a valid token.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			utils.Error(w, http.StatusUnauthorized, "authorization header required")
			return
		}
		session, err := m.auth.Authenticate(r.Context(), token)
		if err != nil {
			utils.WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

// OptionalAuth attaches a session when a valid token is present and
// otherwise lets the request through without one.
func (m *AuthMiddleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token, ok := bearerToken(r); ok {
			if session, err := m.auth.Authenticate(r.Context(), token); err == nil {
				r = r.WithContext(WithSession(r.Context(), session))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole authenticates and then checks the role read from the database.
func (m *AuthMiddleware) RequireRole(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := SessionFromContext(r.Context())
			for _, role := range allowedRoles {
				if session.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			utils.WriteError(w, apperr.Forbidden("insufficient permissions"))
		}))
	}
}
