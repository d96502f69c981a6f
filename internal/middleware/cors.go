package middleware

import (
	"net/http"

	"github.com/rs/cors"

	"logistics-backend/internal/config"
)

// corsOptions allows credentials only for an explicit origin list; a
// wildcard origin serves bearer-token clients without cookies.
func corsOptions(cfg *config.Config) cors.Options {
	wildcard := len(cfg.Server.CorsAllowedOrigins) == 0
	for _, o := range cfg.Server.CorsAllowedOrigins {
		if o == "*" {
			wildcard = true
		}
	}
	return cors.Options{
		AllowedOrigins:   cfg.Server.CorsAllowedOrigins,
		AllowedMethods:   cfg.Server.CorsAllowedMethods,
		AllowedHeaders:   cfg.Server.CorsAllowedHeaders,
		ExposedHeaders:   []string{"X-Request-ID", "X-Cache", "Content-Disposition"},
		AllowCredentials: !wildcard,
		MaxAge:           300,
	}
}

func NewCORS(cfg *config.Config) func(http.Handler) http.Handler {
	return cors.New(corsOptions(cfg)).Handler
}
