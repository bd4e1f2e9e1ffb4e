package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"

	"github.com/finleap/scf-onboarding-backend/pkg/config"
)

var defaultCORSOrigins = []string{
	"http://localhost:3000", // local dev dashboards
}

// CORS returns middleware that applies the portal's allowed origin policy.
// Origins come from config as a comma-separated list; local dev is the
// fallback when nothing is configured.
func CORS(cfg config.PortalConfig) func(http.Handler) http.Handler {
	origins := defaultCORSOrigins
	if raw := strings.TrimSpace(cfg.AllowedOrigins); raw != "" {
		origins = nil
		for _, part := range strings.Split(raw, ",") {
			if origin := strings.TrimSpace(part); origin != "" {
				origins = append(origins, origin)
			}
		}
	}

	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
