package api

import (
	"net/http"
	"time"

	assistantapi "github.com/futig/traffic-law-assistant/internal/api/assistant"
	"github.com/futig/traffic-law-assistant/internal/api/docs"
	"github.com/futig/traffic-law-assistant/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type RouterConfig struct {
	RequestTimeout time.Duration
	AllowedOrigins []string
}

// SetupRouter creates and configures the HTTP router
func SetupRouter(assistantHandler *assistantapi.Handler, cfg RouterConfig, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.Recoverer)                   // Recover from panics
	r.Use(chimiddleware.RequestID)                   // Add request ID
	r.Use(middleware.Logger(logger))                 // Log requests
	r.Use(middleware.CORS(cfg.AllowedOrigins))       // Handle CORS
	r.Use(chimiddleware.Timeout(cfg.RequestTimeout)) // Test generation is slow

	// Swagger documentation endpoints
	docs.RegisterRoutes(r)

	// Register routes
	assistantapi.RegisterRoutes(r, assistantHandler)

	return r
}
