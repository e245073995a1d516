package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	portssvc "github.com/SscSPs/bookkeeping_core/internal/core/ports/services"
	"github.com/SscSPs/bookkeeping_core/internal/middleware"
	"github.com/SscSPs/bookkeeping_core/internal/platform/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the Gin engine serving the bookkeeping API.
func NewRouter(cfg *config.Config, logger *slog.Logger, services *portssvc.ServiceContainer) (*gin.Engine, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required to serve the API")
	}
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	if err := r.SetTrustedProxies(nil); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSAllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowHeaders:     []string{"Authorization", "Content-Type"},
			ExposeHeaders:    []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	ipLimiter, err := middleware.NewIPRateLimiter(cfg.RateLimit)
	if err != nil {
		return nil, err
	}

	v1 := r.Group("/api/v1", middleware.RateLimit(ipLimiter), middleware.AuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer))
	registerAccountRoutes(v1, services.Account)
	registerJournalRoutes(v1, services.Journal)
	registerDocumentRoutes(v1, services.Invoice, services.Payment)
	registerClearingRoutes(v1, services.Clearing)
	registerReportingRoutes(v1, services.Reporting)

	return r, nil
}
