// Package api exposes the HTTP surface: market data, key levels, alert
// registration, and health. Handlers, middleware, and request validation
// live in separate files.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"keylevels/internal/analysis/keylevels"
	"keylevels/internal/models"
	"keylevels/internal/service"
)

const (
	// DefaultTimeout bounds a single request end to end.
	DefaultTimeout = 30 * time.Second

	ServiceName    = "keylevels"
	ServiceVersion = "1.0.0"

	requestIDContextKey = "request_id"
	requestIDHeaderKey  = "X-Request-ID"
)

// LevelService is the service surface the handlers depend on.
type LevelService interface {
	GetMarketData(ctx context.Context, ticker string, timeframe models.Timeframe, lookbackDays int) (*service.MarketData, error)
	GetKeyLevels(ctx context.Context, ticker string, timeframe models.Timeframe, lookbackDays int, params keylevels.Params) (*service.KeyLevels, error)
}

// Handler handles HTTP requests.
type Handler struct {
	svc       LevelService
	validator *Validator
	defaults  keylevels.Params
	logger    zerolog.Logger
}

// NewHandler creates a new API handler. The params act as defaults for
// requests that do not override algorithm parameters.
func NewHandler(svc LevelService, defaults keylevels.Params, logger zerolog.Logger) *Handler {
	return &Handler{
		svc:       svc,
		validator: NewValidator(),
		defaults:  defaults,
		logger:    logger,
	}
}

// Router configures the gin engine with all routes and middleware.
func (h *Handler) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(requestIDMiddleware())
	router.Use(loggerMiddleware(h.logger))
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	v := router.Group("/api")
	{
		v.GET("/data", h.GetData)
		v.GET("/keylevels", h.GetKeyLevels)
		v.POST("/alerts", h.CreateAlert)
	}
	router.GET("/health", h.Health)

	return router
}

// Serve runs the HTTP server until ctx is cancelled.
func (h *Handler) Serve(ctx context.Context, host string, port int) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", host, port),
		Handler: h.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
