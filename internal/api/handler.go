package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"keylevels/internal/errors"
)

// GetData handles GET /api/data.
func (h *Handler) GetData(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()

	ticker, err := h.validator.ValidateTicker(c.Query("ticker"))
	if err != nil {
		h.badRequest(c, err)
		return
	}
	timeframe, err := h.validator.ValidateTimeframe(c.Query("timeframe"))
	if err != nil {
		h.badRequest(c, err)
		return
	}
	lookback, err := h.validator.ValidateLookback(c.Query("lookback"), timeframe)
	if err != nil {
		h.badRequest(c, err)
		return
	}

	data, err := h.svc.GetMarketData(ctx, ticker, timeframe, lookback)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, data)
}

// GetKeyLevels handles GET /api/keylevels.
func (h *Handler) GetKeyLevels(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()

	ticker, err := h.validator.ValidateTicker(c.Query("ticker"))
	if err != nil {
		h.badRequest(c, err)
		return
	}
	timeframe, err := h.validator.ValidateTimeframe(c.Query("timeframe"))
	if err != nil {
		h.badRequest(c, err)
		return
	}
	lookback, err := h.validator.ValidateLookback(c.Query("lookback"), timeframe)
	if err != nil {
		h.badRequest(c, err)
		return
	}
	params, err := h.validator.ValidateParams(h.defaults, map[string]string{
		"pivot_window":   c.Query("pivot_window"),
		"atr_period":     c.Query("atr_period"),
		"atr_multiplier": c.Query("atr_multiplier"),
		"max_zones":      c.Query("max_zones"),
	})
	if err != nil {
		h.badRequest(c, err)
		return
	}

	levels, err := h.svc.GetKeyLevels(ctx, ticker, timeframe, lookback, params)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, levels)
}

// AlertRequest is the body for POST /api/alerts.
type AlertRequest struct {
	Ticker    string  `json:"ticker" binding:"required"`
	Price     float64 `json:"price" binding:"required"`
	Direction string  `json:"direction"`
}

// CreateAlert handles POST /api/alerts. Alerts are acknowledged with an
// identifier but not monitored; price watching is out of scope here.
func (h *Handler) CreateAlert(c *gin.Context) {
	var req AlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, errors.NewValidationError("body", "", err.Error()))
		return
	}

	ticker, err := h.validator.ValidateTicker(req.Ticker)
	if err != nil {
		h.badRequest(c, err)
		return
	}
	if req.Price <= 0 {
		h.badRequest(c, errors.NewValidationError("price", "", "price must be positive"))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":         uuid.New().String(),
		"ticker":     ticker,
		"price":      req.Price,
		"direction":  req.Direction,
		"status":     "registered",
		"created_at": time.Now().UTC().Format(time.RFC3339),
	})
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"service":   ServiceName,
		"version":   ServiceVersion,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":      err.Error(),
		"request_id": c.GetString(requestIDContextKey),
	})
}

// serviceError maps service failures onto HTTP status codes.
func (h *Handler) serviceError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, errors.ErrDataNotFound):
		status = http.StatusNotFound
		message = "no data found for ticker"
	case errors.Is(err, errors.ErrUnsupportedTimeframe):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, errors.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
		message = "computation timed out"
	case errors.Is(err, errors.ErrRateLimited):
		status = http.StatusTooManyRequests
		message = "upstream rate limit hit, retry later"
	}

	var verr *errors.ValidationError
	if errors.As(err, &verr) {
		status = http.StatusBadRequest
		message = verr.Error()
	}

	h.logger.Error().
		Err(err).
		Str("request_id", c.GetString(requestIDContextKey)).
		Str("path", c.Request.URL.Path).
		Int("status", status).
		Msg("Request failed")

	c.JSON(status, gin.H{
		"error":      message,
		"request_id": c.GetString(requestIDContextKey),
	})
}
