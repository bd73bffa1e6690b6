package api

import (
	"regexp"
	"strconv"
	"strings"

	"keylevels/internal/analysis/keylevels"
	"keylevels/internal/errors"
	"keylevels/internal/models"
)

// Validator sanitizes and validates request parameters ahead of the
// HTTP handlers.
type Validator struct {
	tickerRegex *regexp.Regexp
}

// NewValidator creates a request validator.
func NewValidator() *Validator {
	return &Validator{
		// Plain symbols plus the suffixed forms Yahoo accepts (BRK-B, BTC-USD, ^GSPC).
		tickerRegex: regexp.MustCompile(`^[\^]?[A-Z0-9]{1,10}([.\-][A-Z0-9]{1,6})?$`),
	}
}

// ValidateTicker normalizes and validates a ticker symbol.
func (v *Validator) ValidateTicker(ticker string) (string, error) {
	cleaned := strings.ToUpper(strings.TrimSpace(ticker))
	if cleaned == "" {
		return "", errors.NewValidationError("ticker", ticker, "ticker is required")
	}
	if !v.tickerRegex.MatchString(cleaned) {
		return "", errors.NewValidationError("ticker", ticker, "invalid ticker format")
	}
	return cleaned, nil
}

// ValidateTimeframe parses a timeframe, defaulting to daily when absent.
func (v *Validator) ValidateTimeframe(raw string) (models.Timeframe, error) {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	if cleaned == "" {
		return models.TimeframeDaily, nil
	}
	tf := models.Timeframe(cleaned)
	if !tf.Valid() {
		return "", errors.NewValidationError("timeframe", raw, "supported timeframes: 1d, 4h, 1h, 15m")
	}
	return tf, nil
}

// ValidateLookback parses the lookback in days, falling back to the
// timeframe default when absent.
func (v *Validator) ValidateLookback(raw string, tf models.Timeframe) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return tf.DefaultLookbackDays(), nil
	}
	days, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, errors.NewValidationError("lookback", raw, "lookback must be an integer number of days")
	}
	if days < 1 || days > 3650 {
		return 0, errors.NewValidationError("lookback", raw, "lookback must be between 1 and 3650 days")
	}
	return days, nil
}

// ValidateParams applies per-request algorithm parameter overrides on top
// of the configured defaults.
func (v *Validator) ValidateParams(defaults keylevels.Params, overrides map[string]string) (keylevels.Params, error) {
	params := defaults

	if raw, ok := overrides["pivot_window"]; ok && raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return params, errors.NewValidationError("pivot_window", raw, "must be an integer")
		}
		params.PivotWindow = n
	}
	if raw, ok := overrides["atr_period"]; ok && raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return params, errors.NewValidationError("atr_period", raw, "must be an integer")
		}
		params.ATRPeriod = n
	}
	if raw, ok := overrides["atr_multiplier"]; ok && raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return params, errors.NewValidationError("atr_multiplier", raw, "must be a number")
		}
		params.ATRMultiplier = f
	}
	if raw, ok := overrides["max_zones"]; ok && raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return params, errors.NewValidationError("max_zones", raw, "must be an integer")
		}
		params.MaxZones = n
	}

	if err := params.Validate(); err != nil {
		return params, err
	}
	return params, nil
}
