// Package provider supplies OHLCV bar data from swappable market data sources.
package provider

import (
	"context"
	"fmt"

	"keylevels/internal/models"
)

// Provider defines the interface for market data sources. Implementations
// return bars in strictly increasing time order; the detection algorithm
// treats anything else as a precondition violation.
type Provider interface {
	Name() string
	GetBars(ctx context.Context, ticker string, timeframe models.Timeframe, lookbackDays int) ([]models.Bar, error)
}

// New instantiates a provider by name.
func New(name string, cfg Config) (Provider, error) {
	switch name {
	case "yahoo":
		return NewYahooProvider(cfg), nil
	case "synthetic":
		return NewSyntheticProvider(), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
}

// Config holds provider construction options.
type Config struct {
	Timeout  int // seconds; zero means the default
	ProxyURL string
}

// CapLookback clamps the lookback window to what the upstream source can
// actually serve for intraday timeframes.
func CapLookback(timeframe models.Timeframe, lookbackDays int) int {
	switch timeframe {
	case models.TimeframeFifteenMin:
		if lookbackDays > 60 {
			return 60
		}
	case models.TimeframeHourly, models.TimeframeFourHour:
		if lookbackDays > 730 {
			return 730
		}
	}
	return lookbackDays
}
