// Package store provides local persistence for fetched OHLCV history.
//
// The store caches raw upstream market data so repeated computations within
// the freshness window skip the network. It never persists zones; zone
// output lives only in the response cache.
package store

import (
	"context"
	"time"

	"keylevels/internal/models"
)

// BarStore defines the interface for bar persistence.
type BarStore interface {
	// SaveBars upserts bars for a ticker/timeframe and records fetch time.
	SaveBars(ctx context.Context, ticker string, timeframe models.Timeframe, bars []models.Bar) error

	// GetBars returns stored bars in ascending time order. A zero `to`
	// means no upper bound.
	GetBars(ctx context.Context, ticker string, timeframe models.Timeframe, from, to int64) ([]models.Bar, error)

	// Freshness returns when bars for a ticker/timeframe were last saved.
	// Returns the zero time when nothing has been saved.
	Freshness(ctx context.Context, ticker string, timeframe models.Timeframe) (time.Time, error)

	// Close releases the underlying resources.
	Close() error
}
