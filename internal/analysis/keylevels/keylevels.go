// Package keylevels implements deterministic detection of key support and
// resistance zones from OHLCV bar data.
//
// The pipeline is a single forward pass over immutable input:
//
//  1. Detect fractal swing highs/lows (pivots)
//  2. Compute a rolling ATR series for volatility-scaled tolerance
//  3. Cluster nearby same-kind pivots into price zones
//  4. Score zones by touch count, reaction magnitude, and recency
//  5. Return the top N zones sorted by strength
//
// Identical inputs always produce identical output; results are cached and
// compared across requests, so every ordering decision uses a total order.
package keylevels

import (
	"keylevels/internal/errors"
	"keylevels/internal/models"
)

// PivotKind identifies whether a pivot is a swing high or a swing low.
type PivotKind int

const (
	PivotHigh PivotKind = iota
	PivotLow
)

func (k PivotKind) String() string {
	if k == PivotHigh {
		return "high"
	}
	return "low"
}

// Pivot is a local price extreme relative to a symmetric window of bars.
// Pivots are derived during detection and never mutated afterwards.
type Pivot struct {
	Index int
	Price float64
	Kind  PivotKind
}

// ZoneKind identifies whether a zone acts as support or resistance.
type ZoneKind string

const (
	ZoneSupport    ZoneKind = "support"
	ZoneResistance ZoneKind = "resistance"
)

// Zone is a price band formed by clustering nearby same-kind pivots.
// A zone is created during clustering, finalized during scoring, and
// never mutated after that.
type Zone struct {
	ID            string   `json:"id"`
	Kind          ZoneKind `json:"type"`
	PriceLow      float64  `json:"price_low"`
	PriceHigh     float64  `json:"price_high"`
	Touches       []int    `json:"-"`
	Strength      float64  `json:"strength"`
	Confidence    float64  `json:"confidence"`
	LastTouchTime int64    `json:"last_touch_time"`
}

// TouchCount returns the number of pivots absorbed into the zone.
func (z Zone) TouchCount() int {
	return len(z.Touches)
}

// Params holds the algorithm parameters for a single invocation.
// There is no ambient configuration: every call receives its own
// parameter set explicitly, so concurrent calls with different
// parameters never interfere.
type Params struct {
	PivotWindow   int     `json:"pivot_window" mapstructure:"pivot_window"`
	ATRPeriod     int     `json:"atr_period" mapstructure:"atr_period"`
	ATRMultiplier float64 `json:"atr_multiplier" mapstructure:"atr_multiplier"`
	MaxZones      int     `json:"max_zones" mapstructure:"max_zones"`
}

// DefaultParams returns the default algorithm parameters.
func DefaultParams() Params {
	return Params{
		PivotWindow:   3,
		ATRPeriod:     14,
		ATRMultiplier: 0.3,
		MaxZones:      6,
	}
}

// Validate checks parameter bounds before any computation runs.
func (p Params) Validate() error {
	if p.PivotWindow < 1 {
		return errors.NewValidationError("pivot_window", p.PivotWindow, "must be at least 1")
	}
	if p.ATRPeriod < 1 {
		return errors.NewValidationError("atr_period", p.ATRPeriod, "must be at least 1")
	}
	if p.ATRMultiplier <= 0 {
		return errors.NewValidationError("atr_multiplier", p.ATRMultiplier, "must be positive")
	}
	if p.MaxZones < 1 {
		return errors.NewValidationError("max_zones", p.MaxZones, "must be at least 1")
	}
	return nil
}

// Result holds the output of one detection run.
type Result struct {
	Zones  []Zone `json:"zones"`
	Params Params `json:"algorithm_params"`
}

// ValidateBars verifies the bar sequence precondition: timestamps must be
// strictly increasing with no duplicates. Violating input is rejected, not
// silently fixed.
func ValidateBars(bars []models.Bar) error {
	for i := 1; i < len(bars); i++ {
		if bars[i].Time <= bars[i-1].Time {
			return errors.NewValidationError("bars", bars[i].Time,
				"timestamps must be strictly increasing")
		}
	}
	return nil
}

// Detect runs the full pipeline and returns the top zones ranked by strength.
//
// Degenerate-but-valid inputs (empty or too-short bar sequences, no pivots)
// yield an empty zone list without error. Invalid parameters or a
// non-monotonic bar sequence are rejected before any computation.
func Detect(bars []models.Bar, params Params) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateBars(bars); err != nil {
		return nil, err
	}

	result := &Result{
		Zones:  []Zone{},
		Params: params,
	}
	if len(bars) == 0 {
		return result, nil
	}

	pivots := DetectPivots(bars, params.PivotWindow)
	if len(pivots) == 0 {
		return result, nil
	}

	atr := ATRSeries(bars, params.ATRPeriod)

	zones := clusterPivots(pivots, atr, params.ATRMultiplier, bars)
	for i := range zones {
		scoreZone(&zones[i], bars, atr)
	}

	result.Zones = selectTop(zones, params.MaxZones)
	return result, nil
}
