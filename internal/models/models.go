// Package models provides domain models for the key-level detection service.
package models

import (
	"time"
)

// Timeframe represents a supported bar interval.
type Timeframe string

const (
	TimeframeDaily      Timeframe = "1d"
	TimeframeFourHour   Timeframe = "4h"
	TimeframeHourly     Timeframe = "1h"
	TimeframeFifteenMin Timeframe = "15m"
)

// Timeframes lists all supported timeframes.
var Timeframes = []Timeframe{TimeframeDaily, TimeframeFourHour, TimeframeHourly, TimeframeFifteenMin}

// Valid reports whether the timeframe is one of the supported intervals.
func (t Timeframe) Valid() bool {
	switch t {
	case TimeframeDaily, TimeframeFourHour, TimeframeHourly, TimeframeFifteenMin:
		return true
	}
	return false
}

// Duration returns the bar interval as a time.Duration.
func (t Timeframe) Duration() time.Duration {
	switch t {
	case TimeframeDaily:
		return 24 * time.Hour
	case TimeframeFourHour:
		return 4 * time.Hour
	case TimeframeHourly:
		return time.Hour
	case TimeframeFifteenMin:
		return 15 * time.Minute
	}
	return 0
}

// DefaultLookbackDays returns the default lookback window in days for the timeframe.
func (t Timeframe) DefaultLookbackDays() int {
	switch t {
	case TimeframeDaily:
		return 365
	case TimeframeFourHour:
		return 90
	case TimeframeHourly, TimeframeFifteenMin:
		return 30
	}
	return 90
}

// Bar represents one OHLCV sample for a fixed time interval.
// Time is unix seconds; sequences of bars must be strictly increasing in Time.
type Bar struct {
	Time   int64   `json:"time" db:"time"`
	Open   float64 `json:"open" db:"open"`
	High   float64 `json:"high" db:"high"`
	Low    float64 `json:"low" db:"low"`
	Close  float64 `json:"close" db:"close"`
	Volume float64 `json:"volume" db:"volume"`
}

// Timestamp returns the bar time as a time.Time in UTC.
func (b Bar) Timestamp() time.Time {
	return time.Unix(b.Time, 0).UTC()
}
