package keylevels

import (
	"math"

	"keylevels/internal/models"
)

// ATRSmoothing identifies the smoothing method used for the ATR series.
type ATRSmoothing string

// ATRSmoothingSMA is the smoothing method in use: a simple moving average of
// true range over the trailing period. Wilder's exponential smoothing would
// produce materially different tolerance values; the rolling mean matches the
// values this service has always cached and compared against.
const ATRSmoothingSMA ATRSmoothing = "sma"

// ATRSeries computes a rolling Average True Range aligned to bars.
//
// True range for bar i>0 is max(high-low, |high-prevClose|, |low-prevClose|);
// bar 0 uses high-low. The ATR at index i >= period is the simple moving
// average of true range over the trailing period bars ending at i. Entries
// before index period are undefined and returned as NaN; use atrAt to read
// the series with forward-fill at the boundary.
func ATRSeries(bars []models.Bar, period int) []float64 {
	n := len(bars)
	if n == 0 {
		return nil
	}

	tr := make([]float64, n)
	tr[0] = bars[0].High - bars[0].Low
	for i := 1; i < n; i++ {
		tr[i] = trueRange(bars[i], bars[i-1])
	}

	atr := make([]float64, n)
	for i := range atr {
		atr[i] = math.NaN()
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += tr[i]
		if i >= period {
			sum -= tr[i-period]
			atr[i] = sum / float64(period)
		}
	}

	return atr
}

// atrAt reads the ATR series at idx, forward-filling undefined leading
// entries from the earliest defined value. When the series is too short to
// contain any defined entry, it falls back to the mean bar range, so a short
// series degrades gracefully instead of crashing or zeroing the tolerance.
func atrAt(atr []float64, idx int, bars []models.Bar) float64 {
	if idx >= 0 && idx < len(atr) && !math.IsNaN(atr[idx]) {
		return atr[idx]
	}
	for _, v := range atr {
		if !math.IsNaN(v) {
			return v
		}
	}
	return meanRange(bars)
}

// meanRange returns the average high-low range across all bars.
func meanRange(bars []models.Bar) float64 {
	if len(bars) == 0 {
		return 0
	}
	var sum float64
	for _, b := range bars {
		sum += b.High - b.Low
	}
	return sum / float64(len(bars))
}

// trueRange calculates the true range for a bar given its predecessor.
func trueRange(current, previous models.Bar) float64 {
	highLow := current.High - current.Low
	highClose := math.Abs(current.High - previous.Close)
	lowClose := math.Abs(current.Low - previous.Close)
	return math.Max(highLow, math.Max(highClose, lowClose))
}
