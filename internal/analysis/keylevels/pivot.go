package keylevels

import (
	"keylevels/internal/models"
)

// DetectPivots scans the bar sequence for fractal swing highs and lows.
//
// A bar at index i is a swing high iff its high is strictly greater than the
// high of every bar within `window` positions on both sides; swing lows are
// symmetric on the low. Equal extremes within the window disqualify the
// candidate, so flat tops and bottoms never produce ambiguous pivots. Bars
// within `window` of either boundary lack context and are never pivots.
//
// Output preserves ascending index order. A sequence shorter than
// 2*window+1 yields no pivots, not an error.
func DetectPivots(bars []models.Bar, window int) []Pivot {
	n := len(bars)
	if n < 2*window+1 {
		return nil
	}

	var pivots []Pivot
	for i := window; i < n-window; i++ {
		isHigh := true
		for j := 1; j <= window; j++ {
			if bars[i].High <= bars[i-j].High || bars[i].High <= bars[i+j].High {
				isHigh = false
				break
			}
		}
		if isHigh {
			pivots = append(pivots, Pivot{Index: i, Price: bars[i].High, Kind: PivotHigh})
		}

		isLow := true
		for j := 1; j <= window; j++ {
			if bars[i].Low >= bars[i-j].Low || bars[i].Low >= bars[i+j].Low {
				isLow = false
				break
			}
		}
		if isLow {
			pivots = append(pivots, Pivot{Index: i, Price: bars[i].Low, Kind: PivotLow})
		}
	}

	return pivots
}
