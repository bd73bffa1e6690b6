package keylevels

import (
	"sort"
)

// selectTop sorts zones by strength descending and truncates to maxZones.
//
// Equal strength breaks on touch count, then most recent touch, then lower
// price band. The tie-break chain is a total order: cached results must be
// byte-identical across identical requests.
func selectTop(zones []Zone, maxZones int) []Zone {
	sorted := make([]Zone, len(zones))
	copy(sorted, zones)

	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Strength != b.Strength {
			return a.Strength > b.Strength
		}
		if len(a.Touches) != len(b.Touches) {
			return len(a.Touches) > len(b.Touches)
		}
		if a.LastTouchTime != b.LastTouchTime {
			return a.LastTouchTime > b.LastTouchTime
		}
		return a.PriceLow < b.PriceLow
	})

	if len(sorted) > maxZones {
		sorted = sorted[:maxZones]
	}
	return sorted
}
