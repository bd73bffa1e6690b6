package keylevels

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"

	"keylevels/internal/models"
)

// clusterPivots merges nearby same-kind pivots into contiguous price bands.
//
// Highs and lows are clustered independently and never share a zone. Within
// each kind the sweep runs in ascending price order with a volatility-scaled
// tolerance, so merge decisions depend only on local price distance and never
// on the order pivots were discovered in time. A single-pivot cluster is
// still a valid zone of zero width.
func clusterPivots(pivots []Pivot, atr []float64, multiplier float64, bars []models.Bar) []Zone {
	var highs, lows []Pivot
	for _, p := range pivots {
		if p.Kind == PivotHigh {
			highs = append(highs, p)
		} else {
			lows = append(lows, p)
		}
	}

	zones := clusterKind(highs, ZoneResistance, atr, multiplier, bars)
	zones = append(zones, clusterKind(lows, ZoneSupport, atr, multiplier, bars)...)
	return zones
}

// clusterKind performs the price-sorted sweep for one pivot kind.
func clusterKind(pivots []Pivot, kind ZoneKind, atr []float64, multiplier float64, bars []models.Bar) []Zone {
	if len(pivots) == 0 {
		return nil
	}

	sorted := make([]Pivot, len(pivots))
	copy(sorted, pivots)
	// Price ascending; equal prices break on bar index for a total order.
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Price != sorted[j].Price {
			return sorted[i].Price < sorted[j].Price
		}
		return sorted[i].Index < sorted[j].Index
	})

	var zones []Zone
	cluster := []Pivot{sorted[0]}
	priceHigh := sorted[0].Price

	for _, p := range sorted[1:] {
		tolerance := multiplier * atrAt(atr, p.Index, bars)
		if p.Price-priceHigh <= tolerance {
			cluster = append(cluster, p)
			priceHigh = p.Price
		} else {
			zones = append(zones, newZone(cluster, kind))
			cluster = []Pivot{p}
			priceHigh = p.Price
		}
	}
	zones = append(zones, newZone(cluster, kind))

	return zones
}

// newZone closes a cluster into an unscored zone. Members arrive in price
// order, so the band spans the first and last member; touches are reordered
// by bar index so the sequence reads chronologically.
func newZone(cluster []Pivot, kind ZoneKind) Zone {
	priceLow := cluster[0].Price
	priceHigh := cluster[len(cluster)-1].Price

	touches := make([]int, len(cluster))
	for i, p := range cluster {
		touches[i] = p.Index
	}
	sort.Ints(touches)

	return Zone{
		ID:        zoneID(kind, priceLow, priceHigh, touches[0]),
		Kind:      kind,
		PriceLow:  priceLow,
		PriceHigh: priceHigh,
		Touches:   touches,
	}
}

// zoneID derives a stable identifier from the zone's defining fields, so the
// same zone keeps the same ID across identical computations.
func zoneID(kind ZoneKind, priceLow, priceHigh float64, firstTouch int) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s_%.4f_%.4f_%d", kind, priceLow, priceHigh, firstTouch)))
	return hex.EncodeToString(sum[:])[:12]
}
