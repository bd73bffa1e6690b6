package keylevels

import (
	"math"

	"keylevels/internal/models"
)

// Scoring weights and normalization constants. The saturation and lookahead
// values are tunable; the defaults below are what the service ships with.
const (
	touchWeight    = 0.4
	reactionWeight = 0.3
	recencyWeight  = 0.3

	// touchSaturation is the touch count that earns a full touch score.
	touchSaturation = 5

	// reactionLookahead is how many bars after a touch are examined for the
	// price excursion away from the zone.
	reactionLookahead = 5

	// reactionSaturationATR is the excursion, in ATR multiples, that earns a
	// full reaction score within the lookahead window.
	reactionSaturationATR = 2.0

	// recencyHalfLifeBars is the number of bars over which the recency score
	// halves.
	recencyHalfLifeBars = 60.0
)

var recencyLambda = math.Ln2 / recencyHalfLifeBars

// scoreZone finalizes a zone in place: strength, confidence, and last touch
// time. All three sub-scores are pure functions of already-computed data.
func scoreZone(zone *Zone, bars []models.Bar, atr []float64) {
	lastTouch := zone.Touches[len(zone.Touches)-1]

	touch := touchScore(len(zone.Touches))
	reaction := reactionScore(zone, bars, atr)
	recency := recencyScore(len(bars) - 1 - lastTouch)

	strength := touchWeight*touch + reactionWeight*reaction + recencyWeight*recency
	zone.Strength = clamp01(strength)
	zone.Confidence = zone.Strength * 100
	zone.LastTouchTime = bars[lastTouch].Time
}

// touchScore saturates at touchSaturation touches, so heavily-touched zones
// cannot dominate purely by count. A single touch still scores above zero.
func touchScore(touches int) float64 {
	return math.Min(1.0, float64(touches)/touchSaturation)
}

// reactionScore measures how far price moved away from the zone after each
// touch, in ATR multiples, averaged across touches. Zones where price stalls
// instead of reversing score low.
func reactionScore(zone *Zone, bars []models.Bar, atr []float64) float64 {
	center := (zone.PriceLow + zone.PriceHigh) / 2

	var total float64
	var counted int
	for _, idx := range zone.Touches {
		end := idx + 1 + reactionLookahead
		if end > len(bars) {
			end = len(bars)
		}
		if idx+1 >= end {
			continue
		}

		var excursion float64
		if zone.Kind == ZoneSupport {
			// Support rejects price upward.
			best := bars[idx+1].High
			for _, b := range bars[idx+2 : end] {
				if b.High > best {
					best = b.High
				}
			}
			excursion = best - center
		} else {
			// Resistance rejects price downward.
			best := bars[idx+1].Low
			for _, b := range bars[idx+2 : end] {
				if b.Low < best {
					best = b.Low
				}
			}
			excursion = center - best
		}
		if excursion < 0 {
			excursion = 0
		}

		a := atrAt(atr, idx, bars)
		if a > 0 {
			total += math.Min(1.0, excursion/a/reactionSaturationATR)
		}
		counted++
	}

	if counted == 0 {
		return 0
	}
	return clamp01(total / float64(counted))
}

// recencyScore decays exponentially with the number of bars since the most
// recent touch; a zone touched on the final bar scores 1.0.
func recencyScore(barsSinceLastTouch int) float64 {
	if barsSinceLastTouch < 0 {
		barsSinceLastTouch = 0
	}
	return math.Exp(-recencyLambda * float64(barsSinceLastTouch))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
