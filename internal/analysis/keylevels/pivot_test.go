package keylevels

import (
	"testing"

	"keylevels/internal/models"
)

// barsFromHL builds a bar sequence from high/low pairs with hourly spacing.
func barsFromHL(hl [][2]float64) []models.Bar {
	bars := make([]models.Bar, len(hl))
	for i, pair := range hl {
		mid := (pair[0] + pair[1]) / 2
		bars[i] = models.Bar{
			Time:   1700000000 + int64(i)*3600,
			Open:   mid,
			High:   pair[0],
			Low:    pair[1],
			Close:  mid,
			Volume: 1000,
		}
	}
	return bars
}

func pivotsOfKind(pivots []Pivot, kind PivotKind) []Pivot {
	var out []Pivot
	for _, p := range pivots {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}

func TestDetectPivots_SwingHigh(t *testing.T) {
	// Highs 1,5,2: index 1 is a swing high for window=1.
	bars := barsFromHL([][2]float64{{1, 0.5}, {5, 0.8}, {2, 0.9}})

	pivots := DetectPivots(bars, 1)
	highs := pivotsOfKind(pivots, PivotHigh)

	if len(highs) != 1 {
		t.Fatalf("expected 1 swing high, got %d", len(highs))
	}
	if highs[0].Index != 1 || highs[0].Price != 5 {
		t.Errorf("expected high pivot at index 1 price 5, got index %d price %v",
			highs[0].Index, highs[0].Price)
	}
}

func TestDetectPivots_SwingLow(t *testing.T) {
	// Lows 5,1,5: index 1 is a swing low for window=1.
	bars := barsFromHL([][2]float64{{6, 5}, {6, 1}, {7, 5}})

	pivots := DetectPivots(bars, 1)
	lows := pivotsOfKind(pivots, PivotLow)

	if len(lows) != 1 {
		t.Fatalf("expected 1 swing low, got %d", len(lows))
	}
	if lows[0].Index != 1 || lows[0].Price != 1 {
		t.Errorf("expected low pivot at index 1 price 1, got index %d price %v",
			lows[0].Index, lows[0].Price)
	}
}

func TestDetectPivots_EqualHighsDisqualify(t *testing.T) {
	// Flat top: the middle bar ties with its neighbor, so no pivot is emitted.
	bars := barsFromHL([][2]float64{{1, 0.5}, {5, 0.8}, {5, 0.9}, {1, 0.4}, {1, 0.3}})

	pivots := DetectPivots(bars, 1)
	if len(pivotsOfKind(pivots, PivotHigh)) != 0 {
		t.Errorf("equal highs within window must not produce a pivot, got %v", pivots)
	}
}

func TestDetectPivots_ShortSequence(t *testing.T) {
	bars := barsFromHL([][2]float64{{1, 0.5}, {5, 0.8}})

	if pivots := DetectPivots(bars, 1); pivots != nil {
		t.Errorf("sequence shorter than 2*window+1 must yield no pivots, got %v", pivots)
	}
}

func TestDetectPivots_BoundaryBarsExcluded(t *testing.T) {
	// The global maximum sits at index 0; boundary bars can never be pivots.
	bars := barsFromHL([][2]float64{{9, 8}, {5, 4}, {6, 5}, {4, 3}, {5, 4}})

	pivots := DetectPivots(bars, 2)
	for _, p := range pivots {
		if p.Index < 2 || p.Index > 2 {
			t.Errorf("pivot at boundary index %d", p.Index)
		}
	}
}

func TestDetectPivots_AscendingIndexOrder(t *testing.T) {
	bars := barsFromHL([][2]float64{
		{5, 4}, {8, 7}, {5, 4}, {3, 2}, {6, 5}, {9, 8}, {6, 5}, {4, 3}, {7, 6},
	})

	pivots := DetectPivots(bars, 1)
	for i := 1; i < len(pivots); i++ {
		if pivots[i].Index < pivots[i-1].Index {
			t.Fatalf("pivots out of index order: %v", pivots)
		}
	}
}

func TestDetectPivots_MonotonicSeriesHasNone(t *testing.T) {
	hl := make([][2]float64, 50)
	for i := range hl {
		base := 50.0 + float64(i)
		hl[i] = [2]float64{base + 0.5, base - 0.5}
	}
	bars := barsFromHL(hl)

	if pivots := DetectPivots(bars, 3); len(pivots) != 0 {
		t.Errorf("strictly rising series must have no pivots, got %d", len(pivots))
	}
}
