package cli

import (
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// For any finite amount, FormatPrice should:
// 1. Start with $ (or -$ for negative)
// 2. Have exactly 2 decimal places
// 3. Group the integer part in threes from the right
// 4. Preserve the numeric value when parsed back
func TestPriceFormattingProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("FormatPrice produces valid grouped format", prop.ForAll(
		func(amount float64) bool {
			if math.IsNaN(amount) || math.IsInf(amount, 0) {
				return true
			}
			if math.Abs(amount) > 1e12 {
				return true
			}

			formatted := FormatPrice(amount)

			if amount >= 0 {
				if !strings.HasPrefix(formatted, "$") {
					t.Logf("expected $ prefix for %f, got %s", amount, formatted)
					return false
				}
			} else if !strings.HasPrefix(formatted, "-$") {
				t.Logf("expected -$ prefix for %f, got %s", amount, formatted)
				return false
			}

			parts := strings.Split(formatted, ".")
			if len(parts) != 2 || len(parts[1]) != 2 {
				t.Logf("expected 2 decimal places for %f, got %s", amount, formatted)
				return false
			}

			intPart := strings.TrimPrefix(strings.TrimPrefix(parts[0], "-"), "$")
			groups := strings.Split(intPart, ",")
			for i, g := range groups {
				if i == 0 {
					if len(g) < 1 || len(g) > 3 {
						t.Logf("bad leading group in %s", formatted)
						return false
					}
					continue
				}
				if len(g) != 3 {
					t.Logf("bad group %q in %s", g, formatted)
					return false
				}
			}

			numeric := strings.ReplaceAll(strings.ReplaceAll(formatted, "$", ""), ",", "")
			parsed, err := strconv.ParseFloat(numeric, 64)
			if err != nil {
				t.Logf("unparseable %s: %v", formatted, err)
				return false
			}
			if math.Abs(parsed-amount) > 0.011 {
				t.Logf("value drift: %f formatted as %s parsed %f", amount, formatted, parsed)
				return false
			}
			return true
		},
		gen.Float64Range(-1e9, 1e9),
	))

	properties.TestingRun(t)
}

// The strength bar is always exactly ten glyphs, and more strength never
// renders fewer filled cells.
func TestStrengthBarProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("bar width fixed, fill monotone", prop.ForAll(
		func(a, b float64) bool {
			barA, barB := FormatStrength(a), FormatStrength(b)
			if len([]rune(barA)) != 10 || len([]rune(barB)) != 10 {
				return false
			}
			fill := func(s string) int { return strings.Count(s, "█") }
			if a <= b && fill(barA) > fill(barB) {
				return false
			}
			return true
		},
		gen.Float64Range(0, 1),
		gen.Float64Range(0, 1),
	))

	properties.TestingRun(t)
}
