// Package cli provides the command-line interface for the key-level service.
package cli

import (
	"fmt"
	"strings"
	"time"
)

// FormatPrice formats a price in dollars with comma-grouped thousands.
func FormatPrice(price float64) string {
	negative := price < 0
	if negative {
		price = -price
	}

	str := fmt.Sprintf("%.2f", price)
	parts := strings.Split(str, ".")

	result := "$" + groupThousands(parts[0]) + "." + parts[1]
	if negative {
		result = "-" + result
	}
	return result
}

// groupThousands inserts commas every three digits from the right.
func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var b strings.Builder
	rem := n % 3
	if rem > 0 {
		b.WriteString(s[:rem])
	}
	for i := rem; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatPercent formats a percentage with an explicit sign for gains.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value)
}

// FormatVolume formats share volume in compact form.
func FormatVolume(volume float64) string {
	switch {
	case volume >= 1e9:
		return fmt.Sprintf("%.2fB", volume/1e9)
	case volume >= 1e6:
		return fmt.Sprintf("%.2fM", volume/1e6)
	case volume >= 1e3:
		return fmt.Sprintf("%.2fK", volume/1e3)
	default:
		return fmt.Sprintf("%.0f", volume)
	}
}

// FormatStrength renders a zone strength in [0,1] as a fixed-width bar.
func FormatStrength(strength float64) string {
	if strength < 0 {
		strength = 0
	}
	if strength > 1 {
		strength = 1
	}
	const width = 10
	filled := int(strength*width + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// FormatRange renders a zone price band.
func FormatRange(low, high float64) string {
	if low == high {
		return FormatPrice(low)
	}
	return FormatPrice(low) + " - " + FormatPrice(high)
}

// FormatTime formats a unix timestamp as a UTC date-time.
func FormatTime(unix int64) string {
	if unix == 0 {
		return "-"
	}
	return time.Unix(unix, 0).UTC().Format("2006-01-02 15:04")
}
