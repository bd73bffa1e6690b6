package cli

import (
	"testing"
)

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{182.5, "$182.50"},
		{1234.56, "$1,234.56"},
		{1234567.891, "$1,234,567.89"},
		{-42.1, "-$42.10"},
		{999, "$999.00"},
		{1000, "$1,000.00"},
	}

	for _, tt := range tests {
		if got := FormatPrice(tt.in); got != tt.want {
			t.Errorf("FormatPrice(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1.234, "+1.23%"},
		{-2.5, "-2.50%"},
		{0, "0.00%"},
	}

	for _, tt := range tests {
		if got := FormatPercent(tt.in); got != tt.want {
			t.Errorf("FormatPercent(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatVolume(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{500, "500"},
		{1500, "1.50K"},
		{2500000, "2.50M"},
		{1200000000, "1.20B"},
	}

	for _, tt := range tests {
		if got := FormatVolume(tt.in); got != tt.want {
			t.Errorf("FormatVolume(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatStrength(t *testing.T) {
	if got := FormatStrength(0); got != "░░░░░░░░░░" {
		t.Errorf("FormatStrength(0) = %q", got)
	}
	if got := FormatStrength(1); got != "██████████" {
		t.Errorf("FormatStrength(1) = %q", got)
	}
	if got := FormatStrength(0.5); got != "█████░░░░░" {
		t.Errorf("FormatStrength(0.5) = %q", got)
	}
	// Out-of-range values clamp instead of panicking.
	if got := FormatStrength(1.7); got != "██████████" {
		t.Errorf("FormatStrength(1.7) = %q", got)
	}
	if got := FormatStrength(-0.3); got != "░░░░░░░░░░" {
		t.Errorf("FormatStrength(-0.3) = %q", got)
	}
}

func TestFormatTime(t *testing.T) {
	if got := FormatTime(0); got != "-" {
		t.Errorf("FormatTime(0) = %q", got)
	}
	if got := FormatTime(1700000000); got != "2023-11-14 22:13" {
		t.Errorf("FormatTime(1700000000) = %q", got)
	}
}

func TestFormatRange(t *testing.T) {
	if got := FormatRange(100, 100); got != "$100.00" {
		t.Errorf("degenerate band: %q", got)
	}
	if got := FormatRange(99.5, 101.25); got != "$99.50 - $101.25" {
		t.Errorf("band: %q", got)
	}
}
