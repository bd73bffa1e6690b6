package models

import (
	"testing"
	"time"
)

func TestTimeframe_Valid(t *testing.T) {
	for _, tf := range Timeframes {
		if !tf.Valid() {
			t.Errorf("%s should be valid", tf)
		}
	}
	for _, raw := range []string{"", "2h", "1w", "1D", "5m"} {
		if Timeframe(raw).Valid() {
			t.Errorf("%q should be invalid", raw)
		}
	}
}

func TestTimeframe_Duration(t *testing.T) {
	tests := []struct {
		tf   Timeframe
		want time.Duration
	}{
		{TimeframeDaily, 24 * time.Hour},
		{TimeframeFourHour, 4 * time.Hour},
		{TimeframeHourly, time.Hour},
		{TimeframeFifteenMin, 15 * time.Minute},
	}
	for _, tt := range tests {
		if got := tt.tf.Duration(); got != tt.want {
			t.Errorf("%s duration = %v, want %v", tt.tf, got, tt.want)
		}
	}
}

func TestTimeframe_DefaultLookbackDays(t *testing.T) {
	tests := []struct {
		tf   Timeframe
		want int
	}{
		{TimeframeDaily, 365},
		{TimeframeFourHour, 90},
		{TimeframeHourly, 30},
		{TimeframeFifteenMin, 30},
	}
	for _, tt := range tests {
		if got := tt.tf.DefaultLookbackDays(); got != tt.want {
			t.Errorf("%s lookback = %d, want %d", tt.tf, got, tt.want)
		}
	}
}

func TestBar_Timestamp(t *testing.T) {
	bar := Bar{Time: 1700000000}
	want := time.Unix(1700000000, 0).UTC()
	if got := bar.Timestamp(); !got.Equal(want) {
		t.Errorf("Timestamp() = %v, want %v", got, want)
	}
}
