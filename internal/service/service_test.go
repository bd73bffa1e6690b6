package service

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"keylevels/internal/analysis/keylevels"
	"keylevels/internal/cache"
	"keylevels/internal/errors"
	"keylevels/internal/models"
	"keylevels/internal/provider"
)

// countingProvider wraps another provider and counts upstream calls.
type countingProvider struct {
	inner provider.Provider
	calls int64
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) GetBars(ctx context.Context, ticker string, timeframe models.Timeframe, lookbackDays int) ([]models.Bar, error) {
	atomic.AddInt64(&p.calls, 1)
	return p.inner.GetBars(ctx, ticker, timeframe, lookbackDays)
}

// emptyProvider always returns no bars.
type emptyProvider struct{}

func (emptyProvider) Name() string { return "empty" }

func (emptyProvider) GetBars(context.Context, string, models.Timeframe, int) ([]models.Bar, error) {
	return nil, nil
}

func newTestService(t *testing.T, p provider.Provider) *Service {
	t.Helper()
	return New(Options{
		Provider: p,
		Cache:    cache.NewMemoryCache(time.Minute),
		Logger:   zerolog.Nop(),
		Timeout:  5 * time.Second,
	})
}

func syntheticProvider(t *testing.T) provider.Provider {
	t.Helper()
	p, err := provider.New("synthetic", provider.Config{})
	if err != nil {
		t.Fatalf("provider.New: %v", err)
	}
	return p
}

func TestService_GetKeyLevels(t *testing.T) {
	svc := newTestService(t, syntheticProvider(t))

	result, err := svc.GetKeyLevels(context.Background(), "AAPL", models.TimeframeDaily, 365, keylevels.DefaultParams())
	if err != nil {
		t.Fatalf("GetKeyLevels: %v", err)
	}
	if result.Ticker != "AAPL" || result.Timeframe != "1d" {
		t.Errorf("unexpected identity: %s %s", result.Ticker, result.Timeframe)
	}
	if len(result.Zones) == 0 {
		t.Fatal("synthetic daily data should yield at least one zone")
	}
	for i, z := range result.Zones {
		if z.Strength < 0 || z.Strength > 1 {
			t.Errorf("zone %d strength %v out of [0,1]", i, z.Strength)
		}
		if z.Touches < 1 {
			t.Errorf("zone %d has no touches", i)
		}
		if i > 0 && result.Zones[i-1].Strength < z.Strength {
			t.Errorf("zones not sorted by strength at %d", i)
		}
	}
}

func TestService_GetKeyLevels_CacheHit(t *testing.T) {
	cp := &countingProvider{inner: syntheticProvider(t)}
	svc := newTestService(t, cp)
	ctx := context.Background()
	params := keylevels.DefaultParams()

	first, err := svc.GetKeyLevels(ctx, "MSFT", models.TimeframeHourly, 30, params)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := svc.GetKeyLevels(ctx, "MSFT", models.TimeframeHourly, 30, params)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if n := atomic.LoadInt64(&cp.calls); n != 1 {
		t.Errorf("provider called %d times, want 1", n)
	}
	if !reflect.DeepEqual(first.Zones, second.Zones) {
		t.Error("cached result differs from computed result")
	}
}

func TestService_GetKeyLevels_ParamsPartitionCache(t *testing.T) {
	cp := &countingProvider{inner: syntheticProvider(t)}
	svc := newTestService(t, cp)
	ctx := context.Background()

	a := keylevels.DefaultParams()
	b := keylevels.DefaultParams()
	b.ATRMultiplier = 0.5

	if _, err := svc.GetKeyLevels(ctx, "TSLA", models.TimeframeDaily, 90, a); err != nil {
		t.Fatalf("params a: %v", err)
	}
	if _, err := svc.GetKeyLevels(ctx, "TSLA", models.TimeframeDaily, 90, b); err != nil {
		t.Fatalf("params b: %v", err)
	}

	if n := atomic.LoadInt64(&cp.calls); n != 2 {
		t.Errorf("distinct params must not share cache entries, provider calls = %d", n)
	}
}

func TestService_GetKeyLevels_InvalidParams(t *testing.T) {
	svc := newTestService(t, syntheticProvider(t))

	params := keylevels.DefaultParams()
	params.PivotWindow = 0

	_, err := svc.GetKeyLevels(context.Background(), "AAPL", models.TimeframeDaily, 365, params)
	if err == nil {
		t.Fatal("expected validation error")
	}
	var verr *errors.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("error type = %T, want *ValidationError", err)
	}
}

func TestService_GetKeyLevels_NoData(t *testing.T) {
	svc := newTestService(t, emptyProvider{})

	_, err := svc.GetKeyLevels(context.Background(), "NOPE", models.TimeframeDaily, 365, keylevels.DefaultParams())
	if !errors.Is(err, errors.ErrDataNotFound) {
		t.Errorf("error = %v, want ErrDataNotFound", err)
	}
}

func TestService_GetMarketData(t *testing.T) {
	cp := &countingProvider{inner: syntheticProvider(t)}
	svc := newTestService(t, cp)
	ctx := context.Background()

	data, err := svc.GetMarketData(ctx, "AAPL", models.TimeframeFifteenMin, 30)
	if err != nil {
		t.Fatalf("GetMarketData: %v", err)
	}
	if len(data.Bars) == 0 {
		t.Fatal("no bars returned")
	}
	for i := 1; i < len(data.Bars); i++ {
		if data.Bars[i].Time <= data.Bars[i-1].Time {
			t.Fatalf("bars out of order at %d", i)
		}
	}

	if _, err := svc.GetMarketData(ctx, "AAPL", models.TimeframeFifteenMin, 30); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if n := atomic.LoadInt64(&cp.calls); n != 1 {
		t.Errorf("provider called %d times, want 1", n)
	}
}

func TestService_ConcurrentRequestsCoalesce(t *testing.T) {
	cp := &countingProvider{inner: syntheticProvider(t)}
	svc := newTestService(t, cp)
	params := keylevels.DefaultParams()

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.GetKeyLevels(context.Background(), "GOOG", models.TimeframeFourHour, 90, params)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent call: %v", err)
		}
	}
	// Some goroutines may hit the response cache after the first completes;
	// the upstream must still be consulted no more than once.
	if n := atomic.LoadInt64(&cp.calls); n != 1 {
		t.Errorf("provider called %d times, want 1", n)
	}
}
