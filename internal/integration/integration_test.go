// Package integration provides end-to-end tests across the full stack:
// provider, store, cache, service, and HTTP API.
package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"keylevels/internal/analysis/keylevels"
	"keylevels/internal/api"
	"keylevels/internal/cache"
	"keylevels/internal/models"
	"keylevels/internal/provider"
	"keylevels/internal/service"
	"keylevels/internal/store"
)

func newStack(t *testing.T) (*service.Service, *api.Handler) {
	t.Helper()

	prov, err := provider.New("synthetic", provider.Config{})
	if err != nil {
		t.Fatalf("provider: %v", err)
	}

	barStore, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "bars.db"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	t.Cleanup(func() { barStore.Close() })

	svc := service.New(service.Options{
		Provider:  prov,
		Store:     barStore,
		Cache:     cache.NewMemoryCache(time.Minute),
		Logger:    zerolog.Nop(),
		Freshness: time.Minute,
		Timeout:   30 * time.Second,
	})

	return svc, api.NewHandler(svc, keylevels.DefaultParams(), zerolog.Nop())
}

type keyLevelsResponse struct {
	Ticker    string `json:"ticker"`
	Timeframe string `json:"timeframe"`
	Lookback  int    `json:"lookback"`
	Zones     []struct {
		ID            string  `json:"id"`
		Type          string  `json:"type"`
		PriceLow      float64 `json:"price_low"`
		PriceHigh     float64 `json:"price_high"`
		Strength      float64 `json:"strength"`
		Confidence    float64 `json:"confidence"`
		Touches       int     `json:"touches"`
		LastTouchTime int64   `json:"last_touch_time"`
	} `json:"zones"`
	Params keylevels.Params `json:"algorithm_params"`
}

// TestEndToEndKeyLevels exercises the whole pipeline over HTTP: fetch,
// detect, respond, and serve the identical result again from cache.
func TestEndToEndKeyLevels(t *testing.T) {
	_, handler := newStack(t)
	router := handler.Router()

	get := func() keyLevelsResponse {
		req := httptest.NewRequest(http.MethodGet, "/api/keylevels?ticker=AAPL&timeframe=1d", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
		var resp keyLevelsResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return resp
	}

	first := get()

	if first.Ticker != "AAPL" || first.Timeframe != "1d" || first.Lookback != 365 {
		t.Errorf("identity fields: %+v", first)
	}
	if len(first.Zones) == 0 {
		t.Fatal("no zones detected on synthetic daily data")
	}
	if first.Params != keylevels.DefaultParams() {
		t.Errorf("algorithm_params = %+v", first.Params)
	}
	for i, z := range first.Zones {
		if z.Type != "support" && z.Type != "resistance" {
			t.Errorf("zone %d type = %q", i, z.Type)
		}
		if z.PriceLow > z.PriceHigh {
			t.Errorf("zone %d inverted band [%v, %v]", i, z.PriceLow, z.PriceHigh)
		}
		if z.Strength < 0 || z.Strength > 1 {
			t.Errorf("zone %d strength %v", i, z.Strength)
		}
		if z.Confidence != z.Strength*100 {
			t.Errorf("zone %d confidence %v != strength*100", i, z.Confidence)
		}
		if z.Touches < 1 || z.ID == "" || z.LastTouchTime == 0 {
			t.Errorf("zone %d incomplete: %+v", i, z)
		}
		if i > 0 && first.Zones[i-1].Strength < z.Strength {
			t.Errorf("zones not strength-descending at %d", i)
		}
	}

	second := get()
	if !reflect.DeepEqual(first, second) {
		t.Error("cached response differs from computed response")
	}
}

// TestEndToEndMarketData checks the data endpoint and that the direct
// service path agrees with the HTTP path.
func TestEndToEndMarketData(t *testing.T) {
	svc, handler := newStack(t)
	router := handler.Router()

	req := httptest.NewRequest(http.MethodGet, "/api/data?ticker=MSFT&timeframe=1h&lookback=14", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Ticker string       `json:"ticker"`
		Bars   []models.Bar `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Ticker != "MSFT" || len(resp.Bars) == 0 {
		t.Fatalf("unexpected payload: ticker=%s bars=%d", resp.Ticker, len(resp.Bars))
	}

	direct, err := svc.GetMarketData(context.Background(), "MSFT", models.TimeframeHourly, 14)
	if err != nil {
		t.Fatalf("GetMarketData: %v", err)
	}
	if !reflect.DeepEqual(direct.Bars, resp.Bars) {
		t.Error("service and HTTP payloads disagree")
	}
}

// TestDeterminismAcrossStacks runs two fully independent stacks and
// verifies identical inputs yield identical zone lists.
func TestDeterminismAcrossStacks(t *testing.T) {
	run := func() []service.ZonePayload {
		svc, _ := newStack(t)
		levels, err := svc.GetKeyLevels(context.Background(), "TSLA", models.TimeframeFourHour, 90, keylevels.DefaultParams())
		if err != nil {
			t.Fatalf("GetKeyLevels: %v", err)
		}
		return levels.Zones
	}

	if a, b := run(), run(); !reflect.DeepEqual(a, b) {
		t.Error("independent stacks produced different zones for identical input")
	}
}
