// Package service orchestrates market data retrieval, key-level computation,
// and response caching.
package service

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"keylevels/internal/analysis/keylevels"
	"keylevels/internal/cache"
	"keylevels/internal/errors"
	"keylevels/internal/models"
	"keylevels/internal/provider"
	"keylevels/internal/store"
)

// Service exposes the two operations the API surface needs: raw market data
// and computed key levels. Both are cached per request key; identical
// concurrent requests coalesce into a single computation.
type Service struct {
	provider  provider.Provider
	store     store.BarStore // may be nil; bar caching is optional
	cache     cache.Cache
	flight    *cache.Coalescer
	logger    zerolog.Logger
	ttl       time.Duration
	freshness time.Duration
	timeout   time.Duration
}

// Options holds Service construction options.
type Options struct {
	Provider  provider.Provider
	Store     store.BarStore
	Cache     cache.Cache
	Logger    zerolog.Logger
	CacheTTL  time.Duration
	Freshness time.Duration
	Timeout   time.Duration
}

// New creates a new Service.
func New(opts Options) *Service {
	ttl := opts.CacheTTL
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	freshness := opts.Freshness
	if freshness == 0 {
		freshness = 5 * time.Minute
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Service{
		provider:  opts.Provider,
		store:     opts.Store,
		cache:     opts.Cache,
		flight:    cache.NewCoalescer(),
		logger:    opts.Logger,
		ttl:       ttl,
		freshness: freshness,
		timeout:   timeout,
	}
}

// MarketData is the payload for a market data request.
type MarketData struct {
	Ticker    string       `json:"ticker"`
	Timeframe string       `json:"timeframe"`
	Bars      []models.Bar `json:"data"`
	FetchedAt time.Time    `json:"fetched_at"`
}

// KeyLevels is the payload for a key-level computation.
type KeyLevels struct {
	Ticker     string           `json:"ticker"`
	Timeframe  string           `json:"timeframe"`
	Lookback   int              `json:"lookback"`
	Zones      []ZonePayload    `json:"zones"`
	Params     keylevels.Params `json:"algorithm_params"`
	ComputedAt time.Time        `json:"computed_at"`
}

// ZonePayload is the wire representation of a zone.
type ZonePayload struct {
	ID            string  `json:"id"`
	Type          string  `json:"type"`
	PriceLow      float64 `json:"price_low"`
	PriceHigh     float64 `json:"price_high"`
	Strength      float64 `json:"strength"`
	Confidence    float64 `json:"confidence"`
	Touches       int     `json:"touches"`
	LastTouchTime int64   `json:"last_touch_time"`
}

// GetMarketData returns OHLCV bars for a ticker, serving from the response
// cache when possible.
func (s *Service) GetMarketData(ctx context.Context, ticker string, timeframe models.Timeframe, lookbackDays int) (*MarketData, error) {
	key := cache.MakeKey("data", ticker, string(timeframe), strconv.Itoa(lookbackDays))

	var cached MarketData
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	v, err := s.flight.Do(ctx, key, func() (interface{}, error) {
		bars, err := s.fetchBars(ctx, ticker, timeframe, lookbackDays)
		if err != nil {
			return nil, err
		}
		data := &MarketData{
			Ticker:    ticker,
			Timeframe: string(timeframe),
			Bars:      bars,
			FetchedAt: time.Now().UTC(),
		}
		if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("Failed to cache market data")
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*MarketData), nil
}

// GetKeyLevels computes key support/resistance zones for a ticker.
//
// The whole pipeline runs under the service timeout; on expiry the request
// surfaces a transient failure and never a partially-built zone list.
func (s *Service) GetKeyLevels(ctx context.Context, ticker string, timeframe models.Timeframe, lookbackDays int, params keylevels.Params) (*KeyLevels, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	key := cache.MakeKey("keylevels", ticker, string(timeframe),
		strconv.Itoa(lookbackDays), paramsKey(params))

	var cached KeyLevels
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	v, err := s.flight.Do(ctx, key, func() (interface{}, error) {
		started := time.Now()

		bars, err := s.fetchBars(ctx, ticker, timeframe, lookbackDays)
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrTimeout, "computation aborted")
		}

		result, err := keylevels.Detect(bars, params)
		if err != nil {
			return nil, err
		}

		payload := &KeyLevels{
			Ticker:     ticker,
			Timeframe:  string(timeframe),
			Lookback:   lookbackDays,
			Zones:      toPayload(result.Zones),
			Params:     result.Params,
			ComputedAt: time.Now().UTC(),
		}
		if err := s.cache.Set(ctx, key, payload, s.ttl); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("Failed to cache key levels")
		}

		s.logger.Info().
			Str("ticker", ticker).
			Str("timeframe", string(timeframe)).
			Int("bars", len(bars)).
			Int("zones", len(payload.Zones)).
			Dur("duration", time.Since(started)).
			Msg("Key levels computed")

		return payload, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*KeyLevels), nil
}

// fetchBars serves bars from the local store when fresh, hitting the
// upstream provider otherwise.
func (s *Service) fetchBars(ctx context.Context, ticker string, timeframe models.Timeframe, lookbackDays int) ([]models.Bar, error) {
	from := time.Now().AddDate(0, 0, -lookbackDays).Unix()

	if s.store != nil {
		fetched, err := s.store.Freshness(ctx, ticker, timeframe)
		if err == nil && time.Since(fetched) < s.freshness {
			bars, err := s.store.GetBars(ctx, ticker, timeframe, from, 0)
			if err == nil && len(bars) > 0 {
				return bars, nil
			}
		}
	}

	bars, err := s.provider.GetBars(ctx, ticker, timeframe, lookbackDays)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, errors.NewDataError("bars", ticker, "no data returned", errors.ErrDataNotFound)
	}

	if s.store != nil {
		if err := s.store.SaveBars(ctx, ticker, timeframe, bars); err != nil {
			s.logger.Warn().Err(err).Str("ticker", ticker).Msg("Failed to persist bars")
		}
	}

	return bars, nil
}

func toPayload(zones []keylevels.Zone) []ZonePayload {
	out := make([]ZonePayload, len(zones))
	for i, z := range zones {
		out[i] = ZonePayload{
			ID:            z.ID,
			Type:          string(z.Kind),
			PriceLow:      z.PriceLow,
			PriceHigh:     z.PriceHigh,
			Strength:      z.Strength,
			Confidence:    z.Confidence,
			Touches:       z.TouchCount(),
			LastTouchTime: z.LastTouchTime,
		}
	}
	return out
}

// paramsKey renders parameters into a stable cache key fragment.
func paramsKey(p keylevels.Params) string {
	return cache.MakeKey(
		strconv.Itoa(p.PivotWindow),
		strconv.Itoa(p.ATRPeriod),
		strconv.FormatFloat(p.ATRMultiplier, 'g', -1, 64),
		strconv.Itoa(p.MaxZones),
	)
}
