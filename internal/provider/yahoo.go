package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"keylevels/internal/errors"
	"keylevels/internal/models"
	"keylevels/internal/performance"
	"keylevels/pkg/utils"
)

// YahooProvider implements Provider using the Yahoo Finance public chart API.
type YahooProvider struct {
	client  *http.Client
	retry   utils.RetryConfig
	limiter *performance.RateLimiter
}

// Yahoo has no native 4h interval; 1h bars are fetched and resampled.
var yahooIntervals = map[models.Timeframe]string{
	models.TimeframeDaily:      "1d",
	models.TimeframeFourHour:   "1h",
	models.TimeframeHourly:     "1h",
	models.TimeframeFifteenMin: "15m",
}

// NewYahooProvider creates a new Yahoo Finance provider.
func NewYahooProvider(cfg Config) *YahooProvider {
	timeout := 30 * time.Second
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}

	transport := &http.Transport{}
	if cfg.ProxyURL != "" {
		if u, err := url.Parse(cfg.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}

	retry := utils.DefaultRetryConfig()
	// An unknown ticker stays unknown; retries only burn the rate budget.
	retry.Permanent = []error{errors.ErrDataNotFound}

	return &YahooProvider{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		retry: retry,
		// Yahoo throttles aggressively; stay well under its ceiling.
		limiter: performance.NewRateLimiter(2, 5),
	}
}

func (p *YahooProvider) Name() string { return "yahoo" }

// yahooChart is the response structure from the Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// GetBars fetches OHLCV bars, retrying transient failures with backoff.
func (p *YahooProvider) GetBars(ctx context.Context, ticker string, timeframe models.Timeframe, lookbackDays int) ([]models.Bar, error) {
	interval, ok := yahooIntervals[timeframe]
	if !ok {
		return nil, errors.ErrUnsupportedTimeframe
	}
	lookbackDays = CapLookback(timeframe, lookbackDays)

	bars, err := utils.RetryWithResult(ctx, p.retry, func() ([]models.Bar, error) {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return p.fetchChart(ctx, ticker, interval, lookbackDays)
	})
	if err != nil {
		return nil, errors.NewProviderError("yahoo", ticker, "fetch failed", err)
	}

	if timeframe == models.TimeframeFourHour {
		bars = ResampleTo4h(bars)
	}
	return bars, nil
}

func (p *YahooProvider) fetchChart(ctx context.Context, ticker, interval string, lookbackDays int) ([]models.Bar, error) {
	u := fmt.Sprintf(
		"https://query1.finance.yahoo.com/v8/finance/chart/%s?interval=%s&range=%dd",
		url.PathEscape(ticker), interval, lookbackDays)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errors.ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d", resp.StatusCode)
	}

	return parseChart(body)
}

// parseChart decodes a chart API response into validated bars.
func parseChart(body []byte) ([]models.Bar, error) {
	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, errors.ErrDataNotFound
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, errors.ErrDataNotFound
	}
	quote := result.Indicators.Quote[0]

	// Yahoo occasionally ships quote arrays shorter than the timestamp
	// array; trailing samples without OHLCV are dropped.
	n := len(result.Timestamp)
	for _, arr := range [][]interface{}{quote.Open, quote.High, quote.Low, quote.Close, quote.Volume} {
		if len(arr) < n {
			n = len(arr)
		}
	}
	if n == 0 {
		return nil, errors.ErrDataNotFound
	}

	bars := make([]models.Bar, 0, n)
	for i, ts := range result.Timestamp[:n] {
		o := toFloat(quote.Open[i])
		h := toFloat(quote.High[i])
		l := toFloat(quote.Low[i])
		c := toFloat(quote.Close[i])
		if o == 0 && h == 0 && l == 0 && c == 0 {
			// Yahoo nulls out halted or missing samples.
			continue
		}
		bars = append(bars, models.Bar{
			Time:   ts,
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: toFloat(quote.Volume[i]),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time < bars[j].Time })
	return dedupeBars(bars), nil
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

// dedupeBars drops duplicate timestamps, keeping the last sample. The
// algorithm rejects duplicate timestamps outright, so upstream quirks are
// cleaned at the edge rather than surfaced as validation failures.
func dedupeBars(bars []models.Bar) []models.Bar {
	if len(bars) < 2 {
		return bars
	}
	out := bars[:1]
	for _, b := range bars[1:] {
		if b.Time == out[len(out)-1].Time {
			out[len(out)-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

// ResampleTo4h aggregates 1h bars into 4h bars aligned to 4-hour boundaries:
// first open, max high, min low, last close, summed volume.
func ResampleTo4h(bars []models.Bar) []models.Bar {
	if len(bars) == 0 {
		return bars
	}

	const bucket = int64(4 * 60 * 60)
	var out []models.Bar
	var current *models.Bar
	var currentBucket int64

	for _, b := range bars {
		bkt := b.Time - (b.Time % bucket)
		if current == nil || bkt != currentBucket {
			if current != nil {
				out = append(out, *current)
			}
			cp := b
			cp.Time = bkt
			current = &cp
			currentBucket = bkt
			continue
		}
		if b.High > current.High {
			current.High = b.High
		}
		if b.Low < current.Low {
			current.Low = b.Low
		}
		current.Close = b.Close
		current.Volume += b.Volume
	}
	out = append(out, *current)

	return out
}
