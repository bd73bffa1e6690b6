package provider

import (
	"context"

	"keylevels/internal/errors"
	"keylevels/internal/models"
	"keylevels/internal/resilience"
)

// breakerProvider guards an upstream provider with a circuit breaker so a
// failing or rate-limiting source sheds load instead of being hammered.
type breakerProvider struct {
	inner   Provider
	breaker *resilience.Breaker
}

// WithBreaker wraps a provider with circuit breaker protection.
func WithBreaker(inner Provider, breaker *resilience.Breaker) Provider {
	return &breakerProvider{inner: inner, breaker: breaker}
}

func (p *breakerProvider) Name() string {
	return p.inner.Name()
}

func (p *breakerProvider) GetBars(ctx context.Context, ticker string, timeframe models.Timeframe, lookbackDays int) ([]models.Bar, error) {
	var bars []models.Bar
	err := p.breaker.Execute(ctx, func() error {
		var err error
		bars, err = p.inner.GetBars(ctx, ticker, timeframe, lookbackDays)
		return err
	})
	if err != nil {
		if errors.Is(err, resilience.ErrOpen) {
			return nil, errors.NewProviderError(p.inner.Name(), ticker, "upstream temporarily disabled", errors.ErrConnectionFailed)
		}
		return nil, err
	}
	return bars, nil
}
