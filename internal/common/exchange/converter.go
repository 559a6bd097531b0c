package exchange

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"realestate-workers/internal/common/logger"
	"realestate-workers/internal/common/metrics"
)

var (
	ErrUnknownCurrency = errors.New("unknown currency")
	ErrInvalidRate     = errors.New("invalid exchange rate")
)

// Converter is safe for concurrent use. A nil cache fetches on every call.
type Converter struct {
	source RateSource
	cache  RateCache
	ttl    time.Duration
	logger logger.Logger
}

func NewConverter(source RateSource, cache RateCache, ttl time.Duration, log logger.Logger) *Converter {
	return &Converter{
		source: source,
		cache:  cache,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "exchange"}),
	}
}

// Convert expresses amount, given in from, in to. The result is rounded to cents.
func (c *Converter) Convert(ctx context.Context, amount float64, from, to string) (float64, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return amount, nil
	}

	rates, err := c.rates(ctx, to)
	if err != nil {
		return 0, err
	}

	rate, ok := rates.Rates[from]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCurrency, from)
	}
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0, fmt.Errorf("%w: %s/%s = %v", ErrInvalidRate, to, from, rate)
	}

	return math.Round(amount/rate*100) / 100, nil
}

func (c *Converter) rates(ctx context.Context, base string) (*Rates, error) {
	if c.cache != nil {
		rates, err := c.cache.Get(ctx, base)
		switch {
		case err == nil:
			metrics.CacheRequests.WithLabelValues("exchange", "hit").Inc()
			return rates, nil
		case errors.Is(err, ErrNotCached):
			metrics.CacheRequests.WithLabelValues("exchange", "miss").Inc()
		default:
			metrics.CacheRequests.WithLabelValues("exchange", "error").Inc()
			c.logger.Warn("rate cache read failed", map[string]interface{}{
				"base":  base,
				"error": err.Error(),
			})
		}
	}

	rates, err := c.source.Fetch(ctx, base)
	if err != nil {
		return nil, err
	}

	if c.cache != nil && c.ttl > 0 {
		if err := c.cache.Set(ctx, rates, c.ttl); err != nil {
			c.logger.Warn("rate cache write failed", map[string]interface{}{
				"base":  base,
				"error": err.Error(),
			})
		}
	}
	return rates, nil
}
