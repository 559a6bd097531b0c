// Package exchange converts listing prices between currencies using rates
// fetched from an HTTP endpoint.
package exchange

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	commonhttp "realestate-workers/internal/common/http"
)

// Rates lists how many units of each currency one unit of Base buys.
type Rates struct {
	Base      string             `json:"base"`
	Rates     map[string]float64 `json:"rates"`
	FetchedAt time.Time          `json:"fetchedAt,omitempty"`
}

// RateSource fetches the rates quoted against base.
type RateSource interface {
	Fetch(ctx context.Context, base string) (*Rates, error)
}

// Provider reads `GET {ratesURL}?base=XXX` responses shaped as {base, rates}.
type Provider struct {
	ratesURL string
	client   *commonhttp.Client
}

func NewProvider(ratesURL string, timeout time.Duration) *Provider {
	return &Provider{
		ratesURL: ratesURL,
		client:   commonhttp.NewClient(timeout),
	}
}

func (p *Provider) Fetch(ctx context.Context, base string) (*Rates, error) {
	u, err := url.Parse(p.ratesURL)
	if err != nil {
		return nil, fmt.Errorf("invalid rates url: %w", err)
	}
	q := u.Query()
	q.Set("base", base)
	u.RawQuery = q.Encode()

	var rates Rates
	if err := p.client.GetJSON(ctx, u.String(), &rates); err != nil {
		return nil, fmt.Errorf("fetch %s rates: %w", base, err)
	}

	if !strings.EqualFold(rates.Base, base) {
		return nil, fmt.Errorf("fetch %s rates: provider answered for %q", base, rates.Base)
	}
	if len(rates.Rates) == 0 {
		return nil, fmt.Errorf("fetch %s rates: empty rate table", base)
	}
	rates.Base = strings.ToUpper(rates.Base)
	rates.FetchedAt = time.Now().UTC()
	return &rates, nil
}
