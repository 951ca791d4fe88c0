// Package rates fetches the current USD buy rate from the public
// mindicador.cl-style indicator API.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"storefront-console/internal/core"
)

const defaultBaseURL = "https://mindicador.cl/api/dolar"

// Client implements core.RateSource against the indicator API. Every failure
// wraps core.ErrRateUnavailable so pricing callers can degrade instead of
// aborting.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// indicatorResponse is the shape of the API payload: a series of dated
// values, newest first.
type indicatorResponse struct {
	Serie []struct {
		Fecha time.Time       `json:"fecha"`
		Valor decimal.Decimal `json:"valor"`
	} `json:"serie"`
}

// CurrentRate returns the most recent rate in the series.
func (c *Client) CurrentRate(ctx context.Context) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("build rate request: %w", core.ErrRateUnavailable)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch rate from %s: %v: %w", c.baseURL, err, core.ErrRateUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("rate source returned status %d: %w", resp.StatusCode, core.ErrRateUnavailable)
	}

	var payload indicatorResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, fmt.Errorf("decode rate response: %v: %w", err, core.ErrRateUnavailable)
	}
	if len(payload.Serie) == 0 || !payload.Serie[0].Valor.IsPositive() {
		return decimal.Zero, fmt.Errorf("rate response has no usable value: %w", core.ErrRateUnavailable)
	}
	return payload.Serie[0].Valor, nil
}
