package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Quote is a point-in-time market value estimate for one asset.
type Quote struct {
	Value      float64 `json:"value"`
	Confidence float64 `json:"confidence"`
	SalesCount int     `json:"salesCount"`
}

// Oracle is the external market-pricing service. Lookups are advisory:
// callers tolerate failures and carry on with a zero value.
type Oracle interface {
	MarketValue(ctx context.Context, assetID string) (Quote, error)
}

// HTTPOracle queries a remote pricing service.
type HTTPOracle struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPOracle(baseURL string) *HTTPOracle {
	return &HTTPOracle{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (o *HTTPOracle) MarketValue(ctx context.Context, assetID string) (Quote, error) {
	u := fmt.Sprintf("%s/market-value?assetId=%s", o.BaseURL, url.QueryEscape(assetID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Quote{}, err
	}
	resp, err := o.Client.Do(req)
	if err != nil {
		return Quote{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("pricing oracle: status %d for %s", resp.StatusCode, assetID)
	}
	var q Quote
	if err := json.NewDecoder(resp.Body).Decode(&q); err != nil {
		return Quote{}, err
	}
	return q, nil
}

// StaticOracle serves fixed quotes; used when no oracle is configured and in
// tests.
type StaticOracle struct {
	Quotes map[string]Quote
}

func (o *StaticOracle) MarketValue(_ context.Context, assetID string) (Quote, error) {
	q, ok := o.Quotes[assetID]
	if !ok {
		return Quote{}, fmt.Errorf("no quote for %s", assetID)
	}
	return q, nil
}
