package brapi

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"net/url"
)

// HistoricalPrice is one daily bar from Brapi's historicalDataPrice list.
// Date is an epoch timestamp in seconds.
type HistoricalPrice struct {
	Date   int64   `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// QuoteResult is the per-ticker payload of the Brapi quote endpoint.
type QuoteResult struct {
	Symbol              string            `json:"symbol"`
	LongName            string            `json:"longName"`
	Currency            string            `json:"currency"`
	RegularMarketPrice  float64           `json:"regularMarketPrice"`
	HistoricalDataPrice []HistoricalPrice `json:"historicalDataPrice"`
}

type quoteResponse struct {
	Results []QuoteResult `json:"results"`
	Error   bool          `json:"error"`
	Message string        `json:"message"`
}

// GetQuote retrieves one ticker with its daily price history.
// rng and interval follow Brapi's range/interval parameters (e.g. "1y", "1d").
func (c *APIClient) GetQuote(ctx context.Context, symbol, rng, interval string, opts ...APIClientOption) (*QuoteResult, error) {
	var override = &APIClient{
		baseURL:    c.baseURL,
		httpClient: c.httpClient,
		header:     c.header.Clone(),
		query:      c.query,
	}
	for _, opt := range opts {
		opt(override)
	}

	query := maps.Clone(override.query)
	if query == nil {
		query = url.Values{}
	}
	if rng != "" {
		query.Add("range", rng)
	}
	if interval != "" {
		query.Add("interval", interval)
	}

	u := fmt.Sprintf("%s/quote/%s?%s", override.baseURL, url.PathEscape(symbol), query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = override.header

	res, err := override.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		break

	case http.StatusNotFound:
		return nil, fmt.Errorf("symbol %q not found", symbol)

	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("unauthorized")

	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("rate limited")

	default:
		return nil, fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}

	var body quoteResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding quote response: %w", err)
	}
	if body.Error {
		return nil, fmt.Errorf("provider error: %s", body.Message)
	}
	if len(body.Results) == 0 {
		return nil, fmt.Errorf("no results for symbol %q", symbol)
	}
	return &body.Results[0], nil
}
