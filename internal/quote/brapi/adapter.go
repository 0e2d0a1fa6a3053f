package brapi

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Matheus-Camelo/b3-challenge/internal/quote"
)

type Config struct {
	Name     string // display name, default: Brapi
	Range    string // Brapi range parameter, default: 1y
	Interval string // Brapi interval parameter, default: 1d
}

// Adapter exposes the Brapi history as the canonical quote Provider.
// Brapi only takes coarse range/interval parameters, so the adapter fetches
// the configured range and filters down to the requested window.
type Adapter struct {
	cfg    Config
	client *APIClient
}

func NewAdapter(cfg Config, client *APIClient) *Adapter {
	if cfg.Name == "" {
		cfg.Name = "Brapi"
	}
	if cfg.Range == "" {
		cfg.Range = "1y"
	}
	if cfg.Interval == "" {
		cfg.Interval = "1d"
	}
	return &Adapter{cfg: cfg, client: client}
}

func (a *Adapter) Name() string { return a.cfg.Name }

func (a *Adapter) Fetch(ctx context.Context, symbol, startDate, endDate string) ([]quote.Point, error) {
	start, err := quote.ParseDate(startDate)
	if err != nil {
		return nil, fmt.Errorf("start date: %w", err)
	}
	end, err := quote.ParseDate(endDate)
	if err != nil {
		return nil, fmt.Errorf("end date: %w", err)
	}

	result, err := a.client.GetQuote(ctx, symbol, a.cfg.Range, a.cfg.Interval)
	if err != nil {
		return nil, err
	}
	if len(result.HistoricalDataPrice) == 0 {
		return nil, fmt.Errorf("no historical data for symbol %q", symbol)
	}

	out := make([]quote.Point, 0, len(result.HistoricalDataPrice))
	for _, bar := range result.HistoricalDataPrice {
		ts := time.Unix(bar.Date, 0).UTC()
		if !quote.InRange(ts, start, end) {
			continue
		}
		// Tag with the requested symbol, not Brapi's echo of it.
		out = append(out, quote.Point{
			Date:   quote.FormatDate(ts),
			Close:  bar.Close,
			Symbol: symbol,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}
