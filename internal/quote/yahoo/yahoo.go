package yahoo

import (
    "context"
    "fmt"
    "sort"
    "time"

    finance "github.com/piquette/finance-go"
    "github.com/piquette/finance-go/chart"
    "github.com/piquette/finance-go/datetime"
    "github.com/shopspring/decimal"

    "github.com/Matheus-Camelo/b3-challenge/internal/quote"
)

// Config controls the Yahoo Finance provider behavior.
type Config struct {
    Name         string
    SymbolSuffix string // e.g. ".SA" for B3 tickers on Yahoo
}

// Provider fetches daily bars from Yahoo Finance via finance-go's chart API.
type Provider struct {
    cfg Config
}

func New(cfg Config) *Provider {
    if cfg.Name == "" { cfg.Name = "YahooFinance" }
    return &Provider{cfg: cfg}
}

func (p *Provider) Name() string { return p.cfg.Name }

func (p *Provider) Fetch(ctx context.Context, symbol, startDate, endDate string) ([]quote.Point, error) {
    start, err := quote.ParseDate(startDate)
    if err != nil { return nil, fmt.Errorf("start date: %w", err) }
    end, err := quote.ParseDate(endDate)
    if err != nil { return nil, fmt.Errorf("end date: %w", err) }
    if start.After(end) {
        return []quote.Point{}, nil
    }

    // Yahoo treats period2 as exclusive; pad a day and filter below.
    endPad := end.AddDate(0, 0, 1)
    params := &chart.Params{
        Params:   finance.Params{Context: &ctx},
        Symbol:   symbol + p.cfg.SymbolSuffix,
        Start:    datetime.New(&start),
        End:      datetime.New(&endPad),
        Interval: datetime.OneDay,
    }

    out := []quote.Point{}
    iter := chart.Get(params)
    for iter.Next() {
        bar := iter.Bar()
        ts := time.Unix(int64(bar.Timestamp), 0).UTC()
        if !quote.InRange(ts, start, end) { continue }
        // Yahoo pads holidays with zeroed bars; drop them.
        if bar.Close.Equal(decimal.Zero) { continue }
        close, _ := bar.Close.Round(2).Float64()
        out = append(out, quote.Point{
            Date:   quote.FormatDate(ts),
            Close:  close,
            Symbol: symbol,
        })
    }
    if err := iter.Err(); err != nil {
        return nil, fmt.Errorf("yahoo chart %q: %w", symbol, err)
    }
    sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
    return out, nil
}
