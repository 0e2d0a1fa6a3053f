package alphavantage

import (
    "context"
    "encoding/json"
    "fmt"
    "net/http"
    "net/url"
    "sort"
    "strconv"
    "strings"

    "github.com/Matheus-Camelo/b3-challenge/internal/httpx"
    "github.com/Matheus-Camelo/b3-challenge/internal/quote"
)

// Config controls the Alpha Vantage provider behavior.
type Config struct {
    Name         string
    URL          string
    APIKey       string
    SymbolSuffix string // appended to the ticker upstream, e.g. ".SA" for B3
    OutputSize   string // compact or full; full covers 20+ years of history
}

// Provider fetches daily closes from the Alpha Vantage TIME_SERIES_DAILY
// endpoint and filters them down to the requested window.
type Provider struct {
    cfg    Config
    client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Provider {
    if cfg.Name == "" { cfg.Name = "AlphaVantage" }
    if cfg.URL == "" { cfg.URL = "https://www.alphavantage.co/query" }
    if cfg.APIKey == "" { cfg.APIKey = "demo" }
    if cfg.OutputSize == "" { cfg.OutputSize = "full" }
    return &Provider{cfg: cfg, client: hc}
}

func (p *Provider) Name() string { return p.cfg.Name }

func (p *Provider) Fetch(ctx context.Context, symbol, startDate, endDate string) ([]quote.Point, error) {
    start, err := quote.ParseDate(startDate)
    if err != nil { return nil, fmt.Errorf("start date: %w", err) }
    end, err := quote.ParseDate(endDate)
    if err != nil { return nil, fmt.Errorf("end date: %w", err) }

    u, err := url.Parse(p.cfg.URL)
    if err != nil { return nil, err }
    q := u.Query()
    q.Set("function", "TIME_SERIES_DAILY")
    q.Set("symbol", symbol+p.cfg.SymbolSuffix)
    q.Set("apikey", p.cfg.APIKey)
    q.Set("outputsize", p.cfg.OutputSize)
    u.RawQuery = q.Encode()

    req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
    if err != nil { return nil, err }
    req.Header.Set("Accept", "application/json")
    resp, err := p.client.Do(ctx, req)
    if err != nil { return nil, err }
    defer resp.Body.Close()
    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        return nil, fmt.Errorf("GET %s -> %d", u.String(), resp.StatusCode)
    }

    var api apiResponse
    if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
        return nil, fmt.Errorf("decode: %w", err)
    }
    // Alpha Vantage reports failures as 200s with an explanatory field.
    if len(api.TimeSeries) == 0 {
        msg := firstNonEmpty(api.ErrorMessage, api.Note, api.Information)
        if msg == "" { msg = "no daily time series in response" }
        return nil, fmt.Errorf("provider error for %q: %s", symbol, msg)
    }

    out := make([]quote.Point, 0, len(api.TimeSeries))
    for date, bar := range api.TimeSeries {
        d, err := quote.ParseDate(date)
        if err != nil {
            // Tolerate odd keys rather than failing the whole series.
            continue
        }
        if !quote.InRange(d, start, end) { continue }
        close, err := strconv.ParseFloat(strings.TrimSpace(bar.Close), 64)
        if err != nil { continue }
        out = append(out, quote.Point{
            Date:   quote.FormatDate(d),
            Close:  close,
            Symbol: symbol,
        })
    }
    sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
    return out, nil
}

// Response model for TIME_SERIES_DAILY. The series is keyed by date string;
// numeric fields arrive as strings.
type apiResponse struct {
    TimeSeries   map[string]dailyBar `json:"Time Series (Daily)"`
    ErrorMessage string              `json:"Error Message"`
    Note         string              `json:"Note"`
    Information  string              `json:"Information"`
}

type dailyBar struct {
    Open   string `json:"1. open"`
    High   string `json:"2. high"`
    Low    string `json:"3. low"`
    Close  string `json:"4. close"`
    Volume string `json:"5. volume"`
}

func firstNonEmpty(vals ...string) string {
    for _, v := range vals {
        if s := strings.TrimSpace(v); s != "" { return s }
    }
    return ""
}
