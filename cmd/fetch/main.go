package main

import (
    "context"
    "encoding/json"
    "flag"
    "fmt"
    "log"
    "net/http"
    "os"
    "strings"
    "time"

    "github.com/Matheus-Camelo/b3-challenge/internal/config"
    "github.com/Matheus-Camelo/b3-challenge/internal/httpx"
    "github.com/Matheus-Camelo/b3-challenge/internal/quote"
    "github.com/Matheus-Camelo/b3-challenge/internal/quote/alphavantage"
    "github.com/Matheus-Camelo/b3-challenge/internal/quote/brapi"
    "github.com/Matheus-Camelo/b3-challenge/internal/quote/cache"
    "github.com/Matheus-Camelo/b3-challenge/internal/quote/ratelimit"
    "github.com/Matheus-Camelo/b3-challenge/internal/quote/resolver"
    "github.com/Matheus-Camelo/b3-challenge/internal/quote/synthetic"
    "github.com/Matheus-Camelo/b3-challenge/internal/quote/yahoo"
)

func main() {
    var symbolsCSV string
    var startDate string
    var endDate string
    var timeout int
    var configPath string

    flag.StringVar(&symbolsCSV, "symbols", getenv("SYMBOLS", "PETR4"), "comma-separated tickers (e.g., PETR4,VALE3)")
    flag.StringVar(&startDate, "start", getenv("START_DATE", defaultStart()), "range start (YYYY-MM-DD)")
    flag.StringVar(&endDate, "end", getenv("END_DATE", defaultEnd()), "range end (YYYY-MM-DD, inclusive)")
    flag.IntVar(&timeout, "timeout", getenvInt("REQUEST_TIMEOUT_SEC", 30), "overall timeout seconds")
    flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config.json (optional)")
    flag.Parse()

    cfg, err := config.Load(configPath)
    if err != nil { log.Fatalf("config: %v", err) }

    httpClient := httpx.New(time.Duration(cfg.Resolver.FetchTimeoutSec) * time.Second)
    httpClient.UserAgent = "b3-challenge/1.0"

    var providers []quote.Provider
    if cfg.Brapi.Enabled {
        opts := []brapi.APIClientOption{
            brapi.WithHTTPClient(httpClient.HTTP),
            brapi.WithHeader(http.Header{"User-Agent": []string{"b3-challenge/1.0"}}),
        }
        if cfg.Brapi.Endpoint != "" {
            opts = append(opts, brapi.WithBaseURL(cfg.Brapi.Endpoint))
        }
        client, err := brapi.NewAPIClient(cfg.Brapi.Token, opts...)
        if err != nil { log.Fatalf("brapi client: %v", err) }
        adapter := brapi.NewAdapter(brapi.Config{
            Name:     "Brapi",
            Range:    cfg.Brapi.Range,
            Interval: cfg.Brapi.Interval,
        }, client)
        providers = append(providers, rateLimited(adapter,
            cfg.Brapi.MaxRequestsPerMinute, cfg.Brapi.Burst, cfg.Brapi.MinRequestIntervalSec))
    }
    if cfg.AlphaVantage.Enabled {
        av := alphavantage.New(alphavantage.Config{
            Name:         "AlphaVantage",
            URL:          cfg.AlphaVantage.Endpoint,
            APIKey:       cfg.AlphaVantage.APIKey,
            SymbolSuffix: cfg.AlphaVantage.SymbolSuffix,
            OutputSize:   cfg.AlphaVantage.OutputSize,
        }, httpClient)
        providers = append(providers, rateLimited(av,
            cfg.AlphaVantage.MaxRequestsPerMinute, cfg.AlphaVantage.Burst, cfg.AlphaVantage.MinRequestIntervalSec))
    }
    if cfg.Yahoo.Enabled {
        yf := yahoo.New(yahoo.Config{SymbolSuffix: cfg.Yahoo.SymbolSuffix})
        providers = append(providers, rateLimited(yf,
            cfg.Yahoo.MaxRequestsPerMinute, cfg.Yahoo.Burst, cfg.Yahoo.MinRequestIntervalSec))
    }
    if len(providers) == 0 {
        log.Println("no providers enabled; output will be synthetic")
    }

    symbols := splitCSV(symbolsCSV)
    if len(symbols) == 0 { log.Fatal("no symbols provided") }

    res := resolver.New(cache.NewStore(), providers, synthetic.New(),
        resolver.WithFetchTimeout(time.Duration(cfg.Resolver.FetchTimeoutSec)*time.Second),
    )

    ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
    defer cancel()

    points, err := res.ResolveMany(ctx, symbols, startDate, endDate)
    if err != nil { log.Fatalf("resolve: %v", err) }
    log.Printf("resolved %d points for %d symbol(s)", len(points), len(symbols))

    // Print up to 20 points as JSON for inspection
    n := len(points)
    if n > 20 { n = 20 }
    sample := struct{ Points []quote.Point `json:"points"` }{Points: points[:n]}
    b, _ := json.MarshalIndent(sample, "", "  ")
    fmt.Println(string(b))
}

func rateLimited(p quote.Provider, rpm, burst, minIntervalSec int) quote.Provider {
    if rpm > 0 {
        rate := float64(rpm) / 60.0
        if burst <= 0 { burst = 1 }
        return &ratelimit.TokenBucketProvider{P: p, TB: ratelimit.NewTokenBucket(rate, burst)}
    }
    if minIntervalSec > 0 {
        return &ratelimit.MinInterval{P: p, Interval: time.Duration(minIntervalSec) * time.Second}
    }
    return p
}

func defaultStart() string { return quote.FormatDate(time.Now().UTC().AddDate(0, -1, 0)) }
func defaultEnd() string   { return quote.FormatDate(time.Now().UTC()) }

func splitCSV(s string) []string {
    parts := strings.Split(s, ",")
    out := make([]string, 0, len(parts))
    for _, p := range parts {
        p = strings.TrimSpace(p)
        if p != "" { out = append(out, p) }
    }
    return out
}

func getenv(key, def string) string { if v := os.Getenv(key); v != "" { return v }; return def }
func getenvInt(key string, def int) int {
    if v := os.Getenv(key); v != "" {
        var x int
        _, _ = fmt.Sscanf(v, "%d", &x)
        if x != 0 { return x }
    }
    return def
}
