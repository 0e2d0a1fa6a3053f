package main

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/Matheus-Camelo/b3-challenge/internal/quote"
    "github.com/Matheus-Camelo/b3-challenge/internal/quote/cache"
    "github.com/Matheus-Camelo/b3-challenge/internal/quote/resolver"
    "github.com/Matheus-Camelo/b3-challenge/internal/quote/synthetic"
)

type fakeProvider struct {
    name   string
    points []quote.Point
    err    error
}

func (f fakeProvider) Name() string { return f.name }
func (f fakeProvider) Fetch(_ context.Context, symbol, startDate, endDate string) ([]quote.Point, error) {
    if f.err != nil { return nil, f.err }
    return f.points, nil
}

func newResolver(store *cache.Store, providers ...quote.Provider) *resolver.Resolver {
    return resolver.New(store, providers, synthetic.New())
}

func postQuotes(t *testing.T, res *resolver.Resolver, body string) *httptest.ResponseRecorder {
    t.Helper()
    rr := httptest.NewRecorder()
    req := httptest.NewRequest(http.MethodPost, "/api/quotes", bytes.NewBufferString(body))
    handleQuotes(rr, req, res, 50)
    return rr
}

func TestQuotes_AllProvidersFail_SyntheticForBothSymbols(t *testing.T) {
    p1 := fakeProvider{name: "brapi", err: errors.New("network down")}
    p2 := fakeProvider{name: "alphavantage", err: errors.New("rate limited")}
    res := newResolver(cache.NewStore(), p1, p2)

    rr := postQuotes(t, res, `{"symbols":["PETR4","VALE3"],"startDate":"2024-01-01","endDate":"2024-01-05"}`)
    if rr.Code != http.StatusOK {
        t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
    }

    var resp quotesResponse
    if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
        t.Fatalf("decode: %v", err)
    }
    if !resp.Success || !resp.Cached {
        t.Fatalf("unexpected envelope: %+v", resp)
    }
    if len(resp.Data) == 0 {
        t.Fatal("expected synthetic data for both symbols")
    }
    bySymbol := map[string]int{}
    for _, p := range resp.Data {
        bySymbol[p.Symbol]++
        d, err := quote.ParseDate(p.Date)
        if err != nil {
            t.Fatalf("bad date %q: %v", p.Date, err)
        }
        if d.Before(mustDate(t, "2024-01-01")) || d.After(mustDate(t, "2024-01-05")) {
            t.Fatalf("point outside requested range: %+v", p)
        }
        if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
            t.Fatalf("weekend point in synthetic series: %+v", p)
        }
    }
    // 2024-01-01..05 is Monday..Friday: five business days per symbol.
    if bySymbol["PETR4"] != 5 || bySymbol["VALE3"] != 5 {
        t.Fatalf("unexpected per-symbol counts: %+v", bySymbol)
    }
}

func TestQuotes_SecondProviderWins(t *testing.T) {
    p1 := fakeProvider{name: "brapi", err: errors.New("down")}
    p2 := fakeProvider{name: "alphavantage", points: []quote.Point{
        {Date: "2024-01-02", Close: 36.42, Symbol: "PETR4"},
    }}
    res := newResolver(cache.NewStore(), p1, p2)

    rr := postQuotes(t, res, `{"symbols":["PETR4"],"startDate":"2024-01-01","endDate":"2024-01-05"}`)
    var resp quotesResponse
    if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
        t.Fatalf("decode: %v", err)
    }
    if len(resp.Data) != 1 || resp.Data[0].Close != 36.42 {
        t.Fatalf("expected the second provider's series: %+v", resp.Data)
    }
}

func TestQuotes_ValidationErrors(t *testing.T) {
    res := newResolver(cache.NewStore())

    cases := map[string]string{
        "missing symbols": `{"startDate":"2024-01-01","endDate":"2024-01-05"}`,
        "empty symbols":   `{"symbols":[],"startDate":"2024-01-01","endDate":"2024-01-05"}`,
        "missing dates":   `{"symbols":["PETR4"]}`,
        "invalid JSON":    `{"symbols":`,
        "wrong type":      `{"symbols":"PETR4","startDate":"2024-01-01","endDate":"2024-01-05"}`,
    }
    for name, body := range cases {
        t.Run(name, func(t *testing.T) {
            rr := postQuotes(t, res, body)
            if rr.Code != http.StatusBadRequest {
                t.Fatalf("want 400, got %d: %s", rr.Code, rr.Body.String())
            }
            var resp errorResponse
            if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
                t.Fatalf("decode: %v", err)
            }
            if resp.Error == "" {
                t.Fatalf("error string missing: %s", rr.Body.String())
            }
        })
    }
}

func TestQuotes_EmptySeriesIsNotCachedFlagged(t *testing.T) {
    // An inverted range filters everything out; cached must read false.
    p := fakeProvider{name: "brapi", points: []quote.Point{}}
    res := newResolver(cache.NewStore(), p)

    rr := postQuotes(t, res, `{"symbols":["PETR4"],"startDate":"2024-01-10","endDate":"2024-01-05"}`)
    var resp quotesResponse
    if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
        t.Fatalf("decode: %v", err)
    }
    if !resp.Success || resp.Cached {
        t.Fatalf("empty result must report cached=false: %+v", resp)
    }
    if resp.Data == nil || len(resp.Data) != 0 {
        t.Fatalf("data must be an empty array: %s", rr.Body.String())
    }
}

func TestCacheStatsAndClear(t *testing.T) {
    store := cache.NewStore()
    res := newResolver(store, fakeProvider{name: "brapi", points: []quote.Point{
        {Date: "2024-01-02", Close: 36.42, Symbol: "PETR4"},
    }})

    postQuotes(t, res, `{"symbols":["PETR4"],"startDate":"2024-01-01","endDate":"2024-01-05"}`)
    postQuotes(t, res, `{"symbols":["PETR4"],"startDate":"2024-01-01","endDate":"2024-01-05"}`)

    rr := httptest.NewRecorder()
    handleCacheStats(rr, store)
    var stats statsResponse
    if err := json.Unmarshal(rr.Body.Bytes(), &stats); err != nil {
        t.Fatalf("decode stats: %v", err)
    }
    if stats.Keys != 1 || stats.Hits != 1 || stats.Misses != 1 {
        t.Fatalf("unexpected stats: %+v", stats)
    }

    rr = httptest.NewRecorder()
    handleCacheClear(rr, store)
    var msg messageResponse
    if err := json.Unmarshal(rr.Body.Bytes(), &msg); err != nil {
        t.Fatalf("decode clear: %v", err)
    }
    if msg.Message == "" {
        t.Fatal("expected a confirmation message")
    }

    rr = httptest.NewRecorder()
    handleCacheStats(rr, store)
    if err := json.Unmarshal(rr.Body.Bytes(), &stats); err != nil {
        t.Fatalf("decode stats: %v", err)
    }
    if stats.Keys != 0 || stats.Hits != 0 || stats.Misses != 0 || stats.KSize != 0 || stats.VSize != 0 {
        t.Fatalf("stats must be zeroed after clear: %+v", stats)
    }
}

func TestHealth(t *testing.T) {
    rr := httptest.NewRecorder()
    handleHealth(rr)
    if rr.Code != http.StatusOK {
        t.Fatalf("status=%d", rr.Code)
    }
    var resp healthResponse
    if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
        t.Fatalf("decode: %v", err)
    }
    if resp.Status != "OK" {
        t.Fatalf("unexpected status: %+v", resp)
    }
    if _, err := time.Parse(time.RFC3339, resp.Timestamp); err != nil {
        t.Fatalf("timestamp not RFC3339: %v", err)
    }
    if resp.Uptime < 0 {
        t.Fatalf("negative uptime: %+v", resp)
    }
}

func mustDate(t *testing.T, s string) time.Time {
    t.Helper()
    d, err := quote.ParseDate(s)
    if err != nil {
        t.Fatalf("parse %q: %v", s, err)
    }
    return d
}
