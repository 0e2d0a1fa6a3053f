package main

import (
    "compress/gzip"
    "context"
    "encoding/json"
    "fmt"
    "io"
    "log"
    "net/http"
    "os"
    "os/signal"
    "strings"
    "sync"
    "syscall"
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

var processStart = time.Now()

func main() {
    // Config
    cfgPath := os.Getenv("CONFIG_FILE")
    cfg, err := config.Load(cfgPath)
    if err != nil { log.Fatalf("config: %v", err) }
    port := cfg.Server.Port

    if cfg.AlphaVantage.Enabled && cfg.AlphaVantage.APIKey == "demo" {
        log.Println("warning: alphavantage running with the demo key; set ALPHA_VANTAGE_API_KEY")
    }

    httpClient := httpx.New(time.Duration(cfg.Resolver.FetchTimeoutSec) * time.Second)
    httpClient.UserAgent = "b3-challenge/1.0"

    providers := buildProviders(cfg, httpClient)
    if len(providers) == 0 {
        log.Println("warning: no providers enabled; every response will be synthetic")
    }

    store := cache.NewStore()
    res := resolver.New(store, providers, synthetic.New(),
        resolver.WithTTL(time.Duration(cfg.Cache.TTLSeconds)*time.Second),
        resolver.WithFetchTimeout(time.Duration(cfg.Resolver.FetchTimeoutSec)*time.Second),
    )

    mux := http.NewServeMux()
    mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
        if r.Method != http.MethodGet {
            writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
            return
        }
        handleHealth(w)
    })
    mux.HandleFunc("/api/quotes", func(w http.ResponseWriter, r *http.Request) {
        if r.Method != http.MethodPost {
            writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
            return
        }
        handleQuotes(w, r, res, cfg.Server.MaxSymbols)
    })
    mux.HandleFunc("/api/cache/stats", func(w http.ResponseWriter, r *http.Request) {
        if r.Method != http.MethodGet {
            writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
            return
        }
        handleCacheStats(w, store)
    })
    mux.HandleFunc("/api/cache", func(w http.ResponseWriter, r *http.Request) {
        if r.Method != http.MethodDelete {
            writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
            return
        }
        handleCacheClear(w, store)
    })

    srv := &http.Server{
        Addr:              ":" + port,
        Handler:           withJSONHeaders(withGzip(recoverPanic(limitBody(mux)))),
        ReadHeaderTimeout: 5 * time.Second,
        ReadTimeout:       15 * time.Second,
        WriteTimeout:      time.Duration(cfg.Server.RequestTimeoutSec) * time.Second,
        IdleTimeout:       60 * time.Second,
    }

    go func() {
        log.Printf("server listening on :%s", port)
        if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            log.Fatalf("server: %v", err)
        }
    }()

    // graceful shutdown
    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()
    <-ctx.Done()
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    _ = srv.Shutdown(shutdownCtx)
}

// buildProviders assembles the fallback chain in priority order:
// Brapi first, Alpha Vantage second, Yahoo Finance last.
func buildProviders(cfg config.Config, httpClient *httpx.Client) []quote.Provider {
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
        if err != nil {
            log.Printf("brapi client error: %v", err)
        } else {
            adapter := brapi.NewAdapter(brapi.Config{
                Name:     "Brapi",
                Range:    cfg.Brapi.Range,
                Interval: cfg.Brapi.Interval,
            }, client)
            providers = append(providers, withRateLimit(adapter,
                cfg.Brapi.MaxRequestsPerMinute, cfg.Brapi.Burst, cfg.Brapi.MinRequestIntervalSec))
        }
    }
    if cfg.AlphaVantage.Enabled {
        av := alphavantage.New(alphavantage.Config{
            Name:         "AlphaVantage",
            URL:          cfg.AlphaVantage.Endpoint,
            APIKey:       cfg.AlphaVantage.APIKey,
            SymbolSuffix: cfg.AlphaVantage.SymbolSuffix,
            OutputSize:   cfg.AlphaVantage.OutputSize,
        }, httpClient)
        providers = append(providers, withRateLimit(av,
            cfg.AlphaVantage.MaxRequestsPerMinute, cfg.AlphaVantage.Burst, cfg.AlphaVantage.MinRequestIntervalSec))
    }
    if cfg.Yahoo.Enabled {
        yf := yahoo.New(yahoo.Config{SymbolSuffix: cfg.Yahoo.SymbolSuffix})
        providers = append(providers, withRateLimit(yf,
            cfg.Yahoo.MaxRequestsPerMinute, cfg.Yahoo.Burst, cfg.Yahoo.MinRequestIntervalSec))
    }
    return providers
}

// withRateLimit prefers a token bucket with burst when RPM is set, otherwise
// falls back to a min-interval gate, otherwise leaves the provider bare.
func withRateLimit(p quote.Provider, rpm, burst, minIntervalSec int) quote.Provider {
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

type quotesRequest struct {
    Symbols   []string `json:"symbols"`
    StartDate string   `json:"startDate"`
    EndDate   string   `json:"endDate"`
}

type quotesResponse struct {
    Success bool          `json:"success"`
    Data    []quote.Point `json:"data"`
    Cached  bool          `json:"cached"`
}

type errorResponse struct {
    Error   string `json:"error"`
    Message string `json:"message,omitempty"`
}

type statsResponse = cache.Stats

type messageResponse struct {
    Message string `json:"message"`
}

type healthResponse struct {
    Status    string  `json:"status"`
    Timestamp string  `json:"timestamp"`
    Uptime    float64 `json:"uptime"`
}

func handleQuotes(w http.ResponseWriter, r *http.Request, res *resolver.Resolver, maxSymbols int) {
    var req quotesRequest
    dec := json.NewDecoder(r.Body)
    dec.DisallowUnknownFields()
    if err := dec.Decode(&req); err != nil {
        writeError(w, http.StatusBadRequest, "invalid JSON body", "")
        return
    }
    if maxSymbols > 0 && len(req.Symbols) > maxSymbols {
        writeError(w, http.StatusBadRequest, fmt.Sprintf("too many symbols (max %d)", maxSymbols), "")
        return
    }

    data, err := res.ResolveMany(r.Context(), req.Symbols, req.StartDate, req.EndDate)
    if err != nil {
        // ResolveMany only fails on malformed input; provider trouble is
        // absorbed by the fallback chain.
        writeError(w, http.StatusBadRequest, err.Error(), "")
        return
    }

    writeJSON(w, http.StatusOK, quotesResponse{
        Success: true,
        Data:    data,
        // Mirrors the historical contract: true whenever any data came back,
        // not a per-symbol cache-hit indicator.
        Cached: len(data) > 0,
    })
}

func handleCacheStats(w http.ResponseWriter, store *cache.Store) {
    writeJSON(w, http.StatusOK, statsResponse(store.Stats()))
}

func handleCacheClear(w http.ResponseWriter, store *cache.Store) {
    store.Clear()
    writeJSON(w, http.StatusOK, messageResponse{Message: "cache cleared"})
}

func handleHealth(w http.ResponseWriter) {
    writeJSON(w, http.StatusOK, healthResponse{
        Status:    "OK",
        Timestamp: time.Now().UTC().Format(time.RFC3339),
        Uptime:    time.Since(processStart).Seconds(),
    })
}

func writeJSON(w http.ResponseWriter, status int, v any) {
    w.WriteHeader(status)
    enc := json.NewEncoder(w)
    enc.SetEscapeHTML(false)
    _ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, errMsg, detail string) {
    writeJSON(w, status, errorResponse{Error: errMsg, Message: detail})
}

func withJSONHeaders(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Header().Set("Content-Type", "application/json; charset=utf-8")
        // Basic CORS for browser usage; adjust as needed.
        w.Header().Set("Access-Control-Allow-Origin", "*")
        w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
        w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
        if r.Method == http.MethodOptions {
            w.WriteHeader(http.StatusNoContent)
            return
        }
        next.ServeHTTP(w, r)
    })
}

// withGzip compresses response when client supports gzip.
func withGzip(next http.Handler) http.Handler {
    var gzPool = sync.Pool{New: func() any {
        // Prefer best speed to reduce CPU usage since payloads are JSON
        w, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
        return w
    }}
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
            next.ServeHTTP(w, r)
            return
        }
        gz := gzPool.Get().(*gzip.Writer)
        gz.Reset(w)
        defer func() {
            _ = gz.Close()
            gz.Reset(io.Discard)
            gzPool.Put(gz)
        }()
        w.Header().Set("Content-Encoding", "gzip")
        w.Header().Add("Vary", "Accept-Encoding")
        gw := gzipResponseWriter{ResponseWriter: w, Writer: gz}
        next.ServeHTTP(gw, r)
    })
}

type gzipResponseWriter struct {
    http.ResponseWriter
    Writer io.Writer
}

func (g gzipResponseWriter) Write(b []byte) (int, error) {
    return g.Writer.Write(b)
}

// limitBody caps request body size to avoid memory abuse.
func limitBody(next http.Handler) http.Handler {
    const maxBody = 1 << 20 // 1MB
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if r.Method == http.MethodPost && r.Body != nil {
            r.Body = http.MaxBytesReader(w, r.Body, maxBody)
        }
        next.ServeHTTP(w, r)
    })
}

// recoverPanic protects handlers from panics and keeps the error envelope
// JSON-shaped for API consumers.
func recoverPanic(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        defer func() {
            if rec := recover(); rec != nil {
                log.Printf("panic serving %s: %v", r.URL.Path, rec)
                writeError(w, http.StatusInternalServerError, "internal server error", fmt.Sprint(rec))
            }
        }()
        next.ServeHTTP(w, r)
    })
}
