package config

import (
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "strings"
)

type Server struct {
    Port              string `json:"port"`
    RequestTimeoutSec int    `json:"request_timeout_sec"`
    MaxSymbols        int    `json:"max_symbols"`
}

type Cache struct {
    TTLSeconds int `json:"ttl_sec"`
}

type Resolver struct {
    FetchTimeoutSec int `json:"fetch_timeout_sec"`
}

type Brapi struct {
    Enabled               bool   `json:"enabled"`
    Token                 string `json:"token"`
    Endpoint              string `json:"endpoint"`
    Range                 string `json:"range"`
    Interval              string `json:"interval"`
    MaxRequestsPerMinute  int    `json:"max_requests_per_minute"`
    MinRequestIntervalSec int    `json:"min_request_interval_sec"`
    Burst                 int    `json:"burst"`
}

type AlphaVantage struct {
    Enabled               bool   `json:"enabled"`
    APIKey                string `json:"api_key"`
    Endpoint              string `json:"endpoint"`
    SymbolSuffix          string `json:"symbol_suffix"`
    OutputSize            string `json:"output_size"`
    MaxRequestsPerMinute  int    `json:"max_requests_per_minute"`
    MinRequestIntervalSec int    `json:"min_request_interval_sec"`
    Burst                 int    `json:"burst"`
}

type Yahoo struct {
    Enabled               bool   `json:"enabled"`
    SymbolSuffix          string `json:"symbol_suffix"`
    MaxRequestsPerMinute  int    `json:"max_requests_per_minute"`
    MinRequestIntervalSec int    `json:"min_request_interval_sec"`
    Burst                 int    `json:"burst"`
}

type Config struct {
    Server       Server       `json:"server"`
    Cache        Cache        `json:"cache"`
    Resolver     Resolver     `json:"resolver"`
    Brapi        Brapi        `json:"brapi"`
    AlphaVantage AlphaVantage `json:"alphavantage"`
    Yahoo        Yahoo        `json:"yahoo"`
}

func Default() Config {
    return Config{
        Server:   Server{Port: "3001", RequestTimeoutSec: 30, MaxSymbols: 50},
        Cache:    Cache{TTLSeconds: 3600},
        Resolver: Resolver{FetchTimeoutSec: 10},
        Brapi: Brapi{
            Enabled:  true,
            Endpoint: "https://brapi.dev/api",
            Range:    "1y",
            Interval: "1d",
        },
        AlphaVantage: AlphaVantage{
            Enabled:      true,
            APIKey:       "demo",
            Endpoint:     "https://www.alphavantage.co/query",
            SymbolSuffix: ".SA",
            OutputSize:   "full",
        },
        Yahoo: Yahoo{
            Enabled:      false,
            SymbolSuffix: ".SA",
        },
    }
}

// Load reads JSON config from path. If path is empty or file does not exist,
// it returns defaults. Environment variables override select fields for secrecy.
func Load(path string) (Config, error) {
    cfg := Default()
    if path == "" {
        if _, err := os.Stat("config.json"); err == nil {
            path = "config.json"
        }
    }
    if path != "" {
        b, err := os.ReadFile(path)
        if err != nil && !errors.Is(err, os.ErrNotExist) {
            return cfg, fmt.Errorf("read config: %w", err)
        }
        if err == nil {
            if err := json.Unmarshal(b, &cfg); err != nil {
                return cfg, fmt.Errorf("parse config: %w", err)
            }
        }
    }
    applyEnv(&cfg)
    return cfg, nil
}

func applyEnv(cfg *Config) {
    if v := os.Getenv("PORT"); v != "" { cfg.Server.Port = v }
    if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Server.RequestTimeoutSec = x }
    }
    if v := os.Getenv("MAX_SYMBOLS"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Server.MaxSymbols = x }
    }
    if v := os.Getenv("CACHE_TTL_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Cache.TTLSeconds = x }
    }
    if v := os.Getenv("FETCH_TIMEOUT_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Resolver.FetchTimeoutSec = x }
    }

    if v := os.Getenv("BRAPI_ENABLED"); v != "" { setBool(&cfg.Brapi.Enabled, v) }
    if v := os.Getenv("BRAPI_TOKEN"); v != "" { cfg.Brapi.Token = v }
    if v := os.Getenv("BRAPI_ENDPOINT"); v != "" { cfg.Brapi.Endpoint = v }
    if v := os.Getenv("BRAPI_RANGE"); v != "" { cfg.Brapi.Range = v }
    if v := os.Getenv("BRAPI_INTERVAL"); v != "" { cfg.Brapi.Interval = v }
    if v := os.Getenv("BRAPI_MAX_RPM"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.Brapi.MaxRequestsPerMinute = x }
    }
    if v := os.Getenv("BRAPI_MIN_INTERVAL_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.Brapi.MinRequestIntervalSec = x }
    }
    if v := os.Getenv("BRAPI_BURST"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Brapi.Burst = x }
    }

    if v := os.Getenv("ALPHA_VANTAGE_ENABLED"); v != "" { setBool(&cfg.AlphaVantage.Enabled, v) }
    if v := os.Getenv("ALPHA_VANTAGE_API_KEY"); v != "" { cfg.AlphaVantage.APIKey = v }
    if v := os.Getenv("ALPHA_VANTAGE_ENDPOINT"); v != "" { cfg.AlphaVantage.Endpoint = v }
    if v := os.Getenv("ALPHA_VANTAGE_SYMBOL_SUFFIX"); v != "" { cfg.AlphaVantage.SymbolSuffix = v }
    if v := os.Getenv("ALPHA_VANTAGE_OUTPUT_SIZE"); v != "" { cfg.AlphaVantage.OutputSize = v }
    if v := os.Getenv("ALPHA_VANTAGE_MAX_RPM"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.AlphaVantage.MaxRequestsPerMinute = x }
    }
    if v := os.Getenv("ALPHA_VANTAGE_MIN_INTERVAL_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.AlphaVantage.MinRequestIntervalSec = x }
    }
    if v := os.Getenv("ALPHA_VANTAGE_BURST"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.AlphaVantage.Burst = x }
    }

    if v := os.Getenv("YAHOO_ENABLED"); v != "" { setBool(&cfg.Yahoo.Enabled, v) }
    if v := os.Getenv("YAHOO_SYMBOL_SUFFIX"); v != "" { cfg.Yahoo.SymbolSuffix = v }
    if v := os.Getenv("YAHOO_MAX_RPM"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.Yahoo.MaxRequestsPerMinute = x }
    }
    if v := os.Getenv("YAHOO_MIN_INTERVAL_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.Yahoo.MinRequestIntervalSec = x }
    }
    if v := os.Getenv("YAHOO_BURST"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Yahoo.Burst = x }
    }
}

func setBool(dst *bool, v string) {
    switch strings.ToLower(v) {
    case "1", "true", "yes", "y":
        *dst = true
    case "0", "false", "no", "n":
        *dst = false
    }
}
