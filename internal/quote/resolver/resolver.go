package resolver

import (
    "context"
    "errors"
    "log"
    "time"

    "golang.org/x/sync/singleflight"

    "github.com/Matheus-Camelo/b3-challenge/internal/quote"
    "github.com/Matheus-Camelo/b3-challenge/internal/quote/cache"
    "github.com/Matheus-Camelo/b3-challenge/internal/quote/synthetic"
)

var (
    ErrNoSymbols    = errors.New("symbols are required")
    ErrMissingDates = errors.New("start and end dates are required")
)

// Resolver answers "daily closes for symbol over [start, end]" by consulting
// the cache, then each provider in priority order, then the synthetic
// generator. Whatever it obtains is written back to the cache, so a provider
// outage can pin synthetic data under a key until the TTL lapses.
type Resolver struct {
    cache     *cache.Store
    providers []quote.Provider
    synthetic *synthetic.Generator

    ttl          time.Duration
    fetchTimeout time.Duration

    // coalesces concurrent resolutions of the same cache key
    sf singleflight.Group
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithTTL sets how long resolved series stay cached. Default 1 hour.
func WithTTL(ttl time.Duration) Option {
    return func(r *Resolver) { r.ttl = ttl }
}

// WithFetchTimeout bounds each provider call so a hung upstream cannot stall
// the fallback chain. Default 10 seconds.
func WithFetchTimeout(d time.Duration) Option {
    return func(r *Resolver) { r.fetchTimeout = d }
}

// New builds a Resolver over an injected store and an ordered provider list.
// Providers are tried in slice order; the first success wins.
func New(store *cache.Store, providers []quote.Provider, gen *synthetic.Generator, opts ...Option) *Resolver {
    r := &Resolver{
        cache:        store,
        providers:    providers,
        synthetic:    gen,
        ttl:          time.Hour,
        fetchTimeout: 10 * time.Second,
    }
    for _, opt := range opts {
        opt(r)
    }
    return r
}

// Resolve returns the series for one symbol. It never fails: provider errors
// cascade through the chain and bottom out at the synthetic generator.
// The returned series is cached and must be treated as immutable.
func (r *Resolver) Resolve(ctx context.Context, symbol, startDate, endDate string) []quote.Point {
    key := cache.Key(symbol, startDate, endDate)
    if pts, ok := r.cache.Get(key); ok {
        return pts
    }
    v, _, _ := r.sf.Do(key, func() (any, error) {
        return r.fetchAndStore(ctx, key, symbol, startDate, endDate), nil
    })
    return v.([]quote.Point)
}

func (r *Resolver) fetchAndStore(ctx context.Context, key, symbol, startDate, endDate string) []quote.Point {
    pts, ok := r.fetchFromProviders(ctx, symbol, startDate, endDate)
    if !ok {
        log.Printf("all providers failed for %s; serving synthetic data", symbol)
        pts = r.synthetic.Generate(symbol, startDate, endDate)
    }
    r.cache.Set(key, pts, r.ttl)
    return pts
}

// fetchFromProviders walks the chain in priority order and short-circuits on
// the first provider that succeeds, even with an empty (filtered-out) series.
func (r *Resolver) fetchFromProviders(ctx context.Context, symbol, startDate, endDate string) ([]quote.Point, bool) {
    for _, p := range r.providers {
        callCtx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
        pts, err := p.Fetch(callCtx, symbol, startDate, endDate)
        cancel()
        if err != nil {
            log.Printf("%s failed for %s: %v", p.Name(), symbol, err)
            continue
        }
        if pts == nil {
            pts = []quote.Point{}
        }
        return pts, true
    }
    return nil, false
}

// ResolveMany resolves each symbol sequentially in request order and
// concatenates the series. Sequential on purpose: resolution order stays
// deterministic and the providers never see a burst of parallel calls from
// one request. Only malformed input can make it fail.
func (r *Resolver) ResolveMany(ctx context.Context, symbols []string, startDate, endDate string) ([]quote.Point, error) {
    if len(symbols) == 0 {
        return nil, ErrNoSymbols
    }
    if startDate == "" || endDate == "" {
        return nil, ErrMissingDates
    }
    out := []quote.Point{}
    for _, symbol := range symbols {
        out = append(out, r.Resolve(ctx, symbol, startDate, endDate)...)
    }
    return out, nil
}
