package cache

import (
    "fmt"
    "sync"
    "time"

    "github.com/Matheus-Camelo/b3-challenge/internal/quote"
)

// entry stores one resolved series with its expiry.
type entry struct {
    expiresAt time.Time
    points    []quote.Point
    ksize     int
    vsize     int
}

// Store is a mutex-guarded key-value store for resolved quote series.
// Entries expire lazily: expiry is checked on lookup, never swept in the
// background, and an expired entry behaves as a miss until overwritten.
// The store owns entry lifetime; stored series must not be mutated by callers.
type Store struct {
    mu     sync.RWMutex
    items  map[string]entry
    hits   uint64
    misses uint64
    ksize  int
    vsize  int
}

func NewStore() *Store {
    return &Store{items: make(map[string]entry)}
}

// Key derives the cache key for a (symbol, startDate, endDate) triple.
// The key is not normalized: callers must pass dates in canonical
// YYYY-MM-DD form or identical requests will miss each other.
func Key(symbol, startDate, endDate string) string {
    return fmt.Sprintf("%s_%s_%s", symbol, startDate, endDate)
}

// Get returns the series stored under key, or ok=false if the key was never
// set or its entry has expired. Expired entries are evicted on the spot.
func (s *Store) Get(key string) ([]quote.Point, bool) {
    now := time.Now()

    s.mu.Lock()
    defer s.mu.Unlock()

    e, ok := s.items[key]
    if ok && now.After(e.expiresAt) {
        delete(s.items, key)
        s.ksize -= e.ksize
        s.vsize -= e.vsize
        ok = false
    }
    if !ok {
        s.misses++
        return nil, false
    }
    s.hits++
    return e.points, true
}

// Set stores points under key for ttl, overwriting any prior entry and
// resetting its expiry clock. Last writer wins on concurrent sets.
func (s *Store) Set(key string, points []quote.Point, ttl time.Duration) {
    e := entry{
        expiresAt: time.Now().Add(ttl),
        points:    points,
        ksize:     len(key),
        vsize:     approxValueBytes(points),
    }

    s.mu.Lock()
    defer s.mu.Unlock()
    if old, ok := s.items[key]; ok {
        s.ksize -= old.ksize
        s.vsize -= old.vsize
    }
    s.items[key] = e
    s.ksize += e.ksize
    s.vsize += e.vsize
}

// Stats is the cache introspection shape.
type Stats struct {
    Keys   int    `json:"keys"`
    Hits   uint64 `json:"hits"`
    Misses uint64 `json:"misses"`
    KSize  int    `json:"ksize"`
    VSize  int    `json:"vsize"`
}

// Stats returns current key count plus hit/miss counters accumulated since
// process start or the last Clear.
func (s *Store) Stats() Stats {
    s.mu.RLock()
    defer s.mu.RUnlock()
    return Stats{
        Keys:   len(s.items),
        Hits:   s.hits,
        Misses: s.misses,
        KSize:  s.ksize,
        VSize:  s.vsize,
    }
}

// Clear removes all entries and resets all counters to zero.
func (s *Store) Clear() {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.items = make(map[string]entry)
    s.hits = 0
    s.misses = 0
    s.ksize = 0
    s.vsize = 0
}

// approxValueBytes estimates the in-memory footprint of a series. Rough on
// purpose: stats are informational, not an accounting tool.
func approxValueBytes(points []quote.Point) int {
    n := 0
    for _, p := range points {
        n += len(p.Date) + len(p.Symbol) + 8
    }
    return n
}
