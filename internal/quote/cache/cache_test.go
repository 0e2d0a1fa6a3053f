package cache

import (
    "fmt"
    "sync"
    "testing"
    "time"

    "github.com/Matheus-Camelo/b3-challenge/internal/quote"
)

func series(symbol string, dates ...string) []quote.Point {
    out := make([]quote.Point, 0, len(dates))
    for _, d := range dates {
        out = append(out, quote.Point{Date: d, Close: 10, Symbol: symbol})
    }
    return out
}

func TestKey_Derivation(t *testing.T) {
    a := Key("PETR4", "2024-01-01", "2024-01-31")
    b := Key("PETR4", "2024-01-01", "2024-01-31")
    if a != b {
        t.Fatalf("identical triples must map to the same key: %q vs %q", a, b)
    }
    if a == Key("VALE3", "2024-01-01", "2024-01-31") {
        t.Fatal("different symbols must map to different keys")
    }
    if a == Key("PETR4", "2024-01-02", "2024-01-31") {
        t.Fatal("different start dates must map to different keys")
    }
}

func TestStore_SetGet(t *testing.T) {
    s := NewStore()
    key := Key("PETR4", "2024-01-01", "2024-01-05")

    if _, ok := s.Get(key); ok {
        t.Fatal("expected miss on empty store")
    }

    want := series("PETR4", "2024-01-02", "2024-01-03")
    s.Set(key, want, time.Hour)

    got, ok := s.Get(key)
    if !ok {
        t.Fatal("expected hit after set")
    }
    if len(got) != 2 || got[0].Date != "2024-01-02" || got[1].Symbol != "PETR4" {
        t.Fatalf("unexpected series: %+v", got)
    }

    st := s.Stats()
    if st.Keys != 1 || st.Hits != 1 || st.Misses != 1 {
        t.Fatalf("unexpected stats: %+v", st)
    }
    if st.KSize != len(key) || st.VSize <= 0 {
        t.Fatalf("unexpected sizes: %+v", st)
    }
}

func TestStore_ExpiredEntryBehavesAsMiss(t *testing.T) {
    s := NewStore()
    key := Key("PETR4", "2024-01-01", "2024-01-05")
    s.Set(key, series("PETR4", "2024-01-02"), -time.Second)

    if _, ok := s.Get(key); ok {
        t.Fatal("expired entry must read as a miss")
    }
    st := s.Stats()
    if st.Keys != 0 || st.Misses != 1 || st.Hits != 0 {
        t.Fatalf("unexpected stats after lazy eviction: %+v", st)
    }

    // Overwrite after expiry resets the clock.
    s.Set(key, series("PETR4", "2024-01-03"), time.Hour)
    if got, ok := s.Get(key); !ok || got[0].Date != "2024-01-03" {
        t.Fatalf("expected fresh entry after overwrite, got %+v ok=%v", got, ok)
    }
}

func TestStore_OverwriteResetsSizes(t *testing.T) {
    s := NewStore()
    key := Key("PETR4", "2024-01-01", "2024-01-05")
    s.Set(key, series("PETR4", "2024-01-02", "2024-01-03", "2024-01-04"), time.Hour)
    big := s.Stats().VSize
    s.Set(key, series("PETR4", "2024-01-02"), time.Hour)
    st := s.Stats()
    if st.Keys != 1 {
        t.Fatalf("overwrite must not add keys: %+v", st)
    }
    if st.VSize >= big {
        t.Fatalf("vsize should shrink after overwriting with a smaller series: %d -> %d", big, st.VSize)
    }
}

func TestStore_ClearResetsCounters(t *testing.T) {
    s := NewStore()
    s.Set(Key("PETR4", "2024-01-01", "2024-01-05"), series("PETR4", "2024-01-02"), time.Hour)
    s.Get(Key("PETR4", "2024-01-01", "2024-01-05"))
    s.Get(Key("VALE3", "2024-01-01", "2024-01-05"))

    s.Clear()
    st := s.Stats()
    if st.Keys != 0 || st.Hits != 0 || st.Misses != 0 || st.KSize != 0 || st.VSize != 0 {
        t.Fatalf("clear must zero everything: %+v", st)
    }
}

func TestStore_ConcurrentAccess(t *testing.T) {
    s := NewStore()
    var wg sync.WaitGroup
    for i := 0; i < 16; i++ {
        i := i
        wg.Add(1)
        go func() {
            defer wg.Done()
            key := Key(fmt.Sprintf("SYM%d", i%4), "2024-01-01", "2024-01-31")
            for j := 0; j < 100; j++ {
                s.Set(key, series("SYM", "2024-01-02"), time.Hour)
                s.Get(key)
            }
        }()
    }
    wg.Wait()

    if st := s.Stats(); st.Keys != 4 {
        t.Fatalf("expected 4 keys after concurrent churn, got %+v", st)
    }
}
