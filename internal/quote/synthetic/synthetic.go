package synthetic

import (
    "hash/fnv"
    "math"
    "math/rand"
    "time"

    "github.com/Matheus-Camelo/b3-challenge/internal/quote"
)

// Generator produces placeholder daily series when no real provider can.
// The output has the same wire shape as a real series but no external
// grounding whatsoever; downstream consumers cannot structurally tell the
// difference, so anything served from here should be treated as demo data.
type Generator struct {
    BaseMin  float64 // lower bound of the starting price band
    BaseMax  float64 // upper bound of the starting price band
    MaxDrift float64 // per-day symmetric drift band, e.g. 0.05 for ±5%
}

func New() *Generator {
    return &Generator{BaseMin: 20, BaseMax: 120, MaxDrift: 0.05}
}

// Generate walks business days from startDate to endDate inclusive and emits
// a random-walk series for symbol. It never fails: unparseable dates or an
// inverted range simply yield an empty series.
//
// The walk is seeded from (symbol, startDate, endDate), so repeated calls for
// the same request produce the same series. The drift is applied from the
// first business day on, i.e. the first emitted close already deviates from
// the base price. Closes are rounded to 2 decimal places on emit.
func (g *Generator) Generate(symbol, startDate, endDate string) []quote.Point {
    start, err := quote.ParseDate(startDate)
    if err != nil {
        return []quote.Point{}
    }
    end, err := quote.ParseDate(endDate)
    if err != nil {
        return []quote.Point{}
    }

    rng := rand.New(rand.NewSource(seed(symbol, startDate, endDate)))
    price := g.BaseMin + rng.Float64()*(g.BaseMax-g.BaseMin)

    out := []quote.Point{}
    for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
        if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
            continue
        }
        drift := (rng.Float64() - 0.5) * 2 * g.MaxDrift
        price = price * (1 + drift)
        out = append(out, quote.Point{
            Date:   quote.FormatDate(d),
            Close:  round2(price),
            Symbol: symbol,
        })
    }
    return out
}

func seed(symbol, startDate, endDate string) int64 {
    h := fnv.New64a()
    h.Write([]byte(symbol))
    h.Write([]byte{'_'})
    h.Write([]byte(startDate))
    h.Write([]byte{'_'})
    h.Write([]byte(endDate))
    return int64(h.Sum64())
}

func round2(v float64) float64 {
    return math.Round(v*100) / 100
}
