package quote

import (
    "context"
    "time"
)

// DateLayout is the canonical calendar-date form used on the wire and in
// cache keys. Dates carry no time-of-day component.
const DateLayout = "2006-01-02"

// Point is the normalized shape returned by all providers: one daily close.
// Date is always in canonical YYYY-MM-DD form.
type Point struct {
    Date   string  `json:"date"`
    Close  float64 `json:"close"`
    Symbol string  `json:"symbol"`
}

type Provider interface {
    Name() string
    Fetch(ctx context.Context, symbol, startDate, endDate string) ([]Point, error)
}

// ParseDate parses a canonical YYYY-MM-DD string into a UTC midnight time.
func ParseDate(s string) (time.Time, error) {
    return time.ParseInLocation(DateLayout, s, time.UTC)
}

// FormatDate renders t's calendar date in canonical form.
func FormatDate(t time.Time) string { return t.UTC().Format(DateLayout) }

// Day truncates t to its UTC calendar date, dropping time-of-day noise.
func Day(t time.Time) time.Time {
    y, m, d := t.UTC().Date()
    return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// InRange reports whether t falls within [start, end] inclusive, comparing
// calendar dates only. Robust to time-of-day and timezone noise in t.
func InRange(t, start, end time.Time) bool {
    d := Day(t)
    return !d.Before(Day(start)) && !d.After(Day(end))
}
