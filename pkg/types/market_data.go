package types

import (
	"sort"
	"time"
)

// OHLCV is one daily price bar.
type OHLCV struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Timestamp time.Time
}

// Series is a date-ordered run of bars for a single instrument. Dates are unique and strictly
// increasing. A Series is never mutated once loaded; slicing helpers return sub-slices.
type Series []OHLCV

// Constituent is a stock listed under a sector.
type Constituent struct {
	Ticker string
	Name   string
}

// Len returns the number of bars.
func (s Series) Len() int { return len(s) }

// Last returns the final bar. ok is false for an empty series.
func (s Series) Last() (OHLCV, bool) {
	if len(s) == 0 {
		return OHLCV{}, false
	}
	return s[len(s)-1], true
}

// Closes extracts the close column.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, bar := range s {
		closes[i] = bar.Close
	}
	return closes
}

// IndexOf returns the position of the bar dated exactly on day, or -1.
func (s Series) IndexOf(day time.Time) int {
	day = TruncateDay(day)
	i := sort.Search(len(s), func(i int) bool { return !TruncateDay(s[i].Timestamp).Before(day) })
	if i < len(s) && TruncateDay(s[i].Timestamp).Equal(day) {
		return i
	}
	return -1
}

// Until returns the prefix of bars dated on or before day.
func (s Series) Until(day time.Time) Series {
	day = TruncateDay(day)
	i := sort.Search(len(s), func(i int) bool { return TruncateDay(s[i].Timestamp).After(day) })
	return s[:i]
}

// Between returns the bars dated within [start, end].
func (s Series) Between(start, end time.Time) Series {
	start = TruncateDay(start)
	lo := sort.Search(len(s), func(i int) bool { return !TruncateDay(s[i].Timestamp).Before(start) })
	return s[lo:].Until(end)
}

// CloseOn returns the close dated exactly on day.
func (s Series) CloseOn(day time.Time) (float64, bool) {
	i := s.IndexOf(day)
	if i < 0 {
		return 0, false
	}
	return s[i].Close, true
}

// TruncateDay drops the time-of-day component, keeping the location.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
