package data

import (
	"fmt"
	"sort"
	"time"

	"github.com/ducminhle1904/sector-rotation/pkg/types"
)

// SortAndDedupe returns the series ordered by date with one bar per trading day. When a day
// appears more than once the last occurrence in the input wins.
func SortAndDedupe(series types.Series) types.Series {
	if len(series) == 0 {
		return series
	}

	sorted := make(types.Series, len(series))
	copy(sorted, series)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	out := sorted[:0]
	for _, bar := range sorted {
		if n := len(out); n > 0 && types.TruncateDay(out[n-1].Timestamp).Equal(types.TruncateDay(bar.Timestamp)) {
			out[n-1] = bar
			continue
		}
		out = append(out, bar)
	}
	return out
}

// ValidateTimeSequence ensures dates are strictly increasing
func ValidateTimeSequence(series types.Series) error {
	for i := 1; i < len(series); i++ {
		prev := types.TruncateDay(series[i-1].Timestamp)
		cur := types.TruncateDay(series[i].Timestamp)
		if cur.Before(prev) {
			return fmt.Errorf("data not in chronological order at index %d: %s comes after %s",
				i, cur.Format(time.DateOnly), prev.Format(time.DateOnly))
		}
		if cur.Equal(prev) {
			return fmt.Errorf("duplicate date at index %d: %s", i, cur.Format(time.DateOnly))
		}
	}
	return nil
}

// TradingDays returns the dates of series within [start, end], in order.
func TradingDays(series types.Series, start, end time.Time) []time.Time {
	window := series.Between(start, end)
	days := make([]time.Time, len(window))
	for i, bar := range window {
		days[i] = types.TruncateDay(bar.Timestamp)
	}
	return days
}
