package indicators

import (
	"math"

	"github.com/ducminhle1904/sector-rotation/pkg/types"
)

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|) per bar. The first bar
// has no previous close and uses high-low.
func TrueRange(series types.Series) []float64 {
	tr := make([]float64, len(series))
	for i, bar := range series {
		hl := bar.High - bar.Low
		if i == 0 {
			tr[i] = hl
			continue
		}
		prevClose := series[i-1].Close
		tr[i] = math.Max(hl, math.Max(math.Abs(bar.High-prevClose), math.Abs(bar.Low-prevClose)))
	}
	return tr
}

// ATR is the simple rolling mean of the true range.
func ATR(series types.Series, period int) []float64 {
	return rollingMean(TrueRange(series), period)
}

// TrendBands folds the Supertrend-style recurrence over the series.
//
// Bands start at (high+low)/2 ± multiplier*atr. Row 0 seeds an up-trend. At row i a close
// above the previous upper band flips to up, a close below the previous lower band flips to
// down, and otherwise the previous state carries over while the active band is tightened
// toward price (never widened). Rows whose atr is undefined have NaN bands and therefore
// always carry the previous state.
//
// The returned band slices hold the tightened values actually used by the next row.
func TrendBands(series types.Series, atr []float64, multiplier float64) (up []bool, upper, lower []float64) {
	n := len(series)
	up = make([]bool, n)
	upper = make([]float64, n)
	lower = make([]float64, n)
	if n == 0 {
		return up, upper, lower
	}

	for i, bar := range series {
		mid := (bar.High + bar.Low) / 2
		upper[i] = mid + multiplier*atr[i]
		lower[i] = mid - multiplier*atr[i]
	}

	upTrend := true
	prevUpper, prevLower := upper[0], lower[0]
	up[0] = upTrend

	for i := 1; i < n; i++ {
		close := series[i].Close
		switch {
		case close > prevUpper:
			upTrend = true
		case close < prevLower:
			upTrend = false
		default:
			if upTrend && lower[i] < prevLower {
				lower[i] = prevLower
			}
			if !upTrend && upper[i] > prevUpper {
				upper[i] = prevUpper
			}
		}
		up[i] = upTrend
		prevUpper, prevLower = upper[i], lower[i]
	}
	return up, upper, lower
}
