package indicators

import (
	"math"

	"github.com/markcheno/go-talib"
)

// rollingMean is a trailing simple mean over window values. Positions without a full window
// of defined inputs are NaN. Each NaN-free run of the input is handed to talib separately, so
// a gap restarts the warm-up instead of poisoning the running sum.
func rollingMean(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window <= 0 {
		return out
	}

	start := 0
	for start < len(values) {
		for start < len(values) && math.IsNaN(values[start]) {
			start++
		}
		end := start
		for end < len(values) && !math.IsNaN(values[end]) {
			end++
		}
		if end-start >= window {
			seg := talib.Sma(values[start:end], window)
			for i := start + window - 1; i < end; i++ {
				out[i] = seg[i-start]
			}
		}
		start = end
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// Defined reports whether an indicator value is present.
func Defined(v float64) bool {
	return !math.IsNaN(v)
}
