package indicators

import (
	"math"

	"github.com/ducminhle1904/sector-rotation/pkg/types"
)

// RSI maps the ratio of the rolling mean gain to the rolling mean loss of close-to-close
// changes onto 0-100. The first defined row is index period: row 0 has no change and is
// left undefined rather than counted as a zero gain and zero loss, so RSI starts one row later
// than a pandas diff-and-fill rendition would. A zero mean loss reads 100.
func RSI(closes []float64, period int) []float64 {
	n := len(closes)
	gains := nanSlice(n)
	losses := nanSlice(n)
	for i := 1; i < n; i++ {
		change := closes[i] - closes[i-1]
		gains[i], losses[i] = 0, 0
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	avgGain := rollingMean(gains, period)
	avgLoss := rollingMean(losses, period)

	out := nanSlice(n)
	for i := range out {
		if math.IsNaN(avgGain[i]) || math.IsNaN(avgLoss[i]) {
			continue
		}
		if avgLoss[i] == 0 {
			out[i] = 100
			continue
		}
		rs := avgGain[i] / avgLoss[i]
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// RelativeStrength divides the instrument/benchmark close ratio by its own rolling mean.
// Values above 1 mean the ratio sits above its recent average. Dates the benchmark lacks
// have an undefined ratio.
func RelativeStrength(series, benchmark types.Series, window int) []float64 {
	ratio := nanSlice(len(series))

	j := 0
	for i, bar := range series {
		day := types.TruncateDay(bar.Timestamp)
		for j < len(benchmark) && types.TruncateDay(benchmark[j].Timestamp).Before(day) {
			j++
		}
		if j < len(benchmark) && types.TruncateDay(benchmark[j].Timestamp).Equal(day) && benchmark[j].Close != 0 {
			ratio[i] = bar.Close / benchmark[j].Close
		}
	}

	mean := rollingMean(ratio, window)
	rs := nanSlice(len(series))
	for i := range rs {
		if math.IsNaN(mean[i]) || mean[i] == 0 {
			continue
		}
		rs[i] = ratio[i] / mean[i]
	}
	return rs
}
