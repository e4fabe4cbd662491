package indicators

import (
	"fmt"
	"math"
	"time"

	"github.com/ducminhle1904/sector-rotation/internal/errors"
	"github.com/ducminhle1904/sector-rotation/pkg/types"
)

// Frame is a price series with every derived indicator column aligned to it by row.
// Undefined values are NaN. Boolean columns are false wherever their inputs are undefined.
type Frame struct {
	Series types.Series
	Params Params

	ShortMA []float64
	LongMA  []float64
	ExitMA  []float64

	GoldenCross []bool
	DeadCross   []bool

	ATR       []float64
	UpperBand []float64
	LowerBand []float64
	UpTrend   []bool

	RS  []float64
	RSI []float64
}

// Row is a single-date view of a Frame.
type Row struct {
	Bar         types.OHLCV
	ShortMA     float64
	LongMA      float64
	ExitMA      float64
	GoldenCross bool
	DeadCross   bool
	ATR         float64
	UpperBand   float64
	LowerBand   float64
	UpTrend     bool
	RS          float64
	RSI         float64
}

// Compute derives the indicator frame for series. benchmark is the index the relative
// strength is measured against; only its dates that also appear in series are used.
//
// A series shorter than the long window cannot produce a single crossover and is reported
// as data-unavailable.
func Compute(series, benchmark types.Series, p Params) (*Frame, error) {
	return ComputeAtLeast(series, benchmark, p, p.LongWindow)
}

// ComputeAtLeast is Compute with an explicit minimum history. Columns whose window exceeds
// the history are simply undefined. Panics from the numeric layer are converted into
// computation errors.
func ComputeAtLeast(series, benchmark types.Series, p Params, minBars int) (f *Frame, err error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(series) < max(minBars, 1) {
		return nil, errors.DataUnavailable("indicators", "compute",
			fmt.Sprintf("need %d bars, have %d", max(minBars, 1), len(series)))
	}

	defer func() {
		if r := recover(); r != nil {
			f = nil
			err = errors.Computation("indicators", "compute", fmt.Errorf("panic: %v", r))
		}
	}()

	closes := series.Closes()
	f = &Frame{
		Series:  series,
		Params:  p,
		ShortMA: rollingMean(closes, p.ShortWindow),
		LongMA:  rollingMean(closes, p.LongWindow),
	}
	if p.LongWindow == ExitMAWindow {
		f.ExitMA = f.LongMA
	} else {
		f.ExitMA = rollingMean(closes, ExitMAWindow)
	}

	f.GoldenCross = crossAbove(f.ShortMA, f.LongMA)
	f.DeadCross = crossBelow(f.ShortMA, f.ExitMA)

	f.ATR = ATR(series, p.ATRPeriod)
	f.UpTrend, f.UpperBand, f.LowerBand = TrendBands(series, f.ATR, p.ATRMultiplier)

	f.RS = RelativeStrength(series, benchmark, p.RSWindow)
	f.RSI = RSI(closes, p.RSIPeriod)
	return f, nil
}

// crossAbove marks rows where a moves from at-or-below b to strictly above it.
func crossAbove(a, b []float64) []bool {
	out := make([]bool, len(a))
	for i := 1; i < len(a); i++ {
		if anyNaN(a[i], b[i], a[i-1], b[i-1]) {
			continue
		}
		out[i] = a[i-1] <= b[i-1] && a[i] > b[i]
	}
	return out
}

// crossBelow marks rows where a moves from at-or-above b to strictly below it.
func crossBelow(a, b []float64) []bool {
	out := make([]bool, len(a))
	for i := 1; i < len(a); i++ {
		if anyNaN(a[i], b[i], a[i-1], b[i-1]) {
			continue
		}
		out[i] = a[i-1] >= b[i-1] && a[i] < b[i]
	}
	return out
}

func anyNaN(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.Series) }

// Row returns the i-th row.
func (f *Frame) Row(i int) Row {
	return Row{
		Bar:         f.Series[i],
		ShortMA:     f.ShortMA[i],
		LongMA:      f.LongMA[i],
		ExitMA:      f.ExitMA[i],
		GoldenCross: f.GoldenCross[i],
		DeadCross:   f.DeadCross[i],
		ATR:         f.ATR[i],
		UpperBand:   f.UpperBand[i],
		LowerBand:   f.LowerBand[i],
		UpTrend:     f.UpTrend[i],
		RS:          f.RS[i],
		RSI:         f.RSI[i],
	}
}

// Latest returns the last row. The frame is never empty.
func (f *Frame) Latest() Row {
	return f.Row(f.Len() - 1)
}

// LatestDate is the date of the last row.
func (f *Frame) LatestDate() time.Time {
	return types.TruncateDay(f.Series[f.Len()-1].Timestamp)
}

// GoldenCrossWithin reports whether any of the last n rows has a golden cross.
func (f *Frame) GoldenCrossWithin(n int) bool {
	for i := max(0, f.Len()-n); i < f.Len(); i++ {
		if f.GoldenCross[i] {
			return true
		}
	}
	return false
}

// RSAgo returns the relative strength lag rows before the latest row, NaN when out of range.
func (f *Frame) RSAgo(lag int) float64 {
	i := f.Len() - 1 - lag
	if i < 0 {
		return math.NaN()
	}
	return f.RS[i]
}
