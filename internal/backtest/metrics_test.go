package backtest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ducminhle1904/sector-rotation/pkg/types"
)

func equityCurve(values ...float64) []EquityPoint {
	points := make([]EquityPoint, len(values))
	for i, v := range values {
		points[i] = EquityPoint{Date: day(i), Equity: v}
	}
	return points
}

func tradesWithReturns(returns ...float64) []Trade {
	trades := make([]Trade, len(returns))
	for i, r := range returns {
		trades[i] = Trade{Ticker: "T", NetReturn: r, NetMultiplier: 1 + r, HoldingDays: 2}
	}
	return trades
}

// TestRoundTrip tests that both fee legs are charged
func TestRoundTrip(t *testing.T) {
	net := RoundTrip(100, 110, 0.002)
	assert.InDelta(t, 1.0956044, net, 1e-9)
	assert.InDelta(t, 0.0956, net-1, 1e-4, "fees cost about 0.44 percentage points")
	assert.Equal(t, 1.1, RoundTrip(100, 110, 0))
}

// TestMaxDrawdown_Monotonic tests that a rising curve has no drawdown
func TestMaxDrawdown_Monotonic(t *testing.T) {
	assert.Equal(t, 0.0, MaxDrawdown(equityCurve(100, 100, 101, 105, 120)))
	assert.Equal(t, 0.0, MaxDrawdown(nil))
}

// TestMaxDrawdown_PeakToTrough tests the deepest decline from a running peak
func TestMaxDrawdown_PeakToTrough(t *testing.T) {
	dd := MaxDrawdown(equityCurve(100, 120, 90, 110, 130, 117))
	assert.InDelta(t, -0.25, dd, 1e-12)
}

// TestSharpeRatio_SingleTrade tests that one observation is not enough
func TestSharpeRatio_SingleTrade(t *testing.T) {
	assert.Equal(t, 0.0, SharpeRatio([]float64{0.1}))
	assert.Equal(t, 0.0, SharpeRatio(nil))
}

// TestSharpeRatio_ZeroDispersion tests identical returns
func TestSharpeRatio_ZeroDispersion(t *testing.T) {
	assert.Equal(t, 0.0, SharpeRatio([]float64{0.05, 0.05, 0.05}))
}

// TestSharpeRatio_SampleStdDev tests annualization with the sample deviation
func TestSharpeRatio_SampleStdDev(t *testing.T) {
	// mean 0.02, sample stdev 0.02
	got := SharpeRatio([]float64{0.0, 0.02, 0.04})
	assert.InDelta(t, math.Sqrt(252), got, 1e-9)
	assert.Less(t, SharpeRatio([]float64{-0.01, -0.03, -0.02}), 0.0)
}

// TestSummarize_AllWinners tests the win rate of an all-positive log
func TestSummarize_AllWinners(t *testing.T) {
	s := Summarize(tradesWithReturns(0.1, 0.05, 0.2), equityCurve(100, 110, 115.5, 138.6), 100)

	assert.False(t, s.NoTrades)
	assert.Equal(t, 1.0, s.WinRate)
	assert.Equal(t, 3, s.WinningTrades)
	assert.Equal(t, 0, s.LosingTrades)
	assert.Equal(t, 0.0, s.MaxDrawdown)
	assert.InDelta(t, 0.386, s.CumulativeReturn, 1e-9)
	assert.InDelta(t, 2.0, s.AvgHoldingDays, 1e-12)
	assert.Greater(t, s.SharpeRatio, 0.0)
}

// TestSummarize_Mixed tests that a flat trade counts as a loss
func TestSummarize_Mixed(t *testing.T) {
	s := Summarize(tradesWithReturns(0.1, 0, -0.05, 0.02), equityCurve(100, 95, 104), 100)
	assert.Equal(t, 0.5, s.WinRate)
	assert.Equal(t, 2, s.LosingTrades)
	assert.InDelta(t, -0.05, s.MaxDrawdown, 1e-12)
	assert.InDelta(t, 0.04, s.CumulativeReturn, 1e-12)
}

// TestSummarize_NoTrades tests the empty log
func TestSummarize_NoTrades(t *testing.T) {
	s := Summarize(nil, equityCurve(100, 100, 100), 100)
	assert.True(t, s.NoTrades)
	assert.Equal(t, 0.0, s.WinRate)
	assert.Equal(t, 0.0, s.SharpeRatio)
	assert.Equal(t, 0.0, s.CumulativeReturn)
	assert.Equal(t, 100.0, s.FinalEquity)
}

// TestBenchmarkReturn tests buy-and-hold over the window
func TestBenchmarkReturn(t *testing.T) {
	series := types.Series{
		{Close: 100, Timestamp: day(0)},
		{Close: 120, Timestamp: day(1)},
		{Close: 90, Timestamp: day(2)},
		{Close: 150, Timestamp: day(3)},
	}
	assert.InDelta(t, -0.25, BenchmarkReturn(series, day(1), day(2)), 1e-12)
	assert.InDelta(t, 0.5, BenchmarkReturn(series, day(-5), day(10)), 1e-12)
	assert.Equal(t, 0.0, BenchmarkReturn(series, day(3), day(3)))
}
