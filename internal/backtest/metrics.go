package backtest

import (
	"math"
	"time"

	"github.com/ducminhle1904/sector-rotation/pkg/types"
)

// TradingDaysPerYear annualizes the per-trade Sharpe ratio
const TradingDaysPerYear = 252

// Summary aggregates a finished run.
type Summary struct {
	InitialCapital   float64 `json:"initial_capital"`
	FinalEquity      float64 `json:"final_equity"`
	CumulativeReturn float64 `json:"cumulative_return"`
	TotalTrades      int     `json:"total_trades"`
	WinningTrades    int     `json:"winning_trades"`
	LosingTrades     int     `json:"losing_trades"`
	WinRate          float64 `json:"win_rate"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
	AvgNetReturn     float64 `json:"avg_net_return"`
	AvgHoldingDays   float64 `json:"avg_holding_days"`
	// NoTrades is set when the log is empty; rates are then zero rather than undefined
	NoTrades bool `json:"no_trades"`
}

// Summarize computes the performance statistics of a trade log and equity trajectory.
func Summarize(trades []Trade, equity []EquityPoint, initialCapital float64) Summary {
	s := Summary{
		InitialCapital: initialCapital,
		FinalEquity:    initialCapital,
		TotalTrades:    len(trades),
		NoTrades:       len(trades) == 0,
	}
	if len(equity) > 0 {
		s.FinalEquity = equity[len(equity)-1].Equity
	}
	if initialCapital > 0 {
		s.CumulativeReturn = s.FinalEquity/initialCapital - 1
	}
	s.MaxDrawdown = MaxDrawdown(equity)
	if s.NoTrades {
		return s
	}

	returns := make([]float64, len(trades))
	holding := 0
	for i, t := range trades {
		returns[i] = t.NetReturn
		holding += t.HoldingDays
		if t.NetReturn > 0 {
			s.WinningTrades++
		} else {
			s.LosingTrades++
		}
	}
	s.WinRate = float64(s.WinningTrades) / float64(len(trades))
	s.AvgNetReturn = mean(returns)
	s.AvgHoldingDays = float64(holding) / float64(len(trades))
	s.SharpeRatio = SharpeRatio(returns)
	return s
}

// MaxDrawdown is the most negative (equity - running peak) / running peak, or 0 when equity
// never falls below a previous peak.
func MaxDrawdown(equity []EquityPoint) float64 {
	peak := math.Inf(-1)
	worst := 0.0
	for _, p := range equity {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak <= 0 {
			continue
		}
		if dd := (p.Equity - peak) / peak; dd < worst {
			worst = dd
		}
	}
	return worst
}

// SharpeRatio is mean / sample standard deviation of per-trade returns, scaled by √252.
// Fewer than two returns or zero dispersion yield 0.
func SharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	m := mean(returns)
	variance := 0.0
	for _, r := range returns {
		variance += (r - m) * (r - m)
	}
	variance /= float64(len(returns) - 1)
	stdDev := math.Sqrt(variance)
	if stdDev < 1e-12 {
		return 0
	}
	return m / stdDev * math.Sqrt(TradingDaysPerYear)
}

// BenchmarkReturn is the buy-and-hold return of series from its first close on or after
// start to its last close on or before end.
func BenchmarkReturn(series types.Series, start, end time.Time) float64 {
	window := series.Between(start, end)
	if len(window) < 2 || window[0].Close == 0 {
		return 0
	}
	return window[len(window)-1].Close/window[0].Close - 1
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
